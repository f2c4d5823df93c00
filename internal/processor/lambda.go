package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.uber.org/zap"

	"github.com/rbright/babel/internal/cloud"
	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/failure"
	"github.com/rbright/babel/internal/logging"
)

// Lambda invokes an AWS Lambda function with RequestResponse semantics.
type Lambda struct {
	client   *lambda.Client
	function string
	bucket   string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewLambda builds the processor for cfg. Credentials follow the store's static keys when set.
func NewLambda(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Lambda, error) {
	awsCfg, err := cloud.Load(ctx, cloud.Options{
		Region:          cfg.ProcessorRegion(),
		AccessKeyID:     cfg.Store.AccessKeyID,
		SecretAccessKey: cfg.Store.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(cfg.Processor.Endpoint)
	client := lambda.NewFromConfig(awsCfg, func(o *lambda.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	timeout := time.Duration(cfg.Processor.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Lambda{
		client:   client,
		function: cfg.Processor.Function,
		bucket:   cfg.Store.Bucket,
		timeout:  timeout,
		logger:   logging.Named(logger, "processor").With(zap.String("function", cfg.Processor.Function)),
	}, nil
}

// Invoke sends the artifact coordinates and languages, returning the normalized result locator.
func (l *Lambda) Invoke(ctx context.Context, params Params) (Reference, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	payload, err := json.Marshal(request{
		Bucket:         l.bucket,
		Key:            params.StoreKey,
		SourceLanguage: string(params.SourceLanguage),
		TargetLanguage: string(params.TargetLanguage),
	})
	if err != nil {
		return "", failure.Wrap(failure.KindInvocation, fmt.Errorf("encode payload: %w", err))
	}

	started := time.Now()
	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(l.function),
		InvocationType: types.InvocationTypeRequestResponse,
		LogType:        types.LogTypeNone,
		Payload:        payload,
	})
	if err != nil {
		l.logger.Error("invoke failed", zap.String("key", params.StoreKey), zap.String("code", cloud.ErrorCode(err)), zap.Error(err))
		return "", failure.Wrap(failure.KindInvocation, fmt.Errorf("invoke %s: %w", l.function, err))
	}

	if fnErr := aws.ToString(out.FunctionError); fnErr != "" {
		detail := functionErrorDetail(out.Payload)
		l.logger.Error("function error",
			zap.String("key", params.StoreKey),
			zap.String("function_error", fnErr),
			zap.String("detail", detail),
		)
		return "", failure.Wrap(failure.KindInvocation, fmt.Errorf("%s: %s", fnErr, detail))
	}

	ref := NormalizeReference(string(out.Payload))
	if ref == "" {
		return "", failure.Wrap(failure.KindInvocation, errors.New("function returned an empty result"))
	}

	l.logger.Info("invoke succeeded",
		zap.String("key", params.StoreKey),
		zap.Int32("status", out.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)
	return ref, nil
}

// Check confirms the function exists and is visible to the resolved credentials.
func (l *Lambda) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if _, err := l.client.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(l.function)}); err != nil {
		return fmt.Errorf("get function %q: %w", l.function, err)
	}
	return nil
}

// functionErrorDetail extracts errorMessage from a Lambda error payload.
func functionErrorDetail(payload []byte) string {
	var body struct {
		ErrorMessage string `json:"errorMessage"`
		ErrorType    string `json:"errorType"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.ErrorMessage != "" {
		if body.ErrorType != "" {
			return body.ErrorType + ": " + body.ErrorMessage
		}
		return body.ErrorMessage
	}
	detail := strings.TrimSpace(string(payload))
	if detail == "" {
		return "no detail"
	}
	return detail
}
