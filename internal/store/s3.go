package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/rbright/babel/internal/cloud"
	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/logging"
)

// S3 writes artifacts with the AWS SDK.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewS3 builds an S3 store from cfg, honoring custom endpoints and path-style addressing.
func NewS3(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*S3, error) {
	awsCfg, err := cloud.Load(ctx, cloud.Options{
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	logger = logging.Named(logger, "store").With(zap.String("backend", config.BackendS3), zap.String("bucket", cfg.Bucket))
	if endpoint != "" {
		logger.Info("using custom storage endpoint", zap.String("endpoint", endpoint))
	}

	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		timeout: timeout(cfg.TimeoutMS),
		logger:  logger,
	}, nil
}

// Bucket returns the destination bucket name.
func (s *S3) Bucket() string {
	return s.bucket
}

// Put uploads payload under key. Failures are store errors and are not retried.
func (s *S3) Put(ctx context.Context, key string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String(ContentTypeWAV),
	})
	if err != nil {
		s.logger.Error("put object failed", zap.String("key", key), zap.String("code", cloud.ErrorCode(err)), zap.Error(err))
		return storeErr(s.bucket, key, err)
	}

	s.logger.Info("put object",
		zap.String("key", key),
		zap.Int("bytes", len(payload)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// PresignGet returns a time-limited GET URL for key in the store bucket.
func (s *S3) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.PresignObject(ctx, s.bucket, key, ttl)
}

// PresignObject returns a time-limited GET URL for an object in any bucket the credentials can read.
func (s *S3) PresignObject(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// Check confirms the bucket exists and is reachable with the resolved credentials.
func (s *S3) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("head bucket %q: %w", s.bucket, err)
	}
	return nil
}
