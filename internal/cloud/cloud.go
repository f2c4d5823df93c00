// Package cloud loads the shared AWS SDK configuration for store and processor clients.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go"
)

// Options selects region and credentials for one AWS service client.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// StaticCredentials reports whether explicit keys replace the default chain.
func (o Options) StaticCredentials() bool {
	return strings.TrimSpace(o.AccessKeyID) != "" && strings.TrimSpace(o.SecretAccessKey) != ""
}

// Load resolves an aws.Config with SDK retries disabled.
// Without static keys, credentials come from the default chain (env, shared config, SSO).
func Load(ctx context.Context, opts Options) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(1),
	}
	if region := strings.TrimSpace(opts.Region); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if opts.StaticCredentials() {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws configuration: %w", err)
	}
	return cfg, nil
}

// CheckCredentials resolves credentials once so doctor can report missing setup.
func CheckCredentials(ctx context.Context, cfg aws.Config) (aws.Credentials, error) {
	if cfg.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("no aws credentials provider configured")
	}
	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("retrieve aws credentials: %w", err)
	}
	return creds, nil
}

// ErrorCode returns the service error code carried by err, or "" for non-API errors.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
