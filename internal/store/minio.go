package store

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/logging"
)

// MinIO writes artifacts to an S3-compatible endpoint through minio-go.
type MinIO struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewMinIO builds a MinIO store. cfg.Endpoint must be an absolute http(s) URL.
func NewMinIO(cfg config.StoreConfig, logger *zap.Logger) (*MinIO, error) {
	host, secure, err := splitEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:     secure,
		Region:     cfg.Region,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	return &MinIO{
		client:  client,
		bucket:  cfg.Bucket,
		timeout: timeout(cfg.TimeoutMS),
		logger: logging.Named(logger, "store").With(
			zap.String("backend", config.BackendMinIO),
			zap.String("bucket", cfg.Bucket),
			zap.String("endpoint", host),
		),
		now: time.Now,
	}, nil
}

// Bucket returns the destination bucket name.
func (m *MinIO) Bucket() string {
	return m.bucket
}

// Put uploads payload under key as a single PUT.
func (m *MinIO) Put(ctx context.Context, key string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType:  ContentTypeWAV,
		UserMetadata: map[string]string{"uploaded-at": m.now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		m.logger.Error("put object failed", zap.String("key", key), zap.Error(err))
		return storeErr(m.bucket, key, err)
	}

	m.logger.Info("put object", zap.String("key", key), zap.Int64("bytes", info.Size), zap.String("etag", info.ETag))
	return nil
}

// Check confirms the bucket exists.
func (m *MinIO) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", m.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", m.bucket)
	}
	return nil
}

// splitEndpoint turns "http://host:port" into minio's host + secure pair.
func splitEndpoint(raw string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("minio backend requires store.endpoint")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse store.endpoint: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		return parsed.Host, false, nil
	case "https":
		return parsed.Host, true, nil
	default:
		return "", false, fmt.Errorf("store.endpoint %q must use http or https", raw)
	}
}
