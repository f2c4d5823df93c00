// Package store writes recorded artifacts to S3-compatible object storage.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/failure"
)

// ContentTypeWAV is attached to every uploaded recording.
const ContentTypeWAV = "audio/wav"

// ArtifactStore is the write-only blob store the lifecycle uploads to.
type ArtifactStore interface {
	Put(ctx context.Context, key string, payload []byte) error
}

// Checker probes store reachability for doctor.
type Checker interface {
	Check(ctx context.Context) error
}

// InputKey derives the object key for a request identifier.
func InputKey(id string, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "wav"
	}
	return "input/" + id + "." + ext
}

// New builds the configured backend.
func New(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (ArtifactStore, error) {
	switch cfg.Backend {
	case "", config.BackendS3:
		return NewS3(ctx, cfg, logger)
	case config.BackendMinIO:
		return NewMinIO(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

func timeout(ms int) time.Duration {
	if ms <= 0 {
		return 15 * time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

// storeErr tags err as a store failure for key.
func storeErr(bucket string, key string, err error) error {
	return failure.Wrap(failure.KindStore, fmt.Errorf("put s3://%s/%s: %w", bucket, key, err))
}
