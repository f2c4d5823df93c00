// Package output delivers translation results (stdout, clipboard, and player).
package output

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/fsm"
	"github.com/rbright/babel/internal/logging"
	"github.com/rbright/babel/internal/view"
)

// Presigner turns object coordinates into time-limited GET URLs.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignObject(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Presenter is the view surface that hands a fresh result to the user.
type Presenter struct {
	result    config.ResultConfig
	clipboard []string
	player    []string
	presigner Presigner
	stdout    io.Writer
	logger    *zap.Logger

	runInput func(context.Context, []string, string) error
	start    func([]string) error

	mu   sync.Mutex
	last string
}

// NewPresenter builds a presenter from config. presigner may be nil when the
// store backend cannot sign URLs; stdout defaults to os.Stdout.
func NewPresenter(cfg config.Config, presigner Presigner, stdout io.Writer, logger *zap.Logger) *Presenter {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Presenter{
		result:    cfg.Result,
		clipboard: cfg.Clipboard.Argv,
		player:    cfg.Player.Argv,
		presigner: presigner,
		stdout:    stdout,
		logger:    logging.Named(logger, "output"),
		runInput:  pipeTo,
		start:     spawn,
	}
}

// Last returns the most recently delivered locator.
func (p *Presenter) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Render implements view.Surface. Only the transition that produced a result delivers it.
func (p *Presenter) Render(ctx context.Context, pres view.Presentation) {
	if pres.State != fsm.StateSucceeded || !pres.NewResult {
		return
	}
	if err := p.Deliver(ctx, pres.Result); err != nil {
		p.logger.Error("result delivery failed", zap.String("request_id", pres.RequestID), zap.Error(err))
	}
}

// Deliver resolves reference, prints it, copies it, and starts playback.
// Clipboard and player failures are logged; the printed locator stays authoritative.
func (p *Presenter) Deliver(ctx context.Context, reference string) error {
	locator, err := p.Resolve(ctx, reference)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.last = locator
	p.mu.Unlock()

	if _, err := fmt.Fprintln(p.stdout, locator); err != nil {
		return fmt.Errorf("print result: %w", err)
	}

	if len(p.clipboard) > 0 {
		clipboardCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := p.runInput(clipboardCtx, p.clipboard, locator); err != nil {
			p.logger.Warn("set clipboard failed", zap.Error(err))
		}
	}

	if len(p.player) > 0 {
		argv := append(append([]string(nil), p.player...), locator)
		if err := p.start(argv); err != nil {
			p.logger.Warn("start player failed", zap.Error(err))
		}
	}
	return nil
}

// Resolve turns a result reference into a locator the player can open.
//
// Absolute http(s) URLs pass through. s3:// URIs and bare keys are joined to
// result.base_url when set, otherwise presigned when result.presign is on.
// Anything else is returned unchanged.
func (p *Presenter) Resolve(ctx context.Context, reference string) (string, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", fmt.Errorf("result reference is empty")
	}

	bucket, key, ok := objectCoordinates(reference)
	if !ok {
		return reference, nil
	}

	if base := strings.TrimSpace(p.result.BaseURL); base != "" {
		return joinURL(base, key)
	}

	if p.result.Presign && p.presigner != nil {
		ttl := time.Duration(p.result.PresignTTLSeconds) * time.Second
		if bucket == "" {
			return p.presigner.PresignGet(ctx, key, ttl)
		}
		return p.presigner.PresignObject(ctx, bucket, key, ttl)
	}
	return reference, nil
}

// objectCoordinates extracts bucket and key from s3:// URIs and bare keys.
// bucket is empty for bare keys. ok is false for http(s) URLs and other schemes.
func objectCoordinates(reference string) (bucket string, key string, ok bool) {
	parsed, err := url.Parse(reference)
	if err != nil {
		return "", strings.TrimPrefix(reference, "/"), true
	}

	switch strings.ToLower(parsed.Scheme) {
	case "":
		return "", strings.TrimPrefix(reference, "/"), true
	case "s3":
		key = strings.TrimPrefix(parsed.Path, "/")
		if parsed.Host == "" || key == "" {
			return "", "", false
		}
		return parsed.Host, key, true
	default:
		return "", "", false
	}
}

func joinURL(base string, key string) (string, error) {
	joined, err := url.JoinPath(base, strings.Split(key, "/")...)
	if err != nil {
		return "", fmt.Errorf("join result url: %w", err)
	}
	return joined, nil
}
