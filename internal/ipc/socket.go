package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning reports that a responsive owner session holds the socket.
var ErrAlreadyRunning = errors.New("babel session already running")

const socketName = "babel.sock"

// RuntimeSocketPath returns the per-user owner socket under XDG_RUNTIME_DIR.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, socketName), nil
}

// AcquireOptions tunes how Acquire treats a socket file that is already present.
type AcquireOptions struct {
	ProbeTimeout time.Duration
	Retries      int
	// OnStale runs after a socket with no owner behind it has been unlinked.
	OnStale func(path string)
}

// Acquire makes the caller the owner session by listening on path.
//
// A socket file left by a dead owner is unlinked and the listen retried with a
// short linear backoff. A live owner yields ErrAlreadyRunning. An owner that
// does not answer in time is left alone.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}
	probe := Client{Path: path, Timeout: opts.ProbeTimeout}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		if err := reclaim(ctx, probe); err != nil {
			return nil, err
		}
		if opts.OnStale != nil {
			opts.OnStale(path)
		}

		if attempt >= opts.Retries {
			return nil, fmt.Errorf("acquire socket %s: gave up after %d retries", path, opts.Retries)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
}

// reclaim unlinks probe.Path when nobody answers on it.
func reclaim(ctx context.Context, probe Client) error {
	alive, err := probe.Alive(ctx)
	if err != nil {
		return fmt.Errorf("probe existing socket %s: %w", probe.Path, err)
	}
	if alive {
		return ErrAlreadyRunning
	}
	if err := os.Remove(probe.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", probe.Path, err)
	}
	return nil
}
