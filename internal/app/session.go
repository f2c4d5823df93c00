package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/babel/internal/audio"
	"github.com/rbright/babel/internal/cli"
	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/identifier"
	"github.com/rbright/babel/internal/indicator"
	"github.com/rbright/babel/internal/ipc"
	"github.com/rbright/babel/internal/language"
	"github.com/rbright/babel/internal/lifecycle"
	"github.com/rbright/babel/internal/output"
	"github.com/rbright/babel/internal/processor"
	"github.com/rbright/babel/internal/store"
	"github.com/rbright/babel/internal/view"
)

// commandToggle forwards to a running owner, or becomes the owner: it holds
// the socket, records until stop, cancel, or a second toggle arrives, and
// exits once the request settles.
func (r Runner) commandToggle(ctx context.Context, cfg config.Config, pair language.Pair, parsed cli.Parsed, logger *zap.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	toggle := ipc.Request{Command: "toggle", Source: parsed.Source, Target: parsed.Target}
	resp, handled, err := tryForward(ctx, socketPath, toggle)
	if handled {
		return r.printForwarded(resp, err)
	}

	if err := config.RequireRemote(cfg); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: 180 * time.Millisecond,
		Retries:      8,
		OnStale: func(path string) {
			logger.Warn("removed stale session socket", zap.String("socket", path))
		},
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, toggle)
			return r.printForwarded(resp, forwardErr)
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	session, err := r.newSession(ctx, cfg, pair, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("session setup failed", zap.Error(err))
		return 1
	}

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, session.controller, logger)
	}()

	result := session.controller.Run(ctx)
	serverCancel()
	session.notifier.Wait()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, result, session.notifier.FocusedMonitor())

	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	return 0
}

type session struct {
	controller *lifecycle.Controller
	notifier   *indicator.Notifier
}

// newSession wires the recorder, store, processor, and surfaces into one controller.
func (r Runner) newSession(ctx context.Context, cfg config.Config, pair language.Pair, logger *zap.Logger) (session, error) {
	artifacts, err := store.New(ctx, cfg.Store, logger)
	if err != nil {
		return session{}, fmt.Errorf("setup store: %w", err)
	}
	fn, err := processor.NewLambda(ctx, cfg, logger)
	if err != nil {
		return session{}, fmt.Errorf("setup processor: %w", err)
	}

	var presigner output.Presigner
	if signer, ok := artifacts.(output.Presigner); ok {
		presigner = signer
	}

	notifier := indicator.NewNotifier(cfg.Indicator, logger)
	presenter := output.NewPresenter(cfg, presigner, r.Stdout, logger)

	controller, err := lifecycle.NewController(lifecycle.Deps{
		Recorder: audio.NewRecorder(audio.Options{
			Input:     cfg.Audio.Input,
			Fallback:  cfg.Audio.Fallback,
			DumpAudio: cfg.Debug.EnableAudioDump,
			Logger:    logger,
		}),
		Store:     artifacts,
		Processor: fn,
		IDs:       identifier.UUID{},
		Observer:  view.Adapter{Surface: view.Surfaces{notifier, presenter}},
		Logger:    logger,
		Languages: pair,
	})
	if err != nil {
		return session{}, err
	}
	return session{controller: controller, notifier: notifier}, nil
}

// logSessionResult records one settled request along with the monitor that was
// focused when recording began.
func logSessionResult(logger *zap.Logger, result lifecycle.Result, focusedMonitor string) {
	if logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("state", string(result.State)),
		zap.Bool("cancelled", result.Cancelled),
		zap.String("request_id", result.RequestID),
		zap.String("store_key", result.StoreKey),
		zap.String("languages", result.Languages.String()),
		zap.Int("payload_bytes", result.PayloadBytes),
		zap.String("reference", string(result.Reference)),
		zap.Time("started_at", result.StartedAt),
		zap.Time("finished_at", result.FinishedAt),
		zap.Int64("duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds()),
		zap.String("focused_monitor", focusedMonitor),
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, zap.Error(result.Err))...)
		return
	}
	logger.Info("session complete", fields...)
}
