package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/babel/internal/failure"
	"github.com/rbright/babel/internal/logging"
)

// RecorderState tracks the microphone lifecycle of one Recorder.
type RecorderState string

const (
	RecorderIdle      RecorderState = "idle"
	RecorderCapturing RecorderState = "capturing"
	RecorderStopped   RecorderState = "stopped"
)

// stream is the capture surface a Recorder drives.
type stream interface {
	Stop() error
	RawPCM() []byte
	BytesCaptured() int64
}

// Options configures device preferences and debug output for a Recorder.
type Options struct {
	Input     string
	Fallback  string
	DumpAudio bool
	Logger    *zap.Logger
}

// Recorder turns one start/stop pair into a finalized WAV payload.
type Recorder struct {
	opts   Options
	logger *zap.Logger

	selectDevice func(context.Context, string, string) (Selection, error)
	open         func(context.Context, Device) (stream, error)
	now          func() time.Time

	mu      sync.Mutex
	state   RecorderState
	active  stream
	release func()
}

// NewRecorder builds a Pulse-backed recorder.
func NewRecorder(opts Options) *Recorder {
	return &Recorder{
		opts:         opts,
		logger:       logging.Named(opts.Logger, "audio"),
		selectDevice: SelectDevice,
		open: func(ctx context.Context, device Device) (stream, error) {
			return StartCapture(ctx, device)
		},
		now:   time.Now,
		state: RecorderIdle,
	}
}

// State reports the current recorder state.
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start selects the input device and begins capture.
// Selection or stream failures are permission failures and leave the recorder idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RecorderCapturing {
		return failure.InvalidState("recorder is already capturing")
	}

	selection, err := r.selectDevice(ctx, r.opts.Input, r.opts.Fallback)
	if err != nil {
		r.state = RecorderIdle
		return failure.Wrap(failure.KindPermission, fmt.Errorf("select audio device: %w", err))
	}
	if selection.Warning != "" {
		r.logger.Warn("audio device fallback", zap.String("warning", selection.Warning))
	}

	active, err := r.open(ctx, selection.Device)
	if err != nil {
		r.state = RecorderIdle
		return failure.Wrap(failure.KindPermission, fmt.Errorf("open microphone: %w", err))
	}

	var once sync.Once
	r.active = active
	r.release = func() {
		once.Do(func() {
			if err := active.Stop(); err != nil {
				r.logger.Warn("release microphone", zap.Error(err))
			}
		})
	}
	r.state = RecorderCapturing
	r.logger.Info("capture started",
		zap.String("device", selection.Device.ID),
		zap.Bool("fallback", selection.Fallback),
	)
	return nil
}

// Stop halts capture and returns the buffered audio as a mono 16-bit WAV.
// A capture that produced no samples returns an empty payload.
func (r *Recorder) Stop(_ context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderCapturing {
		return nil, failure.InvalidState("recorder is not capturing (state=%s)", r.state)
	}

	r.release()
	pcm := r.active.RawPCM()
	r.active = nil
	r.release = nil
	r.state = RecorderStopped

	r.logger.Info("capture stopped",
		zap.Int("pcm_bytes", len(pcm)),
		zap.Int64("duration_ms", PCMDuration(pcm)),
	)
	if len(pcm) == 0 {
		return nil, nil
	}

	payload := EncodeWAV(pcm, SampleRate, Channels)
	if r.opts.DumpAudio {
		r.dump(payload)
	}
	return payload, nil
}

// Release stops any active capture without producing a payload.
func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderCapturing {
		return
	}
	r.release()
	r.active = nil
	r.release = nil
	r.state = RecorderIdle
	r.logger.Info("capture released")
}

// dump writes payload under state/babel/debug for offline inspection.
func (r *Recorder) dump(payload []byte) {
	path, err := debugAudioPath(r.now())
	if err != nil {
		r.logger.Warn("resolve debug audio path", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		r.logger.Warn("create debug dir", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		r.logger.Warn("write debug audio", zap.Error(err))
		return
	}
	r.logger.Info("debug audio written", zap.String("path", path))
}

func debugAudioPath(now time.Time) (string, error) {
	stateDir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	name := fmt.Sprintf("audio-%s.wav", now.UTC().Format("20060102T150405.000Z"))
	return filepath.Join(stateDir, "babel", "debug", name), nil
}
