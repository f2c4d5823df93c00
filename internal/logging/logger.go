// Package logging configures babel's JSONL runtime log.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLevel overrides the minimum level written to the log file.
const EnvLevel = "BABEL_LOG_LEVEL"

// Runtime owns the log file behind Logger.
type Runtime struct {
	Logger *zap.Logger
	Path   string
	file   *os.File
}

// Close flushes pending entries and closes the file.
func (r Runtime) Close() error {
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// New opens (appending) babel/log.jsonl under the user state dir and logs to it
// at info level unless BABEL_LOG_LEVEL says otherwise.
func New() (Runtime, error) {
	level, err := levelFromEnv()
	if err != nil {
		return Runtime{}, err
	}
	path, err := resolveLogPath()
	if err != nil {
		return Runtime{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Runtime{}, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, err
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	logger := zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(f), level)).
		With(zap.Int("pid", os.Getpid()))
	return Runtime{Logger: logger, Path: path, file: f}, nil
}

// Named scopes logger to a component, substituting a no-op logger for nil.
func Named(logger *zap.Logger, component string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(component)
}

func levelFromEnv() (zapcore.Level, error) {
	raw := strings.TrimSpace(os.Getenv(EnvLevel))
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%s: %w", EnvLevel, err)
	}
	return level, nil
}

// resolveLogPath prefers XDG_STATE_HOME and falls back to ~/.local/state.
func resolveLogPath() (string, error) {
	stateDir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "babel", "log.jsonl"), nil
}
