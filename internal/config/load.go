package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Environment overrides applied after the file is parsed.
const (
	EnvBucket     = "BABEL_BUCKET"
	EnvRegion     = "BABEL_REGION"
	EnvFunction   = "BABEL_FUNCTION"
	EnvS3Endpoint = "BABEL_S3_ENDPOINT"
)

const configFile = "config.jsonc"

// ResolvePath returns explicit when set, otherwise babel/config.jsonc under
// the user config dir ($XDG_CONFIG_HOME, falling back to ~/.config).
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "babel", configFile), nil
}

// Parse layers JSONC content over base. Blank content validates base as is.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) != "" {
		return parseJSONC(content, base)
	}
	warnings, err := Validate(base)
	if err != nil {
		return Config{}, nil, err
	}
	return base, warnings, nil
}

// Load resolves, reads, parses, and validates the runtime configuration.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	envWarnings := loadDotEnv(".env", filepath.Join(filepath.Dir(resolvedPath), ".env"))

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := base
			ApplyEnv(&cfg, os.LookupEnv)
			warnings := append([]Warning{{
				Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
			}}, envWarnings...)
			return Loaded{
				Path:     resolvedPath,
				Config:   cfg,
				Warnings: warnings,
				Exists:   false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}
	ApplyEnv(&cfg, os.LookupEnv)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: append(warnings, envWarnings...),
		Exists:   true,
	}, nil
}

// ApplyEnv overlays non-empty BABEL_* variables onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if v, ok := get(EnvBucket); ok {
		cfg.Store.Bucket = v
	}
	if v, ok := get(EnvRegion); ok {
		cfg.Store.Region = v
	}
	if v, ok := get(EnvFunction); ok {
		cfg.Processor.Function = v
	}
	if v, ok := get(EnvS3Endpoint); ok {
		cfg.Store.Endpoint = v
	}
}

// loadDotEnv loads each existing .env file without overriding the process environment.
func loadDotEnv(paths ...string) []Warning {
	var warnings []Warning
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}

		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("ignoring env file %q: %v", abs, err)})
		}
	}
	return warnings
}
