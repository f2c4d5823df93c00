package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rbright/babel/internal/language"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if _, err := language.ParsePair(cfg.Languages.Source, cfg.Languages.Target); err != nil {
		return nil, fmt.Errorf("languages.%w", err)
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if backend != BackendS3 && backend != BackendMinIO {
		return nil, fmt.Errorf("store.backend must be one of: s3, minio")
	}
	if backend == BackendMinIO && strings.TrimSpace(cfg.Store.Endpoint) == "" {
		return nil, fmt.Errorf("store.endpoint must not be empty when store.backend=minio")
	}
	if (cfg.Store.AccessKeyID == "") != (cfg.Store.SecretAccessKey == "") {
		return nil, fmt.Errorf("store.access_key_id and store.secret_access_key must be set together")
	}
	if cfg.Store.TimeoutMS <= 0 {
		return nil, fmt.Errorf("store.timeout_ms must be > 0")
	}
	if cfg.Processor.TimeoutMS <= 0 {
		return nil, fmt.Errorf("processor.timeout_ms must be > 0")
	}

	if base := strings.TrimSpace(cfg.Result.BaseURL); base != "" {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("result.base_url must be an absolute URL")
		}
	}
	if cfg.Result.Presign && cfg.Result.PresignTTLSeconds <= 0 {
		return nil, fmt.Errorf("result.presign_ttl_s must be > 0 when result.presign=true")
	}
	if cfg.Result.Presign && backend == BackendMinIO {
		warnings = append(warnings, Warning{Message: "result.presign is only supported with store.backend=s3; ignoring"})
	}

	indicatorBackend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if indicatorBackend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if indicatorBackend != "hypr" && indicatorBackend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if indicatorBackend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if len(cfg.Clipboard.Argv) == 0 && strings.TrimSpace(cfg.Clipboard.Raw) != "" {
		return nil, fmt.Errorf("clipboard_cmd is configured but empty")
	}
	if len(cfg.Player.Argv) == 0 && strings.TrimSpace(cfg.Player.Raw) != "" {
		return nil, fmt.Errorf("player_cmd is configured but empty")
	}

	return warnings, nil
}

// RequireRemote checks the fields needed to run a translation request.
func RequireRemote(cfg Config) error {
	if strings.TrimSpace(cfg.Store.Bucket) == "" {
		return fmt.Errorf("store.bucket must be set (or %s)", EnvBucket)
	}
	if strings.TrimSpace(cfg.Processor.Function) == "" {
		return fmt.Errorf("processor.function must be set (or %s)", EnvFunction)
	}
	return nil
}

// ProcessorRegion falls back to the store region when unset.
func (c Config) ProcessorRegion() string {
	if region := strings.TrimSpace(c.Processor.Region); region != "" {
		return region
	}
	return strings.TrimSpace(c.Store.Region)
}
