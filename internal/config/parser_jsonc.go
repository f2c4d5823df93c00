package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Audio     *jsoncAudio     `json:"audio"`
	Languages *jsoncLanguages `json:"languages"`
	Store     *jsoncStore     `json:"store"`
	Processor *jsoncProcessor `json:"processor"`
	Result    *jsoncResult    `json:"result"`
	Indicator *jsoncIndicator `json:"indicator"`

	ClipboardCmd *string     `json:"clipboard_cmd"`
	PlayerCmd    *string     `json:"player_cmd"`
	Debug        *jsoncDebug `json:"debug"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncLanguages struct {
	Source *string `json:"source"`
	Target *string `json:"target"`
}

type jsoncStore struct {
	Backend         *string `json:"backend"`
	Bucket          *string `json:"bucket"`
	Region          *string `json:"region"`
	Endpoint        *string `json:"endpoint"`
	PathStyle       *bool   `json:"path_style"`
	AccessKeyID     *string `json:"access_key_id"`
	SecretAccessKey *string `json:"secret_access_key"`
	TimeoutMS       *int    `json:"timeout_ms"`
}

type jsoncProcessor struct {
	Function  *string `json:"function"`
	Region    *string `json:"region"`
	Endpoint  *string `json:"endpoint"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncResult struct {
	BaseURL           *string `json:"base_url"`
	Presign           *bool   `json:"presign"`
	PresignTTLSeconds *int    `json:"presign_ttl_s"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if l := payload.Languages; l != nil {
		setString(&cfg.Languages.Source, l.Source)
		setString(&cfg.Languages.Target, l.Target)
	}

	if s := payload.Store; s != nil {
		setString(&cfg.Store.Backend, s.Backend)
		setString(&cfg.Store.Bucket, s.Bucket)
		setString(&cfg.Store.Region, s.Region)
		setString(&cfg.Store.Endpoint, s.Endpoint)
		setBool(&cfg.Store.PathStyle, s.PathStyle)
		setString(&cfg.Store.AccessKeyID, s.AccessKeyID)
		setString(&cfg.Store.SecretAccessKey, s.SecretAccessKey)
		setInt(&cfg.Store.TimeoutMS, s.TimeoutMS)
		if s.SecretAccessKey != nil && *s.SecretAccessKey != "" {
			warnings = append(warnings, Warning{Message: "store.secret_access_key is stored in plain text; prefer the AWS credential chain"})
		}
	}

	if p := payload.Processor; p != nil {
		setString(&cfg.Processor.Function, p.Function)
		setString(&cfg.Processor.Region, p.Region)
		setString(&cfg.Processor.Endpoint, p.Endpoint)
		setInt(&cfg.Processor.TimeoutMS, p.TimeoutMS)
	}

	if r := payload.Result; r != nil {
		setString(&cfg.Result.BaseURL, r.BaseURL)
		setBool(&cfg.Result.Presign, r.Presign)
		setInt(&cfg.Result.PresignTTLSeconds, r.PresignTTLSeconds)
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if payload.ClipboardCmd != nil {
		cmd, err := ParseCommand(*payload.ClipboardCmd)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = cmd
	}

	if payload.PlayerCmd != nil {
		cmd, err := ParseCommand(*payload.PlayerCmd)
		if err != nil {
			return nil, fmt.Errorf("invalid player_cmd: %w", err)
		}
		cfg.Player = cmd
	}

	if payload.Debug != nil {
		setBool(&cfg.Debug.EnableAudioDump, payload.Debug.AudioDump)
	}

	return warnings, nil
}
