// Package config resolves, parses, validates, and defaults babel configuration.
package config

// Config is the fully materialized runtime configuration used by babel.
type Config struct {
	Audio     AudioConfig
	Languages LanguageConfig
	Store     StoreConfig
	Processor ProcessorConfig
	Result    ResultConfig
	Indicator IndicatorConfig
	Clipboard CommandConfig
	Player    CommandConfig
	Debug     DebugConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// LanguageConfig is the initial source/target selection.
type LanguageConfig struct {
	Source string
	Target string
}

// StoreConfig locates the artifact bucket that receives recordings.
type StoreConfig struct {
	Backend         string
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	TimeoutMS       int
}

// ProcessorConfig locates the remote translation function.
type ProcessorConfig struct {
	Function  string
	Region    string
	Endpoint  string
	TimeoutMS int
}

// ResultConfig controls how returned result locators become playable URLs.
type ResultConfig struct {
	BaseURL           string
	Presign           bool
	PresignTTLSeconds int
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
