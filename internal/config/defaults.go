package config

const (
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"
	player := "mpv --no-video --really-quiet"

	return Config{
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Languages: LanguageConfig{Source: "en", Target: "nl"},
		Store: StoreConfig{
			Backend:   BackendS3,
			Region:    "eu-west-1",
			TimeoutMS: 15000,
		},
		Processor: ProcessorConfig{
			TimeoutMS: 60000,
		},
		Result: ResultConfig{
			Presign:           true,
			PresignTTLSeconds: 900,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "babel",
			SoundEnable:    true,
			ErrorTimeoutMS: 2400,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Player:    CommandConfig{Raw: player, Argv: mustParseArgv(player)},
		Debug:     DebugConfig{},
	}
}
