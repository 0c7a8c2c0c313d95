package config

const (
	defaultConfigPath       = "~/.config/ddsforge/config.toml"
	projectConfigName       = "ddsforge.toml"
	defaultStateDir         = "~/.local/share/ddsforge"
	defaultLogDir           = "~/.local/share/ddsforge/logs"
	defaultCodecBackend     = "nvtt"
	defaultCodecQuality     = "normal"
	defaultBatchFormat      = "bc7"
	defaultHistoryEnabled   = true
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Environment fallbacks. The DDSFORGE_ names win over the legacy NVTT_ ones.
const (
	EnvCPUOnly       = "DDSFORGE_CPU_ONLY"
	EnvLegacyCPUOnly = "NVTT_CPU_ONLY"
	EnvQuality       = "DDSFORGE_QUALITY"
	EnvLegacyQuality = "NVTT_QUALITY"
)

// QualityNames lists the accepted codec.quality values, fastest first.
var QualityNames = []string{"fastest", "normal", "production", "highest"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Codec: Codec{
			Backend: defaultCodecBackend,
		},
		Batch: Batch{
			DefaultFormat: defaultBatchFormat,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
