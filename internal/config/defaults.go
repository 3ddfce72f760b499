package config

const (
	DefaultConfigFile = ".veeamjob.yaml"
	SystemConfigPath  = "/etc/veeamjob/config.yaml"

	DefaultCommand   = "veeamconfig"
	DefaultLocale    = "C"
	DefaultWaitDelay = "5s"
	DefaultPolicy    = "first-divergence"
	DefaultOutput    = "auto"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "console"
)

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		Command:   DefaultCommand,
		Locale:    DefaultLocale,
		WaitDelay: DefaultWaitDelay,
		Policy:    DefaultPolicy,
		Output:    DefaultOutput,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}
