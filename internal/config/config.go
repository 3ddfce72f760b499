package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for veeamjob.
// It is immutable after creation via LoadConfig().
type Config struct {
	// Command is the path or name of the veeamconfig binary
	Command string `yaml:"command"`

	// Locale is pinned into LANG, LC_ALL and LC_MESSAGES of every
	// veeamconfig call so report labels stay in English
	Locale string `yaml:"locale"`

	// WaitDelay bounds how long output is drained after veeamconfig exits
	WaitDelay string `yaml:"wait_delay"`

	// Policy selects how many differing attribute groups are corrected
	// per run: "first-divergence" (default) or "converge"
	Policy string `yaml:"policy"`

	// Output is the result format: auto, json, yaml or text
	Output string `yaml:"output"`

	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json"
	LogFormat string `yaml:"log_format"`

	// EnvFile is an optional dotenv file consulted for VEEAMJOB_*
	// overrides. The process environment wins over it.
	EnvFile string `yaml:"env_file,omitempty"`
}

// WaitDelayDuration parses the wait delay as a Duration.
func (c *Config) WaitDelayDuration() (time.Duration, error) {
	return time.ParseDuration(c.WaitDelay)
}

// LoadConfig loads configuration. It applies defaults, then the
// system-wide file, then the local file, then environment overrides, and
// validates the result.
//
// Parameters:
//   - path: config file to read; "" means DefaultConfigFile in the working
//     directory, which may be absent. An explicit path must exist.
//
// Returns the validated Config or an error if validation fails.
func LoadConfig(path string) (*Config, error) {
	return loadConfig(SystemConfigPath, path)
}

func loadConfig(systemPath, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, systemPath, false); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(".", DefaultConfigFile)
	}
	if err := mergeFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	envFile := cfg.EnvFile
	if v := os.Getenv(envFileVar); v != "" {
		envFile = v
	}
	lookup, err := envLookup(envFile)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg, lookup)

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}

	return cfg, nil
}

// mergeFile unmarshals path over cfg. A missing file is an error only
// when required.
func mergeFile(cfg *Config, path string, required bool) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}
