package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// envFileVar names the dotenv file to read overrides from.
const envFileVar = "VEEAMJOB_ENV_FILE"

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "VEEAMJOB_COMMAND",
		apply: func(c *Config, v string) {
			c.Command = v
		},
	},
	{
		envVar: "VEEAMJOB_LOCALE",
		apply: func(c *Config, v string) {
			c.Locale = v
		},
	},
	{
		envVar: "VEEAMJOB_WAIT_DELAY",
		apply: func(c *Config, v string) {
			c.WaitDelay = v
		},
	},
	{
		envVar: "VEEAMJOB_POLICY",
		apply: func(c *Config, v string) {
			c.Policy = v
		},
	},
	{
		envVar: "VEEAMJOB_OUTPUT",
		apply: func(c *Config, v string) {
			c.Output = v
		},
	},
	{
		envVar: "VEEAMJOB_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
	{
		envVar: "VEEAMJOB_LOG_FORMAT",
		apply: func(c *Config, v string) {
			c.LogFormat = v
		},
	},
}

// applyEnvOverrides modifies config in place with values from lookup.
func applyEnvOverrides(cfg *Config, lookup func(string) string) {
	for _, override := range envOverrides {
		if val := lookup(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}

// envLookup returns a lookup over the process environment, falling back
// to the values in envFile. A missing envFile is not an error.
func envLookup(envFile string) (func(string) string, error) {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVals = vals
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrapf(err, "read env file %s", envFile)
		}
	}
	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileVals[key]
	}, nil
}
