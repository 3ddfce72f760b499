package config

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.Command == "" {
		errs = append(errs, &ValidationError{
			Field:   "command",
			Value:   cfg.Command,
			Message: "must not be empty",
		})
	}

	if cfg.Locale == "" {
		errs = append(errs, &ValidationError{
			Field:   "locale",
			Value:   cfg.Locale,
			Message: "must not be empty",
		})
	}

	// WaitDelay must be a valid, positive Go duration string
	if d, err := time.ParseDuration(cfg.WaitDelay); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "wait_delay",
			Value:   cfg.WaitDelay,
			Message: fmt.Sprintf("invalid duration: %v", err),
		})
	} else if d <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "wait_delay",
			Value:   cfg.WaitDelay,
			Message: "must be positive",
		})
	}

	checks := []struct {
		field string
		value string
		valid []string
	}{
		{"policy", cfg.Policy, []string{"first-divergence", "converge"}},
		{"output", cfg.Output, []string{"auto", "json", "yaml", "text"}},
		{"log_level", cfg.LogLevel, []string{"debug", "info", "warn", "error"}},
		{"log_format", cfg.LogFormat, []string{"console", "json"}},
	}
	for _, c := range checks {
		if !contains(c.valid, c.value) {
			errs = append(errs, &ValidationError{
				Field:   c.field,
				Value:   c.value,
				Message: fmt.Sprintf("must be one of: %v", c.valid),
			})
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
