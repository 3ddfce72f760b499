package config

import "testing"

func TestDefaultConfig_Command(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Command != "veeamconfig" {
		t.Errorf("expected Command to be 'veeamconfig', got %q", cfg.Command)
	}
}

func TestDefaultConfig_Locale(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Locale != "C" {
		t.Errorf("expected Locale to be 'C', got %q", cfg.Locale)
	}
}

func TestDefaultConfig_Policy(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Policy != "first-divergence" {
		t.Errorf("expected Policy to be 'first-divergence', got %q", cfg.Policy)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := validateConfig(DefaultConfig()); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}
