package config

import "testing"

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Source: "a", Destination: "b"}
	cfg.ApplyDefaults()

	if cfg.BatchSize != 10000 {
		t.Errorf("BatchSize = %d, want 10000", cfg.BatchSize)
	}
	if cfg.Readers != 1 || cfg.Writers != 1 {
		t.Errorf("Readers/Writers = %d/%d, want 1/1", cfg.Readers, cfg.Writers)
	}
	if cfg.Refresh != 1.0 {
		t.Errorf("Refresh = %v, want 1.0", cfg.Refresh)
	}
	if cfg.Checkers != 0 {
		t.Errorf("Checkers = %d, want 0 (disabled by default)", cfg.Checkers)
	}
}

func TestValidateRequiresSourceAndDestination(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing source/destination")
	}
}

func TestValidateRejectsNegativeCount(t *testing.T) {
	cfg := &Config{Source: "a", Destination: "b"}
	cfg.ApplyDefaults()
	negative := -1
	cfg.Count = &negative
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for negative count")
	}
}

func TestRefreshIntervalConvertsSecondsToDuration(t *testing.T) {
	cfg := &Config{Refresh: 2.5}
	if got := cfg.RefreshInterval().Seconds(); got != 2.5 {
		t.Errorf("RefreshInterval().Seconds() = %v, want 2.5", got)
	}
}
