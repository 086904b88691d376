package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters of a single transfer run. Every field mirrors
// a CLI flag; a YAML file loaded via Load supplies defaults that flags then
// override.
type Config struct {
	Source      string  `yaml:"source"`
	Destination string  `yaml:"destination"`
	Count       *int    `yaml:"count"`
	BatchSize   int     `yaml:"batch"`
	Checkers    int     `yaml:"checkers"`
	Readers     int     `yaml:"readers"`
	Writers     int     `yaml:"writers"`
	TrackItems  bool    `yaml:"trackItems"`
	Refresh     float64 `yaml:"refreshInterval"`
	MaxOpsPerSec int    `yaml:"maxOpsPerSec"`
	LogDir      string  `yaml:"logDir"`
	LogLevel    string  `yaml:"logLevel"`

	path string
}

// ValidationError collects configuration issues found by Validate.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	for _, err := range e.Errors {
		b.WriteString("\n - ")
		b.WriteString(err)
	}
	return b.String()
}

// Load reads a YAML defaults file. It is valid for path to name a file that
// only sets a handful of fields; ApplyDefaults/Validate run against the
// result of merging it with flags, not against this partial struct alone.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.path = path
	return &cfg, nil
}

// ApplyDefaults fills in the same defaults as the Python original's argparse
// setup (spec.md section 6).
func (c *Config) ApplyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 10000
	}
	if c.Readers <= 0 {
		c.Readers = 1
	}
	if c.Writers <= 0 {
		c.Writers = 1
	}
	if c.Refresh <= 0 {
		c.Refresh = 1.0
	}
	if c.LogDir == "" {
		c.LogDir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	// Checkers defaults to 0 (disabled); a negative value is nonsensical but
	// left for Validate to reject rather than silently clamped.
}

// Validate ensures the config is usable before any worker is spawned.
func (c *Config) Validate() error {
	var errs []string

	if c.Source == "" {
		errs = append(errs, "source is required")
	}
	if c.Destination == "" {
		errs = append(errs, "destination is required")
	}
	if c.BatchSize <= 0 {
		errs = append(errs, "batch must be > 0")
	}
	if c.Checkers < 0 {
		errs = append(errs, "checkers must be >= 0")
	}
	if c.Readers <= 0 {
		errs = append(errs, "readers must be > 0")
	}
	if c.Writers <= 0 {
		errs = append(errs, "writers must be > 0")
	}
	if c.Refresh <= 0 {
		errs = append(errs, "refresh-interval must be > 0")
	}
	if c.MaxOpsPerSec < 0 {
		errs = append(errs, "max-ops-per-sec must be >= 0")
	}
	if c.Count != nil && *c.Count < 0 {
		errs = append(errs, "count must be >= 0")
	}

	if len(errs) > 0 {
		return &ValidationError{Path: c.path, Errors: errs}
	}
	return nil
}

// RefreshInterval returns Refresh as a time.Duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh * float64(time.Second))
}

// Summary returns a concise, single-line overview for the startup log line.
func (c *Config) Summary() string {
	countStr := "all"
	if c.Count != nil {
		countStr = fmt.Sprintf("%d", *c.Count)
	}
	return fmt.Sprintf(
		"source=%s destination=%s count=%s batch=%d checkers=%d readers=%d writers=%d trackItems=%t refresh=%.1fs maxOpsPerSec=%d",
		c.Source, c.Destination, countStr, c.BatchSize,
		c.Checkers, c.Readers, c.Writers, c.TrackItems, c.Refresh, c.MaxOpsPerSec,
	)
}
