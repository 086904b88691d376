package cli

import (
	"flag"
	"testing"

	"github.com/EDITD/redis-data-transfer/internal/config"
)

func TestMergeDefaultsOnlyFillsUnsetFields(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var batch int
	fs.IntVar(&batch, "batch", 500, "")
	_ = fs.Parse([]string{"--batch", "500"})

	cfg := &config.Config{BatchSize: 500, Readers: 0}
	file := &config.Config{BatchSize: 777, Readers: 4}

	mergeDefaults(cfg, file, explicitFlags(fs))

	if cfg.BatchSize != 500 {
		t.Errorf("BatchSize = %d, want 500 (explicit flag must win)", cfg.BatchSize)
	}
	if cfg.Readers != 4 {
		t.Errorf("Readers = %d, want 4 (file default should fill unset field)", cfg.Readers)
	}
}

func TestExplicitFlagsTracksOnlyPassedFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var checkers int
	fs.IntVar(&checkers, "checkers", 0, "")
	var readers int
	fs.IntVar(&readers, "readers", 1, "")
	_ = fs.Parse([]string{"--checkers", "2"})

	got := explicitFlags(fs)
	if !got["checkers"] {
		t.Error("checkers should be marked explicit")
	}
	if got["readers"] {
		t.Error("readers should not be marked explicit")
	}
}
