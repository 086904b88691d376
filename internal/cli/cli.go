// Package cli implements the redis-data-transfer command line, in the style
// of the teacher's flag.NewFlagSet-based subcommand dispatcher
// (this tool has only one job, so there is a single flag set rather than a
// subcommand switch), plus its signal-handling and logger-init idioms.
package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/EDITD/redis-data-transfer/internal/config"
	"github.com/EDITD/redis-data-transfer/internal/coordinator"
	"github.com/EDITD/redis-data-transfer/internal/logger"
)

// Execute parses args and runs a transfer. It returns a process exit code:
// 0 on success, 2 on argument/config errors, 1 on a fatal run error.
func Execute(args []string) int {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("[redis-data-transfer] ")

	fs := flag.NewFlagSet("redis-data-transfer", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	fs.Usage = func() { printUsage(fs) }

	var (
		configPath   string
		countFlag    int
		countSet     bool
		batch        int
		checkers     int
		readers      int
		writers      int
		trackItems   bool
		noTrackItems bool
		refresh      float64
		maxOpsPerSec int
		logDir       string
		logLevel     string
	)

	fs.StringVar(&configPath, "config", "", "YAML file supplying defaults for any flag below")
	fs.IntVar(&batch, "batch", 0, "keys per batch (default 10000)")
	fs.IntVar(&checkers, "checkers", 0, "checker workers; 0 disables pre-filtering against the destination")
	fs.IntVar(&readers, "readers", 0, "reader workers (default 1)")
	fs.IntVar(&writers, "writers", 0, "writer workers (default 1)")
	fs.BoolVar(&trackItems, "track-items", false, "count per-item metrics (costs a channel send per key)")
	fs.BoolVar(&noTrackItems, "no-track-items", false, "explicitly disable per-item metrics")
	fs.Float64Var(&refresh, "refresh-interval", 0, "display refresh interval in seconds (default 1.0)")
	fs.IntVar(&maxOpsPerSec, "max-ops-per-sec", 0, "throttle pipelined commands per second; 0 disables throttling")
	fs.StringVar(&logDir, "log-dir", "", "directory for the run's log file (default .)")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn, or error (default info)")
	countPtr := fs.Int("count", -1, "maximum number of keys to copy; unset copies the whole keyspace")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *countPtr >= 0 {
		countFlag = *countPtr
		countSet = true
	}

	positional := fs.Args()
	if len(positional) != 2 {
		fmt.Fprintln(os.Stdout, "exactly two positional arguments are required: <source> <destination>")
		fs.Usage()
		return 2
	}

	cfg := &config.Config{
		Source:      positional[0],
		Destination: positional[1],
		BatchSize:   batch,
		Checkers:    checkers,
		Readers:     readers,
		Writers:     writers,
		TrackItems:  trackItems,
		Refresh:     refresh,
		MaxOpsPerSec: maxOpsPerSec,
		LogDir:      logDir,
		LogLevel:    logLevel,
	}
	if countSet {
		cfg.Count = &countFlag
	}

	if configPath != "" {
		fileDefaults, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed to load config: %v\n", err)
			return 2
		}
		mergeDefaults(cfg, fileDefaults, explicitFlags(fs))
	}

	cfg.ApplyDefaults()
	if noTrackItems {
		cfg.TrackItems = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stdout, err)
		return 2
	}

	if err := initLogger(cfg); err != nil {
		fmt.Fprintf(os.Stdout, "failed to initialize logging: %v\n", err)
		return 1
	}
	defer logger.Close()
	log.SetOutput(logger.Writer())

	logger.Console("starting transfer: %s", cfg.Summary())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.Run(ctx, cfg)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("transfer failed: %v", err)
			return 1
		}
		logger.Console("transfer completed successfully")
		return 0
	case sig := <-sigCh:
		logger.Console("signal %v received, shutting down", sig)
		cancel()
		<-errCh
		return 0
	}
}

// explicitFlags reports which flag names were actually passed on the
// command line, so a config-file default never overrides an explicit flag.
func explicitFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// mergeDefaults copies each field from file into cfg unless the
// corresponding flag was explicitly set, matching the "flags win" rule from
// SPEC_FULL.md section 6.
func mergeDefaults(cfg, file *config.Config, explicit map[string]bool) {
	if cfg.Source == "" && file.Source != "" {
		cfg.Source = file.Source
	}
	if cfg.Destination == "" && file.Destination != "" {
		cfg.Destination = file.Destination
	}
	if !explicit["count"] && file.Count != nil {
		cfg.Count = file.Count
	}
	if !explicit["batch"] && file.BatchSize != 0 {
		cfg.BatchSize = file.BatchSize
	}
	if !explicit["checkers"] && file.Checkers != 0 {
		cfg.Checkers = file.Checkers
	}
	if !explicit["readers"] && file.Readers != 0 {
		cfg.Readers = file.Readers
	}
	if !explicit["writers"] && file.Writers != 0 {
		cfg.Writers = file.Writers
	}
	if !explicit["track-items"] && !explicit["no-track-items"] {
		cfg.TrackItems = file.TrackItems
	}
	if !explicit["refresh-interval"] && file.Refresh != 0 {
		cfg.Refresh = file.Refresh
	}
	if !explicit["max-ops-per-sec"] && file.MaxOpsPerSec != 0 {
		cfg.MaxOpsPerSec = file.MaxOpsPerSec
	}
	if !explicit["log-dir"] && file.LogDir != "" {
		cfg.LogDir = file.LogDir
	}
	if !explicit["log-level"] && file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
}

func initLogger(cfg *config.Config) error {
	level := logger.ParseLevel(cfg.LogLevel)
	return logger.Init(cfg.LogDir, level, "redis-data-transfer")
}

func printUsage(fs *flag.FlagSet) {
	binary := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stdout, `redis-data-transfer - copy keys from one Redis deployment to another via DUMP/RESTORE

Usage:
  %[1]s [options] <source> <destination>

source and destination are addresses of the form host[:port][#db].

Options:
`, binary)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stdout, `
Examples:
  %[1]s --readers 3 --writers 3 10.0.0.1:6379 10.0.0.2:6379
  %[1]s --count 1000 --checkers 1 source.example.com dest.example.com#1
`, binary)
}
