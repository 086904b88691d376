// Package coordinator wires the Scanner, Checker, Reader, Writer and
// Display into a single run, matching move_data in the Python original
// (_examples/original_source/redis_data_transfer/__init__.py): start every
// worker, then join each stage in turn before injecting end-of-stream
// sentinels into the next queue.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/time/rate"

	"github.com/EDITD/redis-data-transfer/internal/config"
	"github.com/EDITD/redis-data-transfer/internal/display"
	"github.com/EDITD/redis-data-transfer/internal/logger"
	"github.com/EDITD/redis-data-transfer/internal/redisendpoint"
	"github.com/EDITD/redis-data-transfer/internal/stats"
	"github.com/EDITD/redis-data-transfer/internal/transfer"
)

// eventsBufferSize is the finite stand-in for the Python original's
// "unbounded" multiprocessing.Queue of telemetry events: Go channels cannot
// be literally unbounded, and since Display drains continuously, a large
// buffer is never the bottleneck in practice.
const eventsBufferSize = 4096

// Run executes one full transfer according to cfg, blocking until every
// worker has finished. It returns the first fatal error encountered, if
// any; per-item errors are logged, not returned (spec.md section 7).
func Run(ctx context.Context, cfg *config.Config) error {
	// Fail fast on an unreachable endpoint before spawning any worker,
	// rather than letting the first worker silently deadlock on a nil
	// client (SPEC_FULL.md section 4.8).
	probeSource, err := redisendpoint.New(ctx, cfg.Source)
	if err != nil {
		return fmt.Errorf("connect to source %s: %w", cfg.Source, err)
	}
	probeSource.Close()
	probeDestination, err := redisendpoint.New(ctx, cfg.Destination)
	if err != nil {
		return fmt.Errorf("connect to destination %s: %w", cfg.Destination, err)
	}
	probeDestination.Close()

	var limiter *rate.Limiter
	if cfg.MaxOpsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxOpsPerSec), cfg.MaxOpsPerSec)
	}

	checkQueue := make(chan transfer.Envelope[string], cfg.Checkers*4)
	readQueue := make(chan transfer.Envelope[string], cfg.Readers*4)
	writeQueue := make(chan transfer.Envelope[transfer.KeyValue], cfg.Writers*4)
	events := make(chan stats.Event, eventsBufferSize)

	disp := display.New(events, os.Stdout, cfg.RefreshInterval())
	go disp.Run()

	var checkerWG, readerWG, writerWG sync.WaitGroup

	scannerOutput := readQueue
	if cfg.Checkers > 0 {
		scannerOutput = checkQueue
		for i := 0; i < cfg.Checkers; i++ {
			ep, err := redisendpoint.New(ctx, cfg.Destination)
			if err != nil {
				logger.Error("checker %d: connect failed: %v", i, err)
				continue
			}
			checkerWG.Add(1)
			go func(i int, ep *redisendpoint.Endpoint) {
				defer checkerWG.Done()
				defer ep.Close()
				transfer.RunChecker(ctx, ep, limiter, fmt.Sprintf("c_%d", i), checkQueue, readQueue, events, cfg.TrackItems)
			}(i, ep)
		}
	}

	for i := 0; i < cfg.Readers; i++ {
		ep, err := redisendpoint.New(ctx, cfg.Source)
		if err != nil {
			logger.Error("reader %d: connect failed: %v", i, err)
			continue
		}
		readerWG.Add(1)
		go func(i int, ep *redisendpoint.Endpoint) {
			defer readerWG.Done()
			defer ep.Close()
			transfer.RunReader(ctx, ep, limiter, fmt.Sprintf("r_%d", i), readQueue, writeQueue, events, cfg.TrackItems)
		}(i, ep)
	}

	for i := 0; i < cfg.Writers; i++ {
		ep, err := redisendpoint.New(ctx, cfg.Destination)
		if err != nil {
			logger.Error("writer %d: connect failed: %v", i, err)
			continue
		}
		writerWG.Add(1)
		go func(i int, ep *redisendpoint.Endpoint) {
			defer writerWG.Done()
			defer ep.Close()
			transfer.RunWriter(ctx, ep, limiter, fmt.Sprintf("w_%d", i), writeQueue, events, cfg.TrackItems)
		}(i, ep)
	}

	scannerEp, err := redisendpoint.New(ctx, cfg.Source)
	if err != nil {
		return fmt.Errorf("scanner: connect to source failed: %w", err)
	}
	defer scannerEp.Close()

	tr := stats.New("g_0", events)
	release := tr.Track("process")

	transfer.RunScanner(ctx, scannerEp, transfer.ScannerSpec{
		Worker:     "s_0",
		Output:     scannerOutput,
		Results:    events,
		BatchSize:  int64(cfg.BatchSize),
		Count:      cfg.Count,
		TrackItems: cfg.TrackItems,
	})

	if cfg.Checkers > 0 {
		injectEnd(checkQueue, cfg.Checkers)
		checkerWG.Wait()
	}
	injectEnd(readQueue, cfg.Readers)
	readerWG.Wait()
	injectEnd(writeQueue, cfg.Writers)
	writerWG.Wait()

	release()
	disp.Stop()
	return nil
}

func injectEnd[T any](q chan<- transfer.Envelope[T], n int) {
	for i := 0; i < n; i++ {
		q <- transfer.Envelope[T]{End: true}
	}
}
