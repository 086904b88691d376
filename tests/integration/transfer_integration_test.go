//go:build integration

// Package integration exercises the full transfer pipeline against real
// Redis instances, mirroring three of the Python original's tests.py
// scenarios (_examples/original_source/tests.py): copy everything, copy with
// --count, and a checker run against a destination that already has a
// partial copy.
//
// Run with:
//
//	REDIS_DATA_TRANSFER_INTEGRATION=1 \
//	REDIS_DATA_TRANSFER_SOURCE_ADDR=127.0.0.1:6379 \
//	REDIS_DATA_TRANSFER_DEST_ADDR=127.0.0.1:6380 \
//	go test -tags integration ./tests/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/EDITD/redis-data-transfer/internal/config"
	"github.com/EDITD/redis-data-transfer/internal/coordinator"
)

func requireEnv(t *testing.T) (sourceAddr, destAddr string) {
	t.Helper()
	if os.Getenv("REDIS_DATA_TRANSFER_INTEGRATION") == "" {
		t.Skip("set REDIS_DATA_TRANSFER_INTEGRATION=1 to run against live Redis instances")
	}
	sourceAddr = os.Getenv("REDIS_DATA_TRANSFER_SOURCE_ADDR")
	destAddr = os.Getenv("REDIS_DATA_TRANSFER_DEST_ADDR")
	if sourceAddr == "" || destAddr == "" {
		t.Fatal("REDIS_DATA_TRANSFER_SOURCE_ADDR and REDIS_DATA_TRANSFER_DEST_ADDR must be set")
	}
	return sourceAddr, destAddr
}

func insertFakeData(t *testing.T, client *redis.Client, sampleSize int) int {
	t.Helper()
	ctx := context.Background()
	pipe := client.Pipeline()
	for i := 0; i < sampleSize; i++ {
		pipe.Set(ctx, fmt.Sprintf("key_%d", i), fmt.Sprintf("value_%d", i), 0)
	}
	for i := 0; i < sampleSize; i++ {
		pipe.HSet(ctx, "test_hash", fmt.Sprintf("key_%d", i), fmt.Sprintf("value_%d", i))
	}
	for i := 0; i < sampleSize; i++ {
		pipe.SAdd(ctx, "test_set", fmt.Sprintf("key_%d", i))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	return sampleSize + 2
}

func flush(t *testing.T, client *redis.Client) {
	t.Helper()
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushdb: %v", err)
	}
}

func runTransfer(t *testing.T, sourceAddr, destAddr string, count *int, batch, checkers, readers, writers int) {
	t.Helper()
	cfg := &config.Config{
		Source:      sourceAddr,
		Destination: destAddr,
		Count:       count,
		BatchSize:   batch,
		Checkers:    checkers,
		Readers:     readers,
		Writers:     writers,
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}
	if err := coordinator.Run(context.Background(), cfg); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
}

func TestCopySimple(t *testing.T) {
	sourceAddr, destAddr := requireEnv(t)
	source := redis.NewClient(&redis.Options{Addr: sourceAddr})
	destination := redis.NewClient(&redis.Options{Addr: destAddr})
	defer source.Close()
	defer destination.Close()
	flush(t, source)
	flush(t, destination)

	inserted := insertFakeData(t, source, 1000)
	runTransfer(t, sourceAddr, destAddr, nil, 1000, 1, 1, 1)

	size, err := destination.DBSize(context.Background()).Result()
	if err != nil {
		t.Fatalf("dbsize: %v", err)
	}
	if int(size) != inserted {
		t.Fatalf("destination dbsize = %d, want %d", size, inserted)
	}
}

func TestCopyWithCount(t *testing.T) {
	sourceAddr, destAddr := requireEnv(t)
	source := redis.NewClient(&redis.Options{Addr: sourceAddr})
	destination := redis.NewClient(&redis.Options{Addr: destAddr})
	defer source.Close()
	defer destination.Close()
	flush(t, source)
	flush(t, destination)

	insertFakeData(t, source, 1000)
	count := 100
	runTransfer(t, sourceAddr, destAddr, &count, 10000, 1, 1, 1)

	size, err := destination.DBSize(context.Background()).Result()
	if err != nil {
		t.Fatalf("dbsize: %v", err)
	}
	if int(size) != count {
		t.Fatalf("destination dbsize = %d, want %d", size, count)
	}
}

func TestCopyWithCheckerAndPreexistingData(t *testing.T) {
	sourceAddr, destAddr := requireEnv(t)
	source := redis.NewClient(&redis.Options{Addr: sourceAddr})
	destination := redis.NewClient(&redis.Options{Addr: destAddr})
	defer source.Close()
	defer destination.Close()
	flush(t, source)
	flush(t, destination)

	total := insertFakeData(t, source, 1000)

	partial := 100
	runTransfer(t, sourceAddr, destAddr, &partial, 100, 0, 1, 1)
	size, _ := destination.DBSize(context.Background()).Result()
	if int(size) != partial {
		t.Fatalf("after partial copy, destination dbsize = %d, want %d", size, partial)
	}

	runTransfer(t, sourceAddr, destAddr, nil, 100, 1, 1, 1)
	size, _ = destination.DBSize(context.Background()).Result()
	if int(size) != total {
		t.Fatalf("after full copy with checker, destination dbsize = %d, want %d", size, total)
	}
}
