// Package redisendpoint wraps a single Redis deployment — cluster or
// single-node, auto-detected — behind the narrow surface the transfer
// pipeline needs: scan, dump, exists, restore.
package redisendpoint

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const connectTimeout = 10 * time.Second

// Endpoint is a mode-agnostic handle to one Redis deployment. Both
// *redis.ClusterClient and *redis.Client satisfy redis.UniversalClient, so
// every downstream operation here is written once against the interface.
type Endpoint struct {
	client redis.UniversalClient
	addr   string
	mode   string
}

// New dials addr ("host[:port][#db]") and determines whether it is a
// cluster or single-node deployment.
//
// Unlike the Python original's _redis_client
// (_examples/original_source/redis_data_transfer/redis_client.py), which
// logs an error and returns None when neither mode connects — leaving the
// caller to dereference a nil client later — New returns a non-nil error
// here, so construction failure is always explicit and fatal to the caller
// at the point of dialing, not at the point of first use.
func New(ctx context.Context, addr string) (*Endpoint, error) {
	host, port, db, err := splitAddr(addr)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint address %q: %w", addr, err)
	}
	seed := fmt.Sprintf("%s:%s", host, port)

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cluster := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:       []string{seed},
		DialTimeout: connectTimeout,
	})
	if _, err := cluster.ClusterInfo(dialCtx).Result(); err == nil {
		return &Endpoint{client: cluster, addr: addr, mode: "cluster"}, nil
	}
	_ = cluster.Close()

	single := redis.NewClient(&redis.Options{
		Addr:        seed,
		DB:          db,
		DialTimeout: connectTimeout,
	})
	if _, err := single.Info(dialCtx).Result(); err == nil {
		return &Endpoint{client: single, addr: addr, mode: "single"}, nil
	}
	_ = single.Close()

	return nil, fmt.Errorf("could not connect to %s as a cluster or a single node", addr)
}

// Mode reports "cluster" or "single".
func (e *Endpoint) Mode() string { return e.mode }

// Close releases the underlying client's connections.
func (e *Endpoint) Close() error { return e.client.Close() }

// ScanIterator returns a key iterator hinting batchSize keys per round
// trip, matching the Python original's redis.scan_iter(count=batch_size).
func (e *Endpoint) ScanIterator(ctx context.Context, batchSize int64) *redis.ScanIterator {
	it := e.client.Scan(ctx, 0, "", batchSize).Iterator()
	return it
}

// Pipeliner returns a fresh pipeline wrapper.
func (e *Endpoint) Pipeliner() *Pipeline {
	return &Pipeline{pipe: e.client.Pipeline()}
}

// Pipeline batches EXISTS/DUMP/RESTORE commands and executes them together,
// mirroring the Python original's redis-py pipeline usage in
// RedisChecker/RedisReader/RedisInserter
// (_examples/original_source/redis_data_transfer/__init__.py).
type Pipeline struct {
	pipe redis.Pipeliner
}

// Exists queues EXISTS key.
func (p *Pipeline) Exists(ctx context.Context, key string) *redis.IntCmd {
	return p.pipe.Exists(ctx, key)
}

// Dump queues DUMP key.
func (p *Pipeline) Dump(ctx context.Context, key string) *redis.StringCmd {
	return p.pipe.Dump(ctx, key)
}

// Restore queues RESTORE key 0 value with REPLACE=false, matching the
// Python original's pipe.restore(key, 0, value, replace=False) exactly —
// a destination key that already exists is left untouched and RESTORE
// returns a BUSYKEY error for that command, which the Writer logs at warn
// level and otherwise ignores (spec.md section 9).
func (p *Pipeline) Restore(ctx context.Context, key string, value string) *redis.StatusCmd {
	return p.pipe.Restore(ctx, key, 0, value)
}

// Execute runs every queued command. Per-command errors are retained on
// each returned Cmder rather than surfaced only as the aggregate error —
// go-redis's Pipeliner.Exec already behaves this way, which is what lets
// callers treat individual command failures as per-result, not fatal.
// When limiter is non-nil, Execute waits for n tokens (n = queued command
// count) before flushing, providing the optional throughput cap described
// in SPEC_FULL.md section 4.2.
func (p *Pipeline) Execute(ctx context.Context, limiter *rate.Limiter, n int) ([]redis.Cmder, error) {
	if limiter != nil && n > 0 {
		if err := limiter.WaitN(ctx, n); err != nil {
			return nil, err
		}
	}
	cmds, err := p.pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return cmds, err
	}
	return cmds, nil
}

// splitAddr parses "host[:port][#db]", matching the Python original's
// _split_host (_examples/original_source/redis_data_transfer/redis_client.py).
func splitAddr(addr string) (host, port string, db int, err error) {
	hostPort := addr
	dbStr := "0"
	if idx := strings.IndexByte(addr, '#'); idx >= 0 {
		hostPort = addr[:idx]
		dbStr = addr[idx+1:]
	}

	host = hostPort
	port = "6379"
	if idx := strings.IndexByte(hostPort, ':'); idx >= 0 {
		host = hostPort[:idx]
		port = hostPort[idx+1:]
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("empty host in address %q", addr)
	}

	db, err = strconv.Atoi(dbStr)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid db segment %q: %w", dbStr, err)
	}
	return host, port, db, nil
}
