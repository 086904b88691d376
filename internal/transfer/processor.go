package transfer

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/EDITD/redis-data-transfer/internal/logger"
	"github.com/EDITD/redis-data-transfer/internal/redisendpoint"
	"github.com/EDITD/redis-data-transfer/internal/stats"
)

// receiveTimeout bounds how long a stage blocks on an empty input channel
// before re-checking for cancellation, matching the Python original's
// input.get(True, 1.0) poll (_examples/original_source/redis_data_transfer/processing.py).
const receiveTimeout = time.Second

// ProcessorSpec is the capability record shared by Checker and Reader: both
// read a batch, run per-item pipelined Redis commands, turn the pipeline
// results into an output batch, and forward non-terminal output downstream.
// This is the composition the spec calls for in place of a Source/Processor/
// Drain class hierarchy (spec.md design note 9) — Checker and Reader are
// thin instantiations of the same function, not subclasses of a shared base.
type ProcessorSpec[In, Out any] struct {
	Worker      string
	Input       <-chan Envelope[In]
	Output      chan<- Envelope[Out]
	Results     chan<- stats.Event
	TrackItems  bool
	// ProcessItem queues zero or one command for item and reports whether it
	// queued anything; Finalize's batch argument only contains items that
	// returned true, so it stays index-aligned with cmds.
	ProcessItem func(ctx context.Context, pipe *redisendpoint.Pipeline, item In) bool
	Finalize    func(cmds []redis.Cmder, batch []In) []Out
	// EmitEmpty controls whether a batch that finalizes to zero output items
	// is still forwarded downstream. The Checker leaves this false (an
	// all-exists batch produces nothing worth reading), matching
	// RedisChecker.finalise_batch's filtering; the Reader has no analogous
	// case since it always emits one KeyValue per input key.
	EmitEmpty bool
}

// RunProcessor runs spec's loop until it observes an End envelope, then
// returns. It never emits an End envelope itself — only the Coordinator
// does, after joining every worker for this stage.
func RunProcessor[In, Out any](ctx context.Context, ep *redisendpoint.Endpoint, limiter *rate.Limiter, spec ProcessorSpec[In, Out]) {
	defer recoverWorker(spec.Worker)
	tr := stats.New(spec.Worker, spec.Results)
	for {
		batch, ok := receiveBatch(ctx, tr, spec.Input)
		if !ok {
			return
		}

		out := func() []Out {
			defer tr.Track("process")()
			pipe := ep.Pipeliner()
			queued := make([]In, 0, len(batch))
			for _, item := range batch {
				queuedItem := spec.ProcessItem(ctx, pipe, item)
				if queuedItem {
					queued = append(queued, item)
				}
				if queuedItem && spec.TrackItems {
					tr.Increment("items")
				}
			}
			cmds, _ := pipe.Execute(ctx, limiter, len(queued))
			return spec.Finalize(cmds, queued)
		}()

		if len(out) > 0 || spec.EmitEmpty {
			func() {
				defer tr.Track("wait")()
				spec.Output <- Envelope[Out]{Items: out}
			}()
		}
		tr.Increment("batches")
	}
}

// DrainSpec is the capability record for Writer: it consumes batches and
// produces no output channel.
type DrainSpec[In any] struct {
	Worker      string
	Input       <-chan Envelope[In]
	Results     chan<- stats.Event
	TrackItems  bool
	ProcessItem func(ctx context.Context, pipe *redisendpoint.Pipeline, item In) bool
	Finalize    func(cmds []redis.Cmder, batch []In)
}

// RunDrain runs spec's loop until it observes an End envelope.
func RunDrain[In any](ctx context.Context, ep *redisendpoint.Endpoint, limiter *rate.Limiter, spec DrainSpec[In]) {
	defer recoverWorker(spec.Worker)
	tr := stats.New(spec.Worker, spec.Results)
	for {
		batch, ok := receiveBatch(ctx, tr, spec.Input)
		if !ok {
			return
		}

		func() {
			defer tr.Track("process")()
			pipe := ep.Pipeliner()
			queued := make([]In, 0, len(batch))
			for _, item := range batch {
				queuedItem := spec.ProcessItem(ctx, pipe, item)
				if queuedItem {
					queued = append(queued, item)
				}
				if queuedItem && spec.TrackItems {
					tr.Increment("items")
				}
			}
			cmds, _ := pipe.Execute(ctx, limiter, len(queued))
			spec.Finalize(cmds, queued)
		}()
		tr.Increment("batches")
	}
}

// recoverWorker recovers a panic escaping a worker's run loop, logging it
// with a stack trace and letting the goroutine exit rather than crashing the
// process — grounded on the panic-recovery shape in
// _examples/ibs-source-syslog-consumer/internal/processor/worker_pool.go's
// executeTask/executeMsg (SPEC_FULL.md section 7).
func recoverWorker(worker string) {
	if r := recover(); r != nil {
		logger.Error("worker %s panicked: %v\n%s", worker, r, debug.Stack())
	}
}

// receiveBatch waits for the next envelope, honoring receiveTimeout so the
// loop can be revisited rather than blocking forever (matching the Python
// original's queue.Empty retry). ok is false once an End envelope arrives.
func receiveBatch[T any](ctx context.Context, tr *stats.Tracker, input <-chan Envelope[T]) ([]T, bool) {
	for {
		var env Envelope[T]
		var received bool
		func() {
			defer tr.Track("wait")()
			timer := time.NewTimer(receiveTimeout)
			defer timer.Stop()
			select {
			case env = <-input:
				received = true
			case <-timer.C:
			case <-ctx.Done():
			}
		}()
		if !received {
			if ctx.Err() != nil {
				return nil, false
			}
			continue
		}
		if env.End {
			return nil, false
		}
		return env.Items, true
	}
}
