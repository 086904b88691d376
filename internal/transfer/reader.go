package transfer

import (
	"context"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/EDITD/redis-data-transfer/internal/redisendpoint"
	"github.com/EDITD/redis-data-transfer/internal/stats"
)

// RunReader pipelines DUMP for every key in a batch against source, zipping
// the results back into KeyValue pairs in the same order as the input
// batch — matching RedisReader.finalise_batch's
// list(zip(batch, values)) in the Python original. A key that vanished
// between scan and dump comes back as KeyValue{Null: true}; the Writer
// skips those.
func RunReader(ctx context.Context, source *redisendpoint.Endpoint, limiter *rate.Limiter, worker string, input <-chan Envelope[string], output chan<- Envelope[KeyValue], results chan<- stats.Event, trackItems bool) {
	RunProcessor(ctx, source, limiter, ProcessorSpec[string, KeyValue]{
		Worker:     worker,
		Input:      input,
		Output:     output,
		Results:    results,
		TrackItems: trackItems,
		ProcessItem: func(ctx context.Context, pipe *redisendpoint.Pipeline, key string) bool {
			pipe.Dump(ctx, key)
			return true
		},
		Finalize:  finalizeReader,
		EmitEmpty: true,
	})
}

// finalizeReader zips dump results back onto their keys in order, matching
// RedisReader.finalise_batch's list(zip(batch, values)) in the Python
// original.
func finalizeReader(cmds []redis.Cmder, batch []string) []KeyValue {
	pairs := make([]KeyValue, len(batch))
	for i, key := range batch {
		pairs[i] = KeyValue{Key: key}
		dumpCmd, ok := cmds[i].(*redis.StringCmd)
		if !ok {
			pairs[i].Null = true
			continue
		}
		val, err := dumpCmd.Result()
		if err != nil || val == "" {
			pairs[i].Null = true
			continue
		}
		pairs[i].Value = val
	}
	return pairs
}
