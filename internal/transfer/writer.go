package transfer

import (
	"context"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/EDITD/redis-data-transfer/internal/logger"
	"github.com/EDITD/redis-data-transfer/internal/redisendpoint"
	"github.com/EDITD/redis-data-transfer/internal/stats"
)

// RunWriter pipelines RESTORE for every non-null pair in a batch against
// destination, matching RedisInserter in the Python original: null values
// (the key vanished before the Reader dumped it) are skipped entirely and
// not counted as items.
func RunWriter(ctx context.Context, destination *redisendpoint.Endpoint, limiter *rate.Limiter, worker string, input <-chan Envelope[KeyValue], results chan<- stats.Event, trackItems bool) {
	RunDrain(ctx, destination, limiter, DrainSpec[KeyValue]{
		Worker:     worker,
		Input:      input,
		Results:    results,
		TrackItems: trackItems,
		ProcessItem: func(ctx context.Context, pipe *redisendpoint.Pipeline, pair KeyValue) bool {
			if pair.Null {
				return false
			}
			pipe.Restore(ctx, pair.Key, pair.Value)
			return true
		},
		Finalize: func(cmds []redis.Cmder, batch []KeyValue) {
			for i, cmd := range cmds {
				if cmd.Err() != nil && cmd.Err() != redis.Nil {
					logger.Warn("restore failed for key %q: %v", batch[i].Key, cmd.Err())
				}
			}
		},
	})
}
