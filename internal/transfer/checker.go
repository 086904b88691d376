package transfer

import (
	"context"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/EDITD/redis-data-transfer/internal/redisendpoint"
	"github.com/EDITD/redis-data-transfer/internal/stats"
)

// RunChecker filters out keys that already exist on the destination
// endpoint, matching RedisChecker in the Python original: it pipelines
// EXISTS for every key in the batch, then forwards only the keys whose
// result was 0. A batch that filters down to nothing is dropped rather than
// forwarded, per spec.md 4.4.
func RunChecker(ctx context.Context, destination *redisendpoint.Endpoint, limiter *rate.Limiter, worker string, input <-chan Envelope[string], output chan<- Envelope[string], results chan<- stats.Event, trackItems bool) {
	RunProcessor(ctx, destination, limiter, ProcessorSpec[string, string]{
		Worker:     worker,
		Input:      input,
		Output:     output,
		Results:    results,
		TrackItems: trackItems,
		ProcessItem: func(ctx context.Context, pipe *redisendpoint.Pipeline, key string) bool {
			pipe.Exists(ctx, key)
			return true
		},
		Finalize:  finalizeChecker,
		EmitEmpty: false,
	})
}

// finalizeChecker keeps only keys whose EXISTS result was 0, matching
// RedisChecker.finalise_batch in the Python original.
func finalizeChecker(cmds []redis.Cmder, batch []string) []string {
	var missing []string
	for i, cmd := range cmds {
		existsCmd, ok := cmd.(*redis.IntCmd)
		if ok && existsCmd.Val() == 0 {
			missing = append(missing, batch[i])
		}
	}
	return missing
}
