package transfer

import (
	"context"

	"github.com/EDITD/redis-data-transfer/internal/redisendpoint"
	"github.com/EDITD/redis-data-transfer/internal/stats"
)

// ScannerSpec configures the single Scanner worker. count, when non-nil,
// caps the total number of keys produced, mirroring the Python original's
// --count flag (_examples/original_source/redis_data_transfer/__init__.py's
// RedisScanner.produce_item, which decrements self.count until it hits 0).
type ScannerSpec struct {
	Worker     string
	Output     chan<- Envelope[string]
	Results    chan<- stats.Event
	BatchSize  int64
	Count      *int
	TrackItems bool
}

// RunScanner drains the source keyspace via SCAN, in batches of BatchSize,
// until the iterator is exhausted or Count keys have been produced. It never
// sends an End envelope; the Coordinator injects those after joining.
func RunScanner(ctx context.Context, ep *redisendpoint.Endpoint, spec ScannerSpec) {
	defer recoverWorker(spec.Worker)
	tr := stats.New(spec.Worker, spec.Results)
	var remaining *int
	if spec.Count != nil {
		n := *spec.Count
		remaining = &n
	}
	it := ep.ScanIterator(ctx, spec.BatchSize)

	for {
		var batch []string
		func() {
			defer tr.Track("process")()
			for int64(len(batch)) < spec.BatchSize {
				if remaining != nil && *remaining <= 0 {
					return
				}
				if !it.Next(ctx) {
					return
				}
				batch = append(batch, it.Val())
				if remaining != nil {
					*remaining--
				}
				if spec.TrackItems {
					tr.Increment("items")
				}
			}
		}()

		if len(batch) == 0 {
			return
		}

		func() {
			defer tr.Track("wait")()
			spec.Output <- Envelope[string]{Items: batch}
		}()
		tr.Increment("batches")

		if remaining != nil && *remaining <= 0 {
			return
		}
	}
}
