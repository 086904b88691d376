// Package stats carries per-worker telemetry from pipeline workers to the
// display aggregator over a single shared channel.
package stats

import "time"

// Event is one (worker, metric, delta) telemetry sample. Exactly one of
// Count/Duration is meaningful, selected by IsDuration, so the aggregator
// never has to infer a zero value's type from the first sample it sees.
type Event struct {
	Worker     string
	Metric     string
	Count      int64
	Duration   time.Duration
	IsDuration bool
}

// Tracker emits Events for a single named worker (e.g. "r_2") onto a shared
// results channel. It mirrors the Python original's StatsTracker
// (_examples/original_source/redis_data_transfer/state.py): Track wraps a
// timed span, Increment counts occurrences.
type Tracker struct {
	worker  string
	results chan<- Event
}

// New returns a Tracker bound to worker, emitting onto results.
func New(worker string, results chan<- Event) *Tracker {
	return &Tracker{worker: worker, results: results}
}

// Track starts timing reference and returns a function that records the
// elapsed duration when called. Callers should defer the returned function
// so the span closes on every exit path, including a recovered panic:
//
//	defer tr.Track("process")()
func (t *Tracker) Track(reference string) func() {
	start := time.Now()
	return func() {
		t.results <- Event{
			Worker:     t.worker,
			Metric:     reference,
			Duration:   time.Since(start),
			IsDuration: true,
		}
	}
}

// Increment records a single occurrence of reference.
func (t *Tracker) Increment(reference string) {
	t.results <- Event{Worker: t.worker, Metric: reference, Count: 1}
}
