// Package display aggregates per-worker telemetry events into a live,
// periodically-rendered summary, adapted from the Python original's
// Display process (_examples/original_source/redis_data_transfer/display.py).
package display

import (
	"fmt"
	"io"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/EDITD/redis-data-transfer/internal/logger"
	"github.com/EDITD/redis-data-transfer/internal/stats"
)

// clearScreen is the ANSI sequence used to clear the terminal between
// renders. This replaces the Python original's os.system('clear'), which
// assumes a POSIX shell and a `clear` binary on PATH; the escape sequence
// works on any ANSI-capable terminal without shelling out.
const clearScreen = "\x1b[H\x1b[2J"

// metricValue accumulates one metric for one worker. It records whether it
// holds a duration or a count on first write, replacing the Python
// original's implicit "previous_value.__class__(0)" trick
// (spec.md section 9) with an explicit, crash-proof type tag.
type metricValue struct {
	count      int64
	duration   time.Duration
	isDuration bool
	set        bool
}

func (m *metricValue) add(ev stats.Event) {
	if !m.set {
		m.isDuration = ev.IsDuration
		m.set = true
	}
	if ev.IsDuration {
		m.duration += ev.Duration
	} else {
		m.count += ev.Count
	}
}

// Display aggregates Events from every worker and renders a table every
// refresh interval. It is single-writer by construction: only Run's
// goroutine touches state, so no lock is needed (spec.md section 9).
type Display struct {
	events   <-chan stats.Event
	out      io.Writer
	interval time.Duration
	state    map[string]map[string]*metricValue

	done chan struct{}
	stop chan struct{}
}

// New returns a Display that reads from events and writes rendered frames
// to out every interval.
func New(events <-chan stats.Event, out io.Writer, interval time.Duration) *Display {
	return &Display{
		events:   events,
		out:      out,
		interval: interval,
		state:    make(map[string]map[string]*metricValue),
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// Run consumes events and renders until Stop is called, then drains any
// remaining buffered events and renders a final frame — matching the Python
// original's "while not (self._stop.is_set() and events_queue.empty())"
// loop, so no telemetry emitted just before shutdown is lost.
func (d *Display) Run() {
	defer close(d.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("display panicked: %v\n%s", r, debug.Stack())
		}
	}()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-d.events:
			d.apply(ev)
		case <-ticker.C:
			d.render()
		case <-d.stop:
			d.drainRemaining()
			d.render()
			return
		}
	}
}

func (d *Display) drainRemaining() {
	for {
		select {
		case ev := <-d.events:
			d.apply(ev)
		default:
			return
		}
	}
}

func (d *Display) apply(ev stats.Event) {
	byMetric, ok := d.state[ev.Worker]
	if !ok {
		byMetric = make(map[string]*metricValue)
		d.state[ev.Worker] = byMetric
	}
	mv, ok := byMetric[ev.Metric]
	if !ok {
		mv = &metricValue{}
		byMetric[ev.Metric] = mv
	}
	mv.add(ev)
}

// Stop signals Run to render a final frame and return. It blocks until Run
// has exited.
func (d *Display) Stop() {
	close(d.stop)
	<-d.done
}

// rolePriority orders workers by their name's role prefix, matching the
// Python original's {'c': 0, 's': -1, 'r': 1, 'w': 2, 'g': 3} table. Unlike
// the original, an unrecognized prefix does not panic — it sorts last
// instead, per spec.md section 9's redesign flag.
func rolePriority(name string) int {
	if name == "" {
		return 99
	}
	switch name[0] {
	case 's':
		return -1
	case 'c':
		return 0
	case 'r':
		return 1
	case 'w':
		return 2
	case 'g':
		return 3
	default:
		return 4
	}
}

func workerSuffix(name string) string {
	if idx := strings.LastIndexByte(name, '_'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// lessSuffix orders two worker-name suffixes numerically, matching the
// Python original's int(name.rsplit('_', maxsplit=1)[-1])
// (_examples/original_source/redis_data_transfer/display.py), so r_2 sorts
// before r_10. A suffix that isn't a plain integer (an unrecognized naming
// scheme) falls back to a string comparison rather than panicking.
func lessSuffix(a, b string) bool {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return an < bn
	}
	return a < b
}

func sortedWorkers(state map[string]map[string]*metricValue) []string {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := rolePriority(names[i]), rolePriority(names[j])
		if pi != pj {
			return pi < pj
		}
		return lessSuffix(workerSuffix(names[i]), workerSuffix(names[j]))
	})
	return names
}

func (d *Display) render() {
	fmt.Fprint(d.out, clearScreen)
	for _, worker := range sortedWorkers(d.state) {
		fmt.Fprintln(d.out, renderWorkerLine(worker, d.state[worker]))
	}
}

// renderWorkerLine formats one worker's metrics, alphabetically by metric
// key, plus derived "_avg" fields computed by dividing every non-"batches"
// metric by "batches" — matching the Python original's
// _render_result exactly.
func renderWorkerLine(worker string, metrics map[string]*metricValue) string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var batches int64
	if mv, ok := metrics["batches"]; ok {
		batches = mv.count
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-8s", worker)
	for _, key := range keys {
		mv := metrics[key]
		b.WriteString("  ")
		b.WriteString(formatMetric(key, mv))
		if key != "batches" && batches > 0 {
			b.WriteString("  ")
			b.WriteString(formatAvg(key, mv, batches))
		}
	}
	return b.String()
}

func formatMetric(key string, mv *metricValue) string {
	if mv.isDuration {
		return fmt.Sprintf("%s=%s", key, formatDuration(mv.duration))
	}
	return fmt.Sprintf("%s=%6d", key, mv.count)
}

func formatAvg(key string, mv *metricValue, batches int64) string {
	if mv.isDuration {
		avg := mv.duration / time.Duration(batches)
		return fmt.Sprintf("%s_avg=%s", key, formatDuration(avg))
	}
	avg := float64(mv.count) / float64(batches)
	return fmt.Sprintf("%s_avg=%9.1f", key, avg)
}

func formatDuration(d time.Duration) string {
	total := d.Seconds()
	minutes := int(total) / 60
	seconds := total - float64(minutes*60)
	return fmt.Sprintf("%02d:%09.6f", minutes, seconds)
}
