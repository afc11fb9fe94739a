// Package progress tracks crawl fan-out completion and fans notifications out
// to registered sinks.
package progress

import "sync/atomic"

// Sink observes batch lifecycle notifications. Implementations must be safe
// for concurrent use; ItemDone arrives from pool worker goroutines.
type Sink interface {
	BatchStarted(label string, total int)
	ItemDone(label string, failed bool)
	BatchDone(label string)
}

// Tracker counts completed and failed items across all batches of a run and
// forwards every notification to its sinks. It satisfies pool.Tracker.
type Tracker struct {
	sinks  []Sink
	done   atomic.Int64
	failed atomic.Int64
}

// NewTracker builds a Tracker over the given sinks.
func NewTracker(sinks ...Sink) *Tracker {
	return &Tracker{sinks: sinks}
}

// BatchStarted announces a labeled fan-out of the given size.
func (t *Tracker) BatchStarted(label string, total int) {
	for _, s := range t.sinks {
		s.BatchStarted(label, total)
	}
}

// ItemDone advances the completion counter by one, success or failure.
func (t *Tracker) ItemDone(label string, err error) {
	t.done.Add(1)
	failed := err != nil
	if failed {
		t.failed.Add(1)
	}
	for _, s := range t.sinks {
		s.ItemDone(label, failed)
	}
}

// BatchDone announces the batch has fully drained.
func (t *Tracker) BatchDone(label string) {
	for _, s := range t.sinks {
		s.BatchDone(label)
	}
}

// Totals returns the run-wide completed and failed item counts.
func (t *Tracker) Totals() (done, failed int64) {
	return t.done.Load(), t.failed.Load()
}
