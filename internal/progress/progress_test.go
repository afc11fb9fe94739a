package progress

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	started []string
	items   int
	failed  int
	done    []string
}

func (r *recordingSink) BatchStarted(label string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, label)
}

func (r *recordingSink) ItemDone(_ string, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items++
	if failed {
		r.failed++
	}
}

func (r *recordingSink) BatchDone(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, label)
}

func TestTrackerFansOutToSinksAndCounts(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	tracker := NewTracker(sink)

	tracker.BatchStarted("courses", 3)
	tracker.ItemDone("courses", nil)
	tracker.ItemDone("courses", errors.New("boom"))
	tracker.ItemDone("courses", nil)
	tracker.BatchDone("courses")

	done, failed := tracker.Totals()
	require.Equal(t, int64(3), done)
	require.Equal(t, int64(1), failed)
	require.Equal(t, []string{"courses"}, sink.started)
	require.Equal(t, 3, sink.items)
	require.Equal(t, 1, sink.failed)
	require.Equal(t, []string{"courses"}, sink.done)
}

func TestTrackerIsSafeForConcurrentItemDone(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(NewLogSink(nil))
	tracker.BatchStarted("subchapters", 100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.ItemDone("subchapters", nil)
		}()
	}
	wg.Wait()
	tracker.BatchDone("subchapters")

	done, failed := tracker.Totals()
	require.Equal(t, int64(100), done)
	require.Equal(t, int64(0), failed)
}

func TestPrometheusSinkCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	sink.BatchStarted("courses", 2)
	sink.ItemDone("courses", false)
	sink.ItemDone("courses", true)

	require.Equal(t, float64(1),
		testutil.ToFloat64(sink.itemsDone.WithLabelValues("courses", "ok")))
	require.Equal(t, float64(1),
		testutil.ToFloat64(sink.itemsDone.WithLabelValues("courses", "failed")))
	require.Equal(t, float64(0),
		testutil.ToFloat64(sink.itemsInFlight.WithLabelValues("courses")))

	sink.BatchDone("courses")
}
