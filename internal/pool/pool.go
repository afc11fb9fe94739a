// Package pool implements a generic bounded-parallel map over keyed inputs.
//
// Both crawl fan-out points (courses and subchapters) run through this single
// component: each entry of the input map is processed once on a fixed-size
// worker pool, and every key reappears in the output carrying either the
// function's result or that entry's error. One entry failing never cancels or
// corrupts its siblings.
package pool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Result is a per-key result-or-error union.
type Result[R any] struct {
	Value R
	Err   error
}

// Ok reports whether the entry completed without error.
func (r Result[R]) Ok() bool {
	return r.Err == nil
}

// Tracker receives completion notifications for a labeled batch. Implementations
// must be safe for concurrent use.
type Tracker interface {
	BatchStarted(label string, total int)
	ItemDone(label string, err error)
	BatchDone(label string)
}

// Options controls a Run invocation.
type Options struct {
	// Workers bounds concurrent in-flight invocations. Values < 1 mean 1.
	Workers int
	// Label names the batch in logs and progress output.
	Label string
	// Logger is used for per-key failure logging. Nil means no logging.
	Logger *zap.Logger
	// Tracker observes batch progress. Nil means no progress reporting.
	Tracker Tracker
}

// Run executes fn once per entry of items on a bounded worker pool and returns
// a map with exactly the input's keys. Submission order does not determine
// completion order. A panic inside fn is recovered and recorded as that key's
// error.
func Run[K comparable, V, R any](
	ctx context.Context,
	items map[K]V,
	fn func(ctx context.Context, key K, value V) (R, error),
	opts Options,
) map[K]Result[R] {
	results := make(map[K]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Tracker != nil {
		opts.Tracker.BatchStarted(opts.Label, len(items))
		defer opts.Tracker.BatchDone(opts.Label)
	}

	type keyed struct {
		key    K
		result Result[R]
	}

	keys := make(chan K)
	out := make(chan keyed)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range keys {
				out <- keyed{key: key, result: invoke(ctx, key, items[key], fn)}
			}
		}()
	}

	go func() {
		for key := range items {
			keys <- key
		}
		close(keys)
		wg.Wait()
		close(out)
	}()

	for entry := range out {
		if entry.result.Err != nil {
			logger.Warn("pool entry failed",
				zap.String("batch", opts.Label),
				zap.Any("key", entry.key),
				zap.Error(entry.result.Err),
			)
		}
		if opts.Tracker != nil {
			opts.Tracker.ItemDone(opts.Label, entry.result.Err)
		}
		results[entry.key] = entry.result
	}
	return results
}

func invoke[K comparable, V, R any](
	ctx context.Context,
	key K,
	value V,
	fn func(ctx context.Context, key K, value V) (R, error),
) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Err: fmt.Errorf("panic processing %v: %v", key, r)}
		}
	}()
	value0, err := fn(ctx, key, value)
	return Result[R]{Value: value0, Err: err}
}
