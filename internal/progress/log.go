package progress

import (
	"sync"

	"go.uber.org/zap"
)

// LogSink emits structured logs for batch lifecycle events. Per-item
// completions log at Debug; batch boundaries log at Info with a running
// counter so a console run shows "3/12 done" style output.
type LogSink struct {
	logger *zap.Logger

	mu     sync.Mutex
	counts map[string]*batchCount
}

type batchCount struct {
	total  int
	done   int
	failed int
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger, counts: make(map[string]*batchCount)}
}

// BatchStarted logs the batch size.
func (s *LogSink) BatchStarted(label string, total int) {
	s.mu.Lock()
	s.counts[label] = &batchCount{total: total}
	s.mu.Unlock()
	s.logger.Info("batch started", zap.String("batch", label), zap.Int("total", total))
}

// ItemDone advances and logs the batch counter.
func (s *LogSink) ItemDone(label string, failed bool) {
	s.mu.Lock()
	c := s.counts[label]
	if c == nil {
		c = &batchCount{}
		s.counts[label] = c
	}
	c.done++
	if failed {
		c.failed++
	}
	done, total := c.done, c.total
	s.mu.Unlock()

	s.logger.Debug("batch progress",
		zap.String("batch", label),
		zap.Int("done", done),
		zap.Int("total", total),
		zap.Bool("failed", failed),
	)
}

// BatchDone logs the final tally and forgets the batch.
func (s *LogSink) BatchDone(label string) {
	s.mu.Lock()
	c := s.counts[label]
	delete(s.counts, label)
	s.mu.Unlock()
	if c == nil {
		return
	}
	s.logger.Info("batch finished",
		zap.String("batch", label),
		zap.Int("done", c.done),
		zap.Int("failed", c.failed),
	)
}
