package progress

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exports crawl progress via Prometheus collectors.
type PrometheusSink struct {
	batchesStarted *prometheus.CounterVec
	itemsDone      *prometheus.CounterVec
	itemsInFlight  *prometheus.GaugeVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		batchesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_batches_started_total",
			Help: "Fan-out batches started, partitioned by batch label.",
		}, []string{"batch"}),
		itemsDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_items_completed_total",
			Help: "Fan-out items completed, partitioned by batch label and result.",
		}, []string{"batch", "result"}),
		itemsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "harvester_items_pending",
			Help: "Items not yet completed in currently running batches.",
		}, []string{"batch"}),
	}
	for _, collector := range []prometheus.Collector{
		s.batchesStarted,
		s.itemsDone,
		s.itemsInFlight,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// BatchStarted records the batch and its pending item count.
func (s *PrometheusSink) BatchStarted(label string, total int) {
	s.batchesStarted.WithLabelValues(label).Inc()
	s.itemsInFlight.WithLabelValues(label).Add(float64(total))
}

// ItemDone counts the completion and shrinks the pending gauge.
func (s *PrometheusSink) ItemDone(label string, failed bool) {
	result := "ok"
	if failed {
		result = "failed"
	}
	s.itemsDone.WithLabelValues(label, result).Inc()
	s.itemsInFlight.WithLabelValues(label).Dec()
}

// BatchDone clears any pending residue for the batch label.
func (s *PrometheusSink) BatchDone(label string) {
	s.itemsInFlight.DeleteLabelValues(label)
}
