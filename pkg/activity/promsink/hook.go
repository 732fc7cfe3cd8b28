// Package promsink exposes filter store activity as Prometheus metrics.
package promsink

import (
	"context"
	"time"

	"github.com/goliatone/go-filters/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
)

// Hook counts filter events and side-effect clears. It implements
// activity.ActivityHook.
type Hook struct {
	events     *prometheus.CounterVec
	cleared    *prometheus.CounterVec
	predicates *prometheus.HistogramVec
}

var _ activity.ActivityHook = (*Hook)(nil)

// New builds the collectors and registers them with reg (the default
// registerer when nil).
func New(reg prometheus.Registerer, namespace string) (*Hook, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hook{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "filters",
				Name:      "events_total",
				Help:      "Filter store events by verb and store.",
			},
			[]string{"verb", "store"},
		),
		cleared: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "filters",
				Name:      "side_effect_clears_total",
				Help:      "Fields cleared by exclusion or dependency rules.",
			},
			[]string{"store", "field"},
		),
		predicates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "filters",
				Name:      "predicate_duration_seconds",
				Help:      "Visibility predicate evaluation latency.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"engine", "outcome"},
		),
	}
	for _, collector := range []prometheus.Collector{h.events, h.cleared, h.predicates} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Notify implements activity.ActivityHook.
func (h *Hook) Notify(_ context.Context, event activity.Event) error {
	store := event.StoreID()
	h.events.WithLabelValues(event.Verb, store).Inc()
	if cleared, ok := event.Metadata["cleared"].([]string); ok {
		for _, field := range cleared {
			h.cleared.WithLabelValues(store, field).Inc()
		}
	}
	return nil
}

// ObservePredicate records one predicate evaluation. It matches the shape of
// an evaluator log event so it can back an EvaluatorLoggerFunc.
func (h *Hook) ObservePredicate(engine string, duration time.Duration, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	h.predicates.WithLabelValues(engine, outcome).Observe(duration.Seconds())
}
