// Package telemetry holds the Prometheus and OpenTelemetry instrumentation
// used by storex stores. Every recorder is nil-safe so the store can call it
// unconditionally.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storex"

// Outcome values for the dispatch counter.
const (
	OutcomeCommitted = "committed"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
)

// Metrics records dispatch activity for one or more stores.
type Metrics struct {
	dispatches  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	panics      *prometheus.CounterVec
	subscribers *prometheus.GaugeVec
}

// NewMetrics registers the store collectors with reg. Collectors already
// registered by another store on the same registry are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of action dispatches.",
		}, []string{"action", "kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch duration in seconds, including subscriber notification.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_panics_total",
			Help:      "Subscriber invocations that panicked.",
		}, []string{"action"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Registered subscribers per store.",
		}, []string{"store"}),
	}

	var err error
	if m.dispatches, err = register(reg, m.dispatches); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.panics, err = register(reg, m.panics); err != nil {
		return nil, err
	}
	if m.subscribers, err = register(reg, m.subscribers); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveDispatch records one finished dispatch.
func (m *Metrics) ObserveDispatch(action, kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(action, kind, outcome).Inc()
	m.duration.WithLabelValues(action).Observe(d.Seconds())
}

// SubscriberPanicked counts a recovered subscriber panic.
func (m *Metrics) SubscriberPanicked(action string) {
	if m == nil {
		return
	}
	m.panics.WithLabelValues(action).Inc()
}

// SetSubscribers reports the current registration count of a store.
func (m *Metrics) SetSubscribers(store string, n int) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(store).Set(float64(n))
}
