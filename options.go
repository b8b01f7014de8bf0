package storex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/storex/internal/telemetry"
)

// DefaultMaxDepth bounds nested dispatches (a subscriber or transform that
// dispatches, which in turn dispatches, ...).
const DefaultMaxDepth = 64

// Option applies configuration to a Store via functional options pattern.
type Option func(*Store)

// WithLogger configures the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxDepth sets the nested dispatch limit. Zero or less disables the guard.
//
// The depth is one counter per store. It measures nesting only while
// dispatches run on one goroutine at a time, which is the model the loop
// package provides. Dispatches overlapping from several goroutines add to
// the same count; such stores should raise the limit or disable the guard.
func WithMaxDepth(depth int) Option {
	return func(s *Store) {
		s.maxDepth = depth
	}
}

// WithID overrides the generated store identifier.
func WithID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.id = id
		}
	}
}

// WithMetrics registers Prometheus collectors with reg and records every
// dispatch. Registration failures are logged and leave metrics disabled.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Store) {
		s.metricsReg = reg
		s.metricsOn = true
	}
}

// WithTracer configures the OpenTelemetry tracer used for dispatch spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) {
		if t != nil {
			s.tracer = t
		}
	}
}

func (s *Store) initMetrics() {
	if !s.metricsOn {
		return
	}
	m, err := telemetry.NewMetrics(s.metricsReg)
	if err != nil {
		s.logger.Error("metrics disabled", "store", s.id, "error", err)
		return
	}
	s.metrics = m
}
