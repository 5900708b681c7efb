// Package metrics exposes the bot's Prometheus collectors as lifecycle hooks.
package metrics

import (
	"context"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values of BookingsTotal.
const (
	OutcomeCommitted = "committed"
	OutcomeFailed    = "failed"
)

// Metrics groups the collectors.
type Metrics struct {
	EventsTotal         *prometheus.CounterVec
	TransitionsTotal    *prometheus.CounterVec
	BookingsTotal       *prometheus.CounterVec
	CommitDuration      prometheus.Histogram
	DeliveryErrorsTotal prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_events_total",
				Help: "Inbound chat events by kind",
			},
			[]string{"kind"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_transitions_total",
				Help: "Dialog step changes",
			},
			[]string{"from", "to"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_bookings_total",
				Help: "Record Sink commits by outcome",
			},
			[]string{"outcome"},
		),
		CommitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "intake_commit_duration_seconds",
				Help:    "Duration of Record Sink appends",
				Buckets: prometheus.DefBuckets,
			},
		),
		DeliveryErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "intake_delivery_errors_total",
				Help: "Outbound messages that could not be delivered",
			},
		),
	}
	reg.MustRegister(
		m.EventsTotal,
		m.TransitionsTotal,
		m.BookingsTotal,
		m.CommitDuration,
		m.DeliveryErrorsTotal,
	)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvent: func(_ context.Context, e *domain.Event) {
			m.EventsTotal.WithLabelValues(string(e.Kind)).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.TransitionsTotal.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnCommit: func(_ context.Context, e *domain.CommitEvent) {
			m.CommitDuration.Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.BookingsTotal.WithLabelValues(OutcomeFailed).Inc()
				return
			}
			m.BookingsTotal.WithLabelValues(OutcomeCommitted).Inc()
		},
		OnDeliveryError: func(_ context.Context, _ *domain.DeliveryEvent) {
			m.DeliveryErrorsTotal.Inc()
		},
	}
}

// Chain merges hooks so that each callback fans out to every non-nil entry.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvent: func(ctx context.Context, e *domain.Event) {
			for _, h := range hooks {
				if h.OnEvent != nil {
					h.OnEvent(ctx, e)
				}
			}
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			for _, h := range hooks {
				if h.OnTransition != nil {
					h.OnTransition(ctx, e)
				}
			}
		},
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			for _, h := range hooks {
				if h.OnCommit != nil {
					h.OnCommit(ctx, e)
				}
			}
		},
		OnDeliveryError: func(ctx context.Context, e *domain.DeliveryEvent) {
			for _, h := range hooks {
				if h.OnDeliveryError != nil {
					h.OnDeliveryError(ctx, e)
				}
			}
		},
	}
}
