// Package metrics exports saga driver activity as prometheus metrics. A
// Metrics value is a saga.Observer; install it with saga.WithObserver and
// serve Handler on /metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kingrea/teasaga/saga"
)

const namespace = "teasaga"

// Metrics holds the collectors and the registry they are registered in.
type Metrics struct {
	registry *prometheus.Registry

	started   *prometheus.CounterVec
	advances  *prometheus.CounterVec
	effects   *prometheus.CounterVec
	discarded *prometheus.CounterVec
	failures  *prometheus.CounterVec
	steps     *prometheus.HistogramVec
}

// New builds a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sagas_started_total",
				Help:      "Drivers started, including parallel children",
			},
			[]string{"saga"},
		),
		advances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "advances_total",
				Help:      "Host-visible steps returned by drivers",
			},
			[]string{"saga"},
		),
		effects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "effects_total",
				Help:      "Commands handed to the host",
			},
			[]string{"saga"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_discarded_total",
				Help:      "Events dropped by take because they did not match",
			},
			[]string{"saga"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Drivers that stopped with an error",
			},
			[]string{"saga", "reason"},
		),
		steps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "advance_steps",
				Help:      "Step outputs folded into one host-visible step",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
			},
			[]string{"saga"},
		),
	}
	m.registry.MustRegister(m.started, m.advances, m.effects, m.discarded, m.failures, m.steps)
	return m
}

// Registry exposes the registry for callers that add their own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP)
	return r
}

// Serve listens on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	}
}

// Started implements saga.Observer.
func (m *Metrics) Started(info saga.Info) {
	m.started.WithLabelValues(info.Name).Inc()
}

// Flushed implements saga.Observer.
func (m *Metrics) Flushed(info saga.Info, steps, effects int) {
	m.advances.WithLabelValues(info.Name).Inc()
	m.effects.WithLabelValues(info.Name).Add(float64(effects))
	m.steps.WithLabelValues(info.Name).Observe(float64(steps))
}

// Discarded implements saga.Observer.
func (m *Metrics) Discarded(info saga.Info, _ any) {
	m.discarded.WithLabelValues(info.Name).Inc()
}

// Failed implements saga.Observer.
func (m *Metrics) Failed(info saga.Info, err error) {
	m.failures.WithLabelValues(info.Name, reason(err)).Inc()
}

func reason(err error) string {
	var panicErr *saga.PanicError
	switch {
	case errors.Is(err, saga.ErrSagaCompleted):
		return "completed"
	case errors.Is(err, saga.ErrProtocolViolation):
		return "protocol"
	case errors.As(err, &panicErr):
		return "panic"
	default:
		return "error"
	}
}
