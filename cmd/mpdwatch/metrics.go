package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pior/musicpd/pool"
)

// metrics exposes watcher activity and the status pool in Prometheus format.
type metrics struct {
	registry *prometheus.Registry

	events     *prometheus.CounterVec
	reconnects prometheus.Counter
}

func newMetrics(h *hub, sessions *pool.Sessions) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpdwatch_changes_total",
				Help: "Subsystem changes reported by idle",
			},
			[]string{"subsystem"},
		),
		reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mpdwatch_reconnects_total",
				Help: "Watch sessions redialed after a failure",
			},
		),
	}

	poolGauge := func(name, help string, value func(pool.Stats) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help, ConstLabels: prometheus.Labels{"server": sessions.Address()}},
			func() float64 { return value(sessions.Stats()) },
		)
	}

	m.registry.MustRegister(
		m.events,
		m.reconnects,
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: "mpdwatch_subscribers", Help: "Connected WebSocket subscribers"},
			func() float64 { return float64(h.count()) },
		),
		poolGauge("mpdwatch_pool_sessions", "Sessions in the status pool",
			func(s pool.Stats) float64 { return float64(s.PoolStats.TotalConns) }),
		poolGauge("mpdwatch_pool_sessions_idle", "Idle sessions in the status pool",
			func(s pool.Stats) float64 { return float64(s.PoolStats.IdleConns) }),
		poolGauge("mpdwatch_pool_sessions_active", "Borrowed sessions of the status pool",
			func(s pool.Stats) float64 { return float64(s.PoolStats.ActiveConns) }),
		poolGauge("mpdwatch_pool_sessions_created", "Sessions dialed by the status pool (cumulative)",
			func(s pool.Stats) float64 { return float64(s.PoolStats.CreatedConns) }),
		poolGauge("mpdwatch_pool_sessions_destroyed", "Sessions closed by the status pool (cumulative)",
			func(s pool.Stats) float64 { return float64(s.PoolStats.DestroyedConns) }),
		poolGauge("mpdwatch_pool_acquires", "Status pool acquires (cumulative)",
			func(s pool.Stats) float64 { return float64(s.PoolStats.AcquireCount) }),
		poolGauge("mpdwatch_pool_acquire_waits", "Status pool acquires that waited for a session (cumulative)",
			func(s pool.Stats) float64 { return float64(s.PoolStats.AcquireWaitCount) }),
		poolGauge("mpdwatch_pool_acquire_wait_seconds", "Time spent waiting for a status pool session (cumulative)",
			func(s pool.Stats) float64 { return s.PoolStats.AcquireWaitTime.Seconds() }),
		poolGauge("mpdwatch_pool_acquire_errors", "Status pool acquire errors (cumulative)",
			func(s pool.Stats) float64 { return float64(s.PoolStats.AcquireErrors) }),
		poolGauge("mpdwatch_circuit_breaker_state", "Status pool circuit breaker state (0 closed, 1 half-open, 2 open)",
			func(s pool.Stats) float64 { return float64(s.CircuitBreakerState) }),
	)

	return m
}

func (m *metrics) recordChanges(changed []string) {
	for _, subsystem := range changed {
		m.events.WithLabelValues(subsystem).Inc()
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
