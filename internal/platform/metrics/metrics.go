// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes the Prometheus instruments of the authentication core.
//
// # Instruments
//
//   - aula_login_attempts_total{outcome}: every login attempt by outcome.
//   - aula_lockouts_total: identifiers that entered a lockout window.
//   - aula_sessions_active: live sessions held in memory, sampled on scrape.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// Auth records login telemetry. It satisfies the auth service's Observer contract.
type Auth struct {
	loginAttempts *prometheus.CounterVec
	lockouts      prometheus.Counter
}

// NewAuth creates and registers the login instruments on reg.
func NewAuth(reg prometheus.Registerer) *Auth {
	factory := promauto.With(reg)

	return &Auth{
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aula_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		lockouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "aula_lockouts_total",
			Help: "Total number of identifiers locked out after repeated failures",
		}),
	}
}

// ObserveLogin counts one login attempt.
func (m *Auth) ObserveLogin(outcome string) {
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveLockout counts one engaged lockout.
func (m *Auth) ObserveLockout() {
	m.lockouts.Inc()
}

// RegisterSessionGauge publishes the live session count, read from count on every scrape.
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "aula_sessions_active",
		Help: "Number of sessions currently held in memory",
	}, func() float64 {
		return float64(count())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
