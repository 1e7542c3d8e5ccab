// Package metrics exposes prometheus counters for the signal pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SignalsGenerated *prometheus.CounterVec
	SignalsSkipped   prometheus.Counter
	AlertsPublished  prometheus.Counter
	Validations      *prometheus.CounterVec
	NewsIngested     prometheus.Counter
	ExternalDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	m := &Metrics{
		SignalsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalpulse_signals_generated_total",
			Help: "Signals generated, labelled by type.",
		}, []string{"type"}),
		SignalsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalpulse_signals_skipped_total",
			Help: "Generation requests that resolved to SKIP.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalpulse_alerts_published_total",
			Help: "High-confidence alerts published.",
		}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalpulse_validations_total",
			Help: "Validated signals, labelled by outcome.",
		}, []string{"outcome"}),
		NewsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalpulse_news_ingested_total",
			Help: "News articles stored after dedupe.",
		}),
		ExternalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signalpulse_external_request_seconds",
			Help:    "Latency of upstream market data requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.SignalsGenerated,
		m.SignalsSkipped,
		m.AlertsPublished,
		m.Validations,
		m.NewsIngested,
		m.ExternalDuration,
	)
	return m
}

// Handler serves the registry in the standard exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
