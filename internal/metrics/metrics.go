// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lead outcomes.
const (
	LeadCreated   = "created"
	LeadExisting  = "existing"
	LeadRecovered = "recovered"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roascalc",
		Name:      "analyses_total",
		Help:      "Analyses produced, by insight source.",
	}, []string{"insight_source"})

	leadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roascalc",
		Name:      "leads_total",
		Help:      "Lead capture requests, by outcome.",
	}, []string{"outcome"})

	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "roascalc",
		Name:      "llm_request_duration_seconds",
		Help:      "Latency of text-generation requests, by outcome.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 15, 25, 40},
	}, []string{"outcome"})
)

// ObserveAnalysis counts one persisted analysis by the source of its narrative.
func ObserveAnalysis(aiGenerated bool) {
	source := "fallback"
	if aiGenerated {
		source = "ai"
	}
	analysesTotal.WithLabelValues(source).Inc()
}

// ObserveLead counts one lead capture with the given outcome.
func ObserveLead(outcome string) {
	leadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveLLMRequest records a text-generation call.
func ObserveLLMRequest(outcome string, d time.Duration) {
	llmRequestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
