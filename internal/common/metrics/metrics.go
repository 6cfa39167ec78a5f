// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_provider_requests_total",
			Help: "Total number of provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_provider_fallbacks_total",
			Help: "Total number of fallback provider invocations",
		},
		[]string{"from", "to"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "search_duration_seconds",
			Help: "Duration of a full retrieval orchestration in seconds",
		},
		[]string{"branch"},
	)

	SearchesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "searches_active",
			Help: "Number of retrieval orchestrations in flight",
		},
	)

	AnswerRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "answer_generation_retries_total",
			Help: "Total number of LLM call retries during answer generation",
		},
	)
)
