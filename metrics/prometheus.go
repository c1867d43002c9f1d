package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus mirrors of the collector counters, for scrape-based monitoring.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insolvencybot_requests_total",
			Help: "Total number of question requests by model",
		},
		[]string{"model"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insolvencybot_errors_total",
			Help: "Total number of failed requests by status code",
		},
		[]string{"status"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insolvencybot_rate_limit_hits_total",
			Help: "Total number of rate limited requests",
		},
	)

	responseTimeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "insolvencybot_response_time_seconds",
			Help: "Question response time in seconds",
		},
	)
)
