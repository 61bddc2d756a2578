// Package metrics holds the prometheus collectors of the back-office.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SuggestionLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Subsystem: "colab",
		Name:      "suggestion_lookups_total",
		Help:      "Suggestion lookups broken down by result (found, none, error).",
	}, []string{"result"})

	ColabOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Subsystem: "colab",
		Name:      "ops_total",
		Help:      "Assignment writes issued by the execution coordinator, by kind and result.",
	}, []string{"kind", "result"})

	ColabBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "travel",
		Subsystem: "colab",
		Name:      "batch_duration_seconds",
		Help:      "Time from first write to completed snapshot reload.",
		Buckets: []float64{
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests broken down by route pattern, method and status class.",
	}, []string{"route", "method", "result"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "travel",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass buckets an HTTP status into 2xx/3xx/4xx/5xx.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
