// Package metrics exposes Prometheus collectors for the fetcher service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes recorded by ObserveFetch.
const (
	OutcomeOK            = "ok"
	OutcomeClientError   = "client_error"
	OutcomeUpstreamError = "upstream_error"
	OutcomeFetchError    = "fetch_error"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	fetchTotal                 *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	fetchCommentsReturned      *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"method", "route"},
		)

		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reddit_fetch_total",
				Help: "Total number of post fetches, labeled by content source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reddit_fetch_duration_seconds",
				Help:    "Histogram of post fetch latencies, labeled by content source.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		)

		fetchCommentsReturned = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reddit_fetch_comments_returned",
				Help:    "Number of comments returned per successful fetch.",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
			[]string{"source"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveFetch records a single content source call.
func ObserveFetch(source, outcome string, duration time.Duration, comments int) {
	Init()
	fetchTotal.WithLabelValues(source, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
	if outcome == OutcomeOK {
		fetchCommentsReturned.WithLabelValues(source).Observe(float64(comments))
	}
}
