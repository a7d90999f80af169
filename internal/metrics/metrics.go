// Package metrics holds the Prometheus collectors shared by both services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ProductOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Authentication attempts by outcome",
		},
		[]string{"outcome"},
	)

	PeerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peer_calls_total",
			Help: "Calls to the product service by outcome",
		},
		[]string{"outcome"},
	)
)

func ObserveRequest(method, route, status string, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordProductOperation counts create, update, delete, get and search calls.
func RecordProductOperation(operation string) {
	ProductOperations.WithLabelValues(operation).Inc()
}

func RecordAuthAttempt(outcome string) {
	AuthAttempts.WithLabelValues(outcome).Inc()
}

func RecordPeerCall(outcome string) {
	PeerCalls.WithLabelValues(outcome).Inc()
}
