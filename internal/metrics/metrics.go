// Package metrics defines the Prometheus instrumentation for the gateway.
// Pass a *Metrics to components that need to record observations; tests use
// a private registry so parallel suites don't collide.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for Portcullis.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	AuthFailures     *prometheus.CounterVec
	AuthzDenials     *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter
	RateLimitKeys    prometheus.Gauge
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// New creates and registers all collectors with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portcullis",
				Name:      "requests_total",
				Help:      "Total number of gateway requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "portcullis",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portcullis",
				Name:      "auth_failures_total",
				Help:      "Total authentication failures",
			},
			[]string{"reason"}, // reason=missing/invalid/error
		),
		AuthzDenials: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portcullis",
				Name:      "authz_denials_total",
				Help:      "Total authorization denials",
			},
			[]string{"permission"},
		),
		RateLimitedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "portcullis",
				Name:      "rate_limited_total",
				Help:      "Total requests rejected by the global rate limiter",
			},
		),
		RateLimitKeys: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "portcullis",
				Name:      "rate_limit_keys",
				Help:      "Number of tracked rate limit source keys",
			},
		),
		UpstreamRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portcullis",
				Name:      "upstream_requests_total",
				Help:      "Total upstream Tufin API calls",
			},
			[]string{"operation", "result"}, // result=ok/timeout/connection/status/decode
		),
		UpstreamDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "portcullis",
				Name:      "upstream_duration_seconds",
				Help:      "Upstream Tufin API call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}
