package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocklens_provider_requests_total",
		Help: "Market-data provider calls by operation and source (live or fallback)",
	}, []string{"op", "source"})

	providerFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocklens_provider_fallbacks_total",
		Help: "Fallback substitutions by operation and reason",
	}, []string{"op", "reason"})

	providerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stocklens_provider_request_seconds",
		Help:    "Time spent in the primary market-data provider",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	sessionRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocklens_session_refresh_total",
		Help: "Session cache refreshes by kind (full or quotes)",
	}, []string{"kind"})

	sessionLoading = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stocklens_session_loading",
		Help: "1 while a full session refresh is in flight",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocklens_http_requests_total",
		Help: "API requests by method, route and status code",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stocklens_http_request_seconds",
		Help:    "API request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// ObserveProvider records one provider call.
func ObserveProvider(op, source string, d time.Duration) {
	providerRequests.WithLabelValues(op, source).Inc()
	providerDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncFallback counts a fallback substitution.
func IncFallback(op, reason string) {
	providerFallbacks.WithLabelValues(op, reason).Inc()
}

// IncRefresh counts a session refresh.
func IncRefresh(kind string) {
	sessionRefreshes.WithLabelValues(kind).Inc()
}

// SetLoading publishes the session loading flag.
func SetLoading(loading bool) {
	if loading {
		sessionLoading.Set(1)
		return
	}
	sessionLoading.Set(0)
}

// ObserveHTTP records one API request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
