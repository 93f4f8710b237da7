// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ViewCacheLookups counts view cache lookups by view and outcome (hit, miss, error).
	ViewCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_view_cache_lookups_total",
		Help: "Total number of view cache lookups by outcome",
	}, []string{"view", "outcome"})

	// ViewInvalidations counts views marked stale after a mutation.
	ViewInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_view_invalidations_total",
		Help: "Total number of views marked stale",
	}, []string{"view"})

	// EngagementToggles counts like/save toggles by relation and resulting state.
	EngagementToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_engagement_toggles_total",
		Help: "Total number of like and save toggles",
	}, []string{"relation", "state"})

	// ArticleMutations counts article create, edit and delete operations.
	ArticleMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_article_mutations_total",
		Help: "Total number of article mutations by operation",
	}, []string{"operation"})

	// IdentityUsersCreated counts local users created on first sight of an identity.
	IdentityUsersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_identity_users_created_total",
		Help: "Total number of local users created lazily",
	})

	// ImageHostLatency records image host call latency by host and operation.
	ImageHostLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_image_host_latency_seconds",
		Help:    "Image host call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"host", "operation"})

	// ImageHostErrors counts failed image host calls.
	ImageHostErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_image_host_errors_total",
		Help: "Total number of failed image host calls",
	}, []string{"host", "operation"})

	// WebSocketConnectionsTotal is the gauge of live view subscribers.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackImageHost returns a function that records image host latency and
// failure when called with the call's error (e.g. defer).
func TrackImageHost(host, operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		ImageHostLatency.WithLabelValues(host, operation).Observe(time.Since(start).Seconds())
		if err != nil {
			ImageHostErrors.WithLabelValues(host, operation).Inc()
		}
	}
}
