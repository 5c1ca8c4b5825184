package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Engagement metrics
	LikeTogglesTotal   prometheus.CounterVec // labeled like/unlike
	DedupHitsTotal     prometheus.Counter    // likes gated by the daily window
	RankingEventsTotal prometheus.Counter    // scored like events
	RankingErrorsTotal prometheus.Counter    // cache failures on the ranking path

	// Notification metrics
	NotificationsTotal prometheus.CounterVec // labeled sent/failed

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path", "status"},
			),
			LikeTogglesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "like_toggles_total",
					Help: "Like toggle operations by result",
				},
				[]string{"result"},
			),
			DedupHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "like_dedup_hits_total",
					Help: "Likes suppressed by the daily dedup window",
				},
			),
			RankingEventsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "ranking_events_total",
					Help: "Like events scored on the daily leaderboard",
				},
			),
			RankingErrorsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "ranking_errors_total",
					Help: "Cache failures on the ranking path",
				},
			),
			NotificationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_total",
					Help: "Push notification attempts by outcome",
				},
				[]string{"outcome"},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"path"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it on first use
func Get() *Metrics {
	return Initialize()
}
