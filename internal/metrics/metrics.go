package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by method and route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// EngagementToggles counts like and favorite toggles by outcome
	EngagementToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_engagement_toggles_total",
		Help: "Total number of like and favorite toggles",
	}, []string{"kind", "outcome"})

	// ArticleViews counts single-article reads
	ArticleViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_article_views_total",
		Help: "Total number of article views",
	})

	// CommentModerations counts moderation decisions by action
	CommentModerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_comment_moderations_total",
		Help: "Total number of moderated comments",
	}, []string{"action"})

	// DonationTransitions counts donation status changes by payment method
	DonationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_donation_transitions_total",
		Help: "Total number of donation status transitions",
	}, []string{"method", "status"})

	// ReconcileRuns counts reconciler checks of pending checkout sessions
	ReconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_donation_reconcile_total",
		Help: "Total number of checkout sessions reconciled",
	}, []string{"result"})

	// RateLimited counts rejected requests by route
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_rate_limited_total",
		Help: "Total number of rate limited requests",
	}, []string{"route"})

	// Uploads counts processed image uploads
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_uploads_total",
		Help: "Total number of image uploads",
	}, []string{"result"})
)

// ObserveRequest records one finished HTTP request
func ObserveRequest(method, route string, status int, start time.Time) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// Toggle records an engagement toggle. kind is "like" or "favorite".
func Toggle(kind string, on bool) {
	outcome := "removed"
	if on {
		outcome = "added"
	}
	EngagementToggles.WithLabelValues(kind, outcome).Inc()
}
