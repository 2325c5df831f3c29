package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPMetrics instruments inbound HTTP requests.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

func NewHTTPMetrics(registry *prometheus.Registry) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authhub_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	registry.MustRegister(m.requests, m.duration)
	return m
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// Metrics exposes domain-level instruments.
type Metrics struct {
	SubscriptionTransitions *prometheus.CounterVec
	NotificationsPublished  *prometheus.CounterVec
	GroupSyncActions        *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SubscriptionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authhub_subscription_transitions_total",
			Help: "Product subscription status transitions by target status.",
		}, []string{"status"}),
		NotificationsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authhub_notifications_published_total",
			Help: "Subscription notifications published by type.",
		}, []string{"type"}),
		GroupSyncActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authhub_groupsync_actions_total",
			Help: "Identity-provider group actions submitted by kind.",
		}, []string{"action"}),
	}
	registry.MustRegister(m.SubscriptionTransitions, m.NotificationsPublished, m.GroupSyncActions)
	return m
}
