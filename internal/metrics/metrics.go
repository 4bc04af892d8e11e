package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "digitalaxis"

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 评论审核
	ModerationActionsTotal *prometheus.CounterVec
	CascadeDeletedTotal    prometheus.Counter

	CommentsSubmittedTotal prometheus.Counter
	SubscribersTotal       prometheus.Counter
	IndexNowURLsTotal      *prometheus.CounterVec
}

// New creates and registers all metrics with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics with a custom registry
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "endpoint"},
		),
		ModerationActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comment_moderation_actions_total",
				Help:      "Moderation actions by action and result",
			},
			[]string{"action", "result"},
		),
		CascadeDeletedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comment_cascade_deleted_total",
				Help:      "Comment records removed by cascade deletes",
			},
		),
		CommentsSubmittedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comments_submitted_total",
				Help:      "Visitor comments accepted",
			},
		),
		SubscribersTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "newsletter_subscriptions_total",
				Help:      "Newsletter subscriptions created",
			},
		),
		IndexNowURLsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "indexnow_urls_total",
				Help:      "URLs submitted to IndexNow by result",
			},
			[]string{"result"},
		),
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, categorizeStatus(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordModeration counts one moderation action; result is "ok" or "error"
func (m *Metrics) RecordModeration(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ModerationActionsTotal.WithLabelValues(action, result).Inc()
}

func (m *Metrics) AddCascadeDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CascadeDeletedTotal.Add(float64(n))
}

func (m *Metrics) IncCommentSubmitted() {
	if m == nil {
		return
	}
	m.CommentsSubmittedTotal.Inc()
}

func (m *Metrics) IncSubscriber() {
	if m == nil {
		return
	}
	m.SubscribersTotal.Inc()
}

func (m *Metrics) AddIndexNowURLs(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IndexNowURLsTotal.WithLabelValues(result).Add(float64(n))
}

// categorizeStatus converts status code to category (2xx, 3xx, 4xx, 5xx)
func categorizeStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// ShouldSkipEndpoint checks if endpoint should be excluded from metrics
func ShouldSkipEndpoint(path string) bool {
	return path == "/metrics" || path == "/health" || path == "/favicon.ico"
}
