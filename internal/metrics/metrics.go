package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// View attempt outcomes
const (
	OutcomeRecorded     = "recorded"
	OutcomeBot          = "bot"
	OutcomeDuplicate    = "duplicate"
	OutcomeRateLimited  = "rate_limited"
	OutcomeStoreError   = "store_error"
	OutcomePostNotFound = "post_not_found"
)

// Metrics holds the Prometheus collectors for engagement tracking. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ViewAttemptsTotal      *prometheus.CounterVec
	LikeTogglesTotal       *prometheus.CounterVec
	StatsCacheTotal        *prometheus.CounterVec
	BackgroundTasksTotal   *prometheus.CounterVec
	AdmissionFailOpenTotal prometheus.Counter
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New registers all collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ViewAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postpulse_view_attempts_total",
				Help: "View attempts by post type and outcome",
			},
			[]string{"post_type", "outcome"},
		),
		LikeTogglesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postpulse_like_toggles_total",
				Help: "Like toggles by post type and resulting state",
			},
			[]string{"post_type", "result"},
		),
		StatsCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postpulse_stats_cache_total",
				Help: "Stats cache lookups by result",
			},
			[]string{"result"},
		),
		BackgroundTasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postpulse_background_tasks_total",
				Help: "Fire-and-forget tasks by name and status",
			},
			[]string{"task", "status"},
		),
		AdmissionFailOpenTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "postpulse_admission_fail_open_total",
				Help: "View admissions granted because the cache was unavailable",
			},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "postpulse_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) ViewAttempt(postType, outcome string) {
	if m == nil {
		return
	}
	m.ViewAttemptsTotal.WithLabelValues(postType, outcome).Inc()
}

func (m *Metrics) LikeToggle(postType string, liked bool) {
	if m == nil {
		return
	}
	result := "unliked"
	if liked {
		result = "liked"
	}
	m.LikeTogglesTotal.WithLabelValues(postType, result).Inc()
}

// StatsCache records hit, miss, error or corrupt
func (m *Metrics) StatsCache(result string) {
	if m == nil {
		return
	}
	m.StatsCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) BackgroundTask(task string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BackgroundTasksTotal.WithLabelValues(task, status).Inc()
}

func (m *Metrics) AdmissionFailOpen() {
	if m == nil {
		return
	}
	m.AdmissionFailOpenTotal.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
