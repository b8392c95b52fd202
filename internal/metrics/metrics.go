// Package metrics содержит Prometheus-метрики сервиса.
// Все коллекторы регистрируются в собственном Registry, который отдаётся на /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ethical_karma"

var (
	// Registry хранит коллекторы приложения.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms .. ~5s
		},
		[]string{"method", "route"},
	)

	karmaGrants = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "karma",
			Name:      "grants_total",
			Help:      "Karma grants by action type and outcome.",
		},
		[]string{"action_type", "result"},
	)

	karmaPoints = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "karma",
			Name:      "points_granted_total",
			Help:      "Sum of positive karma points granted.",
		},
		[]string{"action_type"},
	)

	reconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "karma",
			Name:      "reconcile_users_total",
			Help:      "Users checked by balance reconciliation, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		karmaGrants,
		karmaPoints,
		reconcileRuns,
	)
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest учитывает один HTTP-запрос.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordGrant учитывает попытку начисления кармы.
func RecordGrant(actionType string, points int64, err error) {
	if err != nil {
		karmaGrants.WithLabelValues(actionType, "error").Inc()
		return
	}
	karmaGrants.WithLabelValues(actionType, "ok").Inc()
	if points > 0 {
		karmaPoints.WithLabelValues(actionType).Add(float64(points))
	}
}

// RecordReconcile учитывает результат сверки одного пользователя:
// "consistent", "repaired" или "failed".
func RecordReconcile(outcome string) {
	reconcileRuns.WithLabelValues(outcome).Inc()
}
