// Package metrics holds the API's Prometheus collectors and the bun hook that
// times every database statement.
package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
)

const namespace = "racingdb"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

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
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	dbQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "queries_total",
			Help:      "Total number of database statements, by operation and procedure.",
		},
		[]string{"operation", "procedure", "success"},
	)

	dbDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database statements.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "procedure"},
	)

	poolWaiting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_waiting",
			Help:      "Callers queued for a pool connection.",
		},
	)

	poolRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_rejected_total",
			Help:      "Calls refused by the pool admission policy.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		dbQueries,
		dbDuration,
		poolWaiting,
		poolRejected,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted marks an HTTP request as in flight.
func RequestStarted() {
	httpInFlight.Inc()
}

// RecordRequest records a finished HTTP request. route is the matched route
// pattern, never the raw path, to keep label cardinality bounded.
func RecordRequest(method, route string, status int, d time.Duration) {
	httpInFlight.Dec()
	httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// PoolWaiting adjusts the number of callers queued on the pool.
func PoolWaiting(delta float64) {
	poolWaiting.Add(delta)
}

// PoolRejected counts a call refused by the pool.
func PoolRejected(reason string) {
	poolRejected.WithLabelValues(reason).Inc()
}

// QueryHook is a bun.QueryHook recording statement counts and latency.
type QueryHook struct{}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns a hook for db.AddQueryHook.
func NewQueryHook() *QueryHook {
	return &QueryHook{}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	op := strings.ToUpper(event.Operation())
	proc := ProcedureName(event.Query)
	success := "true"
	if event.Err != nil {
		success = "false"
	}
	dbQueries.WithLabelValues(op, proc, success).Inc()
	dbDuration.WithLabelValues(op, proc).Observe(time.Since(event.StartTime).Seconds())
}

// ProcedureName extracts the procedure from a "CALL name(...)" statement and
// returns "" for anything else.
func ProcedureName(query string) string {
	q := strings.TrimSpace(query)
	if len(q) < 5 || !strings.EqualFold(q[:5], "CALL ") {
		return ""
	}
	q = strings.TrimSpace(q[5:])
	if i := strings.IndexByte(q, '('); i >= 0 {
		q = q[:i]
	}
	return strings.Trim(strings.TrimSpace(q), "`")
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
