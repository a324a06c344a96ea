// Package metrics exposes Prometheus collectors for the HTTP surface, the
// expense workflow and background jobs.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eventfin"

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	expenseTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expense_transitions_total",
			Help:      "Expense status transitions by target status",
		},
		[]string{"to"},
	)

	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_total",
			Help:      "Approval decisions by action",
		},
		[]string{"action"},
	)

	budgetVersionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_versions_total",
			Help:      "Budget versions created by origin",
		},
		[]string{"origin"},
	)

	budgetFinalizationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_finalizations_total",
			Help:      "Budget versions marked final",
		},
	)

	jobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by kind and result",
		},
		[]string{"kind", "result"},
	)

	databaseConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_connections",
			Help:      "Database pool connections by state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		expenseTransitionsTotal,
		approvalsTotal,
		budgetVersionsTotal,
		budgetFinalizationsTotal,
		jobRunsTotal,
		databaseConnections,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records one HTTP request. path must be the route
// template, never the raw URL.
func RecordAPIRequest(method, path string, status int, seconds float64) {
	apiRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordExpenseTransition counts an expense entering status to.
func RecordExpenseTransition(to string) {
	expenseTransitionsTotal.WithLabelValues(to).Inc()
}

// RecordApproval counts an approval decision.
func RecordApproval(action string) {
	approvalsTotal.WithLabelValues(action).Inc()
}

// RecordBudgetVersion counts a created budget version; origin is "new" or "clone".
func RecordBudgetVersion(origin string) {
	budgetVersionsTotal.WithLabelValues(origin).Inc()
}

// RecordBudgetFinalized counts a version being marked final.
func RecordBudgetFinalized() {
	budgetFinalizationsTotal.Inc()
}

// RecordJobRun counts a finished background job run.
func RecordJobRun(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	jobRunsTotal.WithLabelValues(kind, result).Inc()
}

// UpdateDatabaseConnections samples pool statistics.
func UpdateDatabaseConnections(pool *pgxpool.Pool) {
	if pool == nil {
		return
	}
	stat := pool.Stat()
	databaseConnections.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
	databaseConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	databaseConnections.WithLabelValues("max").Set(float64(stat.MaxConns()))
}
