// Package metrics exposes Prometheus metrics for the ledger store and HTTP API.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ledger/internal/core"
	"ledger/internal/store"
)

// ─── Store ──────────────────────────────────────────────────────────────────

// StoreChanges counts applied store changes by kind.
var StoreChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "store",
	Name:      "changes_total",
	Help:      "Total store changes applied in memory, by kind.",
}, []string{"kind"})

// PersistFailures counts snapshot writes that failed after memory was updated.
var PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "store",
	Name:      "persist_failures_total",
	Help:      "Total snapshot writes that failed, by change kind.",
}, []string{"kind"})

// Transactions tracks the number of transactions held in memory.
var Transactions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ledger",
	Subsystem: "store",
	Name:      "transactions",
	Help:      "Current number of transactions.",
})

// Categories tracks the size of each category list.
var Categories = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "ledger",
	Subsystem: "store",
	Name:      "categories",
	Help:      "Current number of categories, by transaction type.",
}, []string{"type"})

// ObserveChange is a store.Subscriber keeping the store metrics current.
func ObserveChange(_ context.Context, c store.Change) {
	kind := string(c.Kind)
	StoreChanges.WithLabelValues(kind).Inc()
	if c.PersistErr != nil {
		PersistFailures.WithLabelValues(kind).Inc()
	}
	Transactions.Set(float64(c.Transactions))
	Categories.WithLabelValues(core.Income.String()).Set(float64(len(c.Categories.Income)))
	Categories.WithLabelValues(core.Expense.String()).Set(float64(len(c.Categories.Expense)))
}

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequestDuration tracks API latency by route pattern and status.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "ledger",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method, route and status code.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// RateLimitedRequests counts mutating API requests rejected by the per-client limit.
var RateLimitedRequests = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ledger",
	Subsystem: "http",
	Name:      "rate_limited_requests_total",
	Help:      "Total API requests rejected by the rate limiter.",
})

// Middleware records HTTPRequestDuration for chi routes.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
