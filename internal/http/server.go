// Package http exposes the ledger store as a JSON API on a chi router.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/metrics"
)

// Ledger is the part of the store the API needs.
type Ledger interface {
	Ready() bool
	AddTransaction(ctx context.Context, in core.NewTransaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	AddCategory(ctx context.Context, t core.TransactionType, name string) error
	DeleteCategory(ctx context.Context, t core.TransactionType, name string) error

	Sorted(order core.SortOrder) []core.Transaction
	Categories() core.Categories
	CategoriesFor(t core.TransactionType) []string
	Totals() core.Totals
	TypeTotal(t core.TransactionType) decimal.Decimal
	RecentTransactions(limit int) []core.Transaction
	History(t core.TransactionType, order core.SortOrder) []core.Transaction
	MonthlyHistory(t core.TransactionType, order core.SortOrder) []core.MonthGroup
}

type Server struct {
	http.Server
	ledger      Ledger
	logger      *log.Logger
	rateLimiter *rateLimiter

	recentLimit    int
	metricsEnabled bool

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(log.ComponentHTTP) }
}

// WithRecentLimit sets the summary's default number of recent transactions.
func WithRecentLimit(n int) Option {
	return func(s *Server) { s.recentLimit = n }
}

// WithMetrics mounts /metrics and records request durations.
func WithMetrics(enabled bool) Option {
	return func(s *Server) { s.metricsEnabled = enabled }
}

// WithRateLimit overrides the per-client budget for mutating requests.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimiter.stop()
		s.rateLimiter = newRateLimiter(requests, window)
	}
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:      ledger,
		logger:      log.FromContext(context.Background()).WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(60, time.Minute),
		recentLimit: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(requestID))
	r.Use(s.requestLogging)
	if s.metricsEnabled {
		r.Use(metrics.Middleware)
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(securityHeaders)
		r.Use(s.requireReady)
		r.Use(s.rateLimit)

		r.Get("/summary", s.handleSummary)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/history/{type}", s.handleHistory)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories/{type}", s.handleCreateCategory)
		r.Delete("/categories/{type}/{name}", s.handleDeleteCategory)
	})
	return r
}

// Shutdown stops the rate limiter cleanup and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// requestLogging logs start and completion of every request with its status.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		sl := log.NewStructuredLogger(log.FromContext(r.Context()))

		sl.LogHTTPStart(r.Context(), r, clientIP)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		sl.LogHTTPEnd(r.Context(), r, status, time.Since(start).Milliseconds(), clientIP)
	})
}

func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ledger.Ready() {
			writeError(w, http.StatusServiceUnavailable, core.ErrNotReady.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit applies the per-client budget to mutating requests.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		clientIP := extractClientIP(r)
		if !s.rateLimiter.allow(clientIP) {
			metrics.RateLimitedRequests.Inc()
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ledger.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
