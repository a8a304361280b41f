package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional features are off
// when their field is nil.
type RouterConfig struct {
	UserHandler    *handler.UserHandler
	AccountHandler *handler.AccountHandler
	PaymentHandler *handler.PaymentHandler
	LedgerHandler  *handler.LedgerHandler
	HealthHandler  *handler.HealthHandler

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics.
	Gatherer prometheus.Gatherer

	RateLimiter      *middleware.RateLimiter
	JWTManager       *auth.JWTManager
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		if cfg.JWTManager != nil {
			r.Use(middleware.Authenticate(cfg.JWTManager))
			r.Use(middleware.Authorize)
		}

		// Idempotency middleware for POST requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Metrics)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Post("/", cfg.UserHandler.Create)
			r.Get("/", cfg.UserHandler.List)
			r.Get("/{id}", cfg.UserHandler.Get)
			r.Put("/{id}", cfg.UserHandler.Update)
			r.Delete("/{id}", cfg.UserHandler.Delete)
			r.Get("/{id}/accounts", cfg.AccountHandler.ListByUser)
			r.Get("/{id}/payments", cfg.PaymentHandler.ListByUser)
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Put("/{id}", cfg.AccountHandler.Update)
			r.Delete("/{id}", cfg.AccountHandler.Close)
			r.Get("/{id}/payments", cfg.PaymentHandler.ListByAccount)
			r.Get("/{id}/reconcile", cfg.LedgerHandler.ReconcileAccount)
		})

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", cfg.PaymentHandler.Create)
			r.Get("/", cfg.PaymentHandler.List)
			r.Get("/{id}", cfg.PaymentHandler.Get)
		})

		// Ledger
		r.Route("/ledger", func(r chi.Router) {
			r.Use(operatorOnly(cfg.JWTManager))
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Get("/reconciliation", cfg.LedgerHandler.ReconciliationReport)
		})
	})

	return r
}

// operatorOnly restricts ledger-wide reports when auth is enabled.
func operatorOnly(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	if jwtManager == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RequireRole(domain.RoleOperator)
}
