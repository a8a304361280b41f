package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

func newRouterConfig(store *mocks.Store, opts ...func(*RouterConfig)) RouterConfig {
	idGen := mocks.NewMockIDGenerator()

	userUC := usecase.NewUserUseCase(store.Users, store.Audit, nil, 0, idGen, nil)
	accountUC := usecase.NewAccountUseCase(
		store.TxManager, store.Accounts, store.Users, store.Outbox, store.Audit,
		idGen, &mocks.MockAccountNumberGenerator{}, nil,
	)
	transferUC := usecase.NewTransferUseCase(
		store.TxManager, store.Accounts, store.Payments, store.Outbox, store.Audit,
		idGen, nil, nil,
	)
	paymentUC := usecase.NewPaymentUseCase(store.Payments, store.Accounts, store.Users)

	cfg := RouterConfig{
		UserHandler:    handler.NewUserHandler(userUC),
		AccountHandler: handler.NewAccountHandler(accountUC),
		PaymentHandler: handler.NewPaymentHandler(transferUC, paymentUC),
		LedgerHandler: handler.NewLedgerHandler(
			usecase.NewLedgerUseCase(store.Ledger),
			usecase.NewReconciliationUseCase(store.Accounts, store.Payments, store.Ledger),
		),
		HealthHandler: handler.NewHealthHandler(okPinger{}, nil),
		Logger:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func seedAccounts(store *mocks.Store) {
	store.SeedUser(&domain.User{ID: "user-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	for _, id := range []string{"A", "B"} {
		store.SeedAccount(&domain.Account{
			ID:             id,
			Number:         "00000000000" + id,
			UserID:         "user-1",
			Balance:        decimal.NewFromInt(1000),
			OpeningBalance: decimal.NewFromInt(1000),
			Status:         domain.AccountStatusActive,
		})
	}
}

func do(router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "1.2.3.4:1234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_RegistersRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(mocks.NewStore(), func(cfg *RouterConfig) {
		cfg.Gatherer = prometheus.NewRegistry()
	}))

	chiRoutes, ok := router.(chi.Router)
	require.True(t, ok, "router does not implement chi.Router")

	seen := map[string]bool{}
	err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/users/",
		"GET /api/v1/users/",
		"GET /api/v1/users/{id}",
		"PUT /api/v1/users/{id}",
		"DELETE /api/v1/users/{id}",
		"GET /api/v1/users/{id}/accounts",
		"GET /api/v1/users/{id}/payments",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"PUT /api/v1/accounts/{id}",
		"DELETE /api/v1/accounts/{id}",
		"GET /api/v1/accounts/{id}/payments",
		"GET /api/v1/accounts/{id}/reconcile",
		"POST /api/v1/payments/",
		"GET /api/v1/payments/",
		"GET /api/v1/payments/{id}",
		"GET /api/v1/ledger/consistency",
		"GET /api/v1/ledger/reconciliation",
	}

	for _, route := range expected {
		assert.True(t, seen[route], "expected route %s to be registered", route)
	}
}

func TestNewRouter_PaymentFlow(t *testing.T) {
	store := mocks.NewStore()
	seedAccounts(store)
	router := NewRouter(newRouterConfig(store))

	rec := do(router, http.MethodPost, "/api/v1/payments", `{"amount":"250.50","fromAccount":"A","toAccount":"B"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	assert.True(t, store.Account("A").Balance.Equal(decimal.RequireFromString("749.50")))
	assert.True(t, store.Account("B").Balance.Equal(decimal.RequireFromString("1250.50")))

	rec = do(router, http.MethodGet, "/api/v1/ledger/consistency", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/v1/accounts/A/reconcile", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/v1/ledger/reconciliation", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"reconciledAccounts":2`)

	rec = do(router, http.MethodGet, "/api/v1/users/user-1/payments", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestNewRouter_RateLimiterGuardsAPIOnly(t *testing.T) {
	router := NewRouter(newRouterConfig(mocks.NewStore(), func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(0.001, 1, nil)
	}))

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/users", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodGet, "/api/v1/users", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "", nil).Code)
}

func TestNewRouter_IdempotentPaymentReplay(t *testing.T) {
	store := mocks.NewStore()
	seedAccounts(store)
	m := metrics.New(prometheus.NewRegistry())
	router := NewRouter(newRouterConfig(store, func(cfg *RouterConfig) {
		cfg.IdempotencyStore = mocks.NewMockIdempotencyStore()
		cfg.IdempotencyTTL = time.Hour
		cfg.Metrics = m
	}))

	headers := map[string]string{apimiddleware.IdempotencyKeyHeader: "key-123"}
	body := `{"amount":100,"fromAccount":"A","toAccount":"B"}`

	first := do(router, http.MethodPost, "/api/v1/payments", body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := do(router, http.MethodPost, "/api/v1/payments", body, headers)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(apimiddleware.IdempotencyReplayHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	assert.Len(t, store.AllPayments(), 1)
	assert.True(t, store.Account("A").Balance.Equal(decimal.NewFromInt(900)))
}

func TestNewRouter_AuthEnabled(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	router := NewRouter(newRouterConfig(mocks.NewStore(), func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
	}))

	token := func(role domain.Role) map[string]string {
		tok, err := jwtManager.Generate("tester", role)
		require.NoError(t, err)
		return map[string]string{"Authorization": "Bearer " + tok}
	}

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		headers    map[string]string
		wantStatus int
	}{
		{"health stays public", http.MethodGet, "/health", "", nil, http.StatusOK},
		{"api needs token", http.MethodGet, "/api/v1/users", "", nil, http.StatusUnauthorized},
		{"viewer reads", http.MethodGet, "/api/v1/users", "", token(domain.RoleViewer), http.StatusOK},
		{"viewer cannot pay", http.MethodPost, "/api/v1/payments", `{}`, token(domain.RoleViewer), http.StatusForbidden},
		{"viewer cannot check ledger", http.MethodGet, "/api/v1/ledger/consistency", "", token(domain.RoleViewer), http.StatusForbidden},
		{"operator checks ledger", http.MethodGet, "/api/v1/ledger/consistency", "", token(domain.RoleOperator), http.StatusOK},
		{"operator cannot delete", http.MethodDelete, "/api/v1/users/u1", "", token(domain.RoleOperator), http.StatusForbidden},
		{"admin deletes missing user", http.MethodDelete, "/api/v1/users/u1", "", token(domain.RoleAdmin), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, tt.method, tt.target, tt.body, tt.headers)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := NewRouter(newRouterConfig(mocks.NewStore(), func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.Gatherer = reg
	}))

	do(router, http.MethodGet, "/api/v1/users/ghost", "", nil)

	rec := do(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gobank_http_requests_total{method="GET",path="/api/v1/users/{id}",status="404"} 1`)
}
