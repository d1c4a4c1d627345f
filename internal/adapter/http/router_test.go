package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankbook/internal/adapter/http/handler"
	apimiddleware "github.com/iho/bankbook/internal/adapter/http/middleware"
	"github.com/iho/bankbook/internal/adapter/repository/jsonfile"
	redisrepo "github.com/iho/bankbook/internal/adapter/repository/redis"
	"github.com/iho/bankbook/internal/usecase"
)

func newRouterConfig(t *testing.T, opts ...func(*RouterConfig)) RouterConfig {
	t.Helper()

	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	uc := usecase.NewAccountUseCase(store, nil, nil, zerolog.Nop())

	cfg := RouterConfig{
		AccountHandler:     handler.NewAccountHandler(uc),
		TransactionHandler: handler.NewTransactionHandler(uc),
		HealthHandler:      handler.NewHealthHandler(handler.HealthCheck{Name: "store", Pinger: store}),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func do(t *testing.T, router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewRouter_HealthEndpointsAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/ready", "").Code)
}

func TestNewRouter_SetsRequestID(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := do(t, router, http.MethodGet, "/health", "", apimiddleware.RequestIDHeader, "abc")
	assert.Equal(t, "abc", rec.Header().Get(apimiddleware.RequestIDHeader))
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	require.Equal(t, http.StatusOK, rec1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestNewRouter_AccountLifecycle(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := do(t, router, http.MethodPost, "/api/v1/accounts", `{"nickname":"Main"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decodeMap(t, rec)["id"])

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/1/deposit", `{"amount":200}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/1/withdraw", `{"amount":"100"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/1/withdraw", `{"amount":500}`)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "overdraft_fee_charged", body["result"])
	assert.Equal(t, "65", body["account"].(map[string]any)["balance"])

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/1/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["transactions"], 3)

	rec = do(t, router, http.MethodPut, "/api/v1/accounts/1/settings", `{"overdraftFee":20,"managementFee":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/1/fees/management", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "60", decodeMap(t, rec)["account"].(map[string]any)["balance"])

	rec = do(t, router, http.MethodPut, "/api/v1/accounts/1/nickname", `{"nickname":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decodeMap(t, rec)["nickname"])

	rec = do(t, router, http.MethodGet, "/api/v1/accounts", "")
	assert.JSONEq(t, `{"accounts":[1]}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/v1/accounts/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/accounts/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/v1/accounts/1", "").Code)

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/1/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeMap(t, rec)["transactions"])
}

func TestNewRouter_DefaultSettings(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := do(t, router, http.MethodGet, "/api/v1/settings/default", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overdraftFee":"35","managementFee":"10"}`, rec.Body.String())
}

func TestNewRouter_IdempotentWithdrawalChargesFeeOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.IdempotencyStore = redisrepo.NewIdempotencyStore(client)
		cfg.IdempotencyTTL = time.Minute
	}))

	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/v1/accounts", "").Code)

	first := do(t, router, http.MethodPost, "/api/v1/accounts/1/withdraw", `{"amount":10}`, apimiddleware.IdempotencyKeyHeader, "w-1")
	second := do(t, router, http.MethodPost, "/api/v1/accounts/1/withdraw", `{"amount":10}`, apimiddleware.IdempotencyKeyHeader, "w-1")

	assert.Equal(t, http.StatusConflict, first.Code)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, "true", second.Header().Get(apimiddleware.IdempotencyReplayHeader))

	rec := do(t, router, http.MethodGet, "/api/v1/accounts/1", "")
	assert.Equal(t, "-35", decodeMap(t, rec)["balance"])
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.HTTPMetrics = apimiddleware.NewHTTPMetrics(reg)
		cfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}))

	do(t, router, http.MethodGet, "/health", "")

	rec := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	chiRoutes, ok := router.(chi.Router)
	require.True(t, ok, "router does not implement chi.Routes")

	seen := map[string]bool{}
	err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+strings.TrimSuffix(route, "/")] = true
		return nil
	})
	require.NoError(t, err)

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /api/v1/settings/default",
		"POST /api/v1/accounts",
		"GET /api/v1/accounts",
		"GET /api/v1/accounts/{id}",
		"DELETE /api/v1/accounts/{id}",
		"PUT /api/v1/accounts/{id}/nickname",
		"PUT /api/v1/accounts/{id}/settings",
		"GET /api/v1/accounts/{id}/transactions",
		"POST /api/v1/accounts/{id}/transactions",
		"POST /api/v1/accounts/{id}/deposit",
		"POST /api/v1/accounts/{id}/withdraw",
		"POST /api/v1/accounts/{id}/fees/management",
	}

	for _, route := range expected {
		assert.True(t, seen[route], "expected route %s to be registered", route)
	}
}
