package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/globizora/api-service/config"
	"github.com/globizora/api-service/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Port:        0,
		Environment: "test",
		PublicURL:   "http://localhost:3000",
		CORSOrigins: []string{"https://app.example.com"},
		StoreDriver: config.DriverMemory,
		Auth:        config.AuthConfig{JWTSecret: "server-secret", TokenTTL: time.Hour},
		Stripe:      config.StripeConfig{Currency: "usd", WebhookSecret: "whsec_x"},
		RateLimit:   config.RateLimitConfig{Max: 100, Window: time.Minute},
	}
}

func TestNewAndShutdown(t *testing.T) {
	srv, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestHandlerMiddlewareChain(t *testing.T) {
	h := NewHandler(testConfig(), store.NewMemoryStore(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Route not found"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHandlerCORSPreflight(t *testing.T) {
	h := NewHandler(testConfig(), store.NewMemoryStore(), nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandlerRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Max = 2
	h := NewHandler(cfg, store.NewMemoryStore(), nil, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/company", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHandlerRateLimitIgnoresForwardedHeaders(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Max = 2
	h := NewHandler(cfg, store.NewMemoryStore(), nil, nil)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/company", nil)
		req.RemoteAddr = "1.2.3.4:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.9.8.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.9.7.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestHandlerTrustProxyKeysOnForwardedAddress(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Max = 1
	cfg.TrustProxy = true
	h := NewHandler(cfg, store.NewMemoryStore(), nil, nil)

	call := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/company", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("198.51.100.1"))
	assert.Equal(t, http.StatusOK, call("198.51.100.2"))
}

func TestHandlerRegister(t *testing.T) {
	h := NewHandler(testConfig(), store.NewMemoryStore(), nil, nil)

	body := bytes.NewBufferString(`{"username":"a","email":"a@x.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}
