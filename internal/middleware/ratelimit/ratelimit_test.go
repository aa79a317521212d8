package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 3})
	defer rl.Stop()
	h := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		rec := doRequest(h, "/api/v1/verify", "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 1, BurstSize: 1})
	defer rl.Stop()
	h := rl.Middleware()(okHandler())

	require.Equal(t, http.StatusOK, doRequest(h, "/api/v1/verify", "10.0.0.1:1234").Code)

	rec := doRequest(h, "/api/v1/verify", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 1, BurstSize: 1})
	defer rl.Stop()
	h := rl.Middleware()(okHandler())

	require.Equal(t, http.StatusOK, doRequest(h, "/api/v1/verify", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "/api/v1/verify", "10.0.0.1:5678").Code)

	// a different client has its own bucket
	assert.Equal(t, http.StatusOK, doRequest(h, "/api/v1/verify", "10.0.0.2:1234").Code)
}

func TestRateLimiterHealthCheckBypass(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 1, BurstSize: 1})
	defer rl.Stop()
	h := rl.Middleware()(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/healthz", "10.0.0.1:1234").Code)
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	h := Middleware(Config{Enabled: false})(okHandler())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/api/v1/verify", "10.0.0.1:1234").Code)
	}
}
