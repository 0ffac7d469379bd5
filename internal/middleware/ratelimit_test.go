// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rdb := newTestRedis(t)
	limiter := NewRateLimiter(rdb, RateLimitConfig{
		Limit: PerMinute(10, 10),
	})
	handler := limiter.Handler(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rdb := newTestRedis(t)
	limiter := NewRateLimiter(rdb, RateLimitConfig{
		Limit: PerMinute(2, 2),
	})
	handler := limiter.Handler(okHandler())

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code

		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			return
		}
	}

	t.Fatalf("rate limit never tripped, last status %d", lastCode)
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rdb := newTestRedis(t)
	limiter := NewRateLimiter(rdb, RateLimitConfig{
		Limit: PerMinute(1, 1),
	})
	handler := limiter.Handler(okHandler())

	// Exhaust the first client's budget.
	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// A different client is unaffected.
	req = httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.RemoteAddr = "10.0.0.4:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_RateLimitHeaders(t *testing.T) {
	rdb := newTestRedis(t)
	limiter := NewRateLimiter(rdb, RateLimitConfig{
		Limit: PerMinute(10, 10),
	})
	handler := limiter.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("RateLimit-Policy"))
}

func TestRateLimiter_Bypass(t *testing.T) {
	rdb := newTestRedis(t)
	limiter := NewRateLimiter(rdb, RateLimitConfig{
		Limit: PerMinute(1, 1),
		BypassFunc: func(r *http.Request) bool {
			return r.URL.Path == "/healthz"
		},
	})
	handler := limiter.Handler(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.6:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyByIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "ratelimit:ip:192.0.2.1", KeyByIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "ratelimit:ip:10.0.0.1", KeyByIP(req))
}
