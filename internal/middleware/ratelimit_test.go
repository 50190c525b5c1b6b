package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/kavehjam/go-rbac-service/internal/config"
)

func rateLimitedApp(t *testing.T, cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, AuthRateLimit(cfg, rdb))
	return e
}

func hitLogin(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{Enabled: true, Attempts: 3, Window: time.Minute, Prefix: "rl:test"}
	e := rateLimitedApp(t, cfg, rdb)

	for i := 0; i < 3; i++ {
		rec := hitLogin(e)
		assert.Equal(t, http.StatusOK, rec.Code, "attempt %d within the window", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := hitLogin(e)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// A fresh window resets the counter.
	mr.FastForward(2 * time.Minute)
	rec = hitLogin(e)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitPerIP(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{Enabled: true, Attempts: 1, Window: time.Minute, Prefix: "rl:test"}
	e := rateLimitedApp(t, cfg, rdb)

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1234"), "other clients are unaffected")
}

func TestAuthRateLimitPassThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Attempts: 1, Window: time.Minute, Prefix: "rl:test"}

	// No Redis client at all.
	e := rateLimitedApp(t, cfg, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hitLogin(e).Code)
	}

	// Limiter disabled by configuration.
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cfg.Enabled = false
	e = rateLimitedApp(t, cfg, rdb)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hitLogin(e).Code)
	}
}

func TestAuthRateLimitRedisDownMidFlight(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{Enabled: true, Attempts: 1, Window: time.Minute, Prefix: "rl:test"}
	e := rateLimitedApp(t, cfg, rdb)

	assert.Equal(t, http.StatusOK, hitLogin(e).Code)
	mr.Close()
	// Redis going away must not lock everyone out.
	assert.Equal(t, http.StatusOK, hitLogin(e).Code)
}
