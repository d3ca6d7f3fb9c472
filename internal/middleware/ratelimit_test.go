package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/vconnect/portal-backend/internal/response"
)

func TestRateLimiterAllow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "buckets are per key")

	now = now.Add(30 * time.Second)
	assert.False(t, rl.Allow("1.1.1.1"), "no refill before a full interval")

	now = now.Add(31 * time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"), "refill is capped at the rate")
}

func TestRateLimiterCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("stale")
	now = now.Add(5 * time.Minute)
	rl.Allow("fresh")
	rl.cleanup()

	assert.NotContains(t, rl.visitors, "stale")
	assert.Contains(t, rl.visitors, "fresh")
}

func TestRateLimiterMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.POST("/login", NewRateLimiter(ctx, 1, time.Minute).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, response.ErrRateLimitExceeded, errorCode(t, w))
}

func TestRedisRateLimit(t *testing.T) {
	mr, rdb := newTestRedis(t)

	r := gin.New()
	r.POST("/verify", RedisRateLimit(rdb, zerolog.Nop(), "verify", 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/verify", nil))
		return w
	}

	assert.Equal(t, http.StatusOK, hit().Code)
	assert.Equal(t, http.StatusOK, hit().Code)
	w := hit()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit().Code, "window expired")

	mr.Close()
	assert.Equal(t, http.StatusOK, hit().Code, "redis outage fails open")
}
