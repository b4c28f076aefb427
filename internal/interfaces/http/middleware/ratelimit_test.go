package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/ratelimit"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

type stubLimiter struct {
	allowed bool
	err     error
	lastKey string
}

func (s *stubLimiter) Allow(key string, config ratelimit.RateLimitConfig) (bool, error) {
	s.lastKey = key
	return s.allowed, s.err
}

func (s *stubLimiter) GetRemaining(key string, window time.Duration) (int64, error) {
	return 0, nil
}

func (s *stubLimiter) Reset(key string) error {
	return nil
}

func setupLimitedEngine(limiter ratelimit.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	cfg := ratelimit.RateLimitConfig{RequestsPerMinute: 5, RequestsPerHour: 30}
	engine.POST("/login", LoginRateLimit(limiter, cfg, logger.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func TestLoginRateLimit(t *testing.T) {
	t.Run("allowed request passes through", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		engine := setupLimitedEngine(limiter)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, limiter.lastKey, "login:")
	})

	t.Run("exhausted limit returns 429", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false}
		engine := setupLimitedEngine(limiter)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("redis: connection refused")}
		engine := setupLimitedEngine(limiter)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
