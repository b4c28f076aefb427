package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/ratelimit"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
	"github.com/sunstrike-inc/sunstrike/internal/shared/utils"
)

// LoginRateLimit throttles authentication attempts per client IP using the
// shared sliding-window limiter. Fails open when the limiter backend is
// unavailable: blocking all logins on a Redis outage is worse than briefly
// losing brute-force protection.
func LoginRateLimit(limiter ratelimit.RateLimiter, cfg ratelimit.RateLimitConfig, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "login:" + c.ClientIP()

		allowed, err := limiter.Allow(key, cfg)
		if err != nil {
			log.Warnw("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "too many login attempts, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
