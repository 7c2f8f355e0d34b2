package handlers

import (
	"net/http"

	"tendercheck-backend/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit rejects clients over their per-minute request budget and tags
// the request context with the client address for downstream limiters
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			c.Header("Retry-After", "60")
			respondError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later")
			return
		}
		c.Request = c.Request.WithContext(ratelimit.WithCaller(c.Request.Context(), ip))
		c.Next()
	}
}
