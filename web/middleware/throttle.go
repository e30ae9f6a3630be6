package middleware

import (
	"net/http"

	"github.com/blogblazor/blog/caching"
	"github.com/blogblazor/blog/logger"

	"github.com/gin-gonic/gin"
)

// LoginThrottleKey is the counter key for failed sign-ins from ip.
func LoginThrottleKey(ip string) string {
	return "login:" + ip
}

// LoginThrottle rejects sign-in attempts from an address that already failed
// maxAttempts times inside the cache window. Handlers record failures with
// cache.Increment(LoginThrottleKey(ip)).
func LoginThrottle(cache *caching.Cache, maxAttempts int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxAttempts <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if cache.Count(LoginThrottleKey(ip)) >= maxAttempts {
			logger.Warningf("too many failed logins from %s", ip)
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
