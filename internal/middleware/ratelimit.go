package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/pkg/response"

	apperrors "github.com/atelierlabs/atelier/pkg/errors"
)

// RateLimit limits requests per (clientIP, route) within a fixed window using
// the supplied store. Public endpoints that accept guessable tokens sit behind
// this to slow enumeration.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + "|" + c.FullPath()
		count, ttl, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			// A broken limiter backend should not take the API down.
			c.Next()
			return
		}

		remaining := maxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if count > maxRequests {
			response.Error(c, apperrors.New("RATE_LIMITED", "Too many requests, please try again later", http.StatusTooManyRequests))
			c.Abort()
			return
		}

		c.Next()
	}
}
