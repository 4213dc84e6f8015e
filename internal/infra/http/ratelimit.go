package http

import (
	"strconv"
	"strings"
	"time"

	"fieldserve/internal/domain"

	"github.com/gin-gonic/gin"
)

// rateLimitMiddleware is the first pipeline stage: every route passes
// through it before authentication. Quota exhaustion fails closed with
// 429; a limiter error fails open unless configured otherwise, so an
// infrastructure fault is never mistaken for abuse.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
			c.Next()
			return
		}
		key := clientKey(c)
		decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.rateLimitRequests, s.rateLimitWindow)
		if err != nil {
			if s.rateLimitFailClosed {
				s.writeError(c, domain.ErrRateLimited)
				c.Abort()
				return
			}
			c.Next()
			return
		}
		writeRateLimitHeaders(c, decision)
		if !decision.Allowed {
			s.writeError(c, domain.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

// clientKey derives the rate-limit bucket from the connection-origin
// header chain. Clients with none of the headers share the "unknown"
// bucket; that coarsening is intentional and preserved.
func clientKey(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			retryAfter := int64(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		}
	}
}
