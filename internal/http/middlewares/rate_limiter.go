package middlewares

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/vita/internal/observability"
	"github.com/geocoder89/vita/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

type RateLimiter struct {
	store  ratelimit.Store
	scope  string
	limit  int
	window time.Duration
	prom   *observability.Prom
}

// NewRateLimiter allows limit requests per window for each key. A limit of
// zero or less disables the middleware.
func NewRateLimiter(store ratelimit.Store, scope string, limit int, window time.Duration, prom *observability.Prom) *RateLimiter {
	return &RateLimiter{
		store:  store,
		scope:  scope,
		limit:  limit,
		window: window,
		prom:   prom,
	}
}

// Middleware returns a gin.HandlerFunc that enforces the limit for a derived key.
// Store errors let the request through.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)
		if key == "" {
			// fallback to IP if key cannot be derived
			key = "ip:" + clientIP(c)
		}

		d, err := rl.store.Allow(c.Request.Context(), rl.scope+":"+key, rl.limit, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate_limit_unavailable",
				"scope", rl.scope,
				"err", err,
			)
			c.Next()
			return
		}

		if !d.Allowed {
			if rl.prom != nil {
				rl.prom.RateLimited.WithLabelValues(rl.scope).Inc()
			}

			secs := int(d.RetryAfter.Round(time.Second) / time.Second)
			c.Header("Retry-After", strconv.Itoa(secs))
			abortError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)
	if ok {
		return "user:" + id
	}

	return KeyByIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
