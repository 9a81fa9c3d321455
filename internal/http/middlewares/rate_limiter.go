package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type rateBucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter caps requests per client IP inside a fixed window. Rejected
// requests carry a Retry-After header so well-behaved clients can back off.
func RateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*rateBucket)
		lastSweep = time.Now()
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			key := c.RealIP()

			mu.Lock()
			// Drop stale buckets once per window so idle IPs do not
			// accumulate forever.
			if now.Sub(lastSweep) > window {
				for ip, b := range buckets {
					if now.After(b.resetAt) {
						delete(buckets, ip)
					}
				}
				lastSweep = now
			}

			b, ok := buckets[key]
			if !ok || now.After(b.resetAt) {
				b = &rateBucket{resetAt: now.Add(window)}
				buckets[key] = b
			}

			if b.count >= limit {
				retryAfter := int(time.Until(b.resetAt).Seconds()) + 1
				mu.Unlock()
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			b.count++
			mu.Unlock()

			return next(c)
		}
	}
}
