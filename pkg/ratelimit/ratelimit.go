package ratelimit

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RequestLimiter throttles requests with a token bucket shared by every caller.
type RequestLimiter struct {
	limiter *rate.Limiter
}

// NewRequestLimiter allows maxPerMinute requests per minute with a burst of the same size.
// A non-positive limit disables throttling.
func NewRequestLimiter(maxPerMinute int) *RequestLimiter {
	if maxPerMinute <= 0 {
		return &RequestLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &RequestLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), maxPerMinute),
	}
}

// Allow reports whether a request may proceed now.
func (l *RequestLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Middleware rejects requests over the limit with 429.
func (l *RequestLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow() {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many requests"})
			}
			return next(c)
		}
	}
}
