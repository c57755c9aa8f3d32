package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Pattarach/checkup_shop/internal/middleware/auth"
)

// Middleware rejects over-quota callers before the handler runs, so a 429
// never leaves a side effect behind it.
func Middleware(l *Limiter, limit int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := l.Admit(keyFor(c), limit)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retry := int(time.Until(res.ResetAt).Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

// keyFor prefers the authenticated user id; anonymous routes fall back to
// the client address.
func keyFor(c echo.Context) string {
	if id, err := auth.UserID(c); err == nil {
		return "user:" + strconv.FormatUint(uint64(id), 10)
	}
	if ip := c.RealIP(); ip != "" {
		return "ip:" + ip
	}
	return "unknown"
}
