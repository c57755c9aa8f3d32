package httpserver

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Pattarach/checkup_shop/internal/logging"
)

// RequestLogger puts a request-scoped logger into the request context and
// emits one line per completed request.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			l := base.With(
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
			)
			ctx := logging.IntoContext(c.Request().Context(), l)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			l.Info("request", "status", status, "duration_ms", time.Since(start).Milliseconds())
			return err
		}
	}
}
