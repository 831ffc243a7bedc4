package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeaders returns an Echo middleware that adds security headers to
// every response and marks codec API responses as non-cacheable.
// Headers are set before the handler runs so they are sent with the
// status line.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")

			if strings.HasPrefix(c.Request().URL.Path, "/v1/") {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}
