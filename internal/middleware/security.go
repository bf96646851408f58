package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"personal-site/internal/service"
)

// SecurityHeaders returns an Echo middleware that adds security headers to
// site responses. Requests under the embed mount are skipped entirely: the
// relay manages the proxied headers itself (stripping hop-by-hop headers
// there would break WebSocket upgrade detection, and X-Frame-Options would
// keep the notebook from rendering inside the coursework page).
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if path == service.Mount || strings.HasPrefix(path, service.Mount+"/") {
				return next(c)
			}

			c.Response().Header().Set("X-Content-Type-Options", "nosniff")
			c.Response().Header().Set("X-Frame-Options", "SAMEORIGIN")

			return next(c)
		}
	}
}
