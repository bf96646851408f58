package handler

import (
	"github.com/labstack/echo/v4"

	"personal-site/internal/config"
	"personal-site/internal/service"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, pages *PageHandler, embed *EmbedHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/embed/status", health.Status)

	e.GET("/", pages.About)
	e.GET("/blog", pages.BlogIndex)
	e.GET("/blog/:slug", pages.BlogPost)
	e.GET("/coursework", pages.Coursework)
	e.GET("/toggle-theme", pages.ToggleTheme)
	e.GET("/feed.xml", pages.Feed)
	e.Static("/static", cfg.Site.StaticDir)

	e.GET(service.Mount, embed.Redirect)
	e.Any(service.Mount+"/*", embed.Handle)
}
