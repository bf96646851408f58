package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"personal-site/internal/client"
	"personal-site/internal/config"
	"personal-site/internal/content"
	"personal-site/internal/service"
	"personal-site/internal/view"
)

func TestRegisterRoutes(t *testing.T) {
	t.Setenv(service.BaseURLEnv, "")

	cfg := &config.Config{
		Site: config.SiteConfig{
			Title:       "Test Site",
			BaseURL:     "https://example.test",
			Description: "Test",
			ContentDir:  writeContentTree(t),
			StaticDir:   t.TempDir(),
		},
		Embed: config.EmbedConfig{BaseURL: "http://notebook.internal", TimeoutSeconds: 5, IdleConnections: 5},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pages := NewPageHandler(content.NewStore(cfg), cfg, logger)
	proxy := service.NewEmbedProxy(client.NewUpstreamClient(cfg, logger, nil), cfg, logger)
	bridge := service.NewWSBridge(cfg, logger, nil)
	embed := NewEmbedHandler(proxy, bridge, logger)
	health := NewHealthHandler(cfg, "test")

	e := echo.New()
	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e.Renderer = renderer
	RegisterRoutes(e, cfg, pages, embed, health)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"healthz", http.MethodGet, "/healthz", http.StatusOK},
		{"embed status", http.MethodGet, "/embed/status", http.StatusOK},
		{"about", http.MethodGet, "/", http.StatusOK},
		{"blog index", http.MethodGet, "/blog", http.StatusOK},
		{"blog post", http.MethodGet, "/blog/first-post", http.StatusOK},
		{"blog post missing", http.MethodGet, "/blog/missing", http.StatusNotFound},
		{"coursework", http.MethodGet, "/coursework", http.StatusOK},
		{"toggle theme", http.MethodGet, "/toggle-theme", http.StatusSeeOther},
		{"feed", http.MethodGet, "/feed.xml", http.StatusOK},
		{"embed mount redirect", http.MethodGet, service.Mount, http.StatusTemporaryRedirect},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound},
		{"post to page route", http.MethodPost, "/blog", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}
