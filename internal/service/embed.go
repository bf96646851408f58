package service

import (
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"personal-site/internal/client"
	"personal-site/internal/config"
	"personal-site/internal/model"
)

// Mount is the path prefix under which the embedded notebook is exposed.
const Mount = "/marimo/semantic-entropy-probe-comparison"

// BaseURLEnv names the environment variable that overrides the configured
// embed upstream origin. It is re-read on every request so the upstream
// can be repointed without a restart.
const BaseURLEnv = "MARIMO_SEMANTIC_ENTROPY_BASE_URL"

// ResolveOrigin returns the current upstream origin: the environment
// override when set (trimmed of whitespace), otherwise the configured
// base URL.
func ResolveOrigin(cfg *config.Config) string {
	if v := strings.TrimSpace(os.Getenv(BaseURLEnv)); v != "" {
		return v
	}
	return cfg.Embed.BaseURL
}

// EmbedProxy executes one proxied HTTP exchange against the embed
// upstream. It holds no per-request state; every exchange is isolated.
type EmbedProxy struct {
	client *client.UpstreamClient
	cfg    *config.Config
	logger *slog.Logger
}

// NewEmbedProxy creates an EmbedProxy.
func NewEmbedProxy(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) *EmbedProxy {
	return &EmbedProxy{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "embed_proxy"),
	}
}

// Relay forwards one request to the upstream and translates the response
// back into mount-relative form. theme is the validated theme cookie
// value ("dark", "light", or empty for no override). Relay never returns
// an error: when the upstream is unreachable it produces the 502
// diagnostic page instead.
func (s *EmbedProxy) Relay(pr *model.ProxyRequest, theme string) *model.EmbedResponse {
	origin := ResolveOrigin(s.cfg)
	upstreamURL := JoinUpstreamURL(origin, pr.Path, pr.RawQuery)

	s.logger.Debug("relaying request",
		"method", pr.Method,
		"path", pr.Path,
	)

	resp, err := s.client.DoStream(pr.Ctx, pr.Method, upstreamURL, ForwardRequestHeaders(pr.Header), pr.Body)
	if err != nil {
		s.logger.Warn("embed upstream unreachable",
			"origin", origin,
			"err", err,
		)
		return unreachableResponse(origin, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Warn("embed upstream body read failed",
			"origin", origin,
			"err", err,
		)
		return unreachableResponse(origin, err)
	}

	header := FilterResponseHeaders(resp.Header)

	if location := resp.Header.Get("Location"); location != "" {
		header.Set("Location", RewriteLocation(location, Mount))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		body = RewriteHTML(body, Mount, theme)
		header.Del("Content-Length")
		if theme != "" {
			// The rewritten HTML depends on the theme cookie; keep caches
			// from serving one theme's document to another session.
			AppendVary(header, "Cookie")
		}
	}

	return &model.EmbedResponse{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
	}
}

// unreachableResponse builds the self-contained 502 page shown when the
// upstream cannot be reached. The origin, the env var to fix it, and the
// error text are all HTML-escaped.
func unreachableResponse(origin string, err error) *model.EmbedResponse {
	body := fmt.Sprintf(`<!doctype html><html><head><meta charset="utf-8" />`+
		`<meta name="viewport" content="width=device-width, initial-scale=1" />`+
		`<title>Embed unavailable</title></head><body>`+
		`<h1>Embed unavailable</h1>`+
		`<p>The Marimo service could not be reached from this server.</p>`+
		`<p><code>%s</code></p>`+
		`<p>For local dev, set <code>%s</code> to a reachable URL.</p>`+
		`<pre>%s</pre>`+
		`</body></html>`,
		html.EscapeString(origin),
		html.EscapeString(BaseURLEnv),
		html.EscapeString(err.Error()),
	)

	header := make(http.Header)
	header.Set("Content-Type", "text/html; charset=utf-8")

	return &model.EmbedResponse{
		StatusCode: http.StatusBadGateway,
		Header:     header,
		Body:       []byte(body),
	}
}
