package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"personal-site/internal/model"
	"personal-site/internal/service"
)

// EmbedHandler routes requests under the proxy mount to the HTTP relay or
// the WebSocket relay.
type EmbedHandler struct {
	proxy  *service.EmbedProxy
	bridge *service.WSBridge
	logger *slog.Logger
}

// NewEmbedHandler creates an EmbedHandler.
func NewEmbedHandler(proxy *service.EmbedProxy, bridge *service.WSBridge, logger *slog.Logger) *EmbedHandler {
	return &EmbedHandler{
		proxy:  proxy,
		bridge: bridge,
		logger: logger.With("component", "embed_handler"),
	}
}

// Redirect sends the bare mount path to the slash-terminated mount so
// relative URLs inside the embed resolve correctly.
func (h *EmbedHandler) Redirect(c echo.Context) error {
	return c.Redirect(http.StatusTemporaryRedirect, service.Mount+"/")
}

// Handle relays one request under the mount. WebSocket upgrades go to the
// bridge; everything else goes through the HTTP relay. Neither path
// returns an error: relay failures surface as a 502 page or a WebSocket
// close, never as an unhandled fault.
func (h *EmbedHandler) Handle(c echo.Context) error {
	req := c.Request()
	path := c.Param("*")

	if websocket.IsWebSocketUpgrade(req) {
		h.bridge.Bridge(c.Response(), req, path)
		return nil
	}

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Path:     path,
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
		Body:     req.Body,
	}

	res := h.proxy.Relay(pr, ThemeFromRequest(req))

	header := c.Response().Header()
	for key, vals := range res.Header {
		for _, v := range vals {
			header.Add(key, v)
		}
	}
	c.Response().WriteHeader(res.StatusCode)
	if _, err := c.Response().Write(res.Body); err != nil {
		h.logger.Error("writing relayed response",
			"err", err,
			"path", path,
		)
	}
	return nil
}
