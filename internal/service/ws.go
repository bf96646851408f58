package service

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"personal-site/internal/config"
	"personal-site/internal/metrics"
)

// closeGraceWait bounds how long a best-effort close frame write may block
// during session teardown.
const closeGraceWait = 5 * time.Second

// wsForwardHeaders are the only inbound handshake headers carried to the
// upstream handshake.
var wsForwardHeaders = []string{"Cookie", "Authorization"}

// WSBridge bridges one inbound WebSocket session to one upstream session
// for the lifetime of the connection.
type WSBridge struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewWSBridge creates a WSBridge. The metrics parameter is optional; pass
// nil to disable session metrics.
func NewWSBridge(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *WSBridge {
	return &WSBridge{
		cfg:     cfg,
		logger:  logger.With("component", "ws_bridge"),
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The upstream renders inside our own pages; the browser Origin
			// header names this site, not the upstream.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// WebSocketOrigin maps an HTTP origin to its WebSocket equivalent
// (https to wss, http to ws). Other schemes pass through unchanged.
func WebSocketOrigin(origin string) string {
	switch {
	case strings.HasPrefix(origin, "https://"):
		return "wss://" + strings.TrimLeft(strings.TrimPrefix(origin, "https://"), "/")
	case strings.HasPrefix(origin, "http://"):
		return "ws://" + strings.TrimLeft(strings.TrimPrefix(origin, "http://"), "/")
	}
	return origin
}

// Bridge connects the inbound WebSocket request to a dedicated upstream
// socket and pumps frames in both directions until either side ends.
// Acceptance of the inbound connection is deferred until the upstream
// handshake succeeds; on upstream failure the inbound side is accepted
// then immediately closed with 1011 so the client observes a standard
// closure instead of a failed upgrade. All faults are handled here; none
// propagate to the caller.
func (b *WSBridge) Bridge(w http.ResponseWriter, r *http.Request, path string) {
	origin := ResolveOrigin(b.cfg)
	upstreamURL := JoinUpstreamURL(WebSocketOrigin(origin), path, r.URL.RawQuery)

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 45 * time.Second,
		Subprotocols:     offeredSubprotocols(r.Header),
		// No read limit: notebook messages can be arbitrarily large.
	}

	header := make(http.Header)
	for _, name := range wsForwardHeaders {
		if v := r.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	upstream, resp, err := dialer.DialContext(r.Context(), upstreamURL, header)
	if err != nil {
		b.logger.Error("ws upstream connect failed",
			"url", upstreamURL,
			"err", err,
		)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		b.countSession("connect_failed")
		b.rejectInbound(w, r)
		return
	}
	defer func() { _ = upstream.Close() }()

	respHeader := make(http.Header)
	if proto := upstream.Subprotocol(); proto != "" {
		respHeader.Set("Sec-WebSocket-Protocol", proto)
	}

	inbound, err := b.upgrader.Upgrade(w, r, respHeader)
	if err != nil {
		b.logger.Error("ws inbound upgrade failed", "err", err)
		b.countSession("upgrade_failed")
		return
	}
	defer func() { _ = inbound.Close() }()

	if b.metrics != nil {
		b.metrics.WSSessionsActive.Inc()
		defer b.metrics.WSSessionsActive.Dec()
	}

	b.logger.Debug("ws session bridging", "url", upstreamURL)

	type pumpResult struct {
		fromUpstream bool
		err          error
	}
	results := make(chan pumpResult, 2)
	go func() { results <- pumpResult{false, relayFrames(inbound, upstream)} }()
	go func() { results <- pumpResult{true, relayFrames(upstream, inbound)} }()

	first := <-results

	// Close the inbound side with the upstream's reported close status when
	// we have one, else a normal closure.
	code, reason := websocket.CloseNormalClosure, ""
	if first.fromUpstream {
		var ce *websocket.CloseError
		if errors.As(first.err, &ce) && ce.Code != websocket.CloseNoStatusReceived {
			code, reason = ce.Code, ce.Text
		}
	}
	if websocket.IsUnexpectedCloseError(first.err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		b.logger.Warn("ws relay stopped",
			"url", upstreamURL,
			"from_upstream", first.fromUpstream,
			"err", first.err,
		)
	}

	// First exit cancels the sibling: send best-effort close frames, then
	// tear both sockets down so the remaining pump's read unblocks.
	deadline := time.Now().Add(closeGraceWait)
	_ = upstream.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = inbound.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = upstream.Close()
	_ = inbound.Close()
	<-results

	b.countSession("completed")
}

// relayFrames moves data frames from src to dst until either side fails.
// Frame order is preserved; text stays text and binary stays binary.
// Control frames are handled by the connection itself and skipped here.
func relayFrames(src, dst *websocket.Conn) error {
	for {
		messageType, data, err := src.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		if err := dst.WriteMessage(messageType, data); err != nil {
			return err
		}
	}
}

// rejectInbound accepts the inbound connection then closes it with 1011,
// so the client receives a clean WebSocket close rather than a bare
// connection rejection.
func (b *WSBridge) rejectInbound(w http.ResponseWriter, r *http.Request) {
	inbound, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("ws inbound upgrade failed", "err", err)
		return
	}
	_ = inbound.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseInternalServerErr, ""),
		time.Now().Add(closeGraceWait))
	_ = inbound.Close()
}

// offeredSubprotocols parses the client's Sec-WebSocket-Protocol offer.
func offeredSubprotocols(h http.Header) []string {
	raw := h.Get("Sec-WebSocket-Protocol")
	if raw == "" {
		return nil
	}
	var protocols []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			protocols = append(protocols, p)
		}
	}
	return protocols
}

func (b *WSBridge) countSession(outcome string) {
	if b.metrics != nil {
		b.metrics.WSSessionsTotal.WithLabelValues(outcome).Inc()
	}
}
