// Package service implements the embed reverse proxy: URL and header
// translation, HTML rewriting, the HTTP relay, and the WebSocket relay.
package service

import (
	"net/http"
	"strings"
)

// hopByHopHeaders are headers meaningful only for one transport leg and
// are never forwarded in either direction.
var hopByHopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// dropResponseHeaders extends the hop-by-hop set with headers invalidated
// by body rewriting (length/encoding) and headers that would block the
// upstream content from rendering inside the embedding page
// (frame/CSP policies written for the upstream's own origin).
var dropResponseHeaders = map[string]bool{
	"content-length":          true,
	"content-encoding":        true,
	"x-frame-options":         true,
	"content-security-policy": true,
}

// JoinUpstreamURL concatenates the upstream origin with a mount-relative
// path and raw query. Trailing slashes on the origin are normalized to
// exactly one; the query is appended only when non-empty. No
// percent-encoding is altered.
func JoinUpstreamURL(origin, path, query string) string {
	u := strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(path, "/")
	if query != "" {
		u += "?" + query
	}
	return u
}

// ForwardRequestHeaders returns the inbound headers safe to send upstream:
// hop-by-hop headers are dropped, along with Host and Content-Length
// (the transport recomputes the latter once the body is known).
func ForwardRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		lower := strings.ToLower(key)
		if hopByHopHeaders[lower] || lower == "host" || lower == "content-length" {
			continue
		}
		dst[key] = append([]string(nil), vals...)
	}
	return dst
}

// FilterResponseHeaders returns the upstream headers safe to relay back:
// hop-by-hop and stale length/encoding/security headers are dropped, and
// every relayed response is marked X-Robots-Tag: noindex so the proxied
// app is never indexed under the site's origin.
func FilterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		lower := strings.ToLower(key)
		if hopByHopHeaders[lower] || dropResponseHeaders[lower] {
			continue
		}
		dst[key] = append([]string(nil), vals...)
	}
	dst.Set("X-Robots-Tag", "noindex")
	return dst
}

// RewriteLocation maps a root-relative upstream Location back under the
// mount. Absolute locations and locations already under the mount are
// returned unchanged, so the rewrite is idempotent.
func RewriteLocation(location, mount string) string {
	if !strings.HasPrefix(location, "/") {
		return location
	}
	if strings.HasPrefix(location, mount) {
		return location
	}
	return mount + location
}

// AppendVary adds value as a Vary token unless an equal token (compared
// case-insensitively) is already present.
func AppendVary(h http.Header, value string) {
	existing := h.Get("Vary")
	if existing == "" {
		h.Set("Vary", value)
		return
	}
	for _, part := range strings.Split(existing, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return
		}
	}
	h.Set("Vary", existing+", "+value)
}
