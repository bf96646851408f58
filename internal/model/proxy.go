// Package model defines shared types for the embed proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents an inbound request to be forwarded to the
// embedded application's upstream. Path is relative to the proxy mount;
// RawQuery is carried verbatim so percent-encoding is never altered.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     io.Reader
}

// UpstreamResponse represents the raw upstream response. The caller is
// responsible for closing Body.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// EmbedResponse is the fully translated response returned to the inbound
// client: headers filtered, location rewritten, HTML body rewritten.
type EmbedResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
