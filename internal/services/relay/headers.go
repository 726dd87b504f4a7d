package relay

import (
	"net/http"
	"strings"
)

// Caller headers that are never forwarded upstream.
// Accept-Encoding is left to the transport so compressed answers are decoded before they are relayed.
// Browser session headers belong to this service, not to the remote tracker.
var droppedRequestHeaders = map[string]bool{
	"host":                true,
	"authorization":       true,
	"proxy-authorization": true,
	"content-length":      true,
	"connection":          true,
	"keep-alive":          true,
	"te":                  true,
	"upgrade":             true,
	"transfer-encoding":   true,
	"accept-encoding":     true,
	"cookie":              true,
	"origin":              true,
	"referer":             true,
}

// Response headers removed before the answer reaches the caller
var strippedResponseHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
	"content-length":      true,
	"content-encoding":    true,
	"authorization":       true,
}

func copyRequestHeaders(dst, src http.Header) {
	for key, values := range src {
		if droppedRequestHeaders[strings.ToLower(key)] {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func filterResponseHeaders(src http.Header) http.Header {
	out := make(http.Header, len(src))
	for key, values := range src {
		if strippedResponseHeaders[strings.ToLower(key)] {
			continue
		}
		out[key] = append([]string(nil), values...)
	}
	return out
}
