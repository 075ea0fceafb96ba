package api

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client address. Behind a proxy the
// first X-Forwarded-For entry is the client; later entries are proxies
// and are ignored.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
