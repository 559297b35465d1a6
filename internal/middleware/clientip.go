package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the workstation address a request originates from.
// Behind a proxy the first X-Forwarded-For entry is the real client.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
