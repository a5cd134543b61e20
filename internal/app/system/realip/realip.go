// internal/app/system/realip/realip.go

// Package realip extracts the client IP for audit metadata on realtime
// connections and attendance records.
package realip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest extracts the client IP from an HTTP request. It checks
// X-Forwarded-For and X-Real-IP headers first (for proxied requests), then
// falls back to RemoteAddr.
func FromRequest(r *http.Request) string {
	// X-Forwarded-For is a comma-separated list, first entry is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr might not have a port.
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
