// Package clientip extracts real client IP addresses from HTTP requests.
//
// Proxy headers are checked in priority order so the most reliable source
// wins: CF-Connecting-IP (Cloudflare), DO-Connecting-IP (DigitalOcean),
// X-Forwarded-For, X-Real-IP, and finally the connection's RemoteAddr.
// Extraction is pure: it reads request metadata only and always returns
// the same value for the same request.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Proxy headers in priority order.
var proxyHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP returns the client IP for the request. Malformed header values are
// skipped, falling through to the next source; the result is never empty
// as long as RemoteAddr is set.
func GetIP(r *http.Request) string {
	for _, header := range proxyHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}

		// X-Forwarded-For may carry a chain; the left-most entry is the
		// originating client.
		for _, part := range strings.Split(value, ",") {
			if ip := normalize(part); ip != "" {
				return ip
			}
		}
	}

	if ip := normalize(r.RemoteAddr); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// normalize parses a candidate address, stripping an optional port, and
// returns the canonical string form or "" if it is not a valid IP.
func normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	return ip.String()
}
