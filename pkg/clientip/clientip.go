package clientip

import (
	"net"
	"net/http"
	"strings"
)

// TrustProxyHeaders makes RealClientIP honour X-Forwarded-For and X-Real-IP.
// Only enable it when the app sits behind a proxy that overwrites them.
var TrustProxyHeaders bool

// RealClientIP returns the client IP used for rate limiting and request logs.
// Without TrustProxyHeaders it is the host part of r.RemoteAddr.
func RealClientIP(r *http.Request) string {
	if TrustProxyHeaders {
		if ip := firstValidIP(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := firstValidIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// firstValidIP returns the left-most parseable address of a comma list.
func firstValidIP(list string) string {
	for _, part := range strings.Split(list, ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip.String()
		}
	}
	return ""
}
