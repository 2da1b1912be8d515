package httpx

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

var (
	forwardedForPattern    = regexp.MustCompile(`for=(?:"\[)?([.\w:]+)(?:]")?`)
	xForwardedForIPPattern = regexp.MustCompile(`([\w.:]+)`)
)

// ExtractClientOrigin derives the network origin of a request. It prefers
// the RFC 7239 Forwarded header, then the first hop of X-Forwarded-For, then
// the peer address. Returns "" when no origin can be derived.
func ExtractClientOrigin(r *http.Request) string {
	if fwd := r.Header.Get("Forwarded"); fwd != "" {
		if ip := originFromForwarded(fwd); ip != "" {
			return ip
		}
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := originFromXForwardedFor(xff); ip != "" {
			return ip
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func originFromForwarded(value string) string {
	m := forwardedForPattern.FindStringSubmatch(value)
	if m == nil {
		return ""
	}
	return m[1]
}

func originFromXForwardedFor(value string) string {
	first := strings.TrimSpace(strings.Split(value, ",")[0])
	m := xForwardedForIPPattern.FindStringSubmatch(first)
	if m == nil {
		return ""
	}
	return m[1]
}
