package middleware

import (
	"net"
	"net/http"
	"strings"

	vms "github.com/Code4Bharat1/VMS-BACKEND"
)

// ClientInfo attaches the client IP and User-Agent to the request context.
// Login attempts are counted per IP and audit events record both.
//
// trustedProxies is the number of reverse proxies in front of the server.
// Each one appends the address of its peer to X-Forwarded-For, so the client
// is the entry trustedProxies positions from the right. Entries further left
// are client-supplied and never used. Zero ignores the header.
func ClientInfo(trustedProxies int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := vms.WithClientIP(r.Context(), clientIP(r, trustedProxies))
			if ua := r.UserAgent(); ua != "" {
				ctx = vms.WithUserAgent(ctx, ua)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request, trustedProxies int) string {
	if trustedProxies > 0 {
		if ip := forwardedFor(r.Header.Values("X-Forwarded-For"), trustedProxies); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedFor returns the hop-th entry from the right across all header
// lines, or "" when the chain is shorter or the entry is not an IP.
func forwardedFor(values []string, hop int) string {
	var entries []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			entries = append(entries, strings.TrimSpace(part))
		}
	}
	if hop > len(entries) {
		return ""
	}
	ip := net.ParseIP(entries[len(entries)-hop])
	if ip == nil {
		return ""
	}
	return ip.String()
}
