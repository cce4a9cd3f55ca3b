package httpserver

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// newCheckOrigin returns the WebSocket CheckOrigin function. It allows empty
// origins (non-browser clients), the request's own host, every origin listed in
// allowed, and localhost origins when isDevelopment is true.
func newCheckOrigin(allowed []string, isDevelopment bool) func(r *http.Request) bool {
	allowedOrigins := make([]string, 0, len(allowed))
	for _, raw := range allowed {
		if origin := extractOrigin(raw); origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if origin == "" {
			return true
		}

		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}

		if slices.Contains(allowedOrigins, strings.ToLower(origin)) {
			return true
		}

		if isDevelopment && isLocalhostOrigin(origin) {
			return true
		}

		slog.WarnContext(r.Context(), "WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}
