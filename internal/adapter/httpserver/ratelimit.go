package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	rateLimiterExpiry = 5 * time.Minute

	// ThrottledMessage is shown above the form when a client posts too fast.
	ThrottledMessage = "Slow down: too many messages."
)

// newRateLimiter limits submissions per client IP. The session cookie is not
// used as the key since a client can drop it to get a fresh one.
func newRateLimiter(ratePerSecond float64, burst int, onDeny echo.HandlerFunc) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return onDeny(c)
		},
	})
}

// handleThrottled answers a rate-limited submission with the board page, so
// the poster sees the current window and why nothing was added.
func (s *Server) handleThrottled(c echo.Context) error {
	return s.renderPage(c, http.StatusTooManyRequests, ThrottledMessage)
}
