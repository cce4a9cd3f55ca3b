package httpserver

import (
	"log/slog"
	"net/http"

	apperrors "github.com/ejulen/very-fancy-chat/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

// Inbound frames are discarded; this only bounds what a client can make us buffer.
const maxInboundFrameBytes = 4096

// handleWebSocket upgrades the request and keeps the connection registered
// until its read side fails, which is how a disconnect is noticed.
func (s *Server) handleWebSocket(c echo.Context) error {
	ctx := c.Request().Context()
	ip := c.RealIP()

	if ok, reason := s.limits.Acquire(ip); !ok {
		s.wsMetrics.RejectedConnections.WithLabelValues(string(reason)).Inc()
		slog.WarnContext(ctx, "WebSocket connection rejected", "reason", reason, "ip", ip)
		if reason == LimitReasonRate {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many connection attempts")
		}
		return apperrors.UnavailableError("too many live connections", nil).WithField("reason", string(reason))
	}
	defer s.limits.Release(ip)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		slog.DebugContext(ctx, "WebSocket upgrade failed", "error", err)
		return nil
	}

	if err := s.subscribers.Register(conn); err != nil {
		slog.WarnContext(ctx, "Subscriber registration failed", "error", err)
		return nil
	}
	defer s.subscribers.Unregister(conn)

	conn.SetReadLimit(maxInboundFrameBytes)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			slog.DebugContext(ctx, "Subscriber disconnected", "ip", ip, "error", err)
			return nil
		}
	}
}
