package httpserver

import (
	"log/slog"

	"github.com/ejulen/very-fancy-chat/internal/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Session cookie layout
const (
	sessionName         = "session"
	sessionKeyID        = "id"
	sessionIDContextKey = "sessionID"
)

// sessionMiddleware guarantees every request carries an anonymous session id.
// A missing, malformed or unverifiable cookie gets a fresh id.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			slog.DebugContext(ctx, "Discarding unverifiable session cookie", "error", err)
		}

		id, ok := session.Values[sessionKeyID].(string)
		if !ok || id == "" {
			id = uuid.NewString()
			session.Values[sessionKeyID] = id
			if err := session.Save(c.Request(), c.Response()); err != nil {
				slog.WarnContext(ctx, "Failed to save session", "error", err)
			}
		}

		c.Set(sessionIDContextKey, id)
		return next(c)
	}
}

func sessionID(c echo.Context) (string, error) {
	id, ok := c.Get(sessionIDContextKey).(string)
	if !ok || id == "" {
		return "", domain.ErrSessionIDNotFound
	}
	return id, nil
}
