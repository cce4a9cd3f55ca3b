package httpserver

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ejulen/very-fancy-chat/internal/adapter/render"
	apperrors "github.com/ejulen/very-fancy-chat/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleIndex(c echo.Context) error {
	return s.renderPage(c, http.StatusOK, "")
}

func (s *Server) handleNewMessage(c echo.Context) error {
	authorID, err := sessionID(c)
	if err != nil {
		return apperrors.InternalError("session not initialised", err)
	}

	if _, err := s.board.Post(c.Request().Context(), authorID, c.FormValue("content")); err != nil {
		if apperrors.IsValidation(err) {
			return s.renderPage(c, http.StatusBadRequest, apperrors.AsStructuredError(err).Message)
		}
		return err
	}

	return s.renderPage(c, http.StatusOK, "")
}

func (s *Server) renderPage(c echo.Context, status int, errorMessage string) error {
	viewerID, _ := sessionID(c)

	var buf bytes.Buffer
	err := s.pages.RenderPage(&buf, render.PageData{
		Messages:  s.board.Messages(),
		Error:     errorMessage,
		SessionID: viewerID,
	})
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(status, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
