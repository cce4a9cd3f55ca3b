// Package render turns board state into HTML: full pages for GET/POST and
// htmx out-of-band fragments for live updates.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/ejulen/very-fancy-chat/internal/domain"
	"github.com/ejulen/very-fancy-chat/web"
	"github.com/samber/lo"
)

const (
	pageTemplate    = "index"
	messageTemplate = "message"
	removalTemplate = "remove-message"
)

// PageData is everything the index page needs.
type PageData struct {
	Messages  []domain.Message
	Error     string
	SessionID string
}

type messageView struct {
	ID        string
	Content   string
	Timestamp string
	Own       bool
}

type pageView struct {
	Messages []messageView
	Error    string
}

// Renderer executes the board templates. Safe for concurrent use.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	return NewRendererFS(web.TemplateFiles)
}

// NewRendererFS parses templates/*.html from fsys.
func NewRendererFS(fsys fs.FS) (*Renderer, error) {
	templates, err := template.ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, name := range []string{pageTemplate, messageTemplate, removalTemplate} {
		if templates.Lookup(name) == nil {
			return nil, fmt.Errorf("template %q not defined", name)
		}
	}
	return &Renderer{templates: templates}, nil
}

// RenderMessage renders the fragment that appends msg to every live message list.
// Live fragments are shared by all subscribers, so they never carry viewer-specific state.
func (r *Renderer) RenderMessage(_ context.Context, msg domain.Message) ([]byte, error) {
	return r.execute(messageTemplate, toView(msg, ""))
}

// RenderRemoval renders the fragment that deletes the message element with messageID.
func (r *Renderer) RenderRemoval(_ context.Context, messageID string) ([]byte, error) {
	return r.execute(removalTemplate, messageID)
}

// RenderPage writes the full index page. Nothing is written to w on failure.
func (r *Renderer) RenderPage(w io.Writer, data PageData) error {
	page, err := r.execute(pageTemplate, pageView{
		Messages: lo.Map(data.Messages, func(msg domain.Message, _ int) messageView {
			return toView(msg, data.SessionID)
		}),
		Error: data.Error,
	})
	if err != nil {
		return err
	}
	if _, err := w.Write(page); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	return nil
}

func (r *Renderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func toView(msg domain.Message, viewerID string) messageView {
	return messageView{
		ID:        msg.ID,
		Content:   msg.Content,
		Timestamp: msg.Timestamp(),
		Own:       msg.IsAuthoredBy(viewerID),
	}
}
