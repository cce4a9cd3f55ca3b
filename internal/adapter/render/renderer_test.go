package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ejulen/very-fancy-chat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func testMessage(id, author, content string) domain.Message {
	return domain.Message{
		ID:        id,
		AuthorID:  author,
		Content:   content,
		CreatedAt: time.Date(2026, time.May, 1, 12, 30, 45, 0, time.Local),
	}
}

func TestRenderMessage_AppendsOutOfBand(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.RenderMessage(context.Background(), testMessage("abc-123", "s1", "hello"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `hx-swap-oob="beforeend:#messages"`)
	assert.Contains(t, html, `id="message-abc-123"`)
	assert.Contains(t, html, "hello")
	assert.Contains(t, html, "2026-05-01 12:30:45")
	assert.NotContains(t, html, " own", "live fragments are viewer-neutral")
}

func TestRenderMessage_EscapesContent(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.RenderMessage(context.Background(), testMessage("x", "s1", `<script>alert("hi")</script>`))
	require.NoError(t, err)

	html := string(out)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderRemoval(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.RenderRemoval(context.Background(), "abc-123")
	require.NoError(t, err)

	assert.Equal(t, `<div id="message-abc-123" hx-swap-oob="delete"></div>`, string(out))
}

func TestRenderPage_ListsMessagesInOrder(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	err := r.RenderPage(&buf, PageData{
		Messages: []domain.Message{
			testMessage("m1", "other", "first"),
			testMessage("m2", "me", "second"),
		},
		SessionID: "me",
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `ws-connect="/ws"`)
	assert.Contains(t, html, `action="/new-message"`)
	assert.Contains(t, html, `name="content"`)
	assert.Less(t, strings.Index(html, "first"), strings.Index(html, "second"))
	assert.Contains(t, html, `id="message-m1" class="message"`)
	assert.Contains(t, html, `id="message-m2" class="message own"`)
	assert.NotContains(t, html, `class="error"`)
}

func TestRenderPage_ShowsError(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.RenderPage(&buf, PageData{Error: "Please enter a message."}))

	assert.Contains(t, buf.String(), "Please enter a message.")
}

func TestRenderPage_NoOutputOnFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/index.html":   {Data: []byte(`{{define "index"}}partial {{.Nope}}{{end}}`)},
		"templates/message.html": {Data: []byte(`{{define "message"}}m{{end}}{{define "remove-message"}}r{{end}}`)},
	}
	r, err := NewRendererFS(fsys)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.RenderPage(&buf, PageData{})

	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestNewRendererFS_MissingTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/index.html": {Data: []byte(`{{define "index"}}page{{end}}`)},
	}

	_, err := NewRendererFS(fsys)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"message"`)
}

func TestNewRendererFS_NoTemplates(t *testing.T) {
	_, err := NewRendererFS(fstest.MapFS{})
	assert.Error(t, err)
}
