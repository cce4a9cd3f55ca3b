package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ejulen/very-fancy-chat/internal/adapter/metrics"
	"github.com/ejulen/very-fancy-chat/internal/adapter/render"
	"github.com/ejulen/very-fancy-chat/internal/domain"
	"github.com/ejulen/very-fancy-chat/internal/platform/config"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// --- Mock boardService ---

type mockBoard struct {
	mu       sync.Mutex
	postFn   func(ctx context.Context, authorID, content string) (*domain.Message, error)
	messages []domain.Message
	posts    []domain.Message
}

func (m *mockBoard) Post(ctx context.Context, authorID, content string) (*domain.Message, error) {
	if m.postFn != nil {
		return m.postFn(ctx, authorID, content)
	}
	msg := domain.Message{ID: "m-" + content, AuthorID: authorID, Content: content, CreatedAt: time.Now()}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, msg)
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *mockBoard) Messages() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.messages...)
}

func (m *mockBoard) authors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p.AuthorID)
	}
	return out
}

// --- Mock subscriberRegistry ---

type mockSubscribers struct {
	mu           sync.Mutex
	registerErr  error
	registered   int
	unregistered int
}

func (m *mockSubscribers) Register(conn *websocket.Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registerErr != nil {
		_ = conn.Close()
		return m.registerErr
	}
	m.registered++
	return nil
}

func (m *mockSubscribers) Unregister(conn *websocket.Conn) {
	_ = conn.Close()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unregistered++
}

func (m *mockSubscribers) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered, m.unregistered
}

// --- Test helpers ---

const testCookieKey = "test-secret-key-32-bytes-long!!!"

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                  "development",
		Port:                    "0",
		CookieKeys:              testCookieKey,
		SessionMaxAge:           time.Hour,
		MaxWebSocketConnections: 100,
		MaxConnectionsPerIP:     10,
		ConnectionRatePerIP:     100,
		ConnectionRateBurst:     100,
		PostRatePerSecond:       100,
		PostRateBurst:           100,
	}
}

type testServerOptions struct {
	config       *config.Config
	subscribers  subscriberRegistry
	healthChecks []HealthCheck
	clock        clockwork.Clock
}

func withConfig(cfg *config.Config) func(*testServerOptions) {
	return func(o *testServerOptions) { o.config = cfg }
}

func withSubscribers(s subscriberRegistry) func(*testServerOptions) {
	return func(o *testServerOptions) { o.subscribers = s }
}

func withHealthChecks(checks ...HealthCheck) func(*testServerOptions) {
	return func(o *testServerOptions) { o.healthChecks = checks }
}

func withClock(clock clockwork.Clock) func(*testServerOptions) {
	return func(o *testServerOptions) { o.clock = clock }
}

func newTestServer(t *testing.T, board boardService, opts ...func(*testServerOptions)) *Server {
	t.Helper()

	o := testServerOptions{
		config:      testConfig(),
		subscribers: &mockSubscribers{},
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	pages, err := render.NewRenderer()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	srv, err := NewServer(o.config, Dependencies{
		Board:        board,
		Pages:        pages,
		Subscribers:  o.subscribers,
		Registry:     reg,
		HTTPMetrics:  metrics.NewHTTPMetrics(reg),
		WSMetrics:    metrics.NewWebSocketMetrics(reg),
		Clock:        o.clock,
		HealthChecks: o.healthChecks,
	})
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			return c
		}
	}
	t.Fatalf("response did not set a %q cookie", sessionName)
	return nil
}
