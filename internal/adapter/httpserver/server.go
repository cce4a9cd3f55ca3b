package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ejulen/very-fancy-chat/internal/adapter/metrics"
	"github.com/ejulen/very-fancy-chat/internal/adapter/render"
	"github.com/ejulen/very-fancy-chat/internal/domain"
	"github.com/ejulen/very-fancy-chat/internal/platform/config"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type boardService interface {
	Post(ctx context.Context, authorID, content string) (*domain.Message, error)
	Messages() []domain.Message
}

type pageRenderer interface {
	RenderPage(w io.Writer, data render.PageData) error
}

type subscriberRegistry interface {
	Register(conn *websocket.Conn) error
	Unregister(conn *websocket.Conn)
}

// Dependencies groups the collaborators the gateway routes requests to.
type Dependencies struct {
	Board        boardService
	Pages        pageRenderer
	Subscribers  subscriberRegistry
	Registry     *prometheus.Registry
	HTTPMetrics  *metrics.HTTPMetrics
	WSMetrics    *metrics.WebSocketMetrics
	Clock        clockwork.Clock
	HealthChecks []HealthCheck
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	board       boardService
	pages       pageRenderer
	subscribers subscriberRegistry

	sessionStore *sessions.CookieStore
	upgrader     websocket.Upgrader
	limits       *ConnectionLimits

	registry    *prometheus.Registry
	httpMetrics *metrics.HTTPMetrics
	wsMetrics   *metrics.WebSocketMetrics

	clock        clockwork.Clock
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	sessionStore, err := setupSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Client IPs for rate limiting come from X-Forwarded-For / X-Real-IP.
	e.IPExtractor = echo.ExtractIPFromXFFHeader()

	srv := &Server{
		echo:         e,
		config:       cfg,
		board:        deps.Board,
		pages:        deps.Pages,
		subscribers:  deps.Subscribers,
		sessionStore: sessionStore,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     newCheckOrigin(cfg.Origins(), !cfg.IsProduction()),
		},
		limits: NewConnectionLimits(
			deps.Clock,
			int64(cfg.MaxWebSocketConnections),
			cfg.MaxConnectionsPerIP,
			cfg.ConnectionRatePerIP,
			cfg.ConnectionRateBurst,
		),
		registry:     deps.Registry,
		httpMetrics:  deps.HTTPMetrics,
		wsMetrics:    deps.WSMetrics,
		clock:        deps.Clock,
		healthChecks: deps.HealthChecks,
		startTime:    deps.Clock.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// setupSessionStore maps every signing key to a hash key with no block key.
// The first key signs; all keys verify.
func setupSessionStore(cfg *config.Config) (*sessions.CookieStore, error) {
	keys := cfg.SigningKeys()
	if len(keys) == 0 {
		return nil, errors.New("at least one cookie signing key is required")
	}

	keyPairs := make([][]byte, 0, len(keys)*2)
	for _, key := range keys {
		keyPairs = append(keyPairs, key, nil)
	}

	sessionStore := sessions.NewCookieStore(keyPairs...)
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore, nil
}
