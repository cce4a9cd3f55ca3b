package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ejulen/very-fancy-chat/internal/adapter/broadcast"
	"github.com/ejulen/very-fancy-chat/internal/adapter/httpserver"
	"github.com/ejulen/very-fancy-chat/internal/adapter/memory"
	"github.com/ejulen/very-fancy-chat/internal/adapter/metrics"
	"github.com/ejulen/very-fancy-chat/internal/adapter/render"
	"github.com/ejulen/very-fancy-chat/internal/app"
	"github.com/ejulen/very-fancy-chat/internal/platform/config"
	"github.com/ejulen/very-fancy-chat/internal/platform/logging"
	"github.com/ejulen/very-fancy-chat/internal/platform/version"
	"github.com/jonboulle/clockwork"
)

const shutdownTimeout = 10 * time.Second

func runGracefulShutdown(srv *httpserver.Server, broadcaster *broadcast.Broadcaster) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Subscribers first: hijacked WebSocket connections are not tracked
		// by http.Server.Shutdown.
		broadcaster.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func broadcasterHealthCheck(broadcaster *broadcast.Broadcaster) httpserver.HealthCheck {
	return httpserver.HealthCheck{
		Name: "broadcaster",
		Check: func(_ context.Context) error {
			if broadcaster.SubscriberCount() < 0 {
				return errors.New("broadcaster not responding")
			}
			return nil
		},
	}
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	registry := metrics.NewRegistry()
	wsMetrics := metrics.NewWebSocketMetrics(registry)
	boardMetrics := metrics.NewBoardMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	renderer, err := render.NewRenderer()
	if err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	broadcaster := broadcast.NewBroadcaster(clock, cfg.MaxWebSocketConnections, wsMetrics)
	board := app.NewBoard(memory.NewMessageStore(), renderer, broadcaster, clock, boardMetrics)

	srv, err := httpserver.NewServer(cfg, httpserver.Dependencies{
		Board:        board,
		Pages:        renderer,
		Subscribers:  broadcaster,
		Registry:     registry,
		HTTPMetrics:  httpMetrics,
		WSMetrics:    wsMetrics,
		Clock:        clock,
		HealthChecks: []httpserver.HealthCheck{
			broadcasterHealthCheck(broadcaster),
			{Name: "board", Check: board.Check},
		},
	})
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, broadcaster)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
