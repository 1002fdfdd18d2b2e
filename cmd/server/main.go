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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"ctchen222/Vanishing-Tic-Tac-Toe/internal/config"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/logger"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/match"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/registry"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/server"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/session"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg := config.MustLoad()

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(cfg.LogLevel)

	// Build the session stack bottom-up: registry, matchmaker,
	// connection registry, router, transport.
	reg := registry.NewRegistry()
	matchmaker := match.NewMatchManager(reg)
	conns := session.NewManager()
	router := session.NewRouter(matchmaker, conns)
	srv := server.NewServer(router, conns, reg)

	registerActiveGamesGauge(reg)

	stopCleanup := make(chan struct{})
	go runCleanup(reg, cfg.CleanupInterval, stopCleanup)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: srv.Engine(),
	}

	go func() {
		slog.Info("http server started", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	close(stopCleanup)

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server exiting")
}

// runCleanup periodically drops finished games so the registry does not
// grow without bound.
func runCleanup(reg *registry.Registry, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if removed := reg.CleanupFinished(); removed > 0 {
				slog.Info("cleaned up finished games", "count", removed)
			}
		}
	}
}

func registerActiveGamesGauge(reg *registry.Registry) {
	meter := otel.Meter("server")
	_, err := meter.Int64ObservableGauge("games.active",
		metric.WithDescription("Number of games currently tracked by the registry."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(len(reg.ListAll())))
			return nil
		}),
	)
	if err != nil {
		slog.Warn("could not register active games gauge", "error", err)
	}
}
