package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/padmiss/cabd/internal/config"
	"github.com/padmiss/cabd/internal/server"
	"github.com/padmiss/cabd/internal/tournament"
	"github.com/padmiss/cabd/internal/websocket"
	"github.com/padmiss/cabd/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env so ${VAR} references in the config file resolve
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", "error", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tournament client
	logger.Info("using tournament service", "url", cfg.API.URL)
	api := tournament.New(cfg, logger)

	// Register the cabinet when operator credentials are configured
	if cfg.Auth.Email != "" {
		if err := api.Authenticate(ctx, cfg.Auth.Email, cfg.Auth.Password); err != nil {
			logger.Error("authentication failed", "error", err)
			os.Exit(1)
		}
		logger.Info("authenticated", "email", cfg.Auth.Email)

		if err := api.RegisterCab(ctx, cfg.Cabinet.Name); err != nil {
			var regErr *tournament.CabRegistrationError
			if errors.As(err, &regErr) {
				// Most commonly the cab already exists; not fatal
				logger.Warn("cab registration rejected", "message", regErr.Message)
			} else {
				logger.Error("cab registration failed", "error", err)
				os.Exit(1)
			}
		} else {
			logger.Info("cab registered", "name", cfg.Cabinet.Name)
		}
	}

	// Initialize WebSocket hub for overlay clients
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("score feed hub initialized")

	// Initialize broadcast worker
	broadcastWorker := worker.NewBroadcastWorker(
		api,
		wsHub,
		&cfg.Broadcast,
		cfg.Webserver.Addr(),
		logger,
	)
	if cfg.Broadcast.Enabled {
		if err := broadcastWorker.Start(ctx); err != nil {
			logger.Error("failed to start broadcast worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := server.NewHandler(api, wsHub, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Webserver.Addr(),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Webserver.ReadTimeout,
		WriteTimeout: cfg.Webserver.WriteTimeout,
		IdleTimeout:  cfg.Webserver.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting cabinet webserver", "addr", cfg.Webserver.Addr())
		logger.Info("WebSocket endpoint available at /ws")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down daemon...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop broadcast worker
	if cfg.Broadcast.Enabled {
		if err := broadcastWorker.Stop(); err != nil {
			logger.Error("failed to stop broadcast worker", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("daemon stopped")
}
