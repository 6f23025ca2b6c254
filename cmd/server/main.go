package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvgate/internal/config"
	"github.com/JonMunkholm/csvgate/internal/core"
	"github.com/JonMunkholm/csvgate/internal/logging"
	"github.com/JonMunkholm/csvgate/internal/metrics"
	"github.com/JonMunkholm/csvgate/internal/web"
)

func main() {
	// Load .env file if it exists; variables already set in the environment win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	mode, err := core.ParseMode(cfg.Validation.Mode)
	if err != nil {
		slog.Error("invalid validation mode", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	processor := core.NewProcessor(
		core.WithMode(mode),
		core.WithMaxBytes(cfg.Validation.MaxFileSize),
		core.WithRecorder(m),
	)
	limiter := core.NewValidationLimiter(cfg.Validation.MaxConcurrent, cfg.Validation.MaxWaitTime)

	server := web.NewServer(cfg, processor, limiter, m)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...", "active_validations", limiter.ActiveCount())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
