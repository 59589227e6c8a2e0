package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/coord-weather/internal/api/http"
	"github.com/i474232898/coord-weather/internal/config"
	"github.com/i474232898/coord-weather/internal/logging"
	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/i474232898/coord-weather/internal/weather/providers"
	"github.com/i474232898/coord-weather/internal/web"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("invalid server config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel, "weather-api")
	slog.SetDefault(logger)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	registry := providers.NewRegistry(httpClient, cfg.Credentials())
	service := weather.NewService(registry, logger)

	app := httpapi.NewApp(service, httpapi.AppOptions{
		Routes: httpapi.RouteOptions{
			DefaultProvider: cfg.DefaultProvider,
			MaxCoordinates:  cfg.MaxCoordinates,
			Delay:           cfg.RequestDelay,
		},
		Form: web.FormOptions{
			APIBaseURL:         cfg.APIBaseURL,
			DefaultProvider:    cfg.DefaultProvider,
			ShowProviderSelect: cfg.ShowProviderSelect,
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AccessLog:          true,
	})

	// Start server with graceful shutdown
	go func() {
		logger.Info("listening", "port", cfg.Port, "default_provider", cfg.DefaultProvider)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
