package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkivikoski/eyeguard/internal/eyecare"
	"github.com/mkivikoski/eyeguard/internal/gamma"
	"github.com/mkivikoski/eyeguard/internal/history"
	"github.com/mkivikoski/eyeguard/internal/reminder"
	"github.com/mkivikoski/eyeguard/pkg/config"
	"github.com/mkivikoski/eyeguard/pkg/health"
	"github.com/mkivikoski/eyeguard/pkg/mqtt"
	"github.com/mkivikoski/eyeguard/pkg/postgres"
	"github.com/mkivikoski/eyeguard/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → file → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "eyecare-agent"
	if path := os.Getenv("EYEGUARD_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration file error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting EyeGuard agent",
		"service_name", cfg.ServiceName,
		"mqtt_broker", cfg.MQTTAddress(),
		"store_backend", cfg.StoreBackend,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	mqttClient := mqtt.NewClient(cfg, logger)
	sink := gamma.NewSink(logger)

	// The settings store and the optional countdown mirror share one
	// Redis connection when the redis backend is selected
	var redisClient redis.Client
	var store eyecare.Store
	if cfg.StoreBackend == config.StoreBackendRedis {
		redisClient = redis.NewClient(cfg, logger)
		store = eyecare.NewRedisStore(redisClient, logger)
	} else {
		store = eyecare.NewFileStore(cfg.SettingsPath, logger)
	}

	settings, err := store.Load(ctx, eyecare.DefaultSettings(cfg))
	if err != nil {
		logger.Warn("Settings store unavailable, starting with defaults", "error", err)
	}

	controller := eyecare.NewController(settings, sink, store, cfg, logger)
	scheduler := reminder.NewScheduler(settings.ReminderIntervalMinutes, settings.ReminderEnabled, logger)
	recorder := buildHistoryRecorder(ctx, cfg, logger)

	agent := eyecare.NewAgent(mqttClient, redisClient, controller, scheduler, recorder, cfg, logger)

	healthChecker := health.NewChecker(mqttClient, sink.Supported(), logger)
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	agentDone := make(chan error, 1)
	go func() {
		agentDone <- agent.Start(ctx)
	}()

	// Join the Start goroutine before Stop so a signal arriving
	// mid-startup cannot have Stop restore the display while Start is
	// still applying the loaded ramp
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
		cancel()
		if err := <-agentDone; err != nil {
			logger.Error("Agent error during shutdown", "error", err)
		}
	case err := <-agentDone:
		if err != nil {
			logger.Error("Agent failed", "error", err)
		}
		cancel()
	}

	// Graceful shutdown: the agent restores the display before the
	// process exits
	logger.Info("Initiating graceful shutdown")
	agent.Stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Error closing Redis connection", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("EyeGuard agent shutdown complete")
}

// buildHistoryRecorder connects the usage history when Postgres is
// configured. Any trouble degrades to the noop recorder; history is
// never worth blocking startup for.
func buildHistoryRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) history.Recorder {
	if !cfg.HistoryEnabled() {
		return history.NewNoop()
	}

	pg := postgres.NewClient(cfg, logger)
	if err := pg.Connect(ctx); err != nil {
		logger.Warn("Usage history database unavailable, continuing without history", "error", err)
		return history.NewNoop()
	}

	storage := history.NewStorage(pg, logger)
	if err := storage.Init(ctx); err != nil {
		logger.Warn("Failed to initialize usage history schema, continuing without history", "error", err)
		pg.Disconnect()
		return history.NewNoop()
	}

	logger.Info("Usage history enabled", "postgres_host", cfg.PostgresHost)
	return storage
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
