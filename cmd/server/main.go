package main

import (
	"chatbox-backend/internal/api"
	"chatbox-backend/internal/config"
	"chatbox-backend/internal/handlers"
	"chatbox-backend/internal/logging"
	"chatbox-backend/internal/pubsub"
	"chatbox-backend/internal/pubsub/kafka"
	"chatbox-backend/internal/pubsub/redis"
	"chatbox-backend/internal/realtime"
	"chatbox-backend/internal/services"
	"chatbox-backend/internal/store/postgres"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("FATAL: Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("Starting ChatBox Backend...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Database Connection Pool
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	dbpool, err := postgres.Connect(dbCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()
	logger.Info("Database connection pool established and pinged successfully.")

	if cfg.RunMigrations {
		if err := postgres.ApplyMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// 3. Initialize Dependencies (Store, Broker, Services, Handlers)
	pgStore := postgres.NewPostgresStore(dbpool, logger)

	broker, err := newBroker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize broker", zap.String("broker", cfg.Broker), zap.Error(err))
	}
	defer func() {
		if err := broker.Close(); err != nil {
			logger.Warn("Broker close failed", zap.Error(err))
		}
	}()
	logger.Info("Broker initialized.", zap.String("broker", cfg.Broker), zap.String("channel", cfg.NotifyChannel))

	authService := services.NewAuthService(pgStore, cfg, logger)
	messageService := services.NewMessageService(pgStore, broker, services.MessageServiceOptions{
		Channel:     cfg.NotifyChannel,
		Location:    cfg.DisplayLocation,
		RejectBlank: cfg.RejectBlankMessage,
	}, logger)

	hub := realtime.NewHub(broker, cfg.NotifyChannel, logger)
	if err := hub.Start(ctx); err != nil {
		logger.Fatal("Failed to start realtime hub", zap.Error(err))
	}

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler:      handlers.NewAuthHandler(authService, logger),
		MessageHandlers:  handlers.NewMessageHandlers(messageService, logger),
		WebsocketHandler: realtime.NewHandler(hub, cfg.AllowedOrigins, logger),
		Config:           cfg,
		Logger:           logger,
	})

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// Websocket connections manage their own deadlines after the upgrade.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Could not listen", zap.String("port", cfg.HTTPPort), zap.Error(err))
		}
		logger.Info("Server listener routine stopped.")
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	<-hub.Done()

	logger.Info("Server shutdown complete.")
}

// newBroker builds the notification broker selected by BROKER.
func newBroker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (pubsub.Broker, error) {
	switch cfg.Broker {
	case "memory":
		return pubsub.NewMemoryBroker(pubsub.DefaultBufferSize, logger), nil
	case "redis":
		return redis.NewBroker(ctx, cfg.RedisAddr, pubsub.DefaultBufferSize, logger)
	case "kafka":
		return kafka.NewBroker(cfg.KafkaBrokers, pubsub.DefaultBufferSize, logger), nil
	default:
		return nil, fmt.Errorf("unknown broker %q", cfg.Broker)
	}
}
