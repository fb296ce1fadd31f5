// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/config"
	"github.com/javajoker/imi-campaigns/internal/database"
	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/logger"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/repository/memory"
	"github.com/javajoker/imi-campaigns/internal/repository/postgres"
	"github.com/javajoker/imi-campaigns/internal/router"
	"github.com/javajoker/imi-campaigns/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		logrus.Fatal("Failed to initialize logger: ", err)
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.Fatal("Failed to initialize i18n: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logrus.Fatal("Failed to open store: ", err)
	}
	defer closeStore()

	deps := router.Dependencies{
		Store:       store,
		Idempotency: openIdempotency(ctx, cfg.Redis),
		Payments:    services.NewStripeGateway(cfg.Payment.StripeSecretKey),
		Mail:        services.NewSMTPSender(cfg.Email),
	}

	storage, err := services.NewStorageService(cfg.AWS, cfg.Server.MaxUploadMB)
	if err != nil {
		logrus.Fatal("Failed to initialize media storage: ", err)
	}
	deps.Media = storage

	// Kafka only mirrors events, the outbox stays the source of truth
	var mirror events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
		if err != nil {
			logrus.Fatal("Failed to initialize Kafka publisher: ", err)
		}
		defer publisher.Close()
		mirror = publisher
	}
	deps.Dispatcher = events.NewDispatcher(store.Outbox(), events.DispatcherConfig{
		Interval:   cfg.Events.Interval,
		BatchSize:  cfg.Events.BatchSize,
		ClaimTTL:   cfg.Events.ClaimTTL,
		MaxRetries: cfg.Events.MaxRetries,
	}, mirror)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(cfg, deps)

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		if !cfg.Events.Enabled {
			return
		}
		logrus.Info("Starting outbox dispatcher")
		if err := deps.Dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("Outbox dispatcher stopped")
		}
	}()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logrus.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	<-dispatcherDone

	logrus.Info("Server exited")
}

// openStore returns the configured repository backend and its closer.
func openStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		logrus.Warn("Using the in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, nil, err
	}
	return postgres.New(db), func() { database.Close(db) }, nil
}

// openIdempotency prefers Redis so checkout keys hold across replicas.
func openIdempotency(ctx context.Context, cfg config.RedisConfig) services.IdempotencyStore {
	if cfg.Addr() == "" {
		return services.NewMemoryIdempotencyStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, falling back to in-process idempotency keys")
		client.Close()
		return services.NewMemoryIdempotencyStore()
	}
	return services.NewRedisIdempotencyStore(client)
}
