package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medjourney/portal-api/config"
	"github.com/medjourney/portal-api/internal/repository/postgres"
	eventService "github.com/medjourney/portal-api/internal/service/event"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/messaging/redis"
	"github.com/medjourney/portal-api/pkg/metrics"
	"github.com/medjourney/portal-api/pkg/worker"
)

func setupHealthCheck(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.ZL.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})
	log.Logger = appLogger.ZL

	db, err := postgres.NewDB(postgres.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	m := metrics.NewMetrics("portal", "worker")

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)
	tokenRepo := postgres.NewTokenRepository(baseRepo)
	auditRepo := postgres.NewAuditRepository(db)

	eventSvc := eventService.NewService(outboxRepo, broker, m, appLogger)

	processor := worker.NewOutboxProcessor(eventSvc, worker.OutboxProcessorConfig{
		PollInterval: cfg.Outbox.PollInterval,
		Retention:    cfg.Outbox.Retention,
	}, appLogger)

	retention := worker.NewRetentionWorker(tokenRepo, auditRepo, worker.RetentionConfig{
		Interval:    cfg.Retention.Interval,
		AuditLogAge: cfg.Retention.AuditLogAge,
		TokenGrace:  cfg.Retention.TokenGrace,
	}, appLogger)

	setupHealthCheck(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down workers")
		cancel()
	}()

	go retention.Start(ctx)
	processor.Start(ctx)
}
