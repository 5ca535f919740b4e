package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medjourney/portal-api/config"
	"github.com/medjourney/portal-api/internal/email/smtp"
	"github.com/medjourney/portal-api/internal/handler"
	accesshandler "github.com/medjourney/portal-api/internal/handler/access"
	analyticshandler "github.com/medjourney/portal-api/internal/handler/analytics"
	authhandler "github.com/medjourney/portal-api/internal/handler/auth"
	documenthandler "github.com/medjourney/portal-api/internal/handler/document"
	messagehandler "github.com/medjourney/portal-api/internal/handler/message"
	planhandler "github.com/medjourney/portal-api/internal/handler/plan"
	profilehandler "github.com/medjourney/portal-api/internal/handler/profile"
	taskhandler "github.com/medjourney/portal-api/internal/handler/task"
	"github.com/medjourney/portal-api/internal/middleware"
	"github.com/medjourney/portal-api/internal/repository/postgres"
	"github.com/medjourney/portal-api/internal/router"
	accessService "github.com/medjourney/portal-api/internal/service/access"
	analyticsService "github.com/medjourney/portal-api/internal/service/analytics"
	auditService "github.com/medjourney/portal-api/internal/service/audit"
	authService "github.com/medjourney/portal-api/internal/service/auth"
	documentService "github.com/medjourney/portal-api/internal/service/document"
	eventService "github.com/medjourney/portal-api/internal/service/event"
	messageService "github.com/medjourney/portal-api/internal/service/message"
	planService "github.com/medjourney/portal-api/internal/service/plan"
	profileService "github.com/medjourney/portal-api/internal/service/profile"
	taskService "github.com/medjourney/portal-api/internal/service/task"
	"github.com/medjourney/portal-api/internal/storage/s3"
	"github.com/medjourney/portal-api/pkg/auth"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/messaging/redis"
	"github.com/medjourney/portal-api/pkg/metrics"
	"github.com/medjourney/portal-api/pkg/security"
	"github.com/medjourney/portal-api/pkg/worker"
)

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
		Pretty:     cfg.Logging.Pretty,
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
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	blobStore, err := s3.NewStore(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	m := metrics.NewMetrics("portal", "api")

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	planRepo := postgres.NewSurgeryPlanRepository(db)
	taskRepo := postgres.NewRecoveryTaskRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	tokenRepo := postgres.NewTokenRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	// Services
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        cfg.JWT.Expiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
	})
	hasher := security.NewBcryptHasher(12)
	emailSvc := smtp.NewService(cfg.SMTP)

	auditor := auditService.NewService(auditRepo, appLogger)
	eventSvc := eventService.NewService(outboxRepo, broker, m, appLogger)
	authSvc := authService.NewService(profileRepo, tokenRepo, jwtSvc, hasher, emailSvc, auditor, appLogger)
	profileSvc := profileService.NewService(profileRepo, hasher, auditor)
	planSvc := planService.NewService(planRepo, profileRepo, eventSvc, auditor, appLogger)
	taskSvc := taskService.NewService(taskRepo, planRepo, eventSvc, auditor, m, appLogger)
	documentSvc := documentService.NewService(documentRepo, blobStore, eventSvc, auditor, m, appLogger)
	messageSvc := messageService.NewService(messageRepo, profileRepo, eventSvc, auditor, m, appLogger)
	analyticsSvc := analyticsService.NewService(analyticsRepo, m)
	accessSvc := accessService.NewService(planRepo, taskRepo, documentRepo, messageRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, func(c *gin.Context, token string) (bool, error) {
		return authSvc.IsTokenRevoked(c.Request.Context(), token)
	})

	h := handler.NewHandler()
	authH := authhandler.NewHandler(authSvc, cfg.JWT.Expiry)
	profileH := profilehandler.NewHandler(profileSvc)
	planH := planhandler.NewHandler(planSvc)
	taskH := taskhandler.NewHandler(taskSvc)
	documentH := documenthandler.NewHandler(documentSvc)
	messageH := messagehandler.NewHandler(messageSvc)
	analyticsH := analyticshandler.NewHandler(analyticsSvc)
	accessH := accesshandler.NewHandler(accessSvc)

	rateLimit := rate.Limit(0)
	if cfg.RateLimit.Enabled {
		rateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	r := router.NewRouter(
		authMiddleware,
		h,
		authH,
		profileH,
		planH,
		taskH,
		documentH,
		messageH,
		analyticsH,
		accessH,
		router.Config{
			RateLimit:     rateLimit,
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "portal_api",
			Timeout:       cfg.Server.RequestTimeout,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// In-process outbox drain keeps single-instance deployments simple;
	// larger deployments run cmd/worker instead.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	processor := worker.NewOutboxProcessor(eventSvc, worker.OutboxProcessorConfig{
		PollInterval: cfg.Outbox.PollInterval,
		Retention:    cfg.Outbox.Retention,
	}, appLogger)
	go processor.Start(workerCtx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("portal API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
