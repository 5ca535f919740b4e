package worker

import (
	"context"
	"time"

	"github.com/medjourney/portal-api/internal/repository"
	"github.com/medjourney/portal-api/pkg/logger"
)

type RetentionConfig struct {
	Interval    time.Duration
	AuditLogAge time.Duration
	TokenGrace  time.Duration
}

// RetentionWorker prunes expired tokens and aged audit logs so the
// operational tables stay bounded.
type RetentionWorker struct {
	tokenRepo repository.TokenRepository
	auditRepo repository.AuditRepository
	config    RetentionConfig
	logger    *logger.Logger
}

func NewRetentionWorker(tokenRepo repository.TokenRepository, auditRepo repository.AuditRepository,
	config RetentionConfig, logger *logger.Logger) *RetentionWorker {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.AuditLogAge <= 0 {
		config.AuditLogAge = 90 * 24 * time.Hour
	}
	if config.TokenGrace <= 0 {
		config.TokenGrace = 24 * time.Hour
	}
	return &RetentionWorker{
		tokenRepo: tokenRepo,
		auditRepo: auditRepo,
		config:    config,
		logger:    logger,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.Info("starting retention worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down retention worker")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *RetentionWorker) runOnce(ctx context.Context) {
	// Tokens stay a grace period past expiry so support can inspect
	// recent auth issues.
	tokens, err := w.tokenRepo.DeleteExpired(ctx, time.Now().Add(-w.config.TokenGrace))
	if err != nil {
		w.logger.Error(err, "failed to prune expired tokens")
	} else if tokens > 0 {
		w.logger.Info("pruned expired tokens", "deleted", tokens)
	}

	logs, err := w.auditRepo.Cleanup(ctx, time.Now().Add(-w.config.AuditLogAge))
	if err != nil {
		w.logger.Error(err, "failed to prune audit logs")
	} else if logs > 0 {
		w.logger.Info("pruned audit logs", "deleted", logs)
	}
}
