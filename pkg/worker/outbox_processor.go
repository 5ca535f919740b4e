package worker

import (
	"context"
	"time"

	"github.com/medjourney/portal-api/internal/service/event"
	"github.com/medjourney/portal-api/pkg/logger"
)

type OutboxProcessorConfig struct {
	PollInterval time.Duration
	Retention    time.Duration
}

// OutboxProcessor drains the outbox into the broker on a fixed poll
// interval. Multiple instances can run: SKIP LOCKED keeps concurrent polls
// from claiming the same batch, but the row lock only spans the claiming
// statement, so delivery is at-least-once and subscribers must tolerate
// the occasional duplicate.
type OutboxProcessor struct {
	events *event.Service
	config OutboxProcessorConfig
	logger *logger.Logger
}

func NewOutboxProcessor(events *event.Service, config OutboxProcessorConfig, logger *logger.Logger) *OutboxProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.Retention <= 0 {
		config.Retention = 24 * time.Hour
	}
	return &OutboxProcessor{
		events: events,
		config: config,
		logger: logger,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(p.config.Retention)
	defer cleanup.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.events.ProcessPendingEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox events")
			}
		case <-cleanup.C:
			deleted, err := p.events.CleanupProcessedEvents(ctx, p.config.Retention)
			if err != nil {
				p.logger.Error(err, "failed to cleanup outbox events")
				continue
			}
			if deleted > 0 {
				p.logger.Info("pruned processed outbox events", "deleted", deleted)
			}
		}
	}
}
