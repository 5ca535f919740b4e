// Package event implements the transactional outbox: domain services
// record events next to their data writes, and the processor drains the
// table into the message broker.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/messaging"
	"github.com/medjourney/portal-api/pkg/metrics"
)

const (
	maxRetries = 3
	retryDelay = 5 * time.Second
	batchSize  = 100
)

type Service struct {
	outboxRepo repository.OutboxRepository
	broker     messaging.Broker
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, broker messaging.Broker,
	m *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		outboxRepo: outboxRepo,
		broker:     broker,
		metrics:    m,
		logger:     logger,
	}
}

// Emit records a domain event in the outbox. The event reaches the broker
// asynchronously; an Emit that returns nil is durable.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("outbox_insert", "error").Inc()
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("outbox_insert", "success").Inc()
	return nil
}

// ProcessPendingEvents drains one batch of pending or retryable events.
func (s *Service) ProcessPendingEvents(ctx context.Context) error {
	events, err := s.outboxRepo.GetPendingEventsWithLock(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := s.processEvent(ctx, event); err != nil {
			s.handleProcessingError(ctx, event, err)
		}
	}
	return nil
}

func (s *Service) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	start := time.Now()

	tx, err := s.outboxRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := s.outboxRepo.UpdateStatusTx(ctx, tx, event.ID, string(model.OutboxStatusProcessed), nil, nil); err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.OutboxEventsProcessed.Inc()
	s.metrics.OutboxProcessingLatency.Observe(time.Since(start).Seconds())
	s.metrics.DatabaseOperations.WithLabelValues("outbox_update", "success").Inc()
	return nil
}

func (s *Service) handleProcessingError(ctx context.Context, event *model.OutboxEvent, err error) {
	errMsg := err.Error()

	if event.RetryCount+1 >= maxRetries {
		s.metrics.OutboxEventsFailed.Inc()
		if updateErr := s.outboxRepo.UpdateStatusTx(ctx, nil, event.ID, string(model.OutboxStatusFailed), &errMsg, nil); updateErr != nil {
			s.logger.Error(updateErr, "failed to mark event failed", "event_id", event.ID)
		}
		s.logger.Error(err, "outbox event exhausted retries", "event_id", event.ID, "event_type", event.EventType)
		return
	}

	retryAt := time.Now().Add(retryDelay * time.Duration(event.RetryCount+1))
	s.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	if updateErr := s.outboxRepo.UpdateStatusTx(ctx, nil, event.ID, string(model.OutboxStatusRetry), &errMsg, &retryAt); updateErr != nil {
		s.logger.Error(updateErr, "failed to schedule event retry", "event_id", event.ID)
	}
}

// CleanupProcessedEvents prunes processed rows older than the retention
// window.
func (s *Service) CleanupProcessedEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.outboxRepo.DeleteProcessedBefore(ctx, time.Now().Add(-retention))
}
