package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/metrics"
)

// Registered once; promauto panics on duplicate collector registration.
var testMetrics = metrics.NewMetrics("portal", "eventtest")

type statusUpdate struct {
	id      uuid.UUID
	status  string
	retryAt *time.Time
}

type fakeOutboxRepo struct {
	created []*model.OutboxEvent
	updates []statusUpdate
	deleted time.Time
}

func (f *fakeOutboxRepo) Create(ctx context.Context, ev *model.OutboxEvent) error {
	f.created = append(f.created, ev)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) BeginTx(ctx context.Context) (*sql.Tx, error) { return nil, nil }

func (f *fakeOutboxRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error {
	f.updates = append(f.updates, statusUpdate{id: id, status: status, retryAt: retryAt})
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	f.deleted = before
	return 4, nil
}

func newTestService(repo *fakeOutboxRepo) *Service {
	testLogger := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(repo, nil, testMetrics, testLogger)
}

func TestEmit(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(repo)

	payload := map[string]string{"plan_id": uuid.NewString()}
	require.NoError(t, svc.Emit(context.Background(), model.EventPlanCreated, payload))

	require.Len(t, repo.created, 1)
	ev := repo.created[0]
	assert.Equal(t, model.EventPlanCreated, ev.EventType)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(ev.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestEmitCountsOutboxInsert(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(repo)

	counter := testMetrics.DatabaseOperations.WithLabelValues("outbox_insert", "success")
	before := testutil.ToFloat64(counter)

	payload := map[string]string{"task_id": uuid.NewString()}
	require.NoError(t, svc.Emit(context.Background(), model.EventTaskCreated, payload))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestEmitRejectsUnmarshalablePayload(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(repo)

	err := svc.Emit(context.Background(), model.EventPlanCreated, func() {})
	assert.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestHandleProcessingErrorSchedulesRetry(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(repo)

	ev := &model.OutboxEvent{ID: uuid.New(), EventType: model.EventTaskCreated, RetryCount: 0}
	svc.handleProcessingError(context.Background(), ev, errors.New("broker down"))

	require.Len(t, repo.updates, 1)
	update := repo.updates[0]
	assert.Equal(t, string(model.OutboxStatusRetry), update.status)
	require.NotNil(t, update.retryAt)
	assert.True(t, update.retryAt.After(time.Now()), "retry is scheduled in the future")
}

func TestHandleProcessingErrorExhaustsRetries(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(repo)

	ev := &model.OutboxEvent{ID: uuid.New(), EventType: model.EventTaskCreated, RetryCount: maxRetries - 1}
	svc.handleProcessingError(context.Background(), ev, errors.New("broker down"))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, string(model.OutboxStatusFailed), repo.updates[0].status)
	assert.Nil(t, repo.updates[0].retryAt)
}

func TestCleanupProcessedEvents(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(repo)

	deleted, err := svc.CleanupProcessedEvents(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	cutoff := time.Now().Add(-24 * time.Hour)
	assert.WithinDuration(t, cutoff, repo.deleted, time.Minute)
}
