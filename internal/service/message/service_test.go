package message

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	"github.com/medjourney/portal-api/internal/service/audit"
	"github.com/medjourney/portal-api/internal/service/event"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/metrics"
)

// Registered once; promauto panics on duplicate collector registration.
var testMetrics = metrics.NewMetrics("portal", "messagetest")

type fakeMessageRepo struct {
	messages map[uuid.UUID]*model.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[uuid.UUID]*model.Message{}}
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *model.Message) error {
	f.messages[msg.ID] = msg
	return nil
}

// Get mirrors the row-level scope of the SQL repository: patients only see
// conversations they are part of, staff see everything.
func (f *fakeMessageRepo) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Message, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if !scope.Staff() && msg.FromUserID != scope.UserID && msg.ToUserID != scope.UserID {
		return nil, sql.ErrNoRows
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeMessageRepo) List(ctx context.Context, scope model.AccessScope, filter *model.MessageFilter) ([]*model.Message, error) {
	var out []*model.Message
	for _, msg := range f.messages {
		if !scope.Staff() && msg.FromUserID != scope.UserID && msg.ToUserID != scope.UserID {
			continue
		}
		copied := *msg
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, recipientID, id uuid.UUID, at time.Time) (bool, error) {
	msg, ok := f.messages[id]
	if !ok || msg.ToUserID != recipientID || msg.ReadAt != nil {
		return false, nil
	}
	msg.ReadAt = &at
	return true, nil
}

func (f *fakeMessageRepo) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	count := 0
	for _, msg := range f.messages {
		if msg.ToUserID == recipientID && msg.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageRepo) Count(ctx context.Context, scope model.AccessScope) (int, error) {
	msgs, err := f.List(ctx, scope, nil)
	return len(msgs), err
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*model.Profile
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *model.Profile) error { return nil }

func (f *fakeProfileRepo) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeProfileRepo) Update(ctx context.Context, p *model.Profile) error { return nil }

func (f *fakeProfileRepo) UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return nil
}

func (f *fakeProfileRepo) List(ctx context.Context, filter *model.ProfileFilter) ([]*model.Profile, error) {
	return nil, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, ev *model.OutboxEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) BeginTx(ctx context.Context) (*sql.Tx, error) { return nil, nil }

func (f *fakeOutboxRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error {
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fakeAuditRepo struct {
	entries []*model.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, filters map[string]interface{}) ([]*model.AuditLog, error) {
	return f.entries, nil
}

func (f *fakeAuditRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fixture struct {
	svc      *Service
	repo     *fakeMessageRepo
	outbox   *fakeOutboxRepo
	audits   *fakeAuditRepo
	patient  *model.Profile
	nurse    *model.Profile
	stranger *model.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	testLogger := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	patient := &model.Profile{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}
	nurse := &model.Profile{Base: model.Base{ID: uuid.New()}, Role: model.RoleNurse}
	stranger := &model.Profile{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}

	repo := newFakeMessageRepo()
	profiles := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{
		patient.ID:  patient,
		nurse.ID:    nurse,
		stranger.ID: stranger,
	}}
	outbox := &fakeOutboxRepo{}
	audits := &fakeAuditRepo{}

	events := event.NewService(outbox, nil, testMetrics, testLogger)
	auditor := audit.NewService(audits, testLogger)
	svc := NewService(repo, profiles, events, auditor, testMetrics, testLogger)

	return &fixture{
		svc:      svc,
		repo:     repo,
		outbox:   outbox,
		audits:   audits,
		patient:  patient,
		nurse:    nurse,
		stranger: stranger,
	}
}

func scopeFor(p *model.Profile) model.AccessScope {
	return model.AccessScope{UserID: p.ID, Role: p.Role}
}

var _ repository.MessageRepository = (*fakeMessageRepo)(nil)

func TestSendRejectsSelfSend(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Send(context.Background(), scopeFor(f.patient), &model.SendMessageRequest{
		ToUserID: f.patient.ID.String(),
		Content:  "note to self",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
	assert.Empty(t, f.repo.messages, "no message may be stored")
	assert.Empty(t, f.outbox.events, "no event may be emitted")
}

func TestSendRejectsUnknownRecipient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Send(context.Background(), scopeFor(f.patient), &model.SendMessageRequest{
		ToUserID: uuid.NewString(),
		Content:  "hello?",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestSendStoresMessageAndEmitsEvent(t *testing.T) {
	f := newFixture(t)

	msg, err := f.svc.Send(context.Background(), scopeFor(f.nurse), &model.SendMessageRequest{
		ToUserID: f.patient.ID.String(),
		Content:  "your pre-op checklist is ready",
	})
	require.NoError(t, err)

	assert.Equal(t, f.nurse.ID, msg.FromUserID)
	assert.Equal(t, f.patient.ID, msg.ToUserID)
	assert.False(t, msg.IsRead())
	assert.Len(t, f.repo.messages, 1)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventMessageSent, f.outbox.events[0].EventType)
	assert.Len(t, f.audits.entries, 1)
}

func TestMarkReadRecipientOnly(t *testing.T) {
	f := newFixture(t)

	msg, err := f.svc.Send(context.Background(), scopeFor(f.nurse), &model.SendMessageRequest{
		ToUserID: f.patient.ID.String(),
		Content:  "how is the wound healing?",
	})
	require.NoError(t, err)

	_, err = f.svc.MarkRead(context.Background(), scopeFor(f.nurse), msg.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden), "the sender must not mark its own message read")

	read, err := f.svc.MarkRead(context.Background(), scopeFor(f.patient), msg.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead())
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return first }

	msg, err := f.svc.Send(context.Background(), scopeFor(f.nurse), &model.SendMessageRequest{
		ToUserID: f.patient.ID.String(),
		Content:  "medication reminder",
	})
	require.NoError(t, err)

	read, err := f.svc.MarkRead(context.Background(), scopeFor(f.patient), msg.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	assert.Equal(t, first, *read.ReadAt)

	f.svc.now = func() time.Time { return first.Add(time.Hour) }
	again, err := f.svc.MarkRead(context.Background(), scopeFor(f.patient), msg.ID)
	require.NoError(t, err)
	require.NotNil(t, again.ReadAt)
	assert.Equal(t, first, *again.ReadAt, "re-marking keeps the original read timestamp")
}

func TestPatientCannotSeeForeignMessage(t *testing.T) {
	f := newFixture(t)

	msg, err := f.svc.Send(context.Background(), scopeFor(f.nurse), &model.SendMessageRequest{
		ToUserID: f.patient.ID.String(),
		Content:  "private follow-up",
	})
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), scopeFor(f.stranger), msg.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound), "foreign rows surface as not found, never forbidden")
}

func TestUnreadCount(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Send(context.Background(), scopeFor(f.nurse), &model.SendMessageRequest{
			ToUserID: f.patient.ID.String(),
			Content:  "update",
		})
		require.NoError(t, err)
	}

	count, err := f.svc.UnreadCount(context.Background(), scopeFor(f.patient))
	require.NoError(t, err)
	assert.Equal(t, 3, count.Count)

	count, err = f.svc.UnreadCount(context.Background(), scopeFor(f.nurse))
	require.NoError(t, err)
	assert.Equal(t, 0, count.Count)
}
