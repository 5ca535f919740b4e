package task

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
	"github.com/medjourney/portal-api/internal/service/audit"
	"github.com/medjourney/portal-api/internal/service/event"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/metrics"
)

// Registered once; promauto panics on duplicate collector registration.
var testMetrics = metrics.NewMetrics("portal", "tasktest")

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*model.RecoveryTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[uuid.UUID]*model.RecoveryTask{}}
}

func (f *fakeTaskRepo) visible(scope model.AccessScope, t *model.RecoveryTask) bool {
	return scope.Staff() || t.PatientID == scope.UserID
}

func (f *fakeTaskRepo) Create(ctx context.Context, t *model.RecoveryTask) error {
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeTaskRepo) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.RecoveryTask, error) {
	t, ok := f.tasks[id]
	if !ok || !f.visible(scope, t) {
		return nil, sql.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, t *model.RecoveryTask) error {
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error {
	t, ok := f.tasks[id]
	if !ok || !f.visible(scope, t) {
		return sql.ErrNoRows
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskRepo) List(ctx context.Context, scope model.AccessScope, filter *model.TaskFilter) ([]*model.RecoveryTask, error) {
	var out []*model.RecoveryTask
	for _, t := range f.tasks {
		if !f.visible(scope, t) {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

// SetCompleted mirrors the scoped UPDATE: a row outside the caller's scope
// matches nothing and reports no rows.
func (f *fakeTaskRepo) SetCompleted(ctx context.Context, scope model.AccessScope, id uuid.UUID, completed bool, at *time.Time) error {
	t, ok := f.tasks[id]
	if !ok || !f.visible(scope, t) {
		return sql.ErrNoRows
	}
	t.Completed = completed
	t.CompletedAt = at
	return nil
}

func (f *fakeTaskRepo) Count(ctx context.Context, scope model.AccessScope) (int, error) {
	tasks, err := f.List(ctx, scope, nil)
	return len(tasks), err
}

type fakePlanRepo struct {
	plans map[uuid.UUID]*model.SurgeryPlan
}

func (f *fakePlanRepo) Create(ctx context.Context, p *model.SurgeryPlan) error { return nil }

func (f *fakePlanRepo) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.SurgeryPlan, error) {
	p, ok := f.plans[id]
	if !ok || (!scope.Staff() && p.PatientID != scope.UserID) {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakePlanRepo) Update(ctx context.Context, p *model.SurgeryPlan) error { return nil }

func (f *fakePlanRepo) Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error {
	return nil
}

func (f *fakePlanRepo) List(ctx context.Context, scope model.AccessScope, filter *model.PlanFilter) ([]*model.SurgeryPlan, error) {
	return nil, nil
}

func (f *fakePlanRepo) Count(ctx context.Context, scope model.AccessScope) (int, error) {
	return len(f.plans), nil
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
	svc       *Service
	repo      *fakeTaskRepo
	outbox    *fakeOutboxRepo
	patientID uuid.UUID
	plan      *model.SurgeryPlan
	nurse     model.AccessScope
	patient   model.AccessScope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	testLogger := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	patientID := uuid.New()
	plan := &model.SurgeryPlan{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patientID,
		Status:    model.PlanStatusPostOp,
	}

	repo := newFakeTaskRepo()
	planRepo := &fakePlanRepo{plans: map[uuid.UUID]*model.SurgeryPlan{plan.ID: plan}}
	outbox := &fakeOutboxRepo{}

	events := event.NewService(outbox, nil, testMetrics, testLogger)
	auditor := audit.NewService(&fakeAuditRepo{}, testLogger)
	svc := NewService(repo, planRepo, events, auditor, testMetrics, testLogger)

	return &fixture{
		svc:       svc,
		repo:      repo,
		outbox:    outbox,
		patientID: patientID,
		plan:      plan,
		nurse:     model.AccessScope{UserID: uuid.New(), Role: model.RoleNurse},
		patient:   model.AccessScope{UserID: patientID, Role: model.RolePatient},
	}
}

func TestCreateRequiresStaff(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.patient, &model.CreateTaskRequest{
		SurgeryPlanID: f.plan.ID.String(),
		Title:         "Walk 10 minutes",
		DueDate:       time.Now().Add(24 * time.Hour),
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestCreateInheritsPatientFromPlan(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), f.nurse, &model.CreateTaskRequest{
		SurgeryPlanID: f.plan.ID.String(),
		Title:         "Walk 10 minutes",
		DueDate:       time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, f.patientID, view.PatientID)
	assert.Equal(t, f.plan.ID, view.SurgeryPlanID)
	assert.Equal(t, model.TaskTypeGeneral, view.TaskType, "task type defaults to general")
	assert.Equal(t, model.TaskBadgePending, view.Badge)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventTaskCreated, f.outbox.events[0].EventType)
}

func TestPatientCompletesOwnTask(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), f.nurse, &model.CreateTaskRequest{
		SurgeryPlanID: f.plan.ID.String(),
		Title:         "Take antibiotics",
		DueDate:       time.Now().Add(-time.Hour),
		TaskType:      model.TaskTypeMedication,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskBadgeOverdue, view.Badge)

	done, err := f.svc.SetCompleted(context.Background(), f.patient, view.ID, true)
	require.NoError(t, err)

	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, model.TaskBadgeCompleted, done.Badge, "completed wins over overdue")

	require.Len(t, f.outbox.events, 2)
	assert.Equal(t, model.EventTaskCompleted, f.outbox.events[1].EventType)
}

func TestSetCompletedForeignTaskIsNotFound(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), f.nurse, &model.CreateTaskRequest{
		SurgeryPlanID: f.plan.ID.String(),
		Title:         "Physio session",
		DueDate:       time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	otherPatient := model.AccessScope{UserID: uuid.New(), Role: model.RolePatient}
	_, err = f.svc.SetCompleted(context.Background(), otherPatient, view.ID, true)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound), "foreign rows surface as not found")
	assert.False(t, f.repo.tasks[view.ID].Completed)
}

func TestReopenClearsCompletion(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), f.nurse, &model.CreateTaskRequest{
		SurgeryPlanID: f.plan.ID.String(),
		Title:         "Wound check",
		DueDate:       time.Now().Add(24 * time.Hour),
		TaskType:      model.TaskTypeWoundCare,
	})
	require.NoError(t, err)

	_, err = f.svc.SetCompleted(context.Background(), f.patient, view.ID, true)
	require.NoError(t, err)

	reopened, err := f.svc.SetCompleted(context.Background(), f.patient, view.ID, false)
	require.NoError(t, err)

	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)
	assert.Equal(t, model.TaskBadgePending, reopened.Badge)
}

func TestDeleteRequiresStaff(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), f.nurse, &model.CreateTaskRequest{
		SurgeryPlanID: f.plan.ID.String(),
		Title:         "Pre-op fasting",
		DueDate:       time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), f.patient, view.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	require.NoError(t, f.svc.Delete(context.Background(), f.nurse, view.ID))
	assert.Empty(t, f.repo.tasks)
}
