package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/model"
)

// All repository interfaces in one file. Methods that take a
// model.AccessScope apply the caller's row-level visibility inside the
// query itself: a patient scope pins predicates to its own patient_id, so
// foreign rows simply never come back.
type (
	ProfileRepository interface {
		Create(ctx context.Context, profile *model.Profile) error
		Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
		GetByEmail(ctx context.Context, email string) (*model.Profile, error)
		Update(ctx context.Context, profile *model.Profile) error
		UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
		List(ctx context.Context, filter *model.ProfileFilter) ([]*model.Profile, error)
	}

	SurgeryPlanRepository interface {
		Create(ctx context.Context, plan *model.SurgeryPlan) error
		Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.SurgeryPlan, error)
		Update(ctx context.Context, plan *model.SurgeryPlan) error
		Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error
		List(ctx context.Context, scope model.AccessScope, filter *model.PlanFilter) ([]*model.SurgeryPlan, error)
		Count(ctx context.Context, scope model.AccessScope) (int, error)
	}

	RecoveryTaskRepository interface {
		Create(ctx context.Context, task *model.RecoveryTask) error
		Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.RecoveryTask, error)
		Update(ctx context.Context, task *model.RecoveryTask) error
		Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error
		List(ctx context.Context, scope model.AccessScope, filter *model.TaskFilter) ([]*model.RecoveryTask, error)
		SetCompleted(ctx context.Context, scope model.AccessScope, id uuid.UUID, completed bool, at *time.Time) error
		Count(ctx context.Context, scope model.AccessScope) (int, error)
	}

	DocumentRepository interface {
		Create(ctx context.Context, doc *model.Document) error
		Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Document, error)
		Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error
		List(ctx context.Context, scope model.AccessScope, filter *model.DocumentFilter) ([]*model.Document, error)
		Count(ctx context.Context, scope model.AccessScope) (int, error)
	}

	MessageRepository interface {
		Create(ctx context.Context, msg *model.Message) error
		Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Message, error)
		List(ctx context.Context, scope model.AccessScope, filter *model.MessageFilter) ([]*model.Message, error)
		MarkRead(ctx context.Context, recipientID, id uuid.UUID, at time.Time) (bool, error)
		UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
		Count(ctx context.Context, scope model.AccessScope) (int, error)
	}

	AnalyticsRepository interface {
		CountPatients(ctx context.Context) (int, error)
		CountPlansByStatus(ctx context.Context) (map[string]int, error)
		CountPatientsByRegion(ctx context.Context) (map[string]int, error)
		PlansByMonth(ctx context.Context) ([]model.MonthCount, error)
		TaskTotals(ctx context.Context) (model.TaskTotals, error)
		CountUnreadMessages(ctx context.Context) (int, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filters map[string]interface{}) ([]*model.AuditLog, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}

	TokenRepository interface {
		StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateVerificationToken(ctx context.Context, token string) error
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateResetToken(ctx context.Context, token string) error
		RevokeAccessToken(ctx context.Context, token string, expiry time.Time) error
		IsAccessTokenRevoked(ctx context.Context, token string) (bool, error)
		DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		BeginTx(ctx context.Context) (*sql.Tx, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
