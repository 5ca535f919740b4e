package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
)

type recoveryTaskRepository struct {
	db *sqlx.DB
}

func NewRecoveryTaskRepository(db *sqlx.DB) repository.RecoveryTaskRepository {
	return &recoveryTaskRepository{db: db}
}

func (r *recoveryTaskRepository) Create(ctx context.Context, task *model.RecoveryTask) error {
	query := `
		INSERT INTO recovery_tasks (
			id, surgery_plan_id, patient_id, title, description, due_date,
			completed, completed_at, task_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.SurgeryPlanID,
		task.PatientID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Completed,
		task.CompletedAt,
		task.TaskType,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recovery task: %w", err)
	}
	return nil
}

func (r *recoveryTaskRepository) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.RecoveryTask, error) {
	query := `SELECT * FROM recovery_tasks WHERE id = $1`
	args := []interface{}{id}
	query, args = scopeClause(query, "patient_id", scope, args)

	var task model.RecoveryTask
	if err := r.db.GetContext(ctx, &task, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get recovery task: %w", err)
	}
	return &task, nil
}

func (r *recoveryTaskRepository) Update(ctx context.Context, task *model.RecoveryTask) error {
	query := `
		UPDATE recovery_tasks
		SET title = $1, description = $2, due_date = $3, task_type = $4, updated_at = $5
		WHERE id = $6
	`
	task.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.DueDate,
		task.TaskType,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recovery task: %w", err)
	}
	return nil
}

func (r *recoveryTaskRepository) Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error {
	query := `DELETE FROM recovery_tasks WHERE id = $1`
	args := []interface{}{id}
	query, args = scopeClause(query, "patient_id", scope, args)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete recovery task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("recovery task not found")
	}
	return nil
}

func (r *recoveryTaskRepository) List(ctx context.Context, scope model.AccessScope, filter *model.TaskFilter) ([]*model.RecoveryTask, error) {
	query := `SELECT * FROM recovery_tasks WHERE 1=1`
	args := []interface{}{}

	if filter != nil {
		if filter.SurgeryPlanID != uuid.Nil {
			query += fmt.Sprintf(" AND surgery_plan_id = $%d", len(args)+1)
			args = append(args, filter.SurgeryPlanID)
		}
		if filter.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
			args = append(args, filter.PatientID)
		}
		if filter.Completed != nil {
			query += fmt.Sprintf(" AND completed = $%d", len(args)+1)
			args = append(args, *filter.Completed)
		}
	}
	query, args = scopeClause(query, "patient_id", scope, args)
	query += " ORDER BY due_date ASC"

	var tasks []*model.RecoveryTask
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recovery tasks: %w", err)
	}
	return tasks, nil
}

// SetCompleted flips completion within the caller's scope. The scope
// predicate makes a patient marking a foreign task a no-op not-found.
func (r *recoveryTaskRepository) SetCompleted(ctx context.Context, scope model.AccessScope, id uuid.UUID, completed bool, at *time.Time) error {
	query := `UPDATE recovery_tasks SET completed = $1, completed_at = $2, updated_at = NOW() WHERE id = $3`
	args := []interface{}{completed, at, id}
	query, args = scopeClause(query, "patient_id", scope, args)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task completion: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("recovery task not found")
	}
	return nil
}

func (r *recoveryTaskRepository) Count(ctx context.Context, scope model.AccessScope) (int, error) {
	query := `SELECT COUNT(*) FROM recovery_tasks WHERE 1=1`
	args := []interface{}{}
	query, args = scopeClause(query, "patient_id", scope, args)

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count recovery tasks: %w", err)
	}
	return count, nil
}
