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

type surgeryPlanRepository struct {
	db *sqlx.DB
}

func NewSurgeryPlanRepository(db *sqlx.DB) repository.SurgeryPlanRepository {
	return &surgeryPlanRepository{db: db}
}

// scopeClause appends the row-level predicate for the calling identity.
// Patient scopes only ever see rows with their own patient_id; a foreign
// id yields zero rows rather than an error.
func scopeClause(query, column string, scope model.AccessScope, args []interface{}) (string, []interface{}) {
	if scope.Staff() {
		return query, args
	}
	return fmt.Sprintf("%s AND %s = $%d", query, column, len(args)+1), append(args, scope.UserID)
}

func (r *surgeryPlanRepository) Create(ctx context.Context, plan *model.SurgeryPlan) error {
	query := `
		INSERT INTO surgery_plans (
			id, patient_id, procedure_type, clinic_name, surgeon_name,
			surgery_date, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.PatientID,
		plan.ProcedureType,
		plan.ClinicName,
		plan.SurgeonName,
		plan.SurgeryDate,
		plan.Status,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create surgery plan: %w", err)
	}
	return nil
}

func (r *surgeryPlanRepository) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.SurgeryPlan, error) {
	query := `SELECT * FROM surgery_plans WHERE id = $1`
	args := []interface{}{id}
	query, args = scopeClause(query, "patient_id", scope, args)

	var plan model.SurgeryPlan
	if err := r.db.GetContext(ctx, &plan, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get surgery plan: %w", err)
	}
	return &plan, nil
}

func (r *surgeryPlanRepository) Update(ctx context.Context, plan *model.SurgeryPlan) error {
	query := `
		UPDATE surgery_plans
		SET procedure_type = $1, clinic_name = $2, surgeon_name = $3,
			surgery_date = $4, status = $5, updated_at = $6
		WHERE id = $7
	`
	plan.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		plan.ProcedureType,
		plan.ClinicName,
		plan.SurgeonName,
		plan.SurgeryDate,
		plan.Status,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update surgery plan: %w", err)
	}
	return nil
}

func (r *surgeryPlanRepository) Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error {
	query := `DELETE FROM surgery_plans WHERE id = $1`
	args := []interface{}{id}
	query, args = scopeClause(query, "patient_id", scope, args)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete surgery plan: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("surgery plan not found")
	}
	return nil
}

func (r *surgeryPlanRepository) List(ctx context.Context, scope model.AccessScope, filter *model.PlanFilter) ([]*model.SurgeryPlan, error) {
	query := `SELECT * FROM surgery_plans WHERE 1=1`
	args := []interface{}{}

	if filter != nil {
		if filter.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
			args = append(args, filter.PatientID)
		}
		if filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", len(args)+1)
			args = append(args, filter.Status)
		}
	}
	query, args = scopeClause(query, "patient_id", scope, args)
	query += " ORDER BY surgery_date ASC"

	var plans []*model.SurgeryPlan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list surgery plans: %w", err)
	}
	return plans, nil
}

func (r *surgeryPlanRepository) Count(ctx context.Context, scope model.AccessScope) (int, error) {
	query := `SELECT COUNT(*) FROM surgery_plans WHERE 1=1`
	args := []interface{}{}
	query, args = scopeClause(query, "patient_id", scope, args)

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count surgery plans: %w", err)
	}
	return count, nil
}
