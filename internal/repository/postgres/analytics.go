package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
)

type analyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) repository.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountPatients(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM profiles WHERE role = $1`, model.RolePatient)
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) CountPlansByStatus(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM surgery_plans GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count plans by status: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *analyticsRepository) CountPatientsByRegion(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Region string `db:"region"`
		Count  int    `db:"count"`
	}{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT region, COUNT(*) AS count FROM profiles WHERE role = $1 GROUP BY region`,
		model.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("failed to count patients by region: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Region] = row.Count
	}
	return counts, nil
}

// PlansByMonth buckets plans by the calendar month of their surgery date,
// in UTC, oldest first.
func (r *analyticsRepository) PlansByMonth(ctx context.Context) ([]model.MonthCount, error) {
	var rows []model.MonthCount
	err := r.db.SelectContext(ctx, &rows, `
		SELECT to_char(surgery_date AT TIME ZONE 'UTC', 'YYYY-MM') AS month,
			COUNT(*) AS count
		FROM surgery_plans
		GROUP BY 1
		ORDER BY 1 ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count plans by month: %w", err)
	}
	return rows, nil
}

func (r *analyticsRepository) TaskTotals(ctx context.Context) (model.TaskTotals, error) {
	var totals model.TaskTotals
	err := r.db.GetContext(ctx, &totals, `
		SELECT COUNT(*) FILTER (WHERE completed) AS completed,
			COUNT(*) AS total
		FROM recovery_tasks
	`)
	if err != nil {
		return model.TaskTotals{}, fmt.Errorf("failed to get task totals: %w", err)
	}
	return totals, nil
}

func (r *analyticsRepository) CountUnreadMessages(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE read_at IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
