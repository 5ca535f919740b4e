package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
)

// escapeLike neutralizes LIKE/ILIKE metacharacters so a search term only
// matches literally. Backslash is the default escape character in Postgres.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (
			id, email, full_name, role, region, status, password_hash,
			email_verified, login_attempts, last_login_attempt, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.Role,
		profile.Region,
		profile.Status,
		profile.PasswordHash,
		profile.EmailVerified,
		profile.LoginAttempts,
		profile.LastLoginAttempt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `SELECT * FROM profiles WHERE id = $1`
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `SELECT * FROM profiles WHERE LOWER(email) = LOWER($1)`
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $1, region = $2, status = $3, password_hash = $4,
			login_attempts = $5, last_login_attempt = $6, last_login_at = $7,
			updated_at = $8
		WHERE id = $9
	`
	profile.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		profile.FullName,
		profile.Region,
		profile.Status,
		profile.PasswordHash,
		profile.LoginAttempts,
		profile.LastLoginAttempt,
		profile.LastLoginAt,
		profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (r *profileRepository) UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	query := `UPDATE profiles SET email_verified = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, verified, id)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

// List applies the patient directory filters: case-insensitive substring
// match on name/email plus equality on region, role, status.
func (r *profileRepository) List(ctx context.Context, filter *model.ProfileFilter) ([]*model.Profile, error) {
	query := `SELECT * FROM profiles WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter != nil {
		if filter.SearchTerm != "" {
			query += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", idx, idx)
			args = append(args, "%"+escapeLike(filter.SearchTerm)+"%")
			idx++
		}
		if filter.Region != "" {
			query += fmt.Sprintf(" AND region = $%d", idx)
			args = append(args, filter.Region)
			idx++
		}
		if filter.Role != "" {
			query += fmt.Sprintf(" AND role = $%d", idx)
			args = append(args, filter.Role)
			idx++
		}
		if filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", idx)
			args = append(args, filter.Status)
			idx++
		}
	}

	query += " ORDER BY full_name ASC"

	if filter != nil && filter.Pagination.PageSize > 0 {
		offset := 0
		if filter.Pagination.Page > 1 {
			offset = (filter.Pagination.Page - 1) * filter.Pagination.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.Pagination.PageSize, offset)
	}

	var profiles []*model.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}
