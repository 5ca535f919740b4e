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

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

// messageScopeClause restricts message rows to those the caller sent or
// received. Staff scopes are unrestricted, mirroring the table policy.
func messageScopeClause(query string, scope model.AccessScope, args []interface{}) (string, []interface{}) {
	if scope.Staff() {
		return query, args
	}
	n := len(args) + 1
	return fmt.Sprintf("%s AND (from_user_id = $%d OR to_user_id = $%d)", query, n, n),
		append(args, scope.UserID)
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (
			id, from_user_id, to_user_id, content, read_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.FromUserID,
		msg.ToUserID,
		msg.Content,
		msg.ReadAt,
		msg.CreatedAt,
		msg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepository) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Message, error) {
	query := `SELECT * FROM messages WHERE id = $1`
	args := []interface{}{id}
	query, args = messageScopeClause(query, scope, args)

	var msg model.Message
	if err := r.db.GetContext(ctx, &msg, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

func (r *messageRepository) List(ctx context.Context, scope model.AccessScope, filter *model.MessageFilter) ([]*model.Message, error) {
	query := `SELECT * FROM messages WHERE 1=1`
	args := []interface{}{}

	if filter != nil {
		if filter.WithUserID != uuid.Nil {
			n := len(args) + 1
			query += fmt.Sprintf(" AND (from_user_id = $%d OR to_user_id = $%d)", n, n)
			args = append(args, filter.WithUserID)
		}
		if filter.UnreadOnly {
			query += " AND read_at IS NULL"
		}
	}
	query, args = messageScopeClause(query, scope, args)
	query += " ORDER BY created_at ASC"

	var msgs []*model.Message
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// MarkRead stamps read_at once. Only the recipient row matches, and an
// already-read message leaves read_at untouched; the bool reports whether
// this call actually transitioned the row.
func (r *messageRepository) MarkRead(ctx context.Context, recipientID, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE messages
		SET read_at = $1, updated_at = NOW()
		WHERE id = $2 AND to_user_id = $3 AND read_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, at, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("failed to mark message read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE to_user_id = $1 AND read_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

func (r *messageRepository) Count(ctx context.Context, scope model.AccessScope) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE 1=1`
	args := []interface{}{}
	query, args = messageScopeClause(query, scope, args)

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
