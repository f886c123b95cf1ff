package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) ([]Notification, int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, kind, title, body, workflow_id, step_id, document_id)
		VALUES (:id, :user_id, :kind, :title, :body, :workflow_id, :step_id, :document_id)`
	_, err := r.db.NamedExecContext(ctx, query, n)
	return err
}

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) ([]Notification, int64, error) {
	where := " WHERE user_id = $1"
	if unreadOnly {
		where += " AND read_at IS NULL"
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications"+where, userID); err != nil {
		return nil, 0, err
	}

	var list []Notification
	err := r.db.SelectContext(ctx, &list,
		"SELECT * FROM notifications"+where+" ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, p.Limit, p.Offset())
	return list, total, err
}

func (r *postgresRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = now() WHERE id = $1 AND user_id = $2 AND read_at IS NULL",
		id, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *postgresRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = now() WHERE user_id = $1 AND read_at IS NULL", userID)
	return err
}

func (r *postgresRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL", userID)
	return count, err
}
