package roles

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
)

type Repository interface {
	Create(ctx context.Context, role *Role) error
	GetByID(ctx context.Context, id uuid.UUID) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, role *Role) error {
	query := `
		INSERT INTO roles (id, name, description, permissions, created_at, updated_at)
		VALUES (:id, :name, :description, :permissions, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, role)
	return translateUnique(err)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Role, error) {
	var role Role
	err := r.db.GetContext(ctx, &role, "SELECT * FROM roles WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &role, err
}

func (r *postgresRepository) List(ctx context.Context) ([]Role, error) {
	var list []Role
	err := r.db.SelectContext(ctx, &list, "SELECT * FROM roles ORDER BY name")
	return list, err
}

func (r *postgresRepository) Update(ctx context.Context, role *Role) error {
	query := `
		UPDATE roles SET
			name = :name,
			description = :description,
			permissions = :permissions,
			updated_at = now()
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, role)
	return translateUnique(err)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM roles WHERE id = $1", id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return apperrors.NewConflictError("role", "role is still assigned to users")
	}
	return err
}

func translateUnique(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.NewConflictError("role", "name already in use")
	}
	return err
}
