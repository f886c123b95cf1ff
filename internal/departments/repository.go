package departments

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
	Create(ctx context.Context, dep *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context) ([]Department, error)
	Update(ctx context.Context, dep *Department) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, dep *Department) error {
	query := `
		INSERT INTO departments (id, name, description, parent_id, head_user_id, created_at, updated_at)
		VALUES (:id, :name, :description, :parent_id, :head_user_id, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, dep)
	return translateUnique(err)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	var dep Department
	err := r.db.GetContext(ctx, &dep, "SELECT * FROM departments WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &dep, err
}

func (r *postgresRepository) List(ctx context.Context) ([]Department, error) {
	var deps []Department
	err := r.db.SelectContext(ctx, &deps, "SELECT * FROM departments ORDER BY name")
	return deps, err
}

func (r *postgresRepository) Update(ctx context.Context, dep *Department) error {
	query := `
		UPDATE departments SET
			name = :name,
			description = :description,
			parent_id = :parent_id,
			head_user_id = :head_user_id,
			updated_at = now()
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, dep)
	return translateUnique(err)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM departments WHERE id = $1", id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return apperrors.NewConflictError("department", "department is still referenced")
	}
	return err
}

func translateUnique(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.NewConflictError("department", "name already in use")
	}
	return err
}
