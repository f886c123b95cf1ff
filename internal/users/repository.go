package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	List(ctx context.Context, filter ListFilter, p pagination.Params) ([]User, int64, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, full_name, email, login, password_hash, role_id, department_id, is_active, created_at, updated_at)
		VALUES (:id, :full_name, :email, :login, :password_hash, :role_id, :department_id, :is_active, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, user)
	return translateUnique(err)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &user, err
}

func (r *postgresRepository) GetByLogin(ctx context.Context, login string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE login = $1", login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &user, err
}

func (r *postgresRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	var users []User
	err := r.db.SelectContext(ctx, &users, "SELECT * FROM users WHERE id = ANY($1)", pq.Array(strs))
	return users, err
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter, p pagination.Params) ([]User, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	argCount := 1

	if filter.DepartmentID != nil {
		where += fmt.Sprintf(" AND department_id = $%d", argCount)
		args = append(args, *filter.DepartmentID)
		argCount++
	}
	if filter.RoleID != nil {
		where += fmt.Sprintf(" AND role_id = $%d", argCount)
		args = append(args, *filter.RoleID)
		argCount++
	}
	if filter.ActiveOnly {
		where += " AND is_active"
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
		argCount++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT * FROM users%s ORDER BY full_name LIMIT $%d OFFSET $%d", where, argCount, argCount+1)
	args = append(args, p.Limit, p.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users SET
			full_name = :full_name,
			email = :email,
			role_id = :role_id,
			department_id = :department_id,
			is_active = :is_active,
			updated_at = now()
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, user)
	return translateUnique(err)
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2", passwordHash, id)
	return err
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	return err
}

func translateUnique(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_email_key":
			return apperrors.NewConflictError("user", "email already in use")
		case "users_login_key":
			return apperrors.NewConflictError("user", "login already in use")
		}
		return apperrors.NewConflictError("user", pqErr.Detail)
	}
	return err
}
