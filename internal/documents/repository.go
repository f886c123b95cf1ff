package documents

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
	CreateDocument(ctx context.Context, doc *Document, initial *Version) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, filter ListFilter, p pagination.Params) ([]Document, int64, error)
	UpdateDocument(ctx context.Context, doc *Document, version *Version) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	CreateType(ctx context.Context, t *DocumentType) error
	GetType(ctx context.Context, id uuid.UUID) (*DocumentType, error)
	ListTypes(ctx context.Context) ([]DocumentType, error)
	DeleteType(ctx context.Context, id uuid.UUID) error

	CreateTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
	ListTemplates(ctx context.Context, typeID *uuid.UUID) ([]Template, error)
	UpdateTemplate(ctx context.Context, t *Template) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	CreateJournal(ctx context.Context, j *Journal) error
	GetJournal(ctx context.Context, id uuid.UUID) (*Journal, error)
	ListJournals(ctx context.Context) ([]Journal, error)
	// RegisterDocument reserves the journal's next number, stamps the
	// document and appends the journal entry in one transaction.
	RegisterDocument(ctx context.Context, journalID, documentID, registeredBy uuid.UUID) (*JournalEntry, error)
	ListJournalEntries(ctx context.Context, journalID uuid.UUID, p pagination.Params) ([]JournalEntry, int64, error)

	ListVersions(ctx context.Context, documentID uuid.UUID) ([]Version, error)

	LogAccess(ctx context.Context, entry *AccessLogEntry) error
	ListAccessLog(ctx context.Context, documentID uuid.UUID, p pagination.Params) ([]AccessLogEntry, int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateDocument(ctx context.Context, doc *Document, initial *Version) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO documents (id, registration_number, title, description, document_type_id, template_id,
			department_id, journal_id, status, current_version, created_by, created_at, updated_at)
		VALUES (:id, :registration_number, :title, :description, :document_type_id, :template_id,
			:department_id, :journal_id, :status, :current_version, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, doc); err != nil {
		return err
	}
	if err := insertVersion(ctx, tx, initial); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepository) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := r.db.GetContext(ctx, &doc, "SELECT * FROM documents WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &doc, err
}

func (r *postgresRepository) ListDocuments(ctx context.Context, filter ListFilter, p pagination.Params) ([]Document, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	argCount := 1

	if filter.DocumentTypeID != nil {
		where += fmt.Sprintf(" AND document_type_id = $%d", argCount)
		args = append(args, *filter.DocumentTypeID)
		argCount++
	}
	if filter.DepartmentID != nil {
		where += fmt.Sprintf(" AND department_id = $%d", argCount)
		args = append(args, *filter.DepartmentID)
		argCount++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}
	if filter.CreatedBy != nil {
		where += fmt.Sprintf(" AND created_by = $%d", argCount)
		args = append(args, *filter.CreatedBy)
		argCount++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR registration_number ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
		argCount++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents"+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT * FROM documents%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d", where, argCount, argCount+1)
	args = append(args, p.Limit, p.Offset())

	var docs []Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *postgresRepository) UpdateDocument(ctx context.Context, doc *Document, version *Version) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE documents SET
			title = :title,
			description = :description,
			current_version = :current_version,
			updated_at = now()
		WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, doc); err != nil {
		return err
	}
	if version != nil {
		if err := insertVersion(ctx, tx, version); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	_, err := r.db.ExecContext(ctx, "UPDATE documents SET status = $1, updated_at = now() WHERE id = $2", status, id)
	return err
}

func (r *postgresRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return apperrors.NewConflictError("document", "document is still referenced")
	}
	return err
}

func (r *postgresRepository) CreateType(ctx context.Context, t *DocumentType) error {
	query := `
		INSERT INTO document_types (id, name, description, created_at)
		VALUES (:id, :name, :description, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, t)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.NewConflictError("document type", "name already in use")
	}
	return err
}

func (r *postgresRepository) GetType(ctx context.Context, id uuid.UUID) (*DocumentType, error) {
	var t DocumentType
	err := r.db.GetContext(ctx, &t, "SELECT * FROM document_types WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &t, err
}

func (r *postgresRepository) ListTypes(ctx context.Context) ([]DocumentType, error) {
	var types []DocumentType
	err := r.db.SelectContext(ctx, &types, "SELECT * FROM document_types ORDER BY name")
	return types, err
}

func (r *postgresRepository) DeleteType(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM document_types WHERE id = $1", id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return apperrors.NewConflictError("document type", "type is still in use")
	}
	return err
}

func (r *postgresRepository) CreateTemplate(ctx context.Context, t *Template) error {
	query := `
		INSERT INTO document_templates (id, document_type_id, name, description, body, created_at, updated_at)
		VALUES (:id, :document_type_id, :name, :description, :body, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, t)
	return err
}

func (r *postgresRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	var t Template
	err := r.db.GetContext(ctx, &t, "SELECT * FROM document_templates WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &t, err
}

func (r *postgresRepository) ListTemplates(ctx context.Context, typeID *uuid.UUID) ([]Template, error) {
	var templates []Template
	if typeID != nil {
		err := r.db.SelectContext(ctx, &templates, "SELECT * FROM document_templates WHERE document_type_id = $1 ORDER BY name", *typeID)
		return templates, err
	}
	err := r.db.SelectContext(ctx, &templates, "SELECT * FROM document_templates ORDER BY name")
	return templates, err
}

func (r *postgresRepository) UpdateTemplate(ctx context.Context, t *Template) error {
	query := `
		UPDATE document_templates SET
			name = :name,
			description = :description,
			body = :body,
			updated_at = now()
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, t)
	return err
}

func (r *postgresRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM document_templates WHERE id = $1", id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return apperrors.NewConflictError("template", "template is still in use")
	}
	return err
}

func (r *postgresRepository) CreateJournal(ctx context.Context, j *Journal) error {
	query := `
		INSERT INTO journals (id, name, department_id, document_type_id, prefix, next_number, created_at)
		VALUES (:id, :name, :department_id, :document_type_id, :prefix, :next_number, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, j)
	return err
}

func (r *postgresRepository) GetJournal(ctx context.Context, id uuid.UUID) (*Journal, error) {
	var j Journal
	err := r.db.GetContext(ctx, &j, "SELECT * FROM journals WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &j, err
}

func (r *postgresRepository) ListJournals(ctx context.Context) ([]Journal, error) {
	var journals []Journal
	err := r.db.SelectContext(ctx, &journals, "SELECT * FROM journals ORDER BY name")
	return journals, err
}

func (r *postgresRepository) RegisterDocument(ctx context.Context, journalID, documentID, registeredBy uuid.UUID) (*JournalEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var journal Journal
	err = tx.GetContext(ctx, &journal, "SELECT * FROM journals WHERE id = $1 FOR UPDATE", journalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("journal", journalID.String())
	}
	if err != nil {
		return nil, err
	}

	entry := &JournalEntry{
		ID:           uuid.New(),
		JournalID:    journalID,
		DocumentID:   documentID,
		EntryNumber:  fmt.Sprintf("%s%d", journal.Prefix, journal.NextNumber),
		RegisteredBy: registeredBy,
	}
	query := `
		INSERT INTO journal_entries (id, journal_id, document_id, entry_number, registered_by)
		VALUES (:id, :journal_id, :document_id, :entry_number, :registered_by)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE journals SET next_number = next_number + 1 WHERE id = $1", journalID); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE documents SET registration_number = $1, journal_id = $2, updated_at = now() WHERE id = $3",
		entry.EntryNumber, journalID, documentID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *postgresRepository) ListJournalEntries(ctx context.Context, journalID uuid.UUID, p pagination.Params) ([]JournalEntry, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM journal_entries WHERE journal_id = $1", journalID); err != nil {
		return nil, 0, err
	}

	var entries []JournalEntry
	err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM journal_entries WHERE journal_id = $1 ORDER BY registered_at DESC LIMIT $2 OFFSET $3",
		journalID, p.Limit, p.Offset())
	return entries, total, err
}

func (r *postgresRepository) ListVersions(ctx context.Context, documentID uuid.UUID) ([]Version, error) {
	var versions []Version
	err := r.db.SelectContext(ctx, &versions,
		"SELECT * FROM document_versions WHERE document_id = $1 ORDER BY version_number DESC", documentID)
	return versions, err
}

func (r *postgresRepository) LogAccess(ctx context.Context, entry *AccessLogEntry) error {
	query := `
		INSERT INTO document_access_logs (id, document_id, user_id, action)
		VALUES (:id, :document_id, :user_id, :action)`
	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}

func (r *postgresRepository) ListAccessLog(ctx context.Context, documentID uuid.UUID, p pagination.Params) ([]AccessLogEntry, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM document_access_logs WHERE document_id = $1", documentID); err != nil {
		return nil, 0, err
	}

	var entries []AccessLogEntry
	err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM document_access_logs WHERE document_id = $1 ORDER BY performed_at DESC LIMIT $2 OFFSET $3",
		documentID, p.Limit, p.Offset())
	return entries, total, err
}

func insertVersion(ctx context.Context, tx *sqlx.Tx, v *Version) error {
	query := `
		INSERT INTO document_versions (id, document_id, version_number, change_summary, created_by)
		VALUES (:id, :document_id, :version_number, :change_summary, :created_by)`
	_, err := tx.NamedExecContext(ctx, query, v)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.NewConflictError("document version", "version number already exists")
	}
	return err
}
