package documents

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "draft"
	StatusOnApproval DocumentStatus = "on_approval"
	StatusApproved   DocumentStatus = "approved"
	StatusRejected   DocumentStatus = "rejected"
	StatusArchived   DocumentStatus = "archived"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusOnApproval, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

type AccessAction string

const (
	AccessViewed     AccessAction = "viewed"
	AccessCreated    AccessAction = "created"
	AccessUpdated    AccessAction = "updated"
	AccessRegistered AccessAction = "registered"
	AccessArchived   AccessAction = "archived"
)

type Document struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	RegistrationNumber string         `json:"registration_number" db:"registration_number"`
	Title              string         `json:"title" db:"title"`
	Description        string         `json:"description" db:"description"`
	DocumentTypeID     uuid.UUID      `json:"document_type_id" db:"document_type_id"`
	TemplateID         *uuid.UUID     `json:"template_id,omitempty" db:"template_id"`
	DepartmentID       *uuid.UUID     `json:"department_id,omitempty" db:"department_id"`
	JournalID          *uuid.UUID     `json:"journal_id,omitempty" db:"journal_id"`
	Status             DocumentStatus `json:"status" db:"status"`
	CurrentVersion     int            `json:"current_version" db:"current_version"`
	CreatedBy          uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

type DocumentType struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Template struct {
	ID             uuid.UUID `json:"id" db:"id"`
	DocumentTypeID uuid.UUID `json:"document_type_id" db:"document_type_id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	Body           string    `json:"body" db:"body"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type Journal struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
	DocumentTypeID *uuid.UUID `json:"document_type_id,omitempty" db:"document_type_id"`
	Prefix         string     `json:"prefix" db:"prefix"`
	NextNumber     int        `json:"next_number" db:"next_number"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

type JournalEntry struct {
	ID           uuid.UUID `json:"id" db:"id"`
	JournalID    uuid.UUID `json:"journal_id" db:"journal_id"`
	DocumentID   uuid.UUID `json:"document_id" db:"document_id"`
	EntryNumber  string    `json:"entry_number" db:"entry_number"`
	RegisteredBy uuid.UUID `json:"registered_by" db:"registered_by"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

type Version struct {
	ID            uuid.UUID `json:"id" db:"id"`
	DocumentID    uuid.UUID `json:"document_id" db:"document_id"`
	VersionNumber int       `json:"version_number" db:"version_number"`
	ChangeSummary string    `json:"change_summary" db:"change_summary"`
	CreatedBy     uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type AccessLogEntry struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	DocumentID  uuid.UUID    `json:"document_id" db:"document_id"`
	UserID      uuid.UUID    `json:"user_id" db:"user_id"`
	Action      AccessAction `json:"action" db:"action"`
	PerformedAt time.Time    `json:"performed_at" db:"performed_at"`
}

type CreateDocumentRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	DocumentTypeID uuid.UUID  `json:"document_type_id" binding:"required"`
	TemplateID     *uuid.UUID `json:"template_id,omitempty"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
}

type UpdateDocumentRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	ChangeSummary string  `json:"change_summary"`
}

type CreateTypeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateTemplateRequest struct {
	DocumentTypeID uuid.UUID `json:"document_type_id" binding:"required"`
	Name           string    `json:"name" binding:"required"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
}

type UpdateTemplateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Body        *string `json:"body,omitempty"`
}

type CreateJournalRequest struct {
	Name           string     `json:"name" binding:"required"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
	DocumentTypeID *uuid.UUID `json:"document_type_id,omitempty"`
	Prefix         string     `json:"prefix"`
}

// ListFilter narrows document listings.
type ListFilter struct {
	DocumentTypeID *uuid.UUID
	DepartmentID   *uuid.UUID
	Status         DocumentStatus
	CreatedBy      *uuid.UUID
	Search         string
}
