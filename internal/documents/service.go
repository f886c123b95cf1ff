package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/internal/workflows"
	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type Service interface {
	CreateDocument(ctx context.Context, req CreateDocumentRequest, createdBy uuid.UUID) (*Document, error)
	GetDocument(ctx context.Context, id uuid.UUID, viewer uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, filter ListFilter, p pagination.Params) (pagination.Page[Document], error)
	UpdateDocument(ctx context.Context, id uuid.UUID, req UpdateDocumentRequest, updatedBy uuid.UUID) (*Document, error)
	ArchiveDocument(ctx context.Context, id uuid.UUID, archivedBy uuid.UUID) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	CreateType(ctx context.Context, req CreateTypeRequest) (*DocumentType, error)
	ListTypes(ctx context.Context) ([]DocumentType, error)
	DeleteType(ctx context.Context, id uuid.UUID) error

	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
	ListTemplates(ctx context.Context, typeID *uuid.UUID) ([]Template, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (*Template, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	CreateJournal(ctx context.Context, req CreateJournalRequest) (*Journal, error)
	ListJournals(ctx context.Context) ([]Journal, error)
	RegisterDocument(ctx context.Context, journalID, documentID, registeredBy uuid.UUID) (*JournalEntry, error)
	ListJournalEntries(ctx context.Context, journalID uuid.UUID, p pagination.Params) (pagination.Page[JournalEntry], error)

	ListVersions(ctx context.Context, documentID uuid.UUID) ([]Version, error)
	ListAccessLog(ctx context.Context, documentID uuid.UUID, p pagination.Params) (pagination.Page[AccessLogEntry], error)

	// Directory implements workflows.DocumentDirectory.
	GetDocumentRef(ctx context.Context, id uuid.UUID) (*workflows.DocumentRef, error)
}

type documentService struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &documentService{repo: repo, logger: logger}
}

func (s *documentService) CreateDocument(ctx context.Context, req CreateDocumentRequest, createdBy uuid.UUID) (*Document, error) {
	docType, err := s.repo.GetType(ctx, req.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	if docType == nil {
		return nil, apperrors.NewNotFoundError("document type", req.DocumentTypeID.String())
	}

	description := req.Description
	if req.TemplateID != nil {
		tpl, err := s.repo.GetTemplate(ctx, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, apperrors.NewNotFoundError("template", req.TemplateID.String())
		}
		if tpl.DocumentTypeID != req.DocumentTypeID {
			return nil, apperrors.NewValidationError("template_id", "template belongs to a different document type")
		}
		if description == "" {
			description = tpl.Body
		}
	}

	now := time.Now()
	doc := &Document{
		ID:             uuid.New(),
		Title:          req.Title,
		Description:    description,
		DocumentTypeID: req.DocumentTypeID,
		TemplateID:     req.TemplateID,
		DepartmentID:   req.DepartmentID,
		Status:         StatusDraft,
		CurrentVersion: 1,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	initial := &Version{
		ID:            uuid.New(),
		DocumentID:    doc.ID,
		VersionNumber: 1,
		ChangeSummary: "initial version",
		CreatedBy:     createdBy,
	}
	if err := s.repo.CreateDocument(ctx, doc, initial); err != nil {
		return nil, err
	}
	s.logAccess(ctx, doc.ID, createdBy, AccessCreated)
	return doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, id uuid.UUID, viewer uuid.UUID) (*Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.NewNotFoundError("document", id.String())
	}
	if viewer != uuid.Nil {
		s.logAccess(ctx, id, viewer, AccessViewed)
	}
	return doc, nil
}

func (s *documentService) ListDocuments(ctx context.Context, filter ListFilter, p pagination.Params) (pagination.Page[Document], error) {
	items, total, err := s.repo.ListDocuments(ctx, filter, p)
	if err != nil {
		return pagination.Page[Document]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *documentService) UpdateDocument(ctx context.Context, id uuid.UUID, req UpdateDocumentRequest, updatedBy uuid.UUID) (*Document, error) {
	doc, err := s.GetDocument(ctx, id, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusDraft && doc.Status != StatusRejected {
		return nil, apperrors.NewInvalidStateError("document", string(doc.Status), "only draft or rejected documents can be edited")
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}

	doc.CurrentVersion++
	summary := req.ChangeSummary
	if summary == "" {
		summary = "document updated"
	}
	version := &Version{
		ID:            uuid.New(),
		DocumentID:    doc.ID,
		VersionNumber: doc.CurrentVersion,
		ChangeSummary: summary,
		CreatedBy:     updatedBy,
	}
	if err := s.repo.UpdateDocument(ctx, doc, version); err != nil {
		return nil, err
	}
	s.logAccess(ctx, id, updatedBy, AccessUpdated)
	return doc, nil
}

func (s *documentService) ArchiveDocument(ctx context.Context, id uuid.UUID, archivedBy uuid.UUID) error {
	doc, err := s.GetDocument(ctx, id, uuid.Nil)
	if err != nil {
		return err
	}
	if doc.Status == StatusOnApproval {
		return apperrors.NewInvalidStateError("document", string(doc.Status), "cannot archive a document under approval")
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusArchived); err != nil {
		return err
	}
	s.logAccess(ctx, id, archivedBy, AccessArchived)
	return nil
}

func (s *documentService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	doc, err := s.GetDocument(ctx, id, uuid.Nil)
	if err != nil {
		return err
	}
	if doc.Status != StatusDraft {
		return apperrors.NewInvalidStateError("document", string(doc.Status), "only draft documents can be deleted")
	}
	return s.repo.DeleteDocument(ctx, id)
}

func (s *documentService) CreateType(ctx context.Context, req CreateTypeRequest) (*DocumentType, error) {
	t := &DocumentType{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *documentService) ListTypes(ctx context.Context) ([]DocumentType, error) {
	return s.repo.ListTypes(ctx)
}

func (s *documentService) DeleteType(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetType(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return apperrors.NewNotFoundError("document type", id.String())
	}
	return s.repo.DeleteType(ctx, id)
}

func (s *documentService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	docType, err := s.repo.GetType(ctx, req.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	if docType == nil {
		return nil, apperrors.NewNotFoundError("document type", req.DocumentTypeID.String())
	}

	now := time.Now()
	t := &Template{
		ID:             uuid.New(),
		DocumentTypeID: req.DocumentTypeID,
		Name:           req.Name,
		Description:    req.Description,
		Body:           req.Body,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *documentService) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperrors.NewNotFoundError("template", id.String())
	}
	return t, nil
}

func (s *documentService) ListTemplates(ctx context.Context, typeID *uuid.UUID) ([]Template, error) {
	return s.repo.ListTemplates(ctx, typeID)
}

func (s *documentService) UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (*Template, error) {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Body != nil {
		t.Body = *req.Body
	}
	if err := s.repo.UpdateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *documentService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetTemplate(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteTemplate(ctx, id)
}

func (s *documentService) CreateJournal(ctx context.Context, req CreateJournalRequest) (*Journal, error) {
	j := &Journal{
		ID:             uuid.New(),
		Name:           req.Name,
		DepartmentID:   req.DepartmentID,
		DocumentTypeID: req.DocumentTypeID,
		Prefix:         req.Prefix,
		NextNumber:     1,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.CreateJournal(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *documentService) ListJournals(ctx context.Context) ([]Journal, error) {
	return s.repo.ListJournals(ctx)
}

func (s *documentService) RegisterDocument(ctx context.Context, journalID, documentID, registeredBy uuid.UUID) (*JournalEntry, error) {
	doc, err := s.GetDocument(ctx, documentID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if doc.RegistrationNumber != "" {
		return nil, apperrors.NewConflictError("document", "document is already registered")
	}

	entry, err := s.repo.RegisterDocument(ctx, journalID, documentID, registeredBy)
	if err != nil {
		return nil, err
	}
	s.logAccess(ctx, documentID, registeredBy, AccessRegistered)
	return entry, nil
}

func (s *documentService) ListJournalEntries(ctx context.Context, journalID uuid.UUID, p pagination.Params) (pagination.Page[JournalEntry], error) {
	journal, err := s.repo.GetJournal(ctx, journalID)
	if err != nil {
		return pagination.Page[JournalEntry]{}, err
	}
	if journal == nil {
		return pagination.Page[JournalEntry]{}, apperrors.NewNotFoundError("journal", journalID.String())
	}

	items, total, err := s.repo.ListJournalEntries(ctx, journalID, p)
	if err != nil {
		return pagination.Page[JournalEntry]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *documentService) ListVersions(ctx context.Context, documentID uuid.UUID) ([]Version, error) {
	if _, err := s.GetDocument(ctx, documentID, uuid.Nil); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, documentID)
}

func (s *documentService) ListAccessLog(ctx context.Context, documentID uuid.UUID, p pagination.Params) (pagination.Page[AccessLogEntry], error) {
	if _, err := s.GetDocument(ctx, documentID, uuid.Nil); err != nil {
		return pagination.Page[AccessLogEntry]{}, err
	}

	items, total, err := s.repo.ListAccessLog(ctx, documentID, p)
	if err != nil {
		return pagination.Page[AccessLogEntry]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *documentService) GetDocumentRef(ctx context.Context, id uuid.UUID) (*workflows.DocumentRef, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &workflows.DocumentRef{
		ID:                 doc.ID,
		RegistrationNumber: doc.RegistrationNumber,
		Title:              doc.Title,
	}, nil
}

// logAccess failures never fail the request.
func (s *documentService) logAccess(ctx context.Context, documentID, userID uuid.UUID, action AccessAction) {
	entry := &AccessLogEntry{
		ID:         uuid.New(),
		DocumentID: documentID,
		UserID:     userID,
		Action:     action,
	}
	if err := s.repo.LogAccess(ctx, entry); err != nil {
		s.logger.Warn("failed to write document access log",
			zap.String("document_id", documentID.String()),
			zap.Error(err))
	}
}
