package documents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateDocument(ctx context.Context, doc *Document, initial *Version) error {
	args := m.Called(ctx, doc, initial)
	return args.Error(0)
}

func (m *mockRepository) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *mockRepository) ListDocuments(ctx context.Context, filter ListFilter, p pagination.Params) ([]Document, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]Document), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) UpdateDocument(ctx context.Context, doc *Document, version *Version) error {
	args := m.Called(ctx, doc, version)
	return args.Error(0)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) CreateType(ctx context.Context, t *DocumentType) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepository) GetType(ctx context.Context, id uuid.UUID) (*DocumentType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentType), args.Error(1)
}

func (m *mockRepository) ListTypes(ctx context.Context) ([]DocumentType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]DocumentType), args.Error(1)
}

func (m *mockRepository) DeleteType(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) CreateTemplate(ctx context.Context, t *Template) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Template), args.Error(1)
}

func (m *mockRepository) ListTemplates(ctx context.Context, typeID *uuid.UUID) ([]Template, error) {
	args := m.Called(ctx, typeID)
	return args.Get(0).([]Template), args.Error(1)
}

func (m *mockRepository) UpdateTemplate(ctx context.Context, t *Template) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) CreateJournal(ctx context.Context, j *Journal) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *mockRepository) GetJournal(ctx context.Context, id uuid.UUID) (*Journal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Journal), args.Error(1)
}

func (m *mockRepository) ListJournals(ctx context.Context) ([]Journal, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Journal), args.Error(1)
}

func (m *mockRepository) RegisterDocument(ctx context.Context, journalID, documentID, registeredBy uuid.UUID) (*JournalEntry, error) {
	args := m.Called(ctx, journalID, documentID, registeredBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*JournalEntry), args.Error(1)
}

func (m *mockRepository) ListJournalEntries(ctx context.Context, journalID uuid.UUID, p pagination.Params) ([]JournalEntry, int64, error) {
	args := m.Called(ctx, journalID, p)
	return args.Get(0).([]JournalEntry), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) ListVersions(ctx context.Context, documentID uuid.UUID) ([]Version, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).([]Version), args.Error(1)
}

func (m *mockRepository) LogAccess(ctx context.Context, entry *AccessLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockRepository) ListAccessLog(ctx context.Context, documentID uuid.UUID, p pagination.Params) ([]AccessLogEntry, int64, error) {
	args := m.Called(ctx, documentID, p)
	return args.Get(0).([]AccessLogEntry), args.Get(1).(int64), args.Error(2)
}

func TestCreateDocument(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())
	ctx := context.Background()

	typeID := uuid.New()
	creator := uuid.New()
	repo.On("GetType", mock.Anything, typeID).Return(&DocumentType{ID: typeID, Name: "Order"}, nil)
	repo.On("CreateDocument", mock.Anything, mock.AnythingOfType("*documents.Document"), mock.AnythingOfType("*documents.Version")).Return(nil)
	repo.On("LogAccess", mock.Anything, mock.AnythingOfType("*documents.AccessLogEntry")).Return(nil)

	doc, err := service.CreateDocument(ctx, CreateDocumentRequest{
		Title:          "Vacation order",
		DocumentTypeID: typeID,
	}, creator)
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, doc.Status)
	assert.Equal(t, 1, doc.CurrentVersion)
	assert.Equal(t, creator, doc.CreatedBy)
	repo.AssertExpectations(t)
}

func TestCreateDocumentUnknownType(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())

	typeID := uuid.New()
	repo.On("GetType", mock.Anything, typeID).Return(nil, nil)

	_, err := service.CreateDocument(context.Background(), CreateDocumentRequest{
		Title:          "Vacation order",
		DocumentTypeID: typeID,
	}, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateDocumentTemplateTypeMismatch(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())

	typeID := uuid.New()
	templateID := uuid.New()
	repo.On("GetType", mock.Anything, typeID).Return(&DocumentType{ID: typeID}, nil)
	repo.On("GetTemplate", mock.Anything, templateID).Return(&Template{
		ID:             templateID,
		DocumentTypeID: uuid.New(),
	}, nil)

	_, err := service.CreateDocument(context.Background(), CreateDocumentRequest{
		Title:          "Vacation order",
		DocumentTypeID: typeID,
		TemplateID:     &templateID,
	}, uuid.New())
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateDocumentFillsBodyFromTemplate(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())

	typeID := uuid.New()
	templateID := uuid.New()
	repo.On("GetType", mock.Anything, typeID).Return(&DocumentType{ID: typeID}, nil)
	repo.On("GetTemplate", mock.Anything, templateID).Return(&Template{
		ID:             templateID,
		DocumentTypeID: typeID,
		Body:           "Standard order text",
	}, nil)
	repo.On("CreateDocument", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("LogAccess", mock.Anything, mock.Anything).Return(nil)

	doc, err := service.CreateDocument(context.Background(), CreateDocumentRequest{
		Title:          "Vacation order",
		DocumentTypeID: typeID,
		TemplateID:     &templateID,
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "Standard order text", doc.Description)
}

func TestUpdateDocumentBumpsVersion(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())

	id := uuid.New()
	editor := uuid.New()
	repo.On("GetDocument", mock.Anything, id).Return(&Document{
		ID:             id,
		Title:          "Old title",
		Status:         StatusDraft,
		CurrentVersion: 3,
	}, nil)
	repo.On("UpdateDocument", mock.Anything, mock.Anything, mock.MatchedBy(func(v *Version) bool {
		return v.VersionNumber == 4 && v.ChangeSummary == "renamed"
	})).Return(nil)
	repo.On("LogAccess", mock.Anything, mock.Anything).Return(nil)

	newTitle := "New title"
	doc, err := service.UpdateDocument(context.Background(), id, UpdateDocumentRequest{
		Title:         &newTitle,
		ChangeSummary: "renamed",
	}, editor)
	require.NoError(t, err)
	assert.Equal(t, 4, doc.CurrentVersion)
	assert.Equal(t, "New title", doc.Title)
}

func TestUpdateDocumentRejectedWhileOnApproval(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())

	id := uuid.New()
	repo.On("GetDocument", mock.Anything, id).Return(&Document{ID: id, Status: StatusOnApproval}, nil)

	title := "New title"
	_, err := service.UpdateDocument(context.Background(), id, UpdateDocumentRequest{Title: &title}, uuid.New())
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestDeleteDocumentOnlyDraft(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())

	id := uuid.New()
	repo.On("GetDocument", mock.Anything, id).Return(&Document{ID: id, Status: StatusApproved}, nil)

	err := service.DeleteDocument(context.Background(), id)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestRegisterDocumentAlreadyRegistered(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())

	docID := uuid.New()
	repo.On("GetDocument", mock.Anything, docID).Return(&Document{
		ID:                 docID,
		RegistrationNumber: "HR-17",
	}, nil)

	_, err := service.RegisterDocument(context.Background(), uuid.New(), docID, uuid.New())
	assert.True(t, apperrors.IsConflict(err))
}

func TestGetDocumentRef(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo, zap.NewNop())

	id := uuid.New()
	repo.On("GetDocument", mock.Anything, id).Return(&Document{
		ID:                 id,
		Title:              "Contract",
		RegistrationNumber: "LG-4",
		CreatedAt:          time.Now(),
	}, nil)
	repo.On("GetDocument", mock.Anything, mock.MatchedBy(func(other uuid.UUID) bool { return other != id })).Return(nil, nil)

	ref, err := service.GetDocumentRef(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "Contract", ref.Title)

	ref, err = service.GetDocumentRef(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, ref)
}
