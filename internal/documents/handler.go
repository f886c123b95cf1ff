package documents

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docuflow/approval-portal/approval-portal-backend/internal/auth"
	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.POST("", h.Create)
		docs.GET("", h.List)
		docs.GET("/:id", h.Get)
		docs.PUT("/:id", h.Update)
		docs.DELETE("/:id", h.Delete)
		docs.POST("/:id/archive", h.Archive)
		docs.GET("/:id/versions", h.ListVersions)
		docs.GET("/:id/access-log", h.ListAccessLog)
	}

	types := rg.Group("/document-types")
	{
		types.POST("", h.CreateType)
		types.GET("", h.ListTypes)
		types.DELETE("/:id", h.DeleteType)
	}

	templates := rg.Group("/templates")
	{
		templates.POST("", h.CreateTemplate)
		templates.GET("", h.ListTemplates)
		templates.GET("/:id", h.GetTemplate)
		templates.PUT("/:id", h.UpdateTemplate)
		templates.DELETE("/:id", h.DeleteTemplate)
	}

	journals := rg.Group("/journals")
	{
		journals.POST("", h.CreateJournal)
		journals.GET("", h.ListJournals)
		journals.POST("/:id/register", h.RegisterDocument)
		journals.GET("/:id/entries", h.ListJournalEntries)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.CreateDocument(c.Request.Context(), req, auth.UserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) List(c *gin.Context) {
	var filter ListFilter
	if typeStr := c.Query("document_type_id"); typeStr != "" {
		id, err := uuid.Parse(typeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document_type_id"})
			return
		}
		filter.DocumentTypeID = &id
	}
	if depStr := c.Query("department_id"); depStr != "" {
		id, err := uuid.Parse(depStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid department_id"})
			return
		}
		filter.DepartmentID = &id
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := DocumentStatus(statusStr)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = status
	}
	if c.Query("mine") == "true" {
		creator := auth.UserID(c)
		filter.CreatedBy = &creator
	}
	filter.Search = c.Query("search")

	page, err := h.service.ListDocuments(c.Request.Context(), filter, pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), id, auth.UserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.UpdateDocument(c.Request.Context(), id, req, auth.UserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.ArchiveDocument(c.Request.Context(), id, auth.UserID(c)); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	versions, err := h.service.ListVersions(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

func (h *Handler) ListAccessLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	page, err := h.service.ListAccessLog(c.Request.Context(), id, pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) CreateType(c *gin.Context) {
	var req CreateTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.CreateType(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTypes(c *gin.Context) {
	types, err := h.service.ListTypes(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *Handler) DeleteType(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteType(c.Request.Context(), id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	var typeID *uuid.UUID
	if typeStr := c.Query("document_type_id"); typeStr != "" {
		id, err := uuid.Parse(typeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document_type_id"})
			return
		}
		typeID = &id
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), typeID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	t, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.UpdateTemplate(c.Request.Context(), id, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateJournal(c *gin.Context) {
	var req CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	j, err := h.service.CreateJournal(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, j)
}

func (h *Handler) ListJournals(c *gin.Context) {
	journals, err := h.service.ListJournals(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, journals)
}

func (h *Handler) RegisterDocument(c *gin.Context) {
	journalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req struct {
		DocumentID uuid.UUID `json:"document_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.RegisterDocument(c.Request.Context(), journalID, req.DocumentID, auth.UserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) ListJournalEntries(c *gin.Context) {
	journalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	page, err := h.service.ListJournalEntries(c.Request.Context(), journalID, pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
