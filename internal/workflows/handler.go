package workflows

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/internal/auth"
	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
	"docuflow/approval-portal/approval-portal-backend/pkg/pdf"
)

// Handler exposes the workflow engine over REST.
type Handler struct {
	engine *Engine
	sheets *pdf.SheetGenerator
	logger *zap.Logger
}

func NewHandler(engine *Engine, sheets *pdf.SheetGenerator, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, sheets: sheets, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	wfs := rg.Group("/workflows")
	{
		wfs.POST("", h.Create)
		wfs.GET("", h.List)
		wfs.GET("/:id", h.Get)
		wfs.PUT("/:id/steps", h.UpdateSteps)
		wfs.POST("/:id/cancel", h.Cancel)
		wfs.GET("/:id/approval-sheet", h.ApprovalSheet)
	}
	steps := rg.Group("/steps")
	{
		steps.POST("/:id/start", h.StartStep)
		steps.POST("/:id/complete", h.CompleteStep)
		steps.POST("/:id/reject", h.RejectStep)
		steps.GET("/:id/rollback-targets", h.RollbackTargets)
	}
	rg.GET("/tasks/my", h.MyTasks)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.engine.CreateWorkflow(c.Request.Context(), req, auth.UserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, wf)
}

func (h *Handler) List(c *gin.Context) {
	var filter ListFilter
	if docIDStr := c.Query("document_id"); docIDStr != "" {
		id, err := uuid.Parse(docIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document_id"})
			return
		}
		filter.DocumentID = &id
	}
	if statusStr := c.Query("status"); statusStr != "" {
		s := WorkflowStatus(statusStr)
		filter.Status = &s
	}

	page, err := h.engine.ListWorkflows(c.Request.Context(), filter, pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type workflowDetailResponse struct {
	*WorkflowDetail
	Progress        int           `json:"progress"`
	CurrentStep     *WorkflowStep `json:"current_step,omitempty"`
	DurationMinutes *float64      `json:"duration_minutes,omitempty"`
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	detail, err := h.engine.GetWorkflowDetail(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	resp := workflowDetailResponse{
		WorkflowDetail: detail,
		Progress:       Progress(&detail.Workflow),
		CurrentStep:    CurrentStep(&detail.Workflow),
	}
	if d, ok := WorkflowDuration(&detail.Workflow); ok {
		minutes := d.Minutes()
		resp.DurationMinutes = &minutes
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateSteps(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req UpdateStepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.engine.UpdateSteps(c.Request.Context(), id, req, auth.UserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	_ = c.ShouldBindJSON(&req)

	wf, err := h.engine.CancelWorkflow(c.Request.Context(), id, auth.UserID(c), req.Comment)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (h *Handler) StartStep(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	step, err := h.engine.StartStep(c.Request.Context(), id, auth.UserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (h *Handler) CompleteStep(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	_ = c.ShouldBindJSON(&req)

	wf, err := h.engine.CompleteStep(c.Request.Context(), id, auth.UserID(c), req.Comment)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workflow": wf,
		"progress": Progress(wf),
	})
}

func (h *Handler) RejectStep(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req RejectStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.engine.RejectStep(c.Request.Context(), id, auth.UserID(c), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (h *Handler) RollbackTargets(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	targets, err := h.engine.RollbackTargets(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, targets)
}

func (h *Handler) MyTasks(c *gin.Context) {
	var filter TaskFilter
	if statusStr := c.Query("status"); statusStr != "" {
		s := StepStatus(statusStr)
		filter.Status = &s
	}
	if actionStr := c.Query("action_type"); actionStr != "" {
		a := StepActionType(actionStr)
		filter.ActionType = &a
	}

	page, err := h.engine.ListMyTasks(c.Request.Context(), auth.UserID(c), filter, pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) ApprovalSheet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	detail, err := h.engine.GetWorkflowDetail(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	sheet := pdf.ApprovalSheet{
		WorkflowID: detail.ID.String(),
		Status:     string(detail.Status),
		Progress:   Progress(&detail.Workflow),
	}
	if detail.Document != nil {
		sheet.DocumentTitle = detail.Document.Title
		sheet.RegistrationNumber = detail.Document.RegistrationNumber
	}
	for _, step := range detail.Steps {
		row := pdf.ApprovalRow{
			Order:      step.Order,
			ActionType: string(step.ActionType),
			Status:     string(step.Status),
		}
		if ref, ok := detail.Assignees[step.AssignedToUserID]; ok {
			row.Assignee = ref.FullName
		}
		if step.CompletedAt != nil {
			row.DecidedAt = step.CompletedAt.Format("2006-01-02 15:04")
		}
		if step.RejectedAt != nil {
			row.DecidedAt = step.RejectedAt.Format("2006-01-02 15:04")
		}
		if step.RejectionReason != nil {
			row.Comment = *step.RejectionReason
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	data, err := h.sheets.Render(sheet)
	if err != nil {
		h.logger.Error("failed to render approval sheet", zap.String("workflow_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render approval sheet"})
		return
	}
	c.Data(http.StatusOK, "application/pdf", data)
}
