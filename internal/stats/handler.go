package stats

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	stats := rg.Group("/stats")
	{
		stats.GET("/overview", h.Overview)
		stats.GET("/export", h.Export)
	}
}

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.service.GetOverview(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) Export(c *gin.Context) {
	data, err := h.service.ExportOverview(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	filename := fmt.Sprintf("approval-stats-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
