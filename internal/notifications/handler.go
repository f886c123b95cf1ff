package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docuflow/approval-portal/approval-portal-backend/internal/auth"
	"docuflow/approval-portal/approval-portal-backend/internal/notifications/websocket"
	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type Handler struct {
	service Service
	ws      *websocket.Manager
}

func NewHandler(service Service, ws *websocket.Manager) *Handler {
	return &Handler{service: service, ws: ws}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	n := rg.Group("/notifications")
	{
		n.GET("", h.List)
		n.GET("/unread-count", h.UnreadCount)
		n.POST("/:id/read", h.MarkRead)
		n.POST("/read-all", h.MarkAllRead)
		n.GET("/ws", h.Connect)
	}
}

func (h *Handler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	page, err := h.service.ListNotifications(c.Request.Context(), auth.UserID(c), unreadOnly,
		pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), auth.UserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), auth.UserID(c), id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	if err := h.service.MarkAllRead(c.Request.Context(), auth.UserID(c)); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Connect(c *gin.Context) {
	if err := h.ws.HandleConnection(c.Writer, c.Request, auth.UserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
	}
}
