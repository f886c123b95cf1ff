package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/internal/notifications/websocket"
	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type Service interface {
	Notify(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) (pagination.Page[Notification], error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo   Repository
	ws     *websocket.Manager
	logger *zap.Logger
}

func NewService(repo Repository, ws *websocket.Manager, logger *zap.Logger) Service {
	return &notificationService{repo: repo, ws: ws, logger: logger}
}

// Notify persists the notification and pushes it to any open sockets.
// Socket delivery is best effort.
func (s *notificationService) Notify(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.ws != nil {
		s.ws.SendToUser(n.UserID, websocket.Message{
			Type:      "notification",
			Payload:   n,
			Timestamp: n.CreatedAt,
		})
	}
	return nil
}

func (s *notificationService) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) (pagination.Page[Notification], error) {
	items, total, err := s.repo.List(ctx, userID, unreadOnly, p)
	if err != nil {
		return pagination.Page[Notification]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	updated, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.NewNotFoundError("notification", id.String())
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}
