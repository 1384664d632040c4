package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parkingmate/service-parking/internal/common/domain"
	notificationDomain "github.com/parkingmate/service-parking/internal/domain/notification"
)

// NotificationDTO is the API response representation of a notification.
type NotificationDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationService stores and serves user notifications.
type NotificationService struct {
	repo       notificationDomain.NotificationRepository
	identities IdentityResolver
	logger     *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo notificationDomain.NotificationRepository, identities IdentityResolver, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, identities: identities, logger: logger}
}

// Notify persists a notification directly. It satisfies Notifier when no
// message broker is configured and backs the broker consumer otherwise.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ notificationDomain.Type) error {
	n, err := notificationDomain.NewNotification(userID, title, message, typ)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return err
	}
	s.logger.Debug("notification stored",
		zap.String("notification_id", n.ID().String()),
		zap.String("user_id", userID.String()),
		zap.String("type", string(typ)),
	)
	return nil
}

// ListNotifications returns the caller's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, identity string) ([]NotificationDTO, error) {
	caller, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.FindByUserID(ctx, caller.ID())
	if err != nil {
		return nil, err
	}
	dtos := make([]NotificationDTO, len(items))
	for i, n := range items {
		dtos[i] = toNotificationDTO(n)
	}
	return dtos, nil
}

// UnreadCount returns how many of the caller's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, identity string) (int64, error) {
	caller, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, caller.ID())
}

// MarkAsRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, identity string, id uuid.UUID) (*NotificationDTO, error) {
	caller, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.IsOwnedBy(caller.ID()) {
		return nil, domain.NewForbiddenError("you can only read your own notifications")
	}
	if !n.IsRead() {
		n.MarkAsRead()
		if err := s.repo.Update(ctx, n); err != nil {
			return nil, err
		}
	}
	dto := toNotificationDTO(n)
	return &dto, nil
}

// MarkAllAsRead flags all of the caller's notifications as read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, identity string) (int64, error) {
	caller, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return 0, err
	}
	return s.repo.MarkAllAsRead(ctx, caller.ID())
}

func toNotificationDTO(n *notificationDomain.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID(),
		Title:     n.Title(),
		Message:   n.Message(),
		Type:      string(n.Type()),
		IsRead:    n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
}

var _ Notifier = (*NotificationService)(nil)
