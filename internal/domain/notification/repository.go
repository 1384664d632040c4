package notification

import (
	"context"

	"github.com/google/uuid"
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	// FindByUserID returns the user's notifications, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	Update(ctx context.Context, n *Notification) error
	// MarkAllAsRead flags every unread notification of the user and returns how many changed.
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
