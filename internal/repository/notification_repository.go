package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkingmate/service-parking/internal/common/domain"
	notificationDomain "github.com/parkingmate/service-parking/internal/domain/notification"
)

// NotificationModel is the GORM model for the notifications table.
type NotificationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Title     string    `gorm:"size:255;not null"`
	Message   string    `gorm:"size:500;not null"`
	Type      string    `gorm:"size:30;not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (NotificationModel) TableName() string { return "notifications" }

// GormNotificationRepository is the GORM-based implementation of NotificationRepository.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

var _ notificationDomain.NotificationRepository = (*GormNotificationRepository)(nil)

func (r *GormNotificationRepository) Save(ctx context.Context, n *notificationDomain.Notification) error {
	if err := r.db.WithContext(ctx).Create(toNotificationModel(n)).Error; err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notificationDomain.Notification, error) {
	var model NotificationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("notification", id.String())
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	return toDomainNotification(&model), nil
}

func (r *GormNotificationRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*notificationDomain.Notification, error) {
	var models []NotificationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	out := make([]*notificationDomain.Notification, len(models))
	for i := range models {
		out[i] = toDomainNotification(&models[i])
	}
	return out, nil
}

func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *GormNotificationRepository) Update(ctx context.Context, n *notificationDomain.Notification) error {
	result := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("id = ?", n.ID()).
		Update("is_read", n.IsRead())
	if result.Error != nil {
		return fmt.Errorf("failed to update notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("notification", n.ID().String())
	}
	return nil
}

func (r *GormNotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func toNotificationModel(n *notificationDomain.Notification) *NotificationModel {
	return &NotificationModel{
		ID:        n.ID(),
		UserID:    n.UserID(),
		Title:     n.Title(),
		Message:   n.Message(),
		Type:      string(n.Type()),
		IsRead:    n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
}

func toDomainNotification(m *NotificationModel) *notificationDomain.Notification {
	return notificationDomain.ReconstructNotification(
		m.ID, m.UserID, m.Title, m.Message, notificationDomain.Type(m.Type), m.IsRead, m.CreatedAt,
	)
}
