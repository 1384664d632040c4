package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/domain/notification"
)

// NotificationRepository implements notification.NotificationRepository in memory.
type NotificationRepository struct {
	store *Store
}

var _ notification.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Save(_ context.Context, n *notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.notifications[n.ID()] = cloneNotification(n)
	return nil
}

func (r *NotificationRepository) FindByID(_ context.Context, id uuid.UUID) (*notification.Notification, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n, ok := r.store.notifications[id]
	if !ok {
		return nil, domain.NewNotFoundError("notification", id.String())
	}
	return cloneNotification(n), nil
}

func (r *NotificationRepository) FindByUserID(_ context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	r.store.mu.RLock()
	var out []*notification.Notification
	for _, n := range r.store.notifications {
		if n.IsOwnedBy(userID) {
			out = append(out, cloneNotification(n))
		}
	}
	r.store.mu.RUnlock()

	slices.SortFunc(out, func(a, b *notification.Notification) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(b.ID().String(), a.ID().String())
	})
	return out, nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var n int64
	for _, item := range r.store.notifications {
		if item.IsOwnedBy(userID) && !item.IsRead() {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) Update(_ context.Context, n *notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.notifications[n.ID()]; !ok {
		return domain.NewNotFoundError("notification", n.ID().String())
	}
	r.store.notifications[n.ID()] = cloneNotification(n)
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var changed int64
	for _, n := range r.store.notifications {
		if n.IsOwnedBy(userID) && !n.IsRead() {
			n.MarkAsRead()
			changed++
		}
	}
	return changed, nil
}
