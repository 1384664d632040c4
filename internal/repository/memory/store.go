// Package memory provides in-memory repositories for tests and local runs
// without Postgres. Booking transactions are serialized by a store-wide mutex
// and their writes become visible only on commit.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/domain/booking"
	"github.com/parkingmate/service-parking/internal/domain/notification"
	"github.com/parkingmate/service-parking/internal/domain/space"
	"github.com/parkingmate/service-parking/internal/domain/user"
)

// Store holds every table. Repositories obtained from one Store share data.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	bookings      map[uuid.UUID]*booking.Booking
	spaces        map[uuid.UUID]*space.ParkingSpace
	users         map[uuid.UUID]*user.User
	notifications map[uuid.UUID]*notification.Notification
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		bookings:      make(map[uuid.UUID]*booking.Booking),
		spaces:        make(map[uuid.UUID]*space.ParkingSpace),
		users:         make(map[uuid.UUID]*user.User),
		notifications: make(map[uuid.UUID]*notification.Notification),
	}
}

// Bookings returns a booking repository backed by the store.
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{store: s} }

// Spaces returns a parking space repository backed by the store.
func (s *Store) Spaces() *SpaceRepository { return &SpaceRepository{store: s} }

// Users returns a user repository backed by the store.
func (s *Store) Users() *UserRepository { return &UserRepository{store: s} }

// Notifications returns a notification repository backed by the store.
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{store: s} }

// dropSpace deletes a space and its bookings. The caller holds mu.
func (s *Store) dropSpace(id uuid.UUID) {
	delete(s.spaces, id)
	for bid, b := range s.bookings {
		if b.ParkingSpaceID() == id {
			delete(s.bookings, bid)
		}
	}
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	var canceledAt *time.Time
	if b.CanceledAt() != nil {
		t := *b.CanceledAt()
		canceledAt = &t
	}
	return booking.ReconstructBooking(
		b.ID(), b.UserID(), b.ParkingSpaceID(), b.Interval(), b.TotalPrice(),
		b.Status(), canceledAt, b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func cloneNotification(n *notification.Notification) *notification.Notification {
	return notification.ReconstructNotification(
		n.ID(), n.UserID(), n.Title(), n.Message(), n.Type(), n.IsRead(), n.CreatedAt(),
	)
}
