package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForUpdate retrieves a booking and locks its row until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByUserID retrieves all bookings of a renter ordered by start time, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Booking, error)

	// FindReservedInRange retrieves RESERVED bookings of a space intersecting rng.
	FindReservedInRange(ctx context.Context, parkingSpaceID uuid.UUID, rng Interval) ([]*Booking, error)

	// FindOverlappingForUpdate retrieves RESERVED bookings of a space overlapping interval
	// and locks them until the transaction ends.
	FindOverlappingForUpdate(ctx context.Context, parkingSpaceID uuid.UUID, interval Interval) ([]*Booking, error)

	// LockParkingSpace locks the parent space row, serializing inserts for that space.
	LockParkingSpace(ctx context.Context, parkingSpaceID uuid.UUID) error

	// HasActiveReservations reports whether a space has RESERVED bookings ending after at.
	HasActiveReservations(ctx context.Context, parkingSpaceID uuid.UUID, at time.Time) (bool, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// DeleteParkingSpace removes a space together with all of its bookings.
	DeleteParkingSpace(ctx context.Context, parkingSpaceID uuid.UUID) error

	// WithinTransaction runs fn against a repository bound to a single transaction.
	WithinTransaction(ctx context.Context, fn func(repo BookingRepository) error) error
}
