package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/common/domain"
)

// Booking is the aggregate root for a reservation of a parking space.
type Booking struct {
	id             uuid.UUID
	userID         uuid.UUID
	parkingSpaceID uuid.UUID
	interval       Interval
	totalPrice     int64
	status         BookingStatus
	canceledAt     *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a RESERVED booking. Ids are UUIDv7 so they sort by creation time.
func NewBooking(userID, parkingSpaceID uuid.UUID, interval Interval, totalPrice int64) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if parkingSpaceID == uuid.Nil {
		return nil, domain.NewValidationError("parking space ID is required")
	}
	if !interval.Start.Before(interval.End) {
		return nil, domain.NewValidationError("start time must be before end time")
	}
	if totalPrice < 0 {
		return nil, domain.NewValidationError("total price cannot be negative")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking ID: %w", err)
	}

	now := time.Now().UTC()
	return &Booking{
		id:             id,
		userID:         userID,
		parkingSpaceID: parkingSpaceID,
		interval:       interval,
		totalPrice:     totalPrice,
		status:         StatusReserved,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	userID uuid.UUID,
	parkingSpaceID uuid.UUID,
	interval Interval,
	totalPrice int64,
	status BookingStatus,
	canceledAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		userID:         userID,
		parkingSpaceID: parkingSpaceID,
		interval:       interval,
		totalPrice:     totalPrice,
		status:         status,
		canceledAt:     canceledAt,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// UserID returns the renter's user ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// ParkingSpaceID returns the booked space.
func (b *Booking) ParkingSpaceID() uuid.UUID { return b.parkingSpaceID }

// Interval returns the half-open reserved window.
func (b *Booking) Interval() Interval { return b.interval }

// StartTime returns the inclusive start.
func (b *Booking) StartTime() time.Time { return b.interval.Start }

// EndTime returns the exclusive end.
func (b *Booking) EndTime() time.Time { return b.interval.End }

// TotalPrice returns the computed price.
func (b *Booking) TotalPrice() int64 { return b.totalPrice }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// CanceledAt returns when the booking was canceled, or nil.
func (b *Booking) CanceledAt() *time.Time { return b.canceledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsRentedBy reports whether userID made this booking.
func (b *Booking) IsRentedBy(userID uuid.UUID) bool {
	return b.userID == userID
}

// IsActive reports whether the booking still blocks its interval.
func (b *Booking) IsActive() bool {
	return !b.status.IsTerminal()
}

// Cancel transitions RESERVED to CANCELED. Canceling twice is a conflict, not a no-op.
func (b *Booking) Cancel() error {
	if !b.status.CanTransitionTo(StatusCanceled) {
		return domain.NewConflictError(fmt.Sprintf("booking is already %s", b.status))
	}
	now := time.Now().UTC()
	b.status = StatusCanceled
	b.canceledAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
