package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/domain/booking"
)

// BookingRepository implements booking.BookingRepository in memory.
type BookingRepository struct {
	store   *Store
	staged  map[uuid.UUID]*booking.Booking // non-nil inside WithinTransaction
	dropped []uuid.UUID
}

var _ booking.BookingRepository = (*BookingRepository)(nil)

func (r *BookingRepository) inTx() bool { return r.staged != nil }

// snapshot returns committed rows overlaid with this transaction's staged writes.
func (r *BookingRepository) snapshot() []*booking.Booking {
	r.store.mu.RLock()
	rows := make(map[uuid.UUID]*booking.Booking, len(r.store.bookings)+len(r.staged))
	for id, b := range r.store.bookings {
		rows[id] = b
	}
	r.store.mu.RUnlock()

	for id, b := range r.staged {
		rows[id] = b
	}
	out := make([]*booking.Booking, 0, len(rows))
	for _, b := range rows {
		out = append(out, cloneBooking(b))
	}
	return out
}

func (r *BookingRepository) find(id uuid.UUID) (*booking.Booking, bool) {
	if b, ok := r.staged[id]; ok {
		return cloneBooking(b), true
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, false
	}
	return cloneBooking(b), true
}

func (r *BookingRepository) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.find(id)
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return b, nil
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *BookingRepository) FindByUserID(_ context.Context, userID uuid.UUID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range r.snapshot() {
		if b.UserID() == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b *booking.Booking) int {
		if c := b.StartTime().Compare(a.StartTime()); c != 0 {
			return c
		}
		return b.CreatedAt().Compare(a.CreatedAt())
	})
	return out, nil
}

func (r *BookingRepository) reservedOverlapping(spaceID uuid.UUID, iv booking.Interval) []*booking.Booking {
	var out []*booking.Booking
	for _, b := range r.snapshot() {
		if b.ParkingSpaceID() == spaceID && b.IsActive() && b.Interval().Overlaps(iv) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b *booking.Booking) int { return a.StartTime().Compare(b.StartTime()) })
	return out
}

func (r *BookingRepository) FindReservedInRange(_ context.Context, spaceID uuid.UUID, rng booking.Interval) ([]*booking.Booking, error) {
	return r.reservedOverlapping(spaceID, rng), nil
}

func (r *BookingRepository) FindOverlappingForUpdate(_ context.Context, spaceID uuid.UUID, iv booking.Interval) ([]*booking.Booking, error) {
	return r.reservedOverlapping(spaceID, iv), nil
}

// LockParkingSpace only checks existence; the transaction mutex already serializes writers.
func (r *BookingRepository) LockParkingSpace(_ context.Context, spaceID uuid.UUID) error {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if _, ok := r.store.spaces[spaceID]; !ok {
		return domain.NewNotFoundError("parking space", spaceID.String())
	}
	return nil
}

func (r *BookingRepository) HasActiveReservations(_ context.Context, spaceID uuid.UUID, at time.Time) (bool, error) {
	for _, b := range r.snapshot() {
		if b.ParkingSpaceID() == spaceID && b.IsActive() && b.EndTime().After(at) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) Save(_ context.Context, b *booking.Booking) error {
	if _, exists := r.find(b.ID()); exists {
		return domain.NewConflictError("booking already exists: " + b.ID().String())
	}
	if r.inTx() {
		r.staged[b.ID()] = cloneBooking(b)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.bookings[b.ID()] = cloneBooking(b)
	return nil
}

// Update expects the caller to have incremented the version; the stored row
// must still be at the previous one.
func (r *BookingRepository) Update(_ context.Context, b *booking.Booking) error {
	existing, ok := r.find(b.ID())
	if !ok {
		return domain.NewNotFoundError("booking", b.ID().String())
	}
	if existing.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified concurrently")
	}
	if r.inTx() {
		r.staged[b.ID()] = cloneBooking(b)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.bookings[b.ID()] = cloneBooking(b)
	return nil
}

// DeleteParkingSpace removes the space and cascades to its bookings. Inside a
// transaction the removal is applied on commit.
func (r *BookingRepository) DeleteParkingSpace(_ context.Context, spaceID uuid.UUID) error {
	if r.inTx() {
		r.store.mu.RLock()
		_, ok := r.store.spaces[spaceID]
		r.store.mu.RUnlock()
		if !ok || slices.Contains(r.dropped, spaceID) {
			return domain.NewNotFoundError("parking space", spaceID.String())
		}
		r.dropped = append(r.dropped, spaceID)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.spaces[spaceID]; !ok {
		return domain.NewNotFoundError("parking space", spaceID.String())
	}
	r.store.dropSpace(spaceID)
	return nil
}

// WithinTransaction runs fn with exclusive access to booking writes and
// commits staged rows only when fn succeeds.
func (r *BookingRepository) WithinTransaction(ctx context.Context, fn func(repo booking.BookingRepository) error) error {
	if r.inTx() {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	tx := &BookingRepository{store: r.store, staged: make(map[uuid.UUID]*booking.Booking)}
	if err := fn(tx); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, b := range tx.staged {
		r.store.bookings[id] = b
	}
	for _, id := range tx.dropped {
		r.store.dropSpace(id)
	}
	return nil
}
