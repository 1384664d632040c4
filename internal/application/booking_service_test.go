package application_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/domain/booking"
	"github.com/parkingmate/service-parking/internal/domain/notification"
)

func bookingReq(spaceID uuid.UUID, start, end time.Time) application.CreateBookingRequest {
	return application.CreateBookingRequest{ParkingSpaceID: spaceID, StartTime: start, EndTime: end}
}

func TestCreateBooking_PricesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	renter := f.signUp(t, "renter")
	spaceID := f.createSpace(t, owner, 5000)

	bk, err := f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, at(10, 0), at(11, 30)))
	require.NoError(t, err)

	assert.Equal(t, int64(10000), bk.TotalPrice)
	assert.Equal(t, "RESERVED", bk.Status)
	assert.Equal(t, "Seoul Jung-gu 1", bk.Address)
	f.bookings.Drain()
	assert.Equal(t, []notification.Type{notification.TypeBookingCreated}, f.notifier.types())
}

func TestCreateBooking_RejectsOverlapButAllowsAdjacent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	renter := f.signUp(t, "renter")
	spaceID := f.createSpace(t, owner, 1000)

	_, err := f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, at(10, 0), at(12, 0)))
	require.NoError(t, err)

	_, err = f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, at(11, 0), at(13, 0)))
	require.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "interval already reserved")

	_, err = f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, at(12, 0), at(13, 0)))
	assert.NoError(t, err, "touching intervals do not overlap")

	other := f.createSpace(t, owner, 1000)
	_, err = f.bookings.CreateBooking(ctx, renter, bookingReq(other, at(10, 0), at(12, 0)))
	assert.NoError(t, err, "other spaces are independent")
}

func TestCreateBooking_ValidationAndLookupFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	spaceID := f.createSpace(t, owner, 1000)

	_, err := f.bookings.CreateBooking(ctx, owner, bookingReq(spaceID, at(12, 0), at(10, 0)))
	assert.True(t, domain.IsValidation(err))

	_, err = f.bookings.CreateBooking(ctx, owner, bookingReq(uuid.New(), at(10, 0), at(11, 0)))
	assert.True(t, domain.IsNotFound(err))

	_, err = f.bookings.CreateBooking(ctx, "ghost@example.com", bookingReq(spaceID, at(10, 0), at(11, 0)))
	assert.True(t, domain.IsNotFound(err))

	_, err = f.coordinator.Acquire(ctx, application.BookingLockKey(spaceID), time.Second)
	assert.NoError(t, err, "failed attempts must release the lock")
	f.bookings.Drain()
	assert.Empty(t, f.notifier.types())
}

func TestCreateBooking_BusyLockFailsFast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	spaceID := f.createSpace(t, owner, 1000)

	_, err := f.coordinator.Acquire(ctx, application.BookingLockKey(spaceID), time.Minute)
	require.NoError(t, err)

	_, err = f.bookings.CreateBooking(ctx, owner, bookingReq(spaceID, at(10, 0), at(11, 0)))
	require.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "booking in progress")
}

func TestCreateBooking_NotifierFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	owner := f.signUp(t, "owner")
	spaceID := f.createSpace(t, owner, 1000)

	_, err := f.bookings.CreateBooking(context.Background(), owner, bookingReq(spaceID, at(10, 0), at(11, 0)))
	assert.NoError(t, err)
}

func TestCreateBooking_SlowNotifierDoesNotDelayResponse(t *testing.T) {
	f := newFixture(t)
	f.notifier.block = make(chan struct{})
	owner := f.signUp(t, "owner")
	spaceID := f.createSpace(t, owner, 1000)

	done := make(chan error, 1)
	go func() {
		_, err := f.bookings.CreateBooking(context.Background(), owner, bookingReq(spaceID, at(10, 0), at(11, 0)))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("booking waited for the notifier")
	}
	assert.Empty(t, f.notifier.types(), "delivery is still pending")

	close(f.notifier.block)
	f.bookings.Drain()
	assert.Equal(t, []notification.Type{notification.TypeBookingCreated}, f.notifier.types())
}

func runConcurrentCreates(t *testing.T, f *fixture, renter string, spaceID uuid.UUID, n int) (ok, conflicts int32) {
	t.Helper()
	var wg sync.WaitGroup
	var okCount, conflictCount atomic.Int32
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.bookings.CreateBooking(context.Background(), renter, bookingReq(spaceID, at(10, 0), at(12, 0)))
			switch {
			case err == nil:
				okCount.Add(1)
			case domain.IsConflict(err):
				conflictCount.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()
	return okCount.Load(), conflictCount.Load()
}

func TestCreateBooking_ConcurrentRequestsReserveOnce(t *testing.T) {
	f := newFixture(t)
	owner := f.signUp(t, "owner")
	renter := f.signUp(t, "renter")
	spaceID := f.createSpace(t, owner, 1000)

	ok, conflicts := runConcurrentCreates(t, f, renter, spaceID, 20)

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(19), conflicts)
}

func TestCreateBooking_StorageLockHoldsWhenCoordinatorIsDown(t *testing.T) {
	f := newFixture(t, withCoordinator(unavailableCoordinator{}, true))
	owner := f.signUp(t, "owner")
	renter := f.signUp(t, "renter")
	spaceID := f.createSpace(t, owner, 1000)

	ok, conflicts := runConcurrentCreates(t, f, renter, spaceID, 20)

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(19), conflicts)
}

// randomIntervals returns n intervals of 1 to 180 minutes starting within 48 hours of base.
func randomIntervals(rng *rand.Rand, n int) []booking.Interval {
	out := make([]booking.Interval, n)
	for i := range out {
		start := base.Add(time.Duration(rng.Intn(48*60)) * time.Minute)
		out[i] = booking.Interval{Start: start, End: start.Add(time.Duration(1+rng.Intn(180)) * time.Minute)}
	}
	return out
}

func reservedIntervals(t *testing.T, f *fixture, spaceID uuid.UUID) []booking.Interval {
	t.Helper()
	rows, err := f.store.Bookings().FindReservedInRange(context.Background(), spaceID, booking.Interval{Start: base, End: base.Add(52 * time.Hour)})
	require.NoError(t, err)
	out := make([]booking.Interval, len(rows))
	for i, b := range rows {
		out[i] = b.Interval()
	}
	return out
}

func assertPairwiseDisjoint(t *testing.T, reserved []booking.Interval) {
	t.Helper()
	for i := range reserved {
		for j := i + 1; j < len(reserved); j++ {
			assert.False(t, reserved[i].Overlaps(reserved[j]), "%v overlaps %v", reserved[i], reserved[j])
		}
	}
}

func TestCreateBooking_RandomIntervalsStayDisjoint(t *testing.T) {
	coordinators := map[string][]fixtureOption{
		"coordinator up":   nil,
		"coordinator down": {withCoordinator(unavailableCoordinator{}, true)},
	}
	for name, opts := range coordinators {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, opts...)
			ctx := context.Background()
			owner := f.signUp(t, "owner")
			renter := f.signUp(t, "renter")
			rng := rand.New(rand.NewSource(20300101))

			t.Run("sequential", func(t *testing.T) {
				spaceID := f.createSpace(t, owner, 1000)
				var accepted []booking.Interval
				for _, iv := range randomIntervals(rng, 100) {
					_, err := f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, iv.Start, iv.End))
					clashes := false
					for _, a := range accepted {
						clashes = clashes || a.Overlaps(iv)
					}
					if clashes {
						assert.True(t, domain.IsConflict(err), "%v should conflict, got %v", iv, err)
						continue
					}
					require.NoError(t, err, "%v is free", iv)
					accepted = append(accepted, iv)
				}
				assert.ElementsMatch(t, accepted, reservedIntervals(t, f, spaceID))
			})

			t.Run("concurrent", func(t *testing.T) {
				spaceID := f.createSpace(t, owner, 1000)
				var (
					wg      sync.WaitGroup
					mu      sync.Mutex
					created []uuid.UUID
					start   = make(chan struct{})
				)
				for _, iv := range randomIntervals(rng, 200) {
					wg.Add(1)
					go func() {
						defer wg.Done()
						<-start
						bk, err := f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, iv.Start, iv.End))
						if err != nil {
							assert.True(t, domain.IsConflict(err), "unexpected error: %v", err)
							return
						}
						mu.Lock()
						created = append(created, bk.ID)
						mu.Unlock()
					}()
				}
				close(start)
				wg.Wait()

				reserved := reservedIntervals(t, f, spaceID)
				require.NotEmpty(t, reserved)
				assert.Len(t, reserved, len(created), "every success is stored")
				assertPairwiseDisjoint(t, reserved)
			})
		})
	}
}

// A create racing a space deletion either lands first and blocks the delete,
// or finds the space gone. A confirmed booking is never cascaded away.
func TestDeleteSpace_RaceWithCreateKeepsConfirmedBookings(t *testing.T) {
	f := newFixture(t, withCoordinator(unavailableCoordinator{}, true))
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	renter := f.signUp(t, "renter")

	for i := 0; i < 50; i++ {
		spaceID := f.createSpace(t, owner, 1000)

		var (
			wg                   sync.WaitGroup
			createErr, deleteErr error
			created              *application.BookingDTO
			start                = make(chan struct{})
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			created, createErr = f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, at(10, 0), at(12, 0)))
		}()
		go func() {
			defer wg.Done()
			<-start
			deleteErr = f.spaces.DeleteSpace(ctx, owner, spaceID)
		}()
		close(start)
		wg.Wait()

		if createErr == nil {
			require.True(t, domain.IsConflict(deleteErr), "iteration %d: delete must see the booking, got %v", i, deleteErr)
			stored, err := f.store.Bookings().FindByID(ctx, created.ID)
			require.NoError(t, err, "iteration %d: confirmed booking was removed", i)
			assert.True(t, stored.IsActive())
			continue
		}
		require.NoError(t, deleteErr, "iteration %d", i)
		assert.True(t, domain.IsNotFound(createErr), "iteration %d: unexpected create error %v", i, createErr)
	}
}

func TestCreateBooking_CoordinatorDownWithoutFailOpen(t *testing.T) {
	f := newFixture(t, withCoordinator(unavailableCoordinator{}, false))
	owner := f.signUp(t, "owner")
	spaceID := f.createSpace(t, owner, 1000)

	_, err := f.bookings.CreateBooking(context.Background(), owner, bookingReq(spaceID, at(10, 0), at(11, 0)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, domain.ErrCodeInternal, domain.CodeOf(err))
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	renter := f.signUp(t, "renter")
	stranger := f.signUp(t, "stranger")
	spaceID := f.createSpace(t, owner, 1000)

	bk, err := f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, at(10, 0), at(11, 0)))
	require.NoError(t, err)
	f.bookings.Drain()

	_, err = f.bookings.CancelBooking(ctx, renter, uuid.New())
	assert.True(t, domain.IsNotFound(err))

	_, err = f.bookings.CancelBooking(ctx, stranger, bk.ID)
	assert.True(t, domain.IsForbidden(err))

	canceled, err := f.bookings.CancelBooking(ctx, renter, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", canceled.Status)
	assert.NotNil(t, canceled.CanceledAt)
	f.bookings.Drain()

	_, err = f.bookings.CancelBooking(ctx, renter, bk.ID)
	assert.True(t, domain.IsConflict(err))

	_, err = f.bookings.CreateBooking(ctx, stranger, bookingReq(spaceID, at(10, 0), at(11, 0)))
	assert.NoError(t, err, "canceled interval is free again")

	f.bookings.Drain()
	assert.Equal(t, []notification.Type{
		notification.TypeBookingCreated,
		notification.TypeBookingCanceled,
		notification.TypeBookingCreated,
	}, f.notifier.types())
}

func TestListMyBookings_NewestStartFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	renter := f.signUp(t, "renter")
	spaceID := f.createSpace(t, owner, 1000)

	for _, h := range []int{9, 15, 12} {
		_, err := f.bookings.CreateBooking(ctx, renter, bookingReq(spaceID, at(h, 0), at(h+1, 0)))
		require.NoError(t, err)
	}

	list, err := f.bookings.ListMyBookings(ctx, renter)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, at(15, 0), list[0].StartTime)
	assert.Equal(t, at(12, 0), list[1].StartTime)
	assert.Equal(t, at(9, 0), list[2].StartTime)
	assert.Equal(t, "Seoul Jung-gu 1", list[0].Address)

	again, err := f.bookings.ListMyBookings(ctx, renter)
	require.NoError(t, err)
	assert.Equal(t, list, again)

	mine, err := f.bookings.ListMyBookings(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestGetAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	spaceID := f.createSpace(t, owner, 5000)

	_, err := f.bookings.CreateBooking(ctx, owner, bookingReq(spaceID, at(12, 0), at(13, 0)))
	require.NoError(t, err)

	slots, err := f.bookings.GetAvailableSlots(ctx, spaceID, at(10, 0), at(15, 0), 1)
	require.NoError(t, err)

	starts := make([]int, len(slots))
	for i, s := range slots {
		starts[i] = s.StartTime.Hour()
		assert.Equal(t, int64(5000), s.Price)
	}
	assert.Equal(t, []int{10, 11, 13, 14}, starts)
}

func TestGetAvailableSlots_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	spaceID := f.createSpace(t, owner, 5000)

	_, err := f.bookings.GetAvailableSlots(ctx, spaceID, at(15, 0), at(10, 0), 1)
	assert.True(t, domain.IsValidation(err))

	_, err = f.bookings.GetAvailableSlots(ctx, spaceID, at(10, 0), at(15, 0), 0)
	assert.True(t, domain.IsValidation(err))

	_, err = f.bookings.GetAvailableSlots(ctx, spaceID, at(0, 0), at(0, 0).AddDate(0, 0, 91), 1)
	assert.True(t, domain.IsValidation(err))

	_, err = f.bookings.GetAvailableSlots(ctx, uuid.New(), at(10, 0), at(15, 0), 1)
	assert.True(t, domain.IsNotFound(err))
}

func TestBookingLockKey(t *testing.T) {
	id := uuid.MustParse("0190a6d2-0000-7000-8000-000000000001")
	assert.Equal(t, "booking:0190a6d2-0000-7000-8000-000000000001", application.BookingLockKey(id))
}
