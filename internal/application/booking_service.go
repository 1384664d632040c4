package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/parkingmate/service-parking/internal/common/domain"
	bookingDomain "github.com/parkingmate/service-parking/internal/domain/booking"
	"github.com/parkingmate/service-parking/internal/domain/notification"
	spaceDomain "github.com/parkingmate/service-parking/internal/domain/space"
	"github.com/parkingmate/service-parking/internal/lock"
)

const (
	maxSlotRange  = 90 * 24 * time.Hour
	notifyTimeout = 5 * time.Second
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ParkingSpaceID uuid.UUID `json:"parking_space_id" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID             uuid.UUID  `json:"id"`
	ParkingSpaceID uuid.UUID  `json:"parking_space_id"`
	Address        string     `json:"address,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	TotalPrice     int64      `json:"total_price"`
	Status         string     `json:"status"`
	CanceledAt     *time.Time `json:"canceled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SlotDTO is a bookable window.
type SlotDTO struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Price     int64     `json:"price"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo       bookingDomain.BookingRepository
	spaces     spaceDomain.ParkingSpaceRepository
	identities IdentityResolver
	guard      *lock.Guard
	pricing    bookingDomain.PricingStrategy
	notifier   Notifier
	logger     *zap.Logger
	tracer     trace.Tracer

	pending sync.WaitGroup
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	spaces spaceDomain.ParkingSpaceRepository,
	identities IdentityResolver,
	guard *lock.Guard,
	pricing bookingDomain.PricingStrategy,
	notifier Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:       repo,
		spaces:     spaces,
		identities: identities,
		guard:      guard,
		pricing:    pricing,
		notifier:   notifier,
		logger:     logger,
		tracer:     otel.Tracer("parkingmate/booking"),
	}
}

// BookingLockKey is the coordinator key serializing bookings of one space.
func BookingLockKey(parkingSpaceID uuid.UUID) string {
	return "booking:" + parkingSpaceID.String()
}

// CreateBooking reserves [StartTime, EndTime) on a space for the caller.
// Another in-flight booking of the same space fails fast with a conflict.
func (s *BookingService) CreateBooking(ctx context.Context, identity string, req CreateBookingRequest) (*BookingDTO, error) {
	ctx, span := s.tracer.Start(ctx, "booking.create", trace.WithAttributes(
		attribute.String("parking_space.id", req.ParkingSpaceID.String()),
	))
	defer span.End()
	started := time.Now()

	bk, sp, err := s.createBooking(ctx, identity, req)

	bookingRequests.WithLabelValues("create", outcomeOf(err)).Inc()
	bookingLatency.WithLabelValues("create").Observe(time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.id", bk.ID().String()))

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("parking_space_id", sp.ID().String()),
		zap.Int64("total_price", bk.TotalPrice()),
	)
	s.notify(ctx, bk.UserID(), "Booking confirmed",
		fmt.Sprintf("Your booking at %s from %s to %s is confirmed.",
			sp.Address(), bk.StartTime().Format(time.RFC3339), bk.EndTime().Format(time.RFC3339)),
		notification.TypeBookingCreated,
	)

	result := toBookingDTO(bk, sp.Address())
	return &result, nil
}

func (s *BookingService) createBooking(ctx context.Context, identity string, req CreateBookingRequest) (*bookingDomain.Booking, *spaceDomain.ParkingSpace, error) {
	interval, err := bookingDomain.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, nil, err
	}

	var (
		created *bookingDomain.Booking
		sp      *spaceDomain.ParkingSpace
	)
	err = s.guard.Run(ctx, BookingLockKey(req.ParkingSpaceID), func(ctx context.Context) error {
		renter, err := s.identities.Resolve(ctx, identity)
		if err != nil {
			return err
		}
		sp, err = s.spaces.FindByID(ctx, req.ParkingSpaceID)
		if err != nil {
			return err
		}

		return s.repo.WithinTransaction(ctx, func(tx bookingDomain.BookingRepository) error {
			if err := tx.LockParkingSpace(ctx, sp.ID()); err != nil {
				return err
			}
			overlapping, err := tx.FindOverlappingForUpdate(ctx, sp.ID(), interval)
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				return domain.NewConflictError("interval already reserved")
			}

			price, err := s.pricing.Calculate(bookingDomain.PricingParams{
				Interval:     interval,
				PricePerHour: sp.PricePerHour(),
			})
			if err != nil {
				return err
			}

			bk, err := bookingDomain.NewBooking(renter.ID(), sp.ID(), interval, price)
			if err != nil {
				return err
			}
			if err := tx.Save(ctx, bk); err != nil {
				return err
			}
			created = bk
			return nil
		})
	})
	if errors.Is(err, lock.ErrBusy) {
		return nil, nil, domain.NewConflictError("booking in progress")
	}
	if err != nil {
		return nil, nil, err
	}
	return created, sp, nil
}

// CancelBooking cancels a RESERVED booking owned by the caller.
func (s *BookingService) CancelBooking(ctx context.Context, identity string, bookingID uuid.UUID) (*BookingDTO, error) {
	ctx, span := s.tracer.Start(ctx, "booking.cancel", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
	))
	defer span.End()

	bk, err := s.cancelBooking(ctx, identity, bookingID)
	bookingRequests.WithLabelValues("cancel", outcomeOf(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.CodeOf(err)))
		return nil, err
	}

	var address string
	if sp, err := s.spaces.FindByID(ctx, bk.ParkingSpaceID()); err == nil {
		address = sp.Address()
	}

	s.logger.Info("booking canceled", zap.String("booking_id", bk.ID().String()))
	s.notify(ctx, bk.UserID(), "Booking canceled",
		fmt.Sprintf("Your booking at %s from %s to %s was canceled.",
			address, bk.StartTime().Format(time.RFC3339), bk.EndTime().Format(time.RFC3339)),
		notification.TypeBookingCanceled,
	)

	result := toBookingDTO(bk, address)
	return &result, nil
}

func (s *BookingService) cancelBooking(ctx context.Context, identity string, bookingID uuid.UUID) (*bookingDomain.Booking, error) {
	caller, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	var canceled *bookingDomain.Booking
	err = s.repo.WithinTransaction(ctx, func(tx bookingDomain.BookingRepository) error {
		bk, err := tx.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.IsRentedBy(caller.ID()) {
			return domain.NewForbiddenError("you can only cancel your own bookings")
		}
		if err := bk.Cancel(); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := tx.Update(ctx, bk); err != nil {
			return err
		}
		canceled = bk
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}

// ListMyBookings returns the caller's bookings, latest start first, with each space's address.
func (s *BookingService) ListMyBookings(ctx context.Context, identity string) ([]BookingDTO, error) {
	caller, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.FindByUserID(ctx, caller.ID())
	if err != nil {
		return nil, err
	}

	spaceIDs := make([]uuid.UUID, 0, len(bookings))
	for _, bk := range bookings {
		if !slices.Contains(spaceIDs, bk.ParkingSpaceID()) {
			spaceIDs = append(spaceIDs, bk.ParkingSpaceID())
		}
	}
	spaces, err := s.spaces.FindByIDs(ctx, spaceIDs)
	if err != nil {
		return nil, err
	}
	addresses := make(map[uuid.UUID]string, len(spaces))
	for _, sp := range spaces {
		addresses[sp.ID()] = sp.Address()
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, addresses[bk.ParkingSpaceID()])
	}
	return dtos, nil
}

// GetAvailableSlots lists free slots of slotDurationHours within [start, end).
func (s *BookingService) GetAvailableSlots(ctx context.Context, parkingSpaceID uuid.UUID, start, end time.Time, slotDurationHours int) ([]SlotDTO, error) {
	rng, err := bookingDomain.NewInterval(start, end)
	if err != nil {
		return nil, err
	}
	if rng.Duration() > maxSlotRange {
		return nil, domain.NewValidationError("slot search range must not exceed 90 days")
	}
	if slotDurationHours < 1 {
		return nil, domain.NewValidationError("slot duration must be at least 1 hour")
	}

	sp, err := s.spaces.FindByID(ctx, parkingSpaceID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.repo.FindReservedInRange(ctx, parkingSpaceID, rng)
	if err != nil {
		return nil, err
	}
	intervals := make([]bookingDomain.Interval, len(reserved))
	for i, bk := range reserved {
		intervals[i] = bk.Interval()
	}

	slots := []SlotDTO{}
	for slot := range bookingDomain.AvailableSlots(intervals, bookingDomain.SlotQuery{
		Range:             rng,
		SlotDurationHours: slotDurationHours,
		PricePerHour:      sp.PricePerHour(),
	}) {
		slots = append(slots, SlotDTO{StartTime: slot.Start, EndTime: slot.End, Price: slot.Price})
	}
	return slots, nil
}

// notify hands a notification to a background goroutine so a slow broker
// never delays the response. Failures are logged only.
func (s *BookingService) notify(ctx context.Context, userID uuid.UUID, title, message string, typ notification.Type) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, userID, title, message, typ); err != nil {
			s.logger.Error("failed to send notification",
				zap.String("user_id", userID.String()),
				zap.String("type", string(typ)),
				zap.Error(err),
			)
		}
	}()
}

// Drain waits for notifications already handed off. Call it before closing
// the notifier.
func (s *BookingService) Drain() {
	s.pending.Wait()
}

func toBookingDTO(bk *bookingDomain.Booking, address string) BookingDTO {
	return BookingDTO{
		ID:             bk.ID(),
		ParkingSpaceID: bk.ParkingSpaceID(),
		Address:        address,
		StartTime:      bk.StartTime(),
		EndTime:        bk.EndTime(),
		TotalPrice:     bk.TotalPrice(),
		Status:         string(bk.Status()),
		CanceledAt:     bk.CanceledAt(),
		CreatedAt:      bk.CreatedAt(),
	}
}
