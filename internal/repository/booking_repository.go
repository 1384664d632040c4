package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parkingmate/service-parking/internal/common/domain"
	bookingDomain "github.com/parkingmate/service-parking/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	ParkingSpaceID uuid.UUID  `gorm:"type:uuid;index:idx_bookings_space_time;not null"`
	StartTime      time.Time  `gorm:"index:idx_bookings_space_time;not null"`
	EndTime        time.Time  `gorm:"not null"`
	TotalPrice     int64      `gorm:"not null"`
	Status         string     `gorm:"not null;size:20;index"`
	CanceledAt     *time.Time `gorm:""`
	Version        int64      `gorm:"not null;default:1"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

var _ bookingDomain.BookingRepository = (*GormBookingRepository)(nil)

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate retrieves a booking with a row lock held until the transaction ends.
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormBookingRepository) findOne(db *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves the renter's bookings, latest start first.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find user bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindReservedInRange retrieves RESERVED bookings of a space intersecting rng.
func (r *GormBookingRepository) FindReservedInRange(ctx context.Context, parkingSpaceID uuid.UUID, rng bookingDomain.Interval) ([]*bookingDomain.Booking, error) {
	models, err := r.findOverlapping(r.db.WithContext(ctx), parkingSpaceID, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to find reserved bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindOverlappingForUpdate locks and returns RESERVED bookings overlapping interval.
func (r *GormBookingRepository) FindOverlappingForUpdate(ctx context.Context, parkingSpaceID uuid.UUID, interval bookingDomain.Interval) ([]*bookingDomain.Booking, error) {
	db := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	models, err := r.findOverlapping(db, parkingSpaceID, interval)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

func (r *GormBookingRepository) findOverlapping(db *gorm.DB, parkingSpaceID uuid.UUID, iv bookingDomain.Interval) ([]BookingModel, error) {
	var models []BookingModel
	err := db.Model(&BookingModel{}).
		Where("parking_space_id = ? AND status = ?", parkingSpaceID, string(bookingDomain.StatusReserved)).
		Where("start_time < ? AND end_time > ?", iv.End, iv.Start).
		Order("start_time ASC").
		Find(&models).Error
	return models, err
}

// LockParkingSpace takes FOR UPDATE on the parking space row. Row locks cannot
// cover rows that do not exist yet, so the parent row serializes inserts.
func (r *GormBookingRepository) LockParkingSpace(ctx context.Context, parkingSpaceID uuid.UUID) error {
	var model ParkingSpaceModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", parkingSpaceID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("parking space", parkingSpaceID.String())
		}
		return fmt.Errorf("failed to lock parking space: %w", err)
	}
	return nil
}

// HasActiveReservations reports whether RESERVED bookings of the space end after at.
func (r *GormBookingRepository) HasActiveReservations(ctx context.Context, parkingSpaceID uuid.UUID, at time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("parking_space_id = ? AND status = ? AND end_time > ?", parkingSpaceID, string(bookingDomain.StatusReserved), at).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count active reservations: %w", err)
	}
	return count > 0, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := r.db.WithContext(ctx).Create(toBookingModel(bk)).Error; err != nil {
		if pgCode(err) == pgExclusionViolation {
			return domain.NewConflictError("interval already reserved")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":      model.Status,
			"canceled_at": model.CanceledAt,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// DeleteParkingSpace deletes the space row; its bookings go with it through ON DELETE CASCADE.
func (r *GormBookingRepository) DeleteParkingSpace(ctx context.Context, parkingSpaceID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", parkingSpaceID).Delete(&ParkingSpaceModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete parking space: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("parking space", parkingSpaceID.String())
	}
	return nil
}

// WithinTransaction runs fn with a repository bound to one database transaction.
func (r *GormBookingRepository) WithinTransaction(ctx context.Context, fn func(repo bookingDomain.BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormBookingRepository{db: tx})
	})
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:             bk.ID(),
		UserID:         bk.UserID(),
		ParkingSpaceID: bk.ParkingSpaceID(),
		StartTime:      bk.StartTime(),
		EndTime:        bk.EndTime(),
		TotalPrice:     bk.TotalPrice(),
		Status:         string(bk.Status()),
		CanceledAt:     bk.CanceledAt(),
		Version:        bk.Version(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", m.ID, err)
	}
	return bookingDomain.ReconstructBooking(
		m.ID,
		m.UserID,
		m.ParkingSpaceID,
		bookingDomain.Interval{Start: m.StartTime.UTC(), End: m.EndTime.UTC()},
		m.TotalPrice,
		status,
		m.CanceledAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
