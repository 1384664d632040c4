package space

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/common/domain"
)

// Details holds the owner-editable fields of a parking space.
type Details struct {
	Address      string   `label:"address" validate:"required,max=255"`
	Latitude     *float64 `label:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `label:"longitude" validate:"omitempty,gte=-180,lte=180"`
	PricePerHour int64    `label:"price_per_hour" validate:"gte=0"`
	Description  string   `label:"description" validate:"max=2000"`
	ImageURLs    []string `label:"image_urls" validate:"max=10,dive,required"`
}

// Coordinates is a WGS84 point in degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// ParkingSpace is a rentable space listed by an owner. It has no setters:
// ApplyUpdate returns a new record.
type ParkingSpace struct {
	id           uuid.UUID
	ownerID      uuid.UUID
	address      string
	latitude     *float64
	longitude    *float64
	pricePerHour int64
	description  string
	imageURLs    []string
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewParkingSpace validates details and creates a space owned by ownerID.
func NewParkingSpace(ownerID uuid.UUID, details Details) (*ParkingSpace, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if err := Validate(details); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate parking space ID: %w", err)
	}

	now := time.Now().UTC()
	s := &ParkingSpace{
		id:        id,
		ownerID:   ownerID,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}
	s.setDetails(details)
	return s, nil
}

// ReconstructParkingSpace rebuilds a ParkingSpace from persistence data (no validation).
func ReconstructParkingSpace(
	id, ownerID uuid.UUID,
	details Details,
	version int64,
	createdAt, updatedAt time.Time,
) *ParkingSpace {
	s := &ParkingSpace{
		id:        id,
		ownerID:   ownerID,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
	s.setDetails(details)
	return s
}

func (s *ParkingSpace) setDetails(d Details) {
	s.address = d.Address
	s.latitude = copyFloat(d.Latitude)
	s.longitude = copyFloat(d.Longitude)
	s.pricePerHour = d.PricePerHour
	s.description = d.Description
	s.imageURLs = slices.Clone(d.ImageURLs)
	if s.imageURLs == nil {
		s.imageURLs = []string{}
	}
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// --- Getters ---

func (s *ParkingSpace) ID() uuid.UUID        { return s.id }
func (s *ParkingSpace) OwnerID() uuid.UUID   { return s.ownerID }
func (s *ParkingSpace) Address() string      { return s.address }
func (s *ParkingSpace) Latitude() *float64   { return copyFloat(s.latitude) }
func (s *ParkingSpace) Longitude() *float64  { return copyFloat(s.longitude) }
func (s *ParkingSpace) PricePerHour() int64  { return s.pricePerHour }
func (s *ParkingSpace) Description() string  { return s.description }
func (s *ParkingSpace) ImageURLs() []string  { return slices.Clone(s.imageURLs) }
func (s *ParkingSpace) Version() int64       { return s.version }
func (s *ParkingSpace) CreatedAt() time.Time { return s.createdAt }
func (s *ParkingSpace) UpdatedAt() time.Time { return s.updatedAt }

// Details returns a copy of the editable fields.
func (s *ParkingSpace) Details() Details {
	return Details{
		Address:      s.address,
		Latitude:     copyFloat(s.latitude),
		Longitude:    copyFloat(s.longitude),
		PricePerHour: s.pricePerHour,
		Description:  s.description,
		ImageURLs:    slices.Clone(s.imageURLs),
	}
}

// --- Behavior ---

// IsOwnedBy checks if the space belongs to the given owner.
func (s *ParkingSpace) IsOwnedBy(ownerID uuid.UUID) bool {
	return s.ownerID == ownerID
}

// Coordinates returns the location and whether the space has one.
func (s *ParkingSpace) Coordinates() (Coordinates, bool) {
	if s.latitude == nil || s.longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *s.latitude, Longitude: *s.longitude}, true
}

// DistanceTo returns the great-circle distance in kilometers, or false when the
// space has no coordinates.
func (s *ParkingSpace) DistanceTo(origin Coordinates) (float64, bool) {
	c, ok := s.Coordinates()
	if !ok {
		return 0, false
	}
	return HaversineDistance(origin.Latitude, origin.Longitude, c.Latitude, c.Longitude), true
}

// ApplyUpdate validates the replacement details and returns the updated record.
// The receiver is left untouched.
func (s *ParkingSpace) ApplyUpdate(details Details) (*ParkingSpace, error) {
	if err := Validate(details); err != nil {
		return nil, err
	}
	next := &ParkingSpace{
		id:        s.id,
		ownerID:   s.ownerID,
		version:   s.version + 1,
		createdAt: s.createdAt,
		updatedAt: time.Now().UTC(),
	}
	next.setDetails(details)
	return next, nil
}

const earthRadiusKm = 6371.0

// HaversineDistance calculates the distance between two lat/lng points in kilometers.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
