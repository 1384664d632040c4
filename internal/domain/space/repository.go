package space

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter selects a page of spaces by address substring.
type ListFilter struct {
	Address string
	Sort    SortOrder
	Page    int
	Size    int
}

// ParkingSpaceRepository defines persistence operations for parking spaces.
type ParkingSpaceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ParkingSpace, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*ParkingSpace, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*ParkingSpace, error)
	// FindWithCoordinates returns every space that has both latitude and longitude.
	FindWithCoordinates(ctx context.Context) ([]*ParkingSpace, error)
	// Search returns one page matching filter plus the total match count.
	Search(ctx context.Context, filter ListFilter) ([]*ParkingSpace, int64, error)
	Save(ctx context.Context, space *ParkingSpace) error
	Update(ctx context.Context, space *ParkingSpace) error
}
