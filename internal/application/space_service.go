package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parkingmate/service-parking/internal/common/domain"
	bookingDomain "github.com/parkingmate/service-parking/internal/domain/booking"
	spaceDomain "github.com/parkingmate/service-parking/internal/domain/space"
	userDomain "github.com/parkingmate/service-parking/internal/domain/user"
	"github.com/parkingmate/service-parking/internal/lock"
)

// SpaceRequest is the request DTO for creating or replacing a parking space.
type SpaceRequest struct {
	Address      string   `json:"address" binding:"required,max=255"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	PricePerHour int64    `json:"price_per_hour" binding:"gte=0"`
	Description  string   `json:"description"`
	ImageURLs    []string `json:"image_urls"`
}

func (r SpaceRequest) details() spaceDomain.Details {
	return spaceDomain.Details{
		Address:      r.Address,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		PricePerHour: r.PricePerHour,
		Description:  r.Description,
		ImageURLs:    r.ImageURLs,
	}
}

// LocationSearchRequest describes a radius search. Latitude and Longitude are required.
type LocationSearchRequest struct {
	Latitude  *float64
	Longitude *float64
	RadiusKm  float64
	Sort      spaceDomain.SortOrder
	Page      int
	Size      int
}

// SpaceDTO is the API response representation of a parking space.
type SpaceDTO struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	OwnerName    string    `json:"owner_name,omitempty"`
	Address      string    `json:"address"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	PricePerHour int64     `json:"price_per_hour"`
	Description  string    `json:"description,omitempty"`
	ImageURLs    []string  `json:"image_urls"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SpaceService handles parking space use cases.
type SpaceService struct {
	repo       spaceDomain.ParkingSpaceRepository
	bookings   bookingDomain.BookingRepository
	users      userDomain.UserRepository
	identities IdentityResolver
	guard      *lock.Guard
	images     ImageStore
	logger     *zap.Logger
}

// NewSpaceService creates a new SpaceService.
func NewSpaceService(
	repo spaceDomain.ParkingSpaceRepository,
	bookings bookingDomain.BookingRepository,
	users userDomain.UserRepository,
	identities IdentityResolver,
	guard *lock.Guard,
	images ImageStore,
	logger *zap.Logger,
) *SpaceService {
	return &SpaceService{
		repo:       repo,
		bookings:   bookings,
		users:      users,
		identities: identities,
		guard:      guard,
		images:     images,
		logger:     logger,
	}
}

// CreateSpace lists a new space owned by the caller.
func (s *SpaceService) CreateSpace(ctx context.Context, identity string, req SpaceRequest) (*SpaceDTO, error) {
	owner, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	sp, err := spaceDomain.NewParkingSpace(owner.ID(), req.details())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sp); err != nil {
		return nil, err
	}

	s.logger.Info("parking space created",
		zap.String("parking_space_id", sp.ID().String()),
		zap.String("owner_id", owner.ID().String()),
	)
	dto := toSpaceDTO(sp, owner.Name())
	return &dto, nil
}

// GetSpace returns a single space.
func (s *SpaceService) GetSpace(ctx context.Context, id uuid.UUID) (*SpaceDTO, error) {
	sp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dtos, err := s.withOwners(ctx, []*spaceDomain.ParkingSpace{sp}, nil)
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

// ListSpaces pages through spaces filtered by address substring.
func (s *SpaceService) ListSpaces(ctx context.Context, address string, sort spaceDomain.SortOrder, page, size int) (domain.PaginatedResult[SpaceDTO], error) {
	if sort == spaceDomain.SortDistance {
		return domain.PaginatedResult[SpaceDTO]{}, domain.NewValidationError("sortBy distance requires a location search")
	}
	if sort == "" {
		sort = spaceDomain.SortLatest
	}
	page, size = domain.NormalizePagination(page, size)

	spaces, total, err := s.repo.Search(ctx, spaceDomain.ListFilter{Address: address, Sort: sort, Page: page, Size: size})
	if err != nil {
		return domain.PaginatedResult[SpaceDTO]{}, err
	}
	dtos, err := s.withOwners(ctx, spaces, nil)
	if err != nil {
		return domain.PaginatedResult[SpaceDTO]{}, err
	}
	return domain.NewPaginatedResult(dtos, total, page, size), nil
}

// ListMySpaces returns the caller's spaces, newest first.
func (s *SpaceService) ListMySpaces(ctx context.Context, identity string) ([]SpaceDTO, error) {
	owner, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	spaces, err := s.repo.FindByOwnerID(ctx, owner.ID())
	if err != nil {
		return nil, err
	}
	dtos := make([]SpaceDTO, len(spaces))
	for i, sp := range spaces {
		dtos[i] = toSpaceDTO(sp, owner.Name())
	}
	return dtos, nil
}

// SearchByLocation returns spaces within the radius of a point with their distances.
func (s *SpaceService) SearchByLocation(ctx context.Context, req LocationSearchRequest) (domain.PaginatedResult[SpaceDTO], error) {
	if req.Latitude == nil || req.Longitude == nil {
		return domain.PaginatedResult[SpaceDTO]{}, domain.NewValidationError("lat and lon are required")
	}
	if req.RadiusKm < 0 {
		return domain.PaginatedResult[SpaceDTO]{}, domain.NewValidationError("radiusKm must not be negative")
	}

	candidates, err := s.repo.FindWithCoordinates(ctx)
	if err != nil {
		return domain.PaginatedResult[SpaceDTO]{}, err
	}
	result := spaceDomain.SearchByLocation(candidates, spaceDomain.LocationQuery{
		Origin:   spaceDomain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude},
		RadiusKm: req.RadiusKm,
		Sort:     req.Sort,
		Page:     req.Page,
		Size:     req.Size,
	})

	spaces := make([]*spaceDomain.ParkingSpace, len(result.Items))
	distances := make([]float64, len(result.Items))
	for i, m := range result.Items {
		spaces[i] = m.Space
		distances[i] = m.DistanceKm
	}
	dtos, err := s.withOwners(ctx, spaces, distances)
	if err != nil {
		return domain.PaginatedResult[SpaceDTO]{}, err
	}
	return domain.NewPaginatedResult(dtos, result.TotalElements, result.Page, result.Size), nil
}

// UpdateSpace replaces the space's details. Only the owner may update.
func (s *SpaceService) UpdateSpace(ctx context.Context, identity string, id uuid.UUID, req SpaceRequest) (*SpaceDTO, error) {
	owner, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	sp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sp.IsOwnedBy(owner.ID()) {
		return nil, domain.NewForbiddenError("you can only update your own parking spaces")
	}

	updated, err := sp.ApplyUpdate(req.details())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}

	dto := toSpaceDTO(updated, owner.Name())
	return &dto, nil
}

// DeleteSpace removes a space owned by the caller. Spaces with RESERVED
// bookings that have not ended yet cannot be deleted.
func (s *SpaceService) DeleteSpace(ctx context.Context, identity string, id uuid.UUID) error {
	owner, err := s.identities.Resolve(ctx, identity)
	if err != nil {
		return err
	}

	var deleted *spaceDomain.ParkingSpace
	err = s.guard.Run(ctx, BookingLockKey(id), func(ctx context.Context) error {
		sp, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !sp.IsOwnedBy(owner.ID()) {
			return domain.NewForbiddenError("you can only delete your own parking spaces")
		}
		// The space row lock orders this against createBooking even when the
		// coordinator failed open.
		err = s.bookings.WithinTransaction(ctx, func(tx bookingDomain.BookingRepository) error {
			if err := tx.LockParkingSpace(ctx, id); err != nil {
				return err
			}
			active, err := tx.HasActiveReservations(ctx, id, time.Now().UTC())
			if err != nil {
				return err
			}
			if active {
				return domain.NewConflictError("parking space has active reservations")
			}
			return tx.DeleteParkingSpace(ctx, id)
		})
		if err != nil {
			return err
		}
		deleted = sp
		return nil
	})
	if errors.Is(err, lock.ErrBusy) {
		return domain.NewConflictError("booking in progress")
	}
	if err != nil {
		return err
	}

	for _, url := range deleted.ImageURLs() {
		if err := s.images.Delete(ctx, url); err != nil {
			s.logger.Warn("failed to delete parking space image",
				zap.String("parking_space_id", id.String()),
				zap.String("url", url),
				zap.Error(err),
			)
		}
	}
	s.logger.Info("parking space deleted", zap.String("parking_space_id", id.String()))
	return nil
}

// withOwners converts spaces to DTOs with owner names; distances may be nil.
func (s *SpaceService) withOwners(ctx context.Context, spaces []*spaceDomain.ParkingSpace, distances []float64) ([]SpaceDTO, error) {
	ownerIDs := make([]uuid.UUID, 0, len(spaces))
	for _, sp := range spaces {
		ownerIDs = append(ownerIDs, sp.OwnerID())
	}
	owners, err := s.users.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(owners))
	for _, u := range owners {
		names[u.ID()] = u.Name()
	}

	dtos := make([]SpaceDTO, len(spaces))
	for i, sp := range spaces {
		dtos[i] = toSpaceDTO(sp, names[sp.OwnerID()])
		if distances != nil {
			d := distances[i]
			dtos[i].DistanceKm = &d
		}
	}
	return dtos, nil
}

func toSpaceDTO(sp *spaceDomain.ParkingSpace, ownerName string) SpaceDTO {
	return SpaceDTO{
		ID:           sp.ID(),
		OwnerID:      sp.OwnerID(),
		OwnerName:    ownerName,
		Address:      sp.Address(),
		Latitude:     sp.Latitude(),
		Longitude:    sp.Longitude(),
		PricePerHour: sp.PricePerHour(),
		Description:  sp.Description(),
		ImageURLs:    sp.ImageURLs(),
		CreatedAt:    sp.CreatedAt(),
		UpdatedAt:    sp.UpdatedAt(),
	}
}
