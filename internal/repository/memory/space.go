package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/domain/space"
)

// SpaceRepository implements space.ParkingSpaceRepository in memory. Parking
// spaces are immutable values, so they are stored without copying.
type SpaceRepository struct {
	store *Store
}

var _ space.ParkingSpaceRepository = (*SpaceRepository)(nil)

func (r *SpaceRepository) all() []*space.ParkingSpace {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*space.ParkingSpace, 0, len(r.store.spaces))
	for _, s := range r.store.spaces {
		out = append(out, s)
	}
	return out
}

func (r *SpaceRepository) FindByID(_ context.Context, id uuid.UUID) (*space.ParkingSpace, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.spaces[id]
	if !ok {
		return nil, domain.NewNotFoundError("parking space", id.String())
	}
	return s, nil
}

func (r *SpaceRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*space.ParkingSpace, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*space.ParkingSpace, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.store.spaces[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *SpaceRepository) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*space.ParkingSpace, error) {
	var out []*space.ParkingSpace
	for _, s := range r.all() {
		if s.IsOwnedBy(ownerID) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, space.CompareSpaces(space.SortLatest))
	return out, nil
}

func (r *SpaceRepository) FindWithCoordinates(_ context.Context) ([]*space.ParkingSpace, error) {
	var out []*space.ParkingSpace
	for _, s := range r.all() {
		if _, ok := s.Coordinates(); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *SpaceRepository) Search(_ context.Context, f space.ListFilter) ([]*space.ParkingSpace, int64, error) {
	page, size := domain.NormalizePagination(f.Page, f.Size)
	needle := strings.ToLower(f.Address)

	var matched []*space.ParkingSpace
	for _, s := range r.all() {
		if needle == "" || strings.Contains(strings.ToLower(s.Address()), needle) {
			matched = append(matched, s)
		}
	}
	sortBy := f.Sort
	if sortBy == "" {
		sortBy = space.SortLatest
	}
	slices.SortFunc(matched, space.CompareSpaces(sortBy))

	start, end := domain.PageBounds(len(matched), page, size)
	return matched[start:end], int64(len(matched)), nil
}

func (r *SpaceRepository) Save(_ context.Context, s *space.ParkingSpace) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.spaces[s.ID()]; exists {
		return domain.NewConflictError("parking space already exists: " + s.ID().String())
	}
	r.store.spaces[s.ID()] = s
	return nil
}

func (r *SpaceRepository) Update(_ context.Context, s *space.ParkingSpace) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.spaces[s.ID()]
	if !ok {
		return domain.NewNotFoundError("parking space", s.ID().String())
	}
	if existing.Version() != s.Version()-1 {
		return domain.NewConflictError("parking space was modified concurrently")
	}
	r.store.spaces[s.ID()] = s
	return nil
}
