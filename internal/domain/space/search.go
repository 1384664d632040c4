package space

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/parkingmate/service-parking/internal/common/domain"
)

// SortOrder selects how search results are ordered.
type SortOrder string

const (
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortDistance  SortOrder = "distance"
	SortLatest    SortOrder = "latest"
)

// DefaultRadiusKm is used when a location search gives no radius.
const DefaultRadiusKm = 5.0

// ParseSortOrder maps a query value to a SortOrder. Empty input yields fallback.
func ParseSortOrder(raw string, fallback SortOrder) (SortOrder, error) {
	switch o := SortOrder(raw); o {
	case "":
		return fallback, nil
	case SortPriceAsc, SortPriceDesc, SortDistance, SortLatest:
		return o, nil
	default:
		return "", domain.NewValidationError("unsupported sortBy: " + raw)
	}
}

// LocationQuery describes a radius search around Origin.
type LocationQuery struct {
	Origin   Coordinates
	RadiusKm float64
	Sort     SortOrder
	Page     int
	Size     int
}

// Match is a space within the search radius together with its distance.
type Match struct {
	Space      *ParkingSpace
	DistanceKm float64
}

// SearchByLocation filters candidates to those within q.RadiusKm of q.Origin,
// orders them by q.Sort and returns the requested page. Spaces without
// coordinates never match. Ties are broken by id descending so paging is stable.
func SearchByLocation(candidates []*ParkingSpace, q LocationQuery) domain.PaginatedResult[Match] {
	page, size := domain.NormalizePagination(q.Page, q.Size)
	radius := q.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}

	matches := make([]Match, 0, len(candidates))
	for _, s := range candidates {
		d, ok := s.DistanceTo(q.Origin)
		if !ok || d > radius {
			continue
		}
		matches = append(matches, Match{Space: s, DistanceKm: d})
	}

	sortBy := q.Sort
	if sortBy == "" {
		sortBy = SortDistance
	}
	slices.SortFunc(matches, compareMatches(sortBy))

	start, end := domain.PageBounds(len(matches), page, size)
	return domain.NewPaginatedResult(matches[start:end], int64(len(matches)), page, size)
}

func compareMatches(order SortOrder) func(a, b Match) int {
	bySpace := CompareSpaces(order)
	return func(a, b Match) int {
		if order == SortDistance {
			if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
				return c
			}
		}
		return bySpace(a.Space, b.Space)
	}
}

// CompareSpaces orders spaces by order, breaking ties by id descending.
// SortDistance has no meaning without an origin and falls through to the tie-break.
func CompareSpaces(order SortOrder) func(a, b *ParkingSpace) int {
	return func(a, b *ParkingSpace) int {
		var c int
		switch order {
		case SortPriceAsc:
			c = cmp.Compare(a.pricePerHour, b.pricePerHour)
		case SortPriceDesc:
			c = cmp.Compare(b.pricePerHour, a.pricePerHour)
		case SortLatest:
			c = b.createdAt.Compare(a.createdAt)
		}
		if c != 0 {
			return c
		}
		return bytes.Compare(b.id[:], a.id[:])
	}
}
