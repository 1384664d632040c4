package space_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/domain/space"
)

func ptr(f float64) *float64 { return &f }

func validDetails() space.Details {
	return space.Details{
		Address:      "Seoul, Jung-gu 1",
		Latitude:     ptr(37.5665),
		Longitude:    ptr(126.9780),
		PricePerHour: 3000,
		Description:  "covered",
		ImageURLs:    []string{"/placeholder/parking-spaces/a.jpg"},
	}
}

func TestNewParkingSpace_Valid(t *testing.T) {
	owner := uuid.New()
	s, err := space.NewParkingSpace(owner, validDetails())
	require.NoError(t, err)

	assert.True(t, s.IsOwnedBy(owner))
	assert.Equal(t, int64(1), s.Version())
	assert.Equal(t, uuid.Version(7), s.ID().Version())
	c, ok := s.Coordinates()
	assert.True(t, ok)
	assert.InDelta(t, 37.5665, c.Latitude, 1e-9)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *space.Details)
		want   string
	}{
		{"missing address", func(d *space.Details) { d.Address = "" }, "address is required"},
		{"negative price", func(d *space.Details) { d.PricePerHour = -1 }, "price_per_hour must be at least 0"},
		{"latitude out of range", func(d *space.Details) { d.Latitude = ptr(91) }, "latitude must be at most 90"},
		{"longitude out of range", func(d *space.Details) { d.Longitude = ptr(-181) }, "longitude must be at least -180"},
		{"latitude without longitude", func(d *space.Details) { d.Longitude = nil }, "provided together"},
		{"too many images", func(d *space.Details) { d.ImageURLs = make([]string, 11) }, "image_urls must be at most 10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(&d)
			err := space.Validate(d)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_NoCoordinatesIsAllowed(t *testing.T) {
	d := validDetails()
	d.Latitude, d.Longitude = nil, nil
	assert.NoError(t, space.Validate(d))
}

func TestApplyUpdate_ReturnsNewRecord(t *testing.T) {
	original, err := space.NewParkingSpace(uuid.New(), validDetails())
	require.NoError(t, err)

	d := validDetails()
	d.Address = "Busan 2"
	d.PricePerHour = 5000
	updated, err := original.ApplyUpdate(d)
	require.NoError(t, err)

	assert.Equal(t, "Busan 2", updated.Address())
	assert.Equal(t, int64(2), updated.Version())
	assert.Equal(t, original.ID(), updated.ID())
	assert.Equal(t, "Seoul, Jung-gu 1", original.Address(), "receiver must not change")
	assert.Equal(t, int64(1), original.Version())
}

func TestApplyUpdate_InvalidLeavesReceiver(t *testing.T) {
	original, err := space.NewParkingSpace(uuid.New(), validDetails())
	require.NoError(t, err)

	_, err = original.ApplyUpdate(space.Details{})
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Seoul, Jung-gu 1", original.Address())
}

func TestImageURLs_AreCopied(t *testing.T) {
	s, err := space.NewParkingSpace(uuid.New(), validDetails())
	require.NoError(t, err)

	urls := s.ImageURLs()
	urls[0] = "mutated"
	assert.Equal(t, "/placeholder/parking-spaces/a.jpg", s.ImageURLs()[0])
}

func TestHaversineDistance(t *testing.T) {
	assert.InDelta(t, 0, space.HaversineDistance(37.5, 127, 37.5, 127), 1e-9)
	// Seoul City Hall to Busan City Hall, roughly 325 km.
	assert.InDelta(t, 325, space.HaversineDistance(37.5663, 126.9779, 35.1798, 129.0750), 5)
}

func TestParseSortOrder(t *testing.T) {
	o, err := space.ParseSortOrder("", space.SortLatest)
	require.NoError(t, err)
	assert.Equal(t, space.SortLatest, o)

	o, err = space.ParseSortOrder("price_desc", space.SortLatest)
	require.NoError(t, err)
	assert.Equal(t, space.SortPriceDesc, o)

	_, err = space.ParseSortOrder("cheapest", space.SortLatest)
	assert.True(t, domain.IsValidation(err))
}
