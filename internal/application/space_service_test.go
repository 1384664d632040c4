package application_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/domain/space"
)

func TestSpaceService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	id := f.createSpace(t, owner, 3000)

	got, err := f.spaces.GetSpace(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "owner", got.OwnerName)
	assert.Equal(t, int64(3000), got.PricePerHour)

	_, err = f.spaces.GetSpace(ctx, uuid.New())
	assert.True(t, domain.IsNotFound(err))
}

func TestSpaceService_CreateRejectsInvalidDetails(t *testing.T) {
	f := newFixture(t)
	owner := f.signUp(t, "owner")

	_, err := f.spaces.CreateSpace(context.Background(), owner, application.SpaceRequest{
		Address:  "somewhere",
		Latitude: ptr(37.5),
	})
	assert.True(t, domain.IsValidation(err))
}

func TestSpaceService_UpdateOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	stranger := f.signUp(t, "stranger")
	id := f.createSpace(t, owner, 3000)

	req := application.SpaceRequest{Address: "Busan 2", PricePerHour: 4000}
	_, err := f.spaces.UpdateSpace(ctx, stranger, id, req)
	assert.True(t, domain.IsForbidden(err))

	updated, err := f.spaces.UpdateSpace(ctx, owner, id, req)
	require.NoError(t, err)
	assert.Equal(t, "Busan 2", updated.Address)
	assert.Nil(t, updated.Latitude, "update is a full replacement")
	assert.Empty(t, updated.ImageURLs)
}

func TestSpaceService_ListSpaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	for _, p := range []int64{3000, 1000, 2000} {
		f.createSpace(t, owner, p)
	}

	page, err := f.spaces.ListSpaces(ctx, "jung-gu", space.SortPriceAsc, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(1000), page.Items[0].PricePerHour)
	assert.Equal(t, int64(2000), page.Items[1].PricePerHour)

	latest, err := f.spaces.ListSpaces(ctx, "", "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), latest.Items[0].PricePerHour, "default sort is newest first")
	assert.Equal(t, domain.DefaultPageSize, latest.Size)

	_, err = f.spaces.ListSpaces(ctx, "", space.SortDistance, 0, 10)
	assert.True(t, domain.IsValidation(err))
}

func TestSpaceService_SearchByLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	near := f.createSpace(t, owner, 1000)
	_, err := f.spaces.CreateSpace(ctx, owner, application.SpaceRequest{
		Address: "Busan", Latitude: ptr(35.1798), Longitude: ptr(129.0750), PricePerHour: 1000,
	})
	require.NoError(t, err)
	_, err = f.spaces.CreateSpace(ctx, owner, application.SpaceRequest{Address: "No coords", PricePerHour: 1000})
	require.NoError(t, err)

	res, err := f.spaces.SearchByLocation(ctx, application.LocationSearchRequest{
		Latitude: ptr(37.5665), Longitude: ptr(126.9780),
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, near, res.Items[0].ID)
	require.NotNil(t, res.Items[0].DistanceKm)
	assert.InDelta(t, 0, *res.Items[0].DistanceKm, 1e-6)
	assert.Equal(t, "owner", res.Items[0].OwnerName)

	_, err = f.spaces.SearchByLocation(ctx, application.LocationSearchRequest{Latitude: ptr(37.5)})
	assert.True(t, domain.IsValidation(err))
}

func TestSpaceService_DeleteSpace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	renter := f.signUp(t, "renter")
	id := f.createSpace(t, owner, 1000)

	bk, err := f.bookings.CreateBooking(ctx, renter, bookingReq(id, at(10, 0), at(11, 0)))
	require.NoError(t, err)

	assert.True(t, domain.IsForbidden(f.spaces.DeleteSpace(ctx, renter, id)))

	err = f.spaces.DeleteSpace(ctx, owner, id)
	require.True(t, domain.IsConflict(err), "future reservations block deletion")

	_, err = f.bookings.CancelBooking(ctx, renter, bk.ID)
	require.NoError(t, err)

	require.NoError(t, f.spaces.DeleteSpace(ctx, owner, id))
	assert.Equal(t, []string{"/placeholder/parking-spaces/a.jpg"}, f.images.deleted)

	_, err = f.spaces.GetSpace(ctx, id)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(f.spaces.DeleteSpace(ctx, owner, id)))
}

func TestSpaceService_ListMySpaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner")
	other := f.signUp(t, "other")
	first := f.createSpace(t, owner, 1000)
	second := f.createSpace(t, owner, 1000)
	f.createSpace(t, other, 1000)

	mine, err := f.spaces.ListMySpaces(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second, mine[0].ID)
	assert.Equal(t, first, mine[1].ID)
}
