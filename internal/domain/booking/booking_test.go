package booking_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/domain/booking"
)

var day = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func mustInterval(t *testing.T, start, end time.Time) booking.Interval {
	t.Helper()
	iv, err := booking.NewInterval(start, end)
	require.NoError(t, err)
	return iv
}

func TestNewInterval_RejectsEmptyOrInverted(t *testing.T) {
	_, err := booking.NewInterval(at(10, 0), at(10, 0))
	assert.True(t, domain.IsValidation(err))

	_, err = booking.NewInterval(at(11, 0), at(10, 0))
	assert.True(t, domain.IsValidation(err))

	_, err = booking.NewInterval(time.Time{}, at(10, 0))
	assert.True(t, domain.IsValidation(err))
}

func TestInterval_Overlaps(t *testing.T) {
	base := booking.Interval{Start: at(10, 0), End: at(12, 0)}

	tests := []struct {
		name  string
		other booking.Interval
		want  bool
	}{
		{"identical", booking.Interval{Start: at(10, 0), End: at(12, 0)}, true},
		{"inside", booking.Interval{Start: at(10, 30), End: at(11, 0)}, true},
		{"straddles start", booking.Interval{Start: at(9, 0), End: at(10, 30)}, true},
		{"straddles end", booking.Interval{Start: at(11, 30), End: at(13, 0)}, true},
		{"touches end", booking.Interval{Start: at(12, 0), End: at(13, 0)}, false},
		{"touches start", booking.Interval{Start: at(9, 0), End: at(10, 0)}, false},
		{"disjoint", booking.Interval{Start: at(14, 0), End: at(15, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestHourlyPricing_RoundsUpPartialHours(t *testing.T) {
	pricing := booking.NewHourlyPricingStrategy()

	tests := []struct {
		name  string
		end   time.Time
		price int64
	}{
		{"one hour", at(11, 0), 5000},
		{"ninety minutes", at(11, 30), 10000},
		{"two hours", at(12, 0), 10000},
		{"one minute", at(10, 1), 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pricing.Calculate(booking.PricingParams{
				Interval:     booking.Interval{Start: at(10, 0), End: tt.end},
				PricePerHour: 5000,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.price, got)
		})
	}
}

func TestHourlyPricing_ZeroRateIsFree(t *testing.T) {
	got, err := booking.NewHourlyPricingStrategy().Calculate(booking.PricingParams{
		Interval: booking.Interval{Start: at(10, 0), End: at(13, 0)},
	})
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestHourlyPricing_RejectsInvalidInput(t *testing.T) {
	pricing := booking.NewHourlyPricingStrategy()

	_, err := pricing.Calculate(booking.PricingParams{
		Interval:     booking.Interval{Start: at(10, 0), End: at(10, 0)},
		PricePerHour: 5000,
	})
	assert.True(t, domain.IsValidation(err))

	_, err = pricing.Calculate(booking.PricingParams{
		Interval:     booking.Interval{Start: at(10, 0), End: at(11, 0)},
		PricePerHour: -1,
	})
	assert.True(t, domain.IsValidation(err))
}

func TestBooking_CancelTransitions(t *testing.T) {
	b, err := booking.NewBooking(uuid.New(), uuid.New(), mustInterval(t, at(10, 0), at(11, 0)), 5000)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusReserved, b.Status())
	assert.True(t, b.IsActive())
	assert.Nil(t, b.CanceledAt())

	require.NoError(t, b.Cancel())
	assert.Equal(t, booking.StatusCanceled, b.Status())
	assert.NotNil(t, b.CanceledAt())
	assert.False(t, b.IsActive())

	err = b.Cancel()
	assert.True(t, domain.IsConflict(err), "second cancel must be a conflict")
}

func TestParseBookingStatus(t *testing.T) {
	status, err := booking.ParseBookingStatus("RESERVED")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusReserved, status)
	assert.False(t, status.IsTerminal())

	status, err = booking.ParseBookingStatus("CANCELED")
	require.NoError(t, err)
	assert.True(t, status.IsTerminal())

	for _, raw := range []string{"", "reserved", "EXPIRED"} {
		_, err := booking.ParseBookingStatus(raw)
		assert.Error(t, err, raw)
	}
}

func TestNewBooking_IDsAreTimeOrdered(t *testing.T) {
	iv := mustInterval(t, at(10, 0), at(11, 0))
	first, err := booking.NewBooking(uuid.New(), uuid.New(), iv, 0)
	require.NoError(t, err)
	second, err := booking.NewBooking(uuid.New(), uuid.New(), iv, 0)
	require.NoError(t, err)

	assert.Equal(t, uuid.Version(7), first.ID().Version())
	assert.Less(t, first.ID().String(), second.ID().String())
}
