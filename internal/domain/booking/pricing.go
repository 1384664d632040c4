package booking

import (
	"time"

	"github.com/parkingmate/service-parking/internal/common/domain"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	Interval     Interval
	PricePerHour int64
}

// HourlyPricingStrategy bills every started hour at the space's hourly rate.
type HourlyPricingStrategy struct{}

// NewHourlyPricingStrategy creates a new HourlyPricingStrategy.
func NewHourlyPricingStrategy() *HourlyPricingStrategy {
	return &HourlyPricingStrategy{}
}

// Calculate rounds the duration up to whole hours: 90 minutes bills as 2 hours.
func (s *HourlyPricingStrategy) Calculate(params PricingParams) (int64, error) {
	if params.PricePerHour < 0 {
		return 0, domain.NewValidationError("price per hour cannot be negative")
	}
	d := params.Interval.Duration()
	if d <= 0 {
		return 0, domain.NewValidationError("end time must be after start time")
	}
	return billableHours(d) * params.PricePerHour, nil
}

func billableHours(d time.Duration) int64 {
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}
