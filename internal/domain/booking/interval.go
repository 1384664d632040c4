package booking

import (
	"time"

	"github.com/parkingmate/service-parking/internal/common/domain"
)

// Interval is a half-open time window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates that both bounds are set and Start < End.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, domain.NewValidationError("start time and end time are required")
	}
	if !start.Before(end) {
		return Interval{}, domain.NewValidationError("start time must be before end time")
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps reports whether the two windows share at least one instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
