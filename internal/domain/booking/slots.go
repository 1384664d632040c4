package booking

import (
	"iter"
	"time"
)

// Slot is a bookable window with its price.
type Slot struct {
	Start time.Time
	End   time.Time
	Price int64
}

// SlotQuery describes the window to scan and the slot granularity.
type SlotQuery struct {
	Range             Interval
	SlotDurationHours int
	PricePerHour      int64
}

// AvailableSlots yields consecutive slots of SlotDurationHours, starting at
// Range.Start, that fit inside Range and overlap none of reserved. The sequence
// is lazy and can be ranged over more than once.
func AvailableSlots(reserved []Interval, q SlotQuery) iter.Seq[Slot] {
	step := time.Duration(q.SlotDurationHours) * time.Hour
	price := int64(q.SlotDurationHours) * q.PricePerHour

	return func(yield func(Slot) bool) {
		if step <= 0 {
			return
		}
		for cursor := q.Range.Start; !cursor.Add(step).After(q.Range.End); cursor = cursor.Add(step) {
			candidate := Interval{Start: cursor, End: cursor.Add(step)}
			if overlapsAny(candidate, reserved) {
				continue
			}
			if !yield(Slot{Start: candidate.Start, End: candidate.End, Price: price}) {
				return
			}
		}
	}
}

func overlapsAny(candidate Interval, reserved []Interval) bool {
	for _, r := range reserved {
		if candidate.Overlaps(r) {
			return true
		}
	}
	return false
}
