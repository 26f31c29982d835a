package schedule

import (
	"classcal/internal/model"
	"classcal/internal/timeofday"
)

// DefaultMinGapMinutes is the shortest break worth showing.
const DefaultMinGapMinutes = 30

// FreeSlots returns the gaps of at least minGap minutes between consecutive
// occurrences. occurrences must already be sorted by start time (as
// Materialize returns them).
//
// Overlapping or back-to-back classes produce no slot, and neither does a
// pair with an unparsable time.
func FreeSlots(occurrences []model.Occurrence, minGap int) []model.FreeTimeSlot {
	slots := make([]model.FreeTimeSlot, 0)

	for i := 0; i+1 < len(occurrences); i++ {
		cur := occurrences[i].Record
		next := occurrences[i+1].Record

		gap, err := timeofday.Duration(cur.EndTime, next.StartTime)
		if err != nil || gap <= 0 || gap < minGap {
			continue
		}
		slots = append(slots, model.FreeTimeSlot{
			StartTime:       cur.EndTime,
			EndTime:         next.StartTime,
			DurationMinutes: gap,
		})
	}
	return slots
}
