package schedule

import (
	"time"

	"classcal/internal/model"
	"classcal/internal/timeofday"
)

// Day is a materialized date: its classes in order and the breaks between
// them.
type Day struct {
	Date        model.Date
	Occurrences []model.Occurrence
	FreeSlots   []model.FreeTimeSlot
	Skipped     []SkippedRecord
}

// BuildDay materializes day and computes its free slots in one pass.
func BuildDay(records []model.ScheduleRecord, day model.Date, minGap int) Day {
	res := Materialize(records, day)
	return Day{
		Date:        day,
		Occurrences: res.Occurrences,
		FreeSlots:   FreeSlots(res.Occurrences, minGap),
		Skipped:     res.Skipped,
	}
}

// DayCount is the number of classes on one date.
type DayCount struct {
	Date  model.Date `json:"date"`
	Count int        `json:"count"`
}

// MonthCounts returns, for every date of the given month, how many classes
// take place on it. Malformed records are not counted.
func MonthCounts(records []model.ScheduleRecord, year int, month time.Month) []DayCount {
	first := model.NewDate(year, month, 1)
	out := make([]DayCount, 0, 31)
	for d := first; d.Month == first.Month; d = d.AddDays(1) {
		res := materialize(records, d)
		out = append(out, DayCount{Date: d, Count: len(res.Occurrences)})
	}
	return out
}

// Phase places an occurrence relative to a moment.
type Phase string

const (
	PhasePast     Phase = "past"
	PhaseOngoing  Phase = "ongoing"
	PhaseUpcoming Phase = "upcoming"
)

// Status describes an occurrence as seen at a given moment.
type Status struct {
	Phase Phase `json:"phase"`
	// MinutesToStart is negative once the class has started.
	MinutesToStart int `json:"minutesToStart"`
	// MinutesToEnd is negative once the class is over.
	MinutesToEnd int `json:"minutesToEnd"`
}

// StatusAt evaluates occ against now. The occurrence's wall-clock times are
// interpreted in now's location.
func StatusAt(occ model.Occurrence, now time.Time) (Status, error) {
	start, err := timeofday.ToMinutes(occ.Record.StartTime)
	if err != nil {
		return Status{}, err
	}
	end, err := timeofday.ToMinutes(occ.Record.EndTime)
	if err != nil {
		return Status{}, err
	}

	startAt := occ.Date.At(start, now.Location())
	endAt := occ.Date.At(end, now.Location())

	st := Status{
		MinutesToStart: minutesBetween(now, startAt),
		MinutesToEnd:   minutesBetween(now, endAt),
	}
	switch {
	case now.Before(startAt):
		st.Phase = PhaseUpcoming
	case now.Before(endAt):
		st.Phase = PhaseOngoing
	default:
		st.Phase = PhasePast
	}
	return st, nil
}

// minutesBetween truncates toward zero.
func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}
