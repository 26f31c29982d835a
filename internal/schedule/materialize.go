package schedule

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	appLog "classcal/internal/log"
	"classcal/internal/model"
	"classcal/internal/timeofday"
)

// ErrEmptySpan is reported for records whose end time is not after their
// start time.
var ErrEmptySpan = errors.New("schedule: end time is not after start time")

// SkippedRecord is a record that matched the date but could not be placed
// on it.
type SkippedRecord struct {
	Record model.ScheduleRecord
	Err    error
}

// MaterializeResult holds one date's occurrences plus the records that were
// dropped on the way.
type MaterializeResult struct {
	Date        model.Date
	Occurrences []model.Occurrence
	Skipped     []SkippedRecord
}

// Materialize returns the occurrences of records on day, ordered by start
// time. Records with equal start times keep their input order. A record
// with malformed times is skipped and reported instead of failing the day.
func Materialize(records []model.ScheduleRecord, day model.Date) MaterializeResult {
	res := materialize(records, day)
	for _, s := range res.Skipped {
		appLog.Error("materialize: skipping schedule record", s.Err,
			"id", s.Record.ID,
			"subject", s.Record.Subject,
			"date", day.String(),
		)
	}
	return res
}

func materialize(records []model.ScheduleRecord, day model.Date) MaterializeResult {
	res := MaterializeResult{
		Date:        day,
		Occurrences: make([]model.Occurrence, 0),
	}

	type keyed struct {
		occ   model.Occurrence
		start int
	}
	matched := make([]keyed, 0, len(records))

	for _, rec := range records {
		if !Matches(rec, day) {
			continue
		}
		start, err := checkSpan(rec)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{Record: rec, Err: err})
			continue
		}
		matched = append(matched, keyed{occ: model.Occurrence{Record: rec, Date: day}, start: start})
	}

	// Minute offsets order the same as zero-padded "HH:MM" strings and also
	// tolerate single-digit hours.
	slices.SortStableFunc(matched, func(a, b keyed) int {
		return cmp.Compare(a.start, b.start)
	})

	for _, k := range matched {
		res.Occurrences = append(res.Occurrences, k.occ)
	}
	return res
}

// checkSpan validates a record's times and returns its start offset.
func checkSpan(rec model.ScheduleRecord) (int, error) {
	start, err := timeofday.ToMinutes(rec.StartTime)
	if err != nil {
		return 0, fmt.Errorf("start time: %w", err)
	}
	end, err := timeofday.ToMinutes(rec.EndTime)
	if err != nil {
		return 0, fmt.Errorf("end time: %w", err)
	}
	if end <= start {
		return 0, fmt.Errorf("%w (%s-%s)", ErrEmptySpan, rec.StartTime, rec.EndTime)
	}
	return start, nil
}
