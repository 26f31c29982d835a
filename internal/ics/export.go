package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "classcal/internal/log"
	"classcal/internal/model"
	"classcal/internal/timeofday"
)

const (
	productID = "-//classcal//class schedule//EN"
	uidDomain = "classcal"
)

// uidNamespace seeds deterministic UIDs for records without an id.
var uidNamespace = uuid.MustParse("9b3f7c3e-4a57-4f0c-9d8e-0f6f1f6b2a11")

var errUnsupportedRecurrence = errors.New("unsupported recurrence")

// ExportOptions controls iCalendar generation.
type ExportOptions struct {
	// Location interprets the records' wall-clock times. Nil means time.Local.
	Location *time.Location
	// Now stamps DTSTAMP and anchors daily/weekly records that carry no date.
	Now time.Time
	// Name is written as X-WR-CALNAME when set.
	Name string
}

// ExportResult is the serialized calendar and the records left out of it.
type ExportResult struct {
	Calendar string
	Events   int
	Skipped  []SkippedRecord
}

type SkippedRecord struct {
	Record model.ScheduleRecord
	Err    error
}

// Export renders records as an iCalendar feed with one VEVENT per record.
// Recurring records carry an RRULE whose DTSTART is the first date the
// record occurs on at or after its anchor date.
func Export(records []model.ScheduleRecord, opts ExportOptions) ExportResult {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	cal.SetXWRTimezone(opts.Location.String())

	var res ExportResult
	for _, rec := range records {
		if err := addEvent(cal, rec, opts); err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{Record: rec, Err: err})
			appLog.Error("ics export: skipping record", err, "id", rec.ID, "subject", rec.Subject)
			continue
		}
		res.Events++
	}

	res.Calendar = cal.Serialize()
	return res
}

func addEvent(cal *ical.Calendar, rec model.ScheduleRecord, opts ExportOptions) error {
	start, err := timeofday.ToMinutes(rec.StartTime)
	if err != nil {
		return err
	}
	end, err := timeofday.ToMinutes(rec.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("end %s is not after start %s", rec.EndTime, rec.StartTime)
	}

	first, rule, err := recurrenceRule(rec, model.DateOf(opts.Now.In(opts.Location)))
	if err != nil {
		return err
	}

	ev := cal.AddEvent(eventUID(rec))
	ev.SetDtStampTime(opts.Now)
	ev.SetStartAt(first.At(start, opts.Location))
	ev.SetEndAt(first.At(end, opts.Location))
	ev.SetSummary(rec.Subject)
	if rec.Room != "" {
		ev.SetLocation(rec.Room)
	}
	if rec.Teacher != "" {
		ev.SetDescription(teacherPrefix + rec.Teacher)
	}
	if rule != "" {
		ev.AddProperty(ical.ComponentPropertyRrule, rule)
	}
	return nil
}

const teacherPrefix = "Teacher: "

// recurrenceRule returns the first occurrence date and the RRULE value
// (empty for single events).
func recurrenceRule(rec model.ScheduleRecord, today model.Date) (model.Date, string, error) {
	anchor := rec.Date

	switch rec.Recurrence.Normalize() {
	case model.RecurrenceOnce, model.RecurrenceNone:
		if anchor.IsZero() {
			return model.Date{}, "", errors.New("single event without a date")
		}
		return anchor, "", nil

	case model.RecurrenceDaily:
		if anchor.IsZero() {
			anchor = today
		}
		opt := rrule.ROption{Freq: rrule.DAILY}
		return anchor, opt.RRuleString(), nil

	case model.RecurrenceWeekly, model.RecurrenceBiweekly:
		wd, ok := model.ParseWeekday(rec.Day)
		if !ok {
			return model.Date{}, "", fmt.Errorf("unknown weekday %q", rec.Day)
		}
		if anchor.IsZero() {
			if rec.Recurrence.Normalize() == model.RecurrenceBiweekly {
				return model.Date{}, "", errors.New("biweekly record without an anchor date")
			}
			anchor = today
		}
		opt := rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rruleWeekday(wd)},
		}
		if rec.Recurrence.Normalize() == model.RecurrenceBiweekly {
			opt.Interval = 2
		}
		return firstWeekday(anchor, wd), opt.RRuleString(), nil

	case model.RecurrenceMonthly:
		if anchor.IsZero() {
			return model.Date{}, "", errors.New("monthly record without an anchor date")
		}
		opt := rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: []int{anchor.Day}}
		return anchor, opt.RRuleString(), nil
	}

	return model.Date{}, "", fmt.Errorf("%w %q", errUnsupportedRecurrence, rec.Recurrence)
}

// firstWeekday returns the first date on or after d that falls on wd.
func firstWeekday(d model.Date, wd time.Weekday) model.Date {
	return d.AddDays((int(wd) - int(d.Weekday()) + 7) % 7)
}

func rruleWeekday(wd time.Weekday) rrule.Weekday {
	return [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}[wd]
}

func eventUID(rec model.ScheduleRecord) string {
	if rec.ID != "" {
		return rec.ID + "@" + uidDomain
	}
	key := rec.Subject + "|" + rec.StartTime + "|" + rec.EndTime + "|" + string(rec.Recurrence) + "|" + rec.Day + "|" + rec.Date.String()
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@" + uidDomain
}
