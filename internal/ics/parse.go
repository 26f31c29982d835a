// Package ics converts class schedules to and from iCalendar.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "classcal/internal/log"
	"classcal/internal/model"
	"classcal/internal/timeofday"
)

// Source is a local .ics timetable merged into the API schedules.
type Source struct {
	ID   string
	Path string
}

// ImportResult lists the records recovered from a calendar and the number of
// VEVENTs that could not be represented as a schedule record.
type ImportResult struct {
	Records []model.ScheduleRecord
	Skipped int
}

// ImportFile reads and parses one local calendar.
func ImportFile(src Source, loc *time.Location) (ImportResult, error) {
	body, err := os.ReadFile(src.Path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("ics: read %s: %w", src.ID, err)
	}
	return ParseSchedules(src, body, loc)
}

// ParseSchedules maps each VEVENT to a schedule record.
//
//   - DTSTART/DTEND are converted to loc and must fall on the same day.
//   - No RRULE means a single event; FREQ=DAILY, WEEKLY (INTERVAL 1 or 2)
//     and MONTHLY map to the matching recurrence kinds.
//   - All-day events, overrides (RECURRENCE-ID) and other rules are skipped.
func ParseSchedules(src Source, body []byte, loc *time.Location) (ImportResult, error) {
	if len(body) == 0 {
		return ImportResult{}, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID)
		return ImportResult{}, err
	}

	var res ImportResult
	for _, ve := range cal.Events() {
		rec, perr := parseVEvent(ve, loc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent skipped", perr, "id", src.ID)
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	appLog.Info("ics import completed", "id", src.ID, "records", len(res.Records), "skipped", res.Skipped)
	return res, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.ScheduleRecord, error) {
	var rec model.ScheduleRecord

	if ve.GetProperty("RECURRENCE-ID") != nil {
		return rec, errors.New("recurrence overrides are not supported")
	}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		rec.ID = strings.TrimSuffix(p.Value, "@"+uidDomain)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		rec.Subject = strings.TrimSpace(p.Value)
	}
	if rec.Subject == "" {
		return rec, errors.New("missing SUMMARY")
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		rec.Room = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		rec.Teacher = strings.TrimSpace(strings.TrimPrefix(p.Value, teacherPrefix))
	}

	if dt := ve.GetProperty(ical.ComponentPropertyDtStart); dt != nil {
		if vs := dt.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return rec, errors.New("all-day events are not supported")
		}
		if !strings.Contains(dt.Value, "T") {
			return rec, errors.New("all-day events are not supported")
		}
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return rec, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return rec, fmt.Errorf("DTEND: %w", err)
	}
	start, end = start.In(loc), end.In(loc)

	day := model.DateOf(start)
	if model.DateOf(end) != day || !end.After(start) {
		return rec, errors.New("event must start and end on the same day")
	}
	rec.Date = day
	rec.Day = start.Weekday().String()
	rec.StartTime = timeofday.FromMinutes(start.Hour()*60 + start.Minute())
	rec.EndTime = timeofday.FromMinutes(end.Hour()*60 + end.Minute())

	rec.Recurrence = model.RecurrenceOnce
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		kind, err := recurrenceFromRule(p.Value, start.Weekday(), day)
		if err != nil {
			return rec, err
		}
		rec.Recurrence = kind
	}
	return rec, nil
}

// recurrenceFromRule accepts only the rules that Export produces, with or
// without a redundant BYDAY/BYMONTHDAY matching DTSTART.
func recurrenceFromRule(raw string, wd time.Weekday, day model.Date) (model.Recurrence, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return "", fmt.Errorf("RRULE: %w", err)
	}
	if opt.Count > 0 || !opt.Until.IsZero() {
		return "", errors.New("bounded RRULE is not supported")
	}

	interval := opt.Interval
	if interval == 0 {
		interval = 1
	}

	switch opt.Freq {
	case rrule.DAILY:
		if interval == 1 && len(opt.Byweekday) == 0 {
			return model.RecurrenceDaily, nil
		}
	case rrule.WEEKLY:
		if !onlyWeekday(opt.Byweekday, wd) {
			break
		}
		switch interval {
		case 1:
			return model.RecurrenceWeekly, nil
		case 2:
			return model.RecurrenceBiweekly, nil
		}
	case rrule.MONTHLY:
		if interval == 1 && len(opt.Byweekday) == 0 &&
			(len(opt.Bymonthday) == 0 || (len(opt.Bymonthday) == 1 && opt.Bymonthday[0] == day.Day)) {
			return model.RecurrenceMonthly, nil
		}
	}
	return "", fmt.Errorf("unsupported RRULE %q", raw)
}

func onlyWeekday(days []rrule.Weekday, wd time.Weekday) bool {
	switch len(days) {
	case 0:
		return true
	case 1:
		return days[0] == rruleWeekday(wd)
	}
	return false
}
