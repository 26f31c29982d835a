package model

import "strings"

// Recurrence is the repetition rule of a schedule record.
type Recurrence string

const (
	RecurrenceOnce     Recurrence = "once"
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
	RecurrenceNone     Recurrence = "none"
)

// Normalize lower-cases and trims the value. Unknown kinds are kept as-is so
// that they can be reported, they simply never match a date.
func (r Recurrence) Normalize() Recurrence {
	return Recurrence(strings.ToLower(strings.TrimSpace(string(r))))
}

// Known reports whether r is one of the supported recurrence kinds.
func (r Recurrence) Known() bool {
	switch r.Normalize() {
	case RecurrenceOnce, RecurrenceDaily, RecurrenceWeekly,
		RecurrenceBiweekly, RecurrenceMonthly, RecurrenceNone:
		return true
	}
	return false
}

// ScheduleRecord is a class schedule entry as delivered by the remote API.
// It is never modified here.
type ScheduleRecord struct {
	ID      string `json:"_id,omitempty"`
	Subject string `json:"subject" validate:"required"`
	Room    string `json:"room"`
	Teacher string `json:"teacher,omitempty"`

	// StartTime / EndTime are "HH:MM", 24-hour, same day.
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`

	// Day is a weekday name; only meaningful for weekly, biweekly and
	// monthly records.
	Day        string     `json:"day,omitempty"`
	Recurrence Recurrence `json:"recurrence" validate:"required"`

	// Date is the occurrence date for once/none records and the anchor for
	// everything else.
	Date Date `json:"date"`

	Section    string `json:"section,omitempty"`
	Year       string `json:"year,omitempty"`
	Department string `json:"department,omitempty"`
	CreatedBy  string `json:"createdBy,omitempty"`
}

// Normalize canonicalizes Recurrence (lower case) and Day (English weekday
// name) in place. Unknown day names are left untouched.
func (r *ScheduleRecord) Normalize() {
	r.Recurrence = r.Recurrence.Normalize()
	if wd, ok := ParseWeekday(r.Day); ok {
		r.Day = wd.String()
	}
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
}

// Occurrence is a ScheduleRecord bound to a date it happens on.
type Occurrence struct {
	Record ScheduleRecord
	Date   Date
}

// FreeTimeSlot is an idle interval between two consecutive occurrences.
type FreeTimeSlot struct {
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
}
