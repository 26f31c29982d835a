package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Timestamp is a lenient instant: RFC 3339 or "YYYY-MM-DD". Values that do
// not parse decode as the zero Timestamp, which callers treat as absent.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null, numbers and other shapes count as absent.
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	if v, err := time.Parse(dateLayout, s); err == nil {
		t.Time = v
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Reminder is a personal to-do attached to a subject.
type Reminder struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty"`
	Date        Timestamp `json:"date"`
	Time        string    `json:"time,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority,omitempty"`
	RelatedTo   string    `json:"relatedTo,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryAcademic   Category = "academic"
	CategoryEvent      Category = "event"
	CategoryOther      Category = "other"
	CategoryAssignment Category = "assignment"
	CategoryExam       Category = "exam"
)

// Announcement is a class-wide notice.
type Announcement struct {
	ID        string    `json:"_id,omitempty"`
	Title     string    `json:"title" validate:"required"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	Date      Timestamp `json:"date"`
	Urgent    bool      `json:"urgent"`
	Category  Category  `json:"category,omitempty"`
	Audience  string    `json:"audience,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// RecencyKey implements the "most recent first" ordering: CreatedAt, then
// Date. ok is false when neither is set.
func (r Reminder) RecencyKey() (time.Time, bool) {
	return recency(r.CreatedAt, r.Date)
}

func (a Announcement) RecencyKey() (time.Time, bool) {
	return recency(a.CreatedAt, a.Date)
}

func recency(created, date Timestamp) (time.Time, bool) {
	if !created.IsZero() {
		return created.Time, true
	}
	if !date.IsZero() {
		return date.Time, true
	}
	return time.Time{}, false
}
