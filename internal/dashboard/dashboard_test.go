package dashboard

import (
	"reflect"
	"testing"
	"time"

	"classcal/internal/model"
)

func ts(s string) model.Timestamp {
	if s == "" {
		return model.Timestamp{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return model.Timestamp{Time: t}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func reminderID(r model.Reminder) string         { return r.ID }
func announcementID(a model.Announcement) string { return a.ID }

func TestMostRecent_Order(t *testing.T) {
	in := []model.Reminder{
		{ID: "none-1"},
		{ID: "date-only", Date: ts("2025-03-05T00:00:00Z")},
		{ID: "created-old", CreatedAt: ts("2025-03-01T08:00:00Z"), Date: ts("2025-04-01T00:00:00Z")},
		{ID: "created-new", CreatedAt: ts("2025-03-10T08:00:00Z")},
		{ID: "none-2"},
		{ID: "tie-a", CreatedAt: ts("2025-03-07T12:00:00Z")},
		{ID: "tie-b", Date: ts("2025-03-07T12:00:00Z")},
	}
	got := ids(MostRecent(in, 0), reminderID)
	want := []string{"created-new", "tie-a", "tie-b", "date-only", "created-old", "none-1", "none-2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if in[0].ID != "none-1" {
		t.Fatal("input slice was reordered")
	}
}

func TestMostRecent_Limit(t *testing.T) {
	in := []model.Announcement{
		{ID: "a", CreatedAt: ts("2025-01-01T00:00:00Z")},
		{ID: "b", CreatedAt: ts("2025-01-03T00:00:00Z")},
		{ID: "c", CreatedAt: ts("2025-01-02T00:00:00Z")},
		{ID: "d", CreatedAt: ts("2025-01-04T00:00:00Z")},
	}
	if got := ids(MostRecent(in, 3), announcementID); !reflect.DeepEqual(got, []string{"d", "b", "c"}) {
		t.Fatalf("top 3 = %v", got)
	}
	if got := MostRecent(in, 10); len(got) != 4 {
		t.Fatalf("limit above length returned %d items", len(got))
	}
	if got := MostRecent([]model.Announcement{}, 3); len(got) != 0 {
		t.Fatalf("empty input returned %v", got)
	}
}

func TestBucketReminders(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	in := []model.Reminder{
		{ID: "done", Completed: true, Date: ts("2025-04-01T00:00:00Z")},
		{ID: "future", Date: ts("2025-03-11T00:00:00Z")},
		{ID: "past", Date: ts("2025-03-01T00:00:00Z")},
		{ID: "undated"},
	}
	b := BucketReminders(in, now)
	if got := ids(b.Active, reminderID); !reflect.DeepEqual(got, []string{"future", "past", "undated"}) {
		t.Errorf("active = %v", got)
	}
	if got := ids(b.Completed, reminderID); !reflect.DeepEqual(got, []string{"done"}) {
		t.Errorf("completed = %v", got)
	}
	if got := ids(b.Upcoming, reminderID); !reflect.DeepEqual(got, []string{"future"}) {
		t.Errorf("upcoming = %v", got)
	}
}

func TestAnnouncementHelpers(t *testing.T) {
	in := []model.Announcement{
		{ID: "1", Urgent: true, Category: model.CategoryExam},
		{ID: "2", Category: model.CategoryEvent},
		{ID: "3", Urgent: true, Category: model.CategoryEvent},
	}
	if n := CountUrgent(in); n != 2 {
		t.Errorf("CountUrgent = %d", n)
	}
	if got := ids(ByCategory(in, model.CategoryEvent), announcementID); !reflect.DeepEqual(got, []string{"2", "3"}) {
		t.Errorf("ByCategory(event) = %v", got)
	}
}

func TestStyleMap(t *testing.T) {
	m := DefaultStyleMap()
	cases := map[string]Style{
		"Cloud Computing":               {Color: "primary", Icon: "book-open"},
		"Advanced Data Structures":      {Color: "primary", Icon: "book-open"},
		"COMPUTER NETWORKS lab":         {Color: "blue", Icon: "beaker"},
		"DataBase Management System":    {Color: "blue", Icon: "beaker"},
		"Object Oriented Programming":   {Color: "green", Icon: "calculator"},
		"Service Oriented Architecture": {Color: "primary", Icon: "book-open"},
	}
	for subject, want := range cases {
		if got := m.For(subject); got != want {
			t.Errorf("For(%q) = %+v, want %+v", subject, got, want)
		}
	}

	// First match wins.
	custom := NewStyleMap([]StyleRule{
		{Contains: "lab", Style: Style{Color: "red"}},
		{Contains: "", Style: Style{Color: "ignored"}},
		{Contains: "networks", Style: Style{Color: "blue"}},
	}, Style{})
	if got := custom.For("Networks Lab"); got.Color != "red" {
		t.Errorf("first rule should win, got %+v", got)
	}
	if got := custom.For("History"); got != defaultFallback {
		t.Errorf("fallback = %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	// 2025-01-06 is a Monday.
	now := time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC)
	in := Input{
		Schedules: []model.ScheduleRecord{
			{ID: "s4", Subject: "D", StartTime: "15:00", EndTime: "16:00", Recurrence: model.RecurrenceDaily},
			{ID: "s1", Subject: "A", StartTime: "08:00", EndTime: "09:00", Recurrence: model.RecurrenceWeekly, Day: "Monday"},
			{ID: "s2", Subject: "B", StartTime: "10:00", EndTime: "11:00", Recurrence: model.RecurrenceOnce, Date: model.NewDate(2025, 1, 6)},
			{ID: "s3", Subject: "C", StartTime: "12:00", EndTime: "13:00", Recurrence: model.RecurrenceBiweekly, Day: "Monday", Date: model.NewDate(2024, 12, 23)},
			{ID: "tue", Subject: "E", StartTime: "07:00", EndTime: "08:00", Recurrence: model.RecurrenceWeekly, Day: "Tuesday"},
		},
		Reminders: []model.Reminder{
			{ID: "r1", CreatedAt: ts("2025-01-01T00:00:00Z")},
			{ID: "r2", CreatedAt: ts("2025-01-05T00:00:00Z"), Completed: true},
		},
		Announcements: []model.Announcement{
			{ID: "a1", Urgent: true, CreatedAt: ts("2025-01-02T00:00:00Z")},
			{ID: "a2", CreatedAt: ts("2025-01-04T00:00:00Z")},
		},
	}

	s := Summarize(in, now, 3)
	if s.Date != model.NewDate(2025, 1, 6) {
		t.Fatalf("date = %v", s.Date)
	}
	if s.ClassesToday != 4 {
		t.Errorf("ClassesToday = %d, want 4", s.ClassesToday)
	}
	var classIDs []string
	for _, o := range s.TodayClasses {
		classIDs = append(classIDs, o.Record.ID)
	}
	if !reflect.DeepEqual(classIDs, []string{"s1", "s2", "s3"}) {
		t.Errorf("today classes = %v", classIDs)
	}
	if s.Announcements != 2 || s.Reminders != 2 || s.UrgentAnnouncements != 1 {
		t.Errorf("counts = %d/%d/%d", s.Announcements, s.Reminders, s.UrgentAnnouncements)
	}
	if got := ids(s.RecentAnnouncements, announcementID); !reflect.DeepEqual(got, []string{"a2", "a1"}) {
		t.Errorf("recent announcements = %v", got)
	}
	if got := ids(s.RecentReminders, reminderID); !reflect.DeepEqual(got, []string{"r2", "r1"}) {
		t.Errorf("recent reminders = %v", got)
	}
	if len(s.Buckets.Active) != 1 || len(s.Buckets.Completed) != 1 {
		t.Errorf("buckets = %+v", s.Buckets)
	}

	if d := Summarize(Input{}, now, 0); d.ClassesToday != 0 || len(d.TodayClasses) != 0 {
		t.Errorf("empty summary = %+v", d)
	}
}
