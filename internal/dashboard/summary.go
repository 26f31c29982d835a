package dashboard

import (
	"time"

	"classcal/internal/model"
	"classcal/internal/schedule"
)

// DefaultLimit is the length of each "recent" list on the overview.
const DefaultLimit = 3

// ReminderBuckets splits reminders the way the reminders screen tabs them.
type ReminderBuckets struct {
	Active    []model.Reminder
	Completed []model.Reminder
	// Upcoming holds active reminders dated after now.
	Upcoming []model.Reminder
}

func BucketReminders(reminders []model.Reminder, now time.Time) ReminderBuckets {
	b := ReminderBuckets{
		Active:    make([]model.Reminder, 0),
		Completed: make([]model.Reminder, 0),
		Upcoming:  make([]model.Reminder, 0),
	}
	for _, r := range reminders {
		if r.Completed {
			b.Completed = append(b.Completed, r)
			continue
		}
		b.Active = append(b.Active, r)
		if !r.Date.IsZero() && r.Date.After(now) {
			b.Upcoming = append(b.Upcoming, r)
		}
	}
	return b
}

func CountUrgent(announcements []model.Announcement) int {
	n := 0
	for _, a := range announcements {
		if a.Urgent {
			n++
		}
	}
	return n
}

// ByCategory keeps announcements of the given category, in input order.
func ByCategory(announcements []model.Announcement, c model.Category) []model.Announcement {
	out := make([]model.Announcement, 0)
	for _, a := range announcements {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out
}

// Input is everything fetched for one overview.
type Input struct {
	Schedules     []model.ScheduleRecord
	Reminders     []model.Reminder
	Announcements []model.Announcement
}

// Summary is the overview screen's data.
type Summary struct {
	Date model.Date

	ClassesToday        int
	Announcements       int
	Reminders           int
	UrgentAnnouncements int

	TodayClasses        []model.Occurrence
	RecentAnnouncements []model.Announcement
	RecentReminders     []model.Reminder
	Buckets             ReminderBuckets
}

// Summarize builds the overview for now's calendar date (in now's location).
// limit caps each list; limit <= 0 uses DefaultLimit.
func Summarize(in Input, now time.Time, limit int) Summary {
	if limit <= 0 {
		limit = DefaultLimit
	}
	today := model.DateOf(now)
	day := schedule.Materialize(in.Schedules, today)

	classes := day.Occurrences
	if len(classes) > limit {
		classes = classes[:limit]
	}

	return Summary{
		Date:                today,
		ClassesToday:        len(day.Occurrences),
		Announcements:       len(in.Announcements),
		Reminders:           len(in.Reminders),
		UrgentAnnouncements: CountUrgent(in.Announcements),
		TodayClasses:        classes,
		RecentAnnouncements: MostRecent(in.Announcements, limit),
		RecentReminders:     MostRecent(in.Reminders, limit),
		Buckets:             BucketReminders(in.Reminders, now),
	}
}
