package ics

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/teambition/rrule-go"

	"classcal/internal/model"
	"classcal/internal/schedule"
)

var kolkata = time.FixedZone("IST", 5*3600+1800)

func testRecords() []model.ScheduleRecord {
	return []model.ScheduleRecord{
		{ID: "w1", Subject: "Cloud Computing", Room: "B201", Teacher: "Dr. Rao", StartTime: "09:00", EndTime: "10:00",
			Day: "Monday", Recurrence: model.RecurrenceWeekly, Date: model.NewDate(2025, 1, 6)},
		{ID: "b1", Subject: "Data Structures", Room: "C101", StartTime: "11:00", EndTime: "12:30",
			Day: "Friday", Recurrence: model.RecurrenceBiweekly, Date: model.NewDate(2025, 1, 8)},
		{ID: "m1", Subject: "Seminar", StartTime: "14:00", EndTime: "15:00",
			Recurrence: model.RecurrenceMonthly, Date: model.NewDate(2025, 1, 31)},
		{ID: "d1", Subject: "Standup", StartTime: "8:30", EndTime: "08:45",
			Recurrence: model.RecurrenceDaily, Date: model.NewDate(2025, 1, 1)},
		{ID: "o1", Subject: "Exam", StartTime: "10:00", EndTime: "13:00",
			Recurrence: model.RecurrenceOnce, Date: model.NewDate(2025, 2, 14)},
	}
}

func TestExport_SkipsUnrepresentableRecords(t *testing.T) {
	recs := append(testRecords(),
		model.ScheduleRecord{Subject: "Yearly", StartTime: "09:00", EndTime: "10:00", Recurrence: "yearly", Date: model.NewDate(2025, 1, 1)},
		model.ScheduleRecord{Subject: "Backwards", StartTime: "10:00", EndTime: "09:00", Recurrence: model.RecurrenceOnce, Date: model.NewDate(2025, 1, 1)},
		model.ScheduleRecord{Subject: "Undated", StartTime: "09:00", EndTime: "10:00", Recurrence: model.RecurrenceNone},
	)

	res := Export(recs, ExportOptions{Location: kolkata, Now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Name: "Classes"})
	if res.Events != 5 || len(res.Skipped) != 3 {
		t.Fatalf("events = %d, skipped = %d", res.Events, len(res.Skipped))
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "X-WR-CALNAME:Classes", "UID:w1@classcal", "RRULE:FREQ=WEEKLY"} {
		if !strings.Contains(res.Calendar, want) {
			t.Errorf("calendar missing %q", want)
		}
	}
}

func TestExport_RoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Export(testRecords(), ExportOptions{Location: kolkata, Now: now})

	imp, err := ParseSchedules(Source{ID: "roundtrip"}, []byte(res.Calendar), kolkata)
	if err != nil {
		t.Fatalf("ParseSchedules: %v", err)
	}
	if imp.Skipped != 0 || len(imp.Records) != 5 {
		t.Fatalf("imported %d records, skipped %d", len(imp.Records), imp.Skipped)
	}

	byID := map[string]model.ScheduleRecord{}
	for _, r := range imp.Records {
		byID[r.ID] = r
	}

	w := byID["w1"]
	if w.Recurrence != model.RecurrenceWeekly || w.Day != "Monday" || w.StartTime != "09:00" ||
		w.EndTime != "10:00" || w.Room != "B201" || w.Teacher != "Dr. Rao" {
		t.Errorf("weekly = %+v", w)
	}
	// Anchored Wednesday, first Friday is two days later.
	if b := byID["b1"]; b.Recurrence != model.RecurrenceBiweekly || b.Date != model.NewDate(2025, 1, 10) {
		t.Errorf("biweekly = %+v", b)
	}
	if m := byID["m1"]; m.Recurrence != model.RecurrenceMonthly || m.Date != model.NewDate(2025, 1, 31) {
		t.Errorf("monthly = %+v", m)
	}
	if d := byID["d1"]; d.Recurrence != model.RecurrenceDaily || d.StartTime != "08:30" {
		t.Errorf("daily = %+v", d)
	}
	if o := byID["o1"]; o.Recurrence != model.RecurrenceOnce || o.Date != model.NewDate(2025, 2, 14) {
		t.Errorf("once = %+v", o)
	}
}

// The exported rule must produce exactly the dates the matcher accepts from
// the record's anchor onwards.
func TestRecurrenceRule_AgreesWithMatcher(t *testing.T) {
	today := model.NewDate(2025, 1, 1)
	for _, rec := range testRecords() {
		if rec.Recurrence == model.RecurrenceOnce {
			continue
		}
		first, raw, err := recurrenceRule(rec, today)
		if err != nil {
			t.Fatalf("%s: %v", rec.ID, err)
		}
		opt, err := rrule.StrToROption(raw)
		if err != nil {
			t.Fatalf("%s: parse %q: %v", rec.ID, raw, err)
		}
		opt.Dtstart = first.Time(time.UTC)
		r, err := rrule.NewRRule(*opt)
		if err != nil {
			t.Fatalf("%s: %v", rec.ID, err)
		}

		from := rec.Date
		to := from.AddDays(400)
		got := map[model.Date]bool{}
		for _, ts := range r.Between(from.Time(time.UTC), to.Time(time.UTC), true) {
			got[model.DateOf(ts)] = true
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			if want := schedule.Matches(rec, d); want != got[d] {
				t.Fatalf("%s on %s: matcher=%v rrule=%v (rule %s)", rec.ID, d, want, got[d], raw)
			}
		}
	}
}

func TestExport_DaylightSavingDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	rec := model.ScheduleRecord{ID: "dst", Subject: "Algebra", StartTime: "09:00", EndTime: "10:00",
		Recurrence: model.RecurrenceOnce, Date: model.NewDate(2025, 3, 9)}

	res := Export([]model.ScheduleRecord{rec}, ExportOptions{Location: ny, Now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)})
	for _, want := range []string{"DTSTART:20250309T130000Z", "DTEND:20250309T140000Z"} {
		if !strings.Contains(res.Calendar, want) {
			t.Errorf("calendar missing %q:\n%s", want, res.Calendar)
		}
	}
}

func TestParseSchedules_SkipsUnsupportedEvents(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:allday",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20250126",
		"DTEND;VALUE=DATE:20250127",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:yearly",
		"SUMMARY:Founders day",
		"DTSTART:20250301T040000Z",
		"DTEND:20250301T050000Z",
		"RRULE:FREQ=YEARLY",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:lab",
		"SUMMARY:Networks Lab",
		"LOCATION:L2",
		"DTSTART:20250304T083000Z",
		"DTEND:20250304T103000Z",
		"RRULE:FREQ=WEEKLY;BYDAY=TU",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	res, err := ParseSchedules(Source{ID: "test"}, []byte(body), kolkata)
	if err != nil {
		t.Fatalf("ParseSchedules: %v", err)
	}
	if res.Skipped != 2 || len(res.Records) != 1 {
		t.Fatalf("records = %+v, skipped = %d", res.Records, res.Skipped)
	}
	lab := res.Records[0]
	if lab.StartTime != "14:00" || lab.EndTime != "16:00" || lab.Day != "Tuesday" || lab.Recurrence != model.RecurrenceWeekly {
		t.Fatalf("lab = %+v", lab)
	}
}

func TestParseSchedules_Empty(t *testing.T) {
	if _, err := ParseSchedules(Source{ID: "empty"}, nil, kolkata); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestEventUID_Deterministic(t *testing.T) {
	rec := model.ScheduleRecord{Subject: "Math", StartTime: "09:00", EndTime: "10:00", Recurrence: model.RecurrenceDaily}
	a, b := eventUID(rec), eventUID(rec)
	if a != b || !strings.HasSuffix(a, "@classcal") {
		t.Fatalf("uids %q %q", a, b)
	}
	rec.Subject = "Physics"
	if eventUID(rec) == a {
		t.Fatal("different records share a UID")
	}
}
