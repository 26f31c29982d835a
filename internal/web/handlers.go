package web

import (
	"net/http"
	"time"

	"classcal/internal/api"
	"classcal/internal/dashboard"
	"classcal/internal/ics"
	appLog "classcal/internal/log"
	"classcal/internal/model"
	"classcal/internal/schedule"
	"classcal/internal/timeofday"
)

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// classDTO is one occurrence as rendered by the schedule screens.
type classDTO struct {
	ID              string `json:"id,omitempty"`
	Subject         string `json:"subject"`
	Room            string `json:"room"`
	Teacher         string `json:"teacher,omitempty"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"durationMinutes"`
	Duration        string `json:"duration"`
	Recurrence      string `json:"recurrence"`

	dashboard.Style

	// Status is only set for today's classes.
	Status *schedule.Status `json:"status,omitempty"`
}

type freeSlotDTO struct {
	model.FreeTimeSlot
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

type dayResponse struct {
	Date      model.Date    `json:"date"`
	Weekday   string        `json:"weekday"`
	Today     bool          `json:"today"`
	Timezone  string        `json:"timezone"`
	Classes   []classDTO    `json:"classes"`
	FreeSlots []freeSlotDTO `json:"freeSlots"`
	Skipped   int           `json:"skipped"`
}

// handleDay returns the classes and free slots of one date.
//
// GET /api/day?date=2025-01-06
//   - date: YYYY-MM-DD, defaults to today in the configured timezone
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.loc)
	today := model.DateOf(now)

	day := today
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		day = d
	}

	sn, ok := s.snapshotOrError(w, r)
	if !ok {
		return
	}

	built := schedule.BuildDay(sn.bundle.Schedules, day, s.cfg.MinGapMinutes)

	resp := dayResponse{
		Date:      day,
		Weekday:   day.Weekday().String(),
		Today:     day == today,
		Timezone:  s.loc.String(),
		Classes:   make([]classDTO, 0, len(built.Occurrences)),
		FreeSlots: make([]freeSlotDTO, 0, len(built.FreeSlots)),
		Skipped:   len(built.Skipped),
	}
	for _, occ := range built.Occurrences {
		var at *time.Time
		if resp.Today {
			at = &now
		}
		resp.Classes = append(resp.Classes, s.classView(occ, at))
	}
	for _, fs := range built.FreeSlots {
		resp.FreeSlots = append(resp.FreeSlots, freeSlotView(fs))
	}
	writeJSON(w, http.StatusOK, resp)
}

type monthResponse struct {
	Month string              `json:"month"`
	Total int                 `json:"total"`
	Days  []schedule.DayCount `json:"days"`
}

// handleMonth returns per-date class counts for a calendar month.
//
// GET /api/month?month=2025-02
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.loc)
	year, month := now.Year(), now.Month()
	if v := r.URL.Query().Get("month"); v != "" {
		t, err := time.Parse("2006-01", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}
		year, month = t.Year(), t.Month()
	}

	sn, ok := s.snapshotOrError(w, r)
	if !ok {
		return
	}

	days := schedule.MonthCounts(sn.bundle.Schedules, year, month)
	total := 0
	for _, d := range days {
		total += d.Count
	}
	writeJSON(w, http.StatusOK, monthResponse{
		Month: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
		Total: total,
		Days:  days,
	})
}

type dashboardResponse struct {
	Date                model.Date           `json:"date"`
	ClassesToday        int                  `json:"classesToday"`
	Announcements       int                  `json:"announcements"`
	Reminders           int                  `json:"reminders"`
	UrgentAnnouncements int                  `json:"urgentAnnouncements"`
	TodayClasses        []classDTO           `json:"todayClasses"`
	RecentAnnouncements []model.Announcement `json:"recentAnnouncements"`
	RecentReminders     []model.Reminder     `json:"recentReminders"`
	ActiveReminders     int                  `json:"activeReminders"`
	CompletedReminders  int                  `json:"completedReminders"`
	UpcomingReminders   int                  `json:"upcomingReminders"`
}

// handleDashboard returns the overview screen.
//
// GET /api/dashboard?limit=3
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), s.cfg.SummaryLimit)
	if limit <= 0 || limit > s.cfg.SummaryLimit {
		limit = s.cfg.SummaryLimit
	}

	sn, ok := s.snapshotOrError(w, r)
	if !ok {
		return
	}

	now := s.now().In(s.loc)
	sum := dashboard.Summarize(dashboard.Input{
		Schedules:     sn.bundle.Schedules,
		Reminders:     sn.bundle.Reminders,
		Announcements: sn.bundle.Announcements,
	}, now, limit)

	resp := dashboardResponse{
		Date:                sum.Date,
		ClassesToday:        sum.ClassesToday,
		Announcements:       sum.Announcements,
		Reminders:           sum.Reminders,
		UrgentAnnouncements: sum.UrgentAnnouncements,
		TodayClasses:        make([]classDTO, 0, len(sum.TodayClasses)),
		RecentAnnouncements: sum.RecentAnnouncements,
		RecentReminders:     sum.RecentReminders,
		ActiveReminders:     len(sum.Buckets.Active),
		CompletedReminders:  len(sum.Buckets.Completed),
		UpcomingReminders:   len(sum.Buckets.Upcoming),
	}
	for _, occ := range sum.TodayClasses {
		resp.TodayClasses = append(resp.TodayClasses, s.classView(occ, &now))
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	UpdatedAt time.Time    `json:"updatedAt"`
	Sources   []api.Report `json:"sources"`
}

// handleStatus reports when data was last loaded and how many rows each
// collection accepted.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sn, ok := s.snapshotOrError(w, r)
	if !ok {
		return
	}
	reports := sn.bundle.Reports
	if reports == nil {
		reports = []api.Report{}
	}
	writeJSON(w, http.StatusOK, statusResponse{UpdatedAt: sn.updatedAt, Sources: reports})
}

// handleCalendar exports all schedule records as an iCalendar feed.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	sn, ok := s.snapshotOrError(w, r)
	if !ok {
		return
	}

	res := ics.Export(sn.bundle.Schedules, ics.ExportOptions{
		Location: s.loc,
		Now:      s.now(),
		Name:     "Classes",
	})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="classes.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(res.Calendar)); err != nil {
		appLog.Error("failed to write calendar", err)
	}
}

func (s *Server) snapshotOrError(w http.ResponseWriter, r *http.Request) (*snapshot, bool) {
	sn, err := s.current(r.Context())
	if err != nil {
		appLog.Error("no snapshot for request", err, "path", r.URL.Path)
		writeError(w, http.StatusServiceUnavailable, "schedule data unavailable")
		return nil, false
	}
	return sn, true
}

// classView renders occ. When now is non-nil the class's status at now is
// included.
func (s *Server) classView(occ model.Occurrence, now *time.Time) classDTO {
	rec := occ.Record
	dto := classDTO{
		ID:         rec.ID,
		Subject:    rec.Subject,
		Room:       rec.Room,
		Teacher:    rec.Teacher,
		StartTime:  rec.StartTime,
		EndTime:    rec.EndTime,
		Start:      humanOrRaw(rec.StartTime),
		End:        humanOrRaw(rec.EndTime),
		Recurrence: string(rec.Recurrence),
		Style:      s.styles.For(rec.Subject),
	}
	// Materialized occurrences always have a valid positive span.
	if mins, err := timeofday.Duration(rec.StartTime, rec.EndTime); err == nil {
		dto.DurationMinutes = mins
		dto.Duration = timeofday.FormatDuration(mins)
	}
	if now != nil {
		if st, err := schedule.StatusAt(occ, *now); err == nil {
			dto.Status = &st
		}
	}
	return dto
}

func freeSlotView(fs model.FreeTimeSlot) freeSlotDTO {
	return freeSlotDTO{
		FreeTimeSlot: fs,
		Start:        humanOrRaw(fs.StartTime),
		End:          humanOrRaw(fs.EndTime),
		Duration:     timeofday.FormatDuration(fs.DurationMinutes),
	}
}

func humanOrRaw(hhmm string) string {
	if h, err := timeofday.FormatHuman(hhmm); err == nil {
		return h
	}
	return hhmm
}
