package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"classcal/internal/api"
	"classcal/internal/config"
	"classcal/internal/dashboard"
	appLog "classcal/internal/log"
)

// Loader produces a fresh read of schedules, reminders and announcements.
type Loader interface {
	Load(ctx context.Context) (api.Bundle, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (api.Bundle, error)

func (f LoaderFunc) Load(ctx context.Context) (api.Bundle, error) { return f(ctx) }

const defaultSnapshotTTL = 5 * time.Minute

// Server serves the materialized schedule over HTTP.
type Server struct {
	cfg    *config.Config
	loader Loader
	loc    *time.Location
	styles dashboard.StyleMap
	now    func() time.Time
	ttl    time.Duration
	mux    *http.ServeMux

	// Last successful Load. Requests reuse it while it is younger than ttl;
	// the cron refresh in main keeps it warm.
	snapMu sync.RWMutex
	snap   *snapshot

	// Serializes loads so that concurrent cache misses hit the API once.
	loadMu sync.Mutex
}

type snapshot struct {
	bundle    api.Bundle
	updatedAt time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithSnapshotTTL sets how long a loaded bundle is served without reloading.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Server) { s.ttl = ttl }
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, loader Loader, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		loader: loader,
		loc:    resolveLocationOrLocal(cfg.Timezone),
		styles: styleMap(cfg.SubjectStyles),
		now:    time.Now,
		ttl:    defaultSnapshotTTL,
		mux:    http.NewServeMux(),
	}
	for _, o := range opts {
		o(s)
	}
	s.registerRoutes()
	return s
}

// Location is the display timezone used to decide what "today" is.
func (s *Server) Location() *time.Location { return s.loc }

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestIDMiddleware(h)
}

// Refresh reloads the snapshot. On failure the previous snapshot is kept.
func (s *Server) Refresh(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Server) refreshLocked(ctx context.Context) error {
	start := time.Now()
	b, err := s.loader.Load(ctx)
	if err != nil {
		appLog.Error("snapshot refresh failed", err)
		return err
	}

	s.snapMu.Lock()
	s.snap = &snapshot{bundle: b, updatedAt: s.now()}
	s.snapMu.Unlock()

	appLog.Info("snapshot refreshed",
		"schedules", len(b.Schedules),
		"reminders", len(b.Reminders),
		"announcements", len(b.Announcements),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

var errNoData = errors.New("no schedule data available")

// current returns a snapshot no older than ttl, loading one if needed. A
// stale snapshot is preferred over an error.
func (s *Server) current(ctx context.Context) (*snapshot, error) {
	if sn := s.fresh(); sn != nil {
		return sn, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	// Another request may have loaded while we waited.
	if sn := s.fresh(); sn != nil {
		return sn, nil
	}

	err := s.refreshLocked(ctx)

	s.snapMu.RLock()
	sn := s.snap
	s.snapMu.RUnlock()
	if sn == nil {
		if err == nil {
			err = errNoData
		}
		return nil, err
	}
	return sn, nil
}

func (s *Server) fresh() *snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	if s.snap != nil && s.now().Sub(s.snap.updatedAt) < s.ttl {
		return s.snap
	}
	return nil
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="classcal", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware echoes the caller's X-Request-ID or assigns a new one
// and logs each request with it.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func styleMap(cfg []config.SubjectStyleConfig) dashboard.StyleMap {
	if len(cfg) == 0 {
		return dashboard.DefaultStyleMap()
	}
	rules := make([]dashboard.StyleRule, 0, len(cfg))
	for _, c := range cfg {
		rules = append(rules, dashboard.StyleRule{
			Contains: c.Contains,
			Style:    dashboard.Style{Color: c.Color, Icon: c.Icon},
		})
	}
	return dashboard.NewStyleMap(rules, dashboard.Style{})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
