package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "classcal.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinGapMinutes != 30 || cfg.SummaryLimit != 3 || cfg.RefreshCron != defaultRefreshCron {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perms = %o, want 600", perm)
	}
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classcal.yaml")
	body := `
api_url: "https://api.example.edu/"
refresh: "not a cron spec"
min_gap_minutes: 45
log:
  level: DEBUG
  format: xml
ics:
  - path: " ./timetable/sem5.ics "
  - id: empty
    path: ""
subject_styles:
  - contains: physics
    color: red
    icon: atom
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://api.example.edu" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RefreshCron != defaultRefreshCron {
		t.Errorf("invalid cron should fall back, got %q", cfg.RefreshCron)
	}
	if cfg.MinGapMinutes != 45 {
		t.Errorf("MinGapMinutes = %d", cfg.MinGapMinutes)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if len(cfg.SubjectStyles) != 1 || cfg.SubjectStyles[0].Icon != "atom" {
		t.Errorf("SubjectStyles = %+v", cfg.SubjectStyles)
	}
	if len(cfg.ICS) != 1 || cfg.ICS[0].ID != "sem5.ics" || cfg.ICS[0].Path != "./timetable/sem5.ics" {
		t.Errorf("ICS = %+v", cfg.ICS)
	}
	if cfg.Listen != defaultListen || cfg.Timezone != defaultTimezone {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classcal.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected YAML error")
	}
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classcal.yaml")
	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9000"
	cfg.BasicAuth = &BasicAuthConfig{Username: "cr", Password: "secret"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Listen != "0.0.0.0:9000" || back.BasicAuth == nil || back.BasicAuth.Password != "secret" {
		t.Fatalf("round trip lost data: %+v", back)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CLASSCAL_API_URL":   "http://localhost:5000/",
		"CLASSCAL_API_TOKEN": "tok",
		"CLASSCAL_TIMEZONE":  "UTC",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.APIURL != "http://localhost:5000" || cfg.APIToken != "tok" || cfg.Timezone != "UTC" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Listen != defaultListen {
		t.Fatalf("unset env var changed Listen: %q", cfg.Listen)
	}
}
