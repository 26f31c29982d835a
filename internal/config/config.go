package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen        = "127.0.0.1:8080"
	defaultTimezone      = "Asia/Kolkata"
	defaultAPIURL        = "https://cb-back-s7yj.onrender.com"
	defaultRefreshCron   = "*/15 * * * *"
	defaultCacheDir      = "./var/api-cache"
	defaultMinGapMinutes = 30
	defaultSummaryLimit  = 3
)

// LogConfig selects the log level ("debug", "info", "error") and output
// format ("json" or "console").
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ICSConfig describes a local iCalendar timetable merged into the API
// schedules.
type ICSConfig struct {
	ID   string `yaml:"id" json:"id"`
	Path string `yaml:"path" json:"path"`
}

// SubjectStyleConfig maps subjects containing Contains to a color/icon tag.
// Entries are evaluated in order; the first match wins.
type SubjectStyleConfig struct {
	Contains string `yaml:"contains" json:"contains"`
	Color    string `yaml:"color" json:"color"`
	Icon     string `yaml:"icon" json:"icon"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone whose wall clock defines "today"
	// (e.g. "Asia/Kolkata").
	Timezone string `yaml:"timezone" json:"timezone"`

	// APIURL is the base URL of the class companion REST service.
	APIURL string `yaml:"api_url" json:"api_url"`

	// APIToken is sent as a bearer token. Usually supplied through the
	// CLASSCAL_API_TOKEN environment variable rather than the file.
	APIToken string `yaml:"api_token,omitempty" json:"-"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for re-fetching data from the API.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir holds ETag/Last-Modified metadata and the last good bodies.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// MinGapMinutes is the shortest break reported as free time.
	MinGapMinutes int `yaml:"min_gap_minutes" json:"min_gap_minutes"`

	// SummaryLimit caps each "recent" list on the dashboard.
	SummaryLimit int `yaml:"summary_limit" json:"summary_limit"`

	Log LogConfig `yaml:"log" json:"log"`

	// ICS lists extra .ics timetables, e.g. an exported university calendar.
	ICS []ICSConfig `yaml:"ics,omitempty" json:"ics,omitempty"`

	// SubjectStyles overrides the built-in subject color/icon mapping.
	SubjectStyles []SubjectStyleConfig `yaml:"subject_styles,omitempty" json:"subject_styles,omitempty"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        defaultListen,
		Timezone:      defaultTimezone,
		APIURL:        defaultAPIURL,
		RefreshCron:   defaultRefreshCron,
		CacheDir:      defaultCacheDir,
		MinGapMinutes: defaultMinGapMinutes,
		SummaryLimit:  defaultSummaryLimit,
		Log:           LogConfig{Level: "info", Format: "json"},
		BasicAuth:     nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}

	// An unparsable refresh spec would stop the scheduler from starting.
	if _, err := cron.ParseStandard(c.RefreshCron); c.RefreshCron == "" || err != nil {
		c.RefreshCron = defaultRefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.MinGapMinutes <= 0 {
		c.MinGapMinutes = defaultMinGapMinutes
	}
	if c.SummaryLimit <= 0 {
		c.SummaryLimit = defaultSummaryLimit
	}

	ics := c.ICS[:0]
	for _, src := range c.ICS {
		src.Path = strings.TrimSpace(src.Path)
		if src.Path == "" {
			continue
		}
		if src.ID == "" {
			src.ID = filepath.Base(src.Path)
		}
		ics = append(ics, src)
	}
	c.ICS = ics

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "error":
		c.Log.Level = strings.ToLower(c.Log.Level)
	default:
		c.Log.Level = "info"
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
		c.Log.Format = strings.ToLower(c.Log.Format)
	default:
		c.Log.Format = "json"
	}
}

// ApplyEnv overrides selected fields from the environment. getenv is
// os.Getenv in production.
//
//	CLASSCAL_API_URL, CLASSCAL_API_TOKEN, CLASSCAL_LISTEN, CLASSCAL_TIMEZONE
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("CLASSCAL_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := getenv("CLASSCAL_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := getenv("CLASSCAL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv("CLASSCAL_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	c.Normalize()
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file in the same directory, then rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".classcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
