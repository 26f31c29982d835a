// Package api reads schedules, reminders and announcements from the class
// companion REST service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	appLog "classcal/internal/log"
	"classcal/internal/model"
)

var (
	ResourceSchedules     = Resource{Name: "schedules", Path: "/api/schedules"}
	ResourceReminders     = Resource{Name: "reminders", Path: "/api/reminders"}
	ResourceAnnouncements = Resource{Name: "announcements", Path: "/api/announcements/"}
)

// Options configures a Client.
type Options struct {
	BaseURL  string
	Token    string
	CacheDir string
	// HTTPClient overrides the default 15s-timeout client.
	HTTPClient *http.Client
}

// Client decodes API collections into model types. Rows that fail to decode
// or validate are dropped and counted instead of failing the collection.
type Client struct {
	fetcher  *Fetcher
	validate *validator.Validate
}

func NewClient(opts Options) *Client {
	return &Client{
		fetcher:  NewFetcher(strings.TrimRight(opts.BaseURL, "/"), opts.Token, opts.CacheDir, opts.HTTPClient),
		validate: validator.New(),
	}
}

// Report summarizes the decoding of one collection.
type Report struct {
	Resource  string `json:"resource"`
	Accepted  int    `json:"accepted"`
	Rejected  int    `json:"rejected"`
	FromCache bool   `json:"from_cache"`
}

// Bundle is one consistent read of everything the views need.
type Bundle struct {
	Schedules     []model.ScheduleRecord
	Reminders     []model.Reminder
	Announcements []model.Announcement
	Reports       []Report
}

func (c *Client) Schedules(ctx context.Context) ([]model.ScheduleRecord, Report, error) {
	return fetchList[model.ScheduleRecord](ctx, c, ResourceSchedules)
}

func (c *Client) Reminders(ctx context.Context) ([]model.Reminder, Report, error) {
	return fetchList[model.Reminder](ctx, c, ResourceReminders)
}

func (c *Client) Announcements(ctx context.Context) ([]model.Announcement, Report, error) {
	return fetchList[model.Announcement](ctx, c, ResourceAnnouncements)
}

// Load fetches all three collections. Schedules are required; reminder and
// announcement failures are logged and yield empty lists.
func (c *Client) Load(ctx context.Context) (Bundle, error) {
	var b Bundle

	schedules, rep, err := c.Schedules(ctx)
	if err != nil {
		return Bundle{}, err
	}
	b.Schedules = schedules
	b.Reports = append(b.Reports, rep)

	reminders, rep, err := c.Reminders(ctx)
	if err != nil {
		appLog.Error("api: reminders unavailable", err)
		reminders = []model.Reminder{}
	}
	b.Reminders = reminders
	b.Reports = append(b.Reports, rep)

	announcements, rep, err := c.Announcements(ctx)
	if err != nil {
		appLog.Error("api: announcements unavailable", err)
		announcements = []model.Announcement{}
	}
	b.Announcements = announcements
	b.Reports = append(b.Reports, rep)

	return b, nil
}

func fetchList[T any](ctx context.Context, c *Client, res Resource) ([]T, Report, error) {
	rep := Report{Resource: res.Name}

	fr, err := c.fetcher.FetchOne(ctx, res)
	if err != nil {
		return nil, rep, err
	}
	rep.FromCache = fr.FromCache

	items, rep, err := decodeList[T](c.validate, res.Name, fr.Body)
	rep.FromCache = fr.FromCache
	return items, rep, err
}

// normalizer is implemented by model types that canonicalize themselves
// after decoding.
type normalizer interface {
	Normalize()
}

// decodeList decodes a JSON array element by element. A body that is not
// an array at all is an error; a bad element is only counted.
func decodeList[T any](v *validator.Validate, name string, body []byte) ([]T, Report, error) {
	rep := Report{Resource: name}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, rep, fmt.Errorf("api: %s: response is not a JSON array: %w", name, err)
	}

	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			rep.Rejected++
			appLog.Error("api: rejecting row", err, "resource", name, "index", i)
			continue
		}
		if n, ok := any(&item).(normalizer); ok {
			n.Normalize()
		}
		if err := v.Struct(item); err != nil {
			rep.Rejected++
			appLog.Error("api: rejecting row", err, "resource", name, "index", i)
			continue
		}
		out = append(out, item)
	}
	rep.Accepted = len(out)
	return out, rep, nil
}
