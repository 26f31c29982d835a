package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	appLog "classcal/internal/log"
)

// Resource is one collection endpoint of the remote API.
type Resource struct {
	// Name is used for logging and cache layout.
	Name string
	// Path is appended to the base URL, e.g. "/api/schedules".
	Path string
}

// FetchResult contains the outcome of fetching a single resource.
type FetchResult struct {
	Resource  Resource
	Body      []byte // JSON payload (either freshly fetched or from cache)
	FromCache bool   // true if we reused the cached body
}

// cacheEntry holds HTTP cache metadata for a single resource URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher performs authenticated GETs against the API with HTTP
// revalidation (ETag / Last-Modified) and a disk-backed copy of the last
// good body, which is also served when the API is unreachable.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	token    string
	cacheDir string
}

// NewFetcher creates a Fetcher. A nil client gets a 15s timeout client;
// an empty cacheDir falls back to "./var/api-cache".
func NewFetcher(baseURL, token, cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/api-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{
		client:   client,
		baseURL:  baseURL,
		token:    token,
		cacheDir: cacheDir,
	}
}

// FetchOne fetches a single resource, honoring ETag and Last-Modified.
func (f *Fetcher) FetchOne(ctx context.Context, res Resource) (FetchResult, error) {
	if f.baseURL == "" {
		return FetchResult{}, errors.New("api: base URL is empty")
	}
	url := f.baseURL + res.Path

	cachePath := f.cachePathForURL(url)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("api fetch start", "resource", res.Name, "path", res.Path)

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("api fetch network error, using cached body", err, "resource", res.Name)
			return FetchResult{Resource: res, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, fmt.Errorf("api: fetch %s: %w", res.Name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return FetchResult{}, fmt.Errorf("api: read %s: %w", res.Name, readErr)
		}

		newMeta := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := f.saveCache(cachePath, newMeta, body); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("api cache save failed", err, "resource", res.Name)
		}

		appLog.Info("api fetch success", "resource", res.Name, "status", resp.StatusCode, "bytes", len(body))
		return FetchResult{Resource: res, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, fmt.Errorf("api: %s: 304 Not Modified but no cached body available", res.Name)
		}
		appLog.Debug("api fetch not modified; using cache", "resource", res.Name)
		return FetchResult{Resource: res, Body: cachedBody, FromCache: true}, nil

	default:
		statusErr := &StatusError{Resource: res.Name, StatusCode: resp.StatusCode, Status: resp.Status}
		// Auth failures are not papered over with stale data.
		if len(cachedBody) > 0 && resp.StatusCode != http.StatusUnauthorized {
			appLog.Error("api fetch non-OK, using cached body", statusErr, "resource", res.Name)
			return FetchResult{Resource: res, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, statusErr
	}
}

// StatusError is returned for non-2xx responses without a cached fallback.
type StatusError struct {
	Resource   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s: unexpected status %s", e.Resource, e.Status)
}

// cachePathForURL keys the cache by URL and token so that two accounts
// never share cached bodies.
func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url + "\x00" + f.token))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.json"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.json"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
