package templates

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
	"strings"
	"time"

	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

// errNotFound marks a weekday the server has no template for.
var errNotFound = errors.New("template not published")

// cacheEntry holds HTTP cache metadata for a single template URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads published templates with conditional requests and a
// disk cache, so a flaky network still yields the last known templates.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/template-cache"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// LoadRemote fetches <baseURL>/mon.json .. <baseURL>/sat.json. Failures for
// a weekday are logged and the weekday is omitted.
func (f *Fetcher) LoadRemote(ctx context.Context, baseURL string) *Set {
	base := strings.TrimRight(baseURL, "/")
	days := make([]model.DefaultDay, 0, 6)

	for _, w := range model.Weekdays() {
		url := base + "/" + w.Short() + ".json"
		body, fromCache, err := f.FetchOne(ctx, url)
		if errors.Is(err, errNotFound) {
			appLog.Warn("templates: no remote template for weekday", "weekday", w.String(), "url", redactURL(url))
			continue
		}
		if err != nil {
			appLog.Warn("templates: remote fetch failed", "weekday", w.String(), "url", redactURL(url), "err", err)
			continue
		}
		if d, ok := decodeDay(body, w, redactURL(url)); ok {
			days = append(days, d)
			appLog.Debug("templates: remote template loaded", "weekday", w.String(), "from_cache", fromCache)
		}
	}

	appLog.Info("templates loaded from remote", "url", redactURL(base), "days", len(days))
	return NewSet(days...)
}

// FetchOne fetches a single URL, honoring ETag and Last-Modified.
func (f *Fetcher) FetchOne(ctx context.Context, url string) ([]byte, bool, error) {
	if url == "" {
		return nil, false, errors.New("template URL is empty")
	}

	cachePath := f.cachePathForURL(url)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, false, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.json"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if len(cachedBody) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Warn("templates: network error, using cached body", "url", redactURL(url), "err", err)
			return cachedBody, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, err
		}
		entry := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := f.saveCache(cachePath, entry, body); err != nil {
			appLog.Error("templates: cache save failed", err, "url", redactURL(url))
		}
		return body, false, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, false, errors.New("received 304 Not Modified but no cached body available")
		}
		return cachedBody, true, nil

	case http.StatusNotFound:
		return nil, false, errNotFound

	default:
		if len(cachedBody) > 0 {
			appLog.Warn("templates: non-OK status, using cached body", "url", redactURL(url), "status", resp.StatusCode)
			return cachedBody, true, nil
		}
		return nil, false, fmt.Errorf("fetch %s: %s", redactURL(url), resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
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

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
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

// redactURL keeps scheme and host, hiding paths and tokens from logs.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i == -1 {
		return "template://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
