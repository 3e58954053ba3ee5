package viewer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheEnvVar        = "INTERLEAVE_CACHE_DIR"
	cacheSubdir        = "interleave/pdfs"
	cacheTTL           = 24 * time.Hour
	defaultHTTPTimeout = 90 * time.Second
)

// fetchCache keeps local copies of remote documents so reopening a session
// does not download the PDF again. An entry older than the TTL revalidates
// with a conditional request, and an interrupted download resumes from its
// partial file.
type fetchCache struct {
	dir    string
	client *http.Client
}

// entry is the on-disk footprint of one cached URL: the document itself, a
// validator sidecar, and the in-progress download.
type entry struct {
	url  string
	file string
	meta string
	part string
}

// validators is what the sidecar remembers about the last good download.
type validators struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CheckedAt    time.Time `json:"checkedAt"`
	Size         int64     `json:"size"`
}

func newFetchCache(client *http.Client) (*fetchCache, error) {
	dir := os.Getenv(cacheEnvVar)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "interleave-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &fetchCache{dir: dir, client: client}, nil
}

// Fetch returns a local path for source, downloading only when the cached
// copy is missing or stale. A stale copy is still returned when the refresh
// fails.
func (c *fetchCache) Fetch(ctx context.Context, source string) (string, error) {
	e := c.entryFor(source)
	info, statErr := os.Stat(e.file)
	cached := statErr == nil && info.Size() > 0
	if cached && time.Since(info.ModTime()) < cacheTTL {
		return e.file, nil
	}

	if err := c.refresh(ctx, e, e.loadValidators(info), cached); err != nil {
		if cached {
			return e.file, nil
		}
		return "", err
	}
	return e.file, nil
}

// entryFor names cache files after the URL's base so the directory stays
// legible, with a hash suffix keeping distinct URLs apart.
func (c *fetchCache) entryFor(source string) entry {
	name := "doc"
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		base := strings.TrimSuffix(path.Base(u.Path), ".pdf")
		if base != "" && base != "." && base != "/" {
			name = sanitizeName(base)
		}
	}
	sum := sha1.Sum([]byte(source))
	stem := filepath.Join(c.dir, name+"-"+hex.EncodeToString(sum[:4]))
	return entry{url: source, file: stem + ".pdf", meta: stem + ".meta", part: stem + ".part"}
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}

func (c *fetchCache) refresh(ctx context.Context, e entry, val validators, cached bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return err
	}
	if cached {
		if val.ETag != "" {
			req.Header.Set("If-None-Match", val.ETag)
		}
		if val.LastModified != "" {
			req.Header.Set("If-Modified-Since", val.LastModified)
		}
	}
	var resumeFrom int64
	if info, err := os.Stat(e.part); err == nil && info.Size() > 0 {
		resumeFrom = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
		switch {
		case val.ETag != "":
			req.Header.Set("If-Range", val.ETag)
		case val.LastModified != "":
			req.Header.Set("If-Range", val.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if !cached {
			return fmt.Errorf("pdf download failed: unexpected 304 for %s", e.url)
		}
		val.CheckedAt = time.Now().UTC()
		return e.writeValidators(val)
	case http.StatusOK:
		return e.store(resp, false)
	case http.StatusPartialContent:
		return e.store(resp, resumeFrom > 0)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pdf download failed: %s (%s)", resp.Status, detail)
	}
}

// loadValidators reads the sidecar, discarding it when it belongs to another
// URL or disagrees with the file actually on disk.
func (e entry) loadValidators(info os.FileInfo) validators {
	data, err := os.ReadFile(e.meta)
	if err != nil {
		return validators{}
	}
	var v validators
	if json.Unmarshal(data, &v) != nil || v.URL != e.url {
		return validators{}
	}
	if info != nil && v.Size != 0 && v.Size != info.Size() {
		return validators{}
	}
	return v
}

func (e entry) store(resp *http.Response, resume bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	out, err := os.OpenFile(e.part, flags, 0o644)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(e.part, e.file); err != nil {
		return err
	}

	val := validators{
		URL:          e.url,
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CheckedAt:    time.Now().UTC(),
	}
	if info, err := os.Stat(e.file); err == nil {
		val.Size = info.Size()
	}
	return e.writeValidators(val)
}

func (e entry) writeValidators(v validators) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(e.meta, data, 0o644)
}
