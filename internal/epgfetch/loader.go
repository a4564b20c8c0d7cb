// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epgfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/tvguide/internal/cache"
	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/ManuGH/tvguide/internal/metrics"
	"github.com/ManuGH/tvguide/internal/platform/httpx"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLoadTimeout = 30 * time.Second
	// DefaultMaxSourceBytes bounds one downloaded or read guide payload.
	DefaultMaxSourceBytes = 256 << 20
)

// Loader fetches the raw bytes of one guide source.
type Loader interface {
	Load(ctx context.Context, source, userAgent string) ([]byte, error)
}

// LoaderConfig configures a SourceLoader.
type LoaderConfig struct {
	// Client performs HTTP requests. Defaults to httpx.NewClient.
	Client *http.Client
	// Timeout bounds each HTTP load. Zero means 30s.
	Timeout time.Duration
	// Cache stores HTTP payloads for CacheTTL; nil or a zero TTL disables it.
	Cache    cache.Cache
	CacheTTL time.Duration
	// MaxBytes bounds a payload. Zero means DefaultMaxSourceBytes.
	MaxBytes int64
}

// SourceLoader reads guide sources from local files or over HTTP. Concurrent
// HTTP loads of the same URL and user agent share one request.
type SourceLoader struct {
	flight   singleflight.Group
	client   *http.Client
	timeout  time.Duration
	cache    cache.Cache
	cacheTTL time.Duration
	maxBytes int64
}

// NewSourceLoader builds a SourceLoader.
func NewSourceLoader(cfg LoaderConfig) *SourceLoader {
	l := &SourceLoader{
		client:   cfg.Client,
		timeout:  cfg.Timeout,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		maxBytes: cfg.MaxBytes,
	}
	if l.timeout <= 0 {
		l.timeout = defaultLoadTimeout
	}
	if l.client == nil {
		l.client = httpx.NewClient(httpx.Options{Timeout: l.timeout})
	}
	if l.maxBytes <= 0 {
		l.maxBytes = DefaultMaxSourceBytes
	}
	return l
}

// Load returns the payload of source. An existing local path (or file://
// URL) is read from disk; anything else is fetched with HTTP GET. Failures
// are returned as *SourceError.
func (l *SourceLoader) Load(ctx context.Context, source, userAgent string) ([]byte, error) {
	if path, ok := localPath(source); ok {
		data, err := l.readFile(path)
		if err != nil {
			return nil, &SourceError{URL: source, Err: err}
		}
		return data, nil
	}

	// Servers may vary the payload by user agent; the agent is part of both
	// the cache key and the in-flight key.
	key := sourceKey(source, userAgent)
	if l.cache != nil && l.cacheTTL > 0 {
		if data, ok := l.cache.Get(ctx, key); ok {
			metrics.IncEPGSourceCache(true)
			xglog.FromContext(ctx).Debug().Str(xglog.FieldSourceURL, source).Msg("epg source served from cache")
			return data, nil
		}
		metrics.IncEPGSourceCache(false)
	}

	v, err, _ := l.flight.Do(key, func() (any, error) {
		data, err := l.get(ctx, source, userAgent)
		if err != nil {
			return nil, err
		}
		if l.cache != nil && l.cacheTTL > 0 {
			l.cache.Set(ctx, key, data, l.cacheTTL)
		}
		return data, nil
	})
	if err != nil {
		return nil, &SourceError{URL: source, Err: err}
	}
	return v.([]byte), nil
}

func sourceKey(source, userAgent string) string {
	return source + "\x00" + userAgent
}

func (l *SourceLoader) get(ctx context.Context, source, userAgent string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported source %q: not a file and not an http(s) url", source)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return l.readLimited(resp.Body)
}

func (l *SourceLoader) readFile(path string) ([]byte, error) {
	// #nosec G304 -- guide paths come from the operator's playlist or config
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return l.readLimited(f)
}

func (l *SourceLoader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("payload exceeds %d bytes", l.maxBytes)
	}
	return data, nil
}

// localPath reports whether source names an existing regular file.
func localPath(source string) (string, bool) {
	if rest, ok := strings.CutPrefix(source, "file://"); ok {
		return filepath.FromSlash(rest), true
	}
	if info, err := os.Stat(source); err == nil && info.Mode().IsRegular() {
		return source, true
	}
	return "", false
}
