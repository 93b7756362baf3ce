// Package sheets retrieves the raw comma-delimited export that feeds the pipeline.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultURL is the published spreadsheet export the dashboard reads by default.
	DefaultURL = "https://docs.google.com/spreadsheets/d/1ioA27wIC7e3rTVyKb2RSPa391t50QDWN8YnDVEmlUeA/export?format=csv"

	defaultTimeout = 15 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
	cacheBustParam = "timestamp"
)

// ErrFetchFailed indicates the export could not be retrieved: a transport
// failure or a non-success response status.
var ErrFetchFailed = errors.New("sheets: fetch failed")

// Source yields the full raw export text.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// HTTPSource fetches the export from a fixed URL. It does not retry.
type HTTPSource struct {
	url     string
	timeout time.Duration
	http    *http.Client
	now     func() time.Time
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSource) {
		if c != nil {
			s.http = c
		}
	}
}

// WithClock replaces the time source used for the cache-busting token.
func WithClock(now func() time.Time) Option {
	return func(s *HTTPSource) {
		if now != nil {
			s.now = now
		}
	}
}

// NewHTTPSource creates a source for the given export URL.
func NewHTTPSource(rawURL string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		url:     strings.TrimSpace(rawURL),
		timeout: defaultTimeout,
		http:    &http.Client{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch performs one GET with a fresh cache-busting token and returns the body.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	target, err := s.requestURL()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	req.Header.Set("User-Agent", "bizdash/1.0")
	req.Header.Set("Cache-Control", "no-cache")

	//nolint:gosec // URL comes from local configuration
	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrFetchFailed, err)
	}
	if len(body) > maxBodySize {
		return "", fmt.Errorf("%w: response exceeds %d bytes", ErrFetchFailed, maxBodySize)
	}
	return string(body), nil
}

// requestURL appends the cache-busting token to the configured URL,
// preserving any existing query parameters.
func (s *HTTPSource) requestURL() (string, error) {
	u, err := url.Parse(s.url)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", ErrFetchFailed, s.url)
	}
	q := u.Query()
	q.Set(cacheBustParam, strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// StatusError is returned for non-success HTTP responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sheets: HTTP error, status %d", e.StatusCode)
}

// Is reports StatusError as a fetch failure.
func (e *StatusError) Is(target error) bool {
	return target == ErrFetchFailed
}

// FileSource reads the export from a local file. Useful offline and together
// with the file watcher.
type FileSource struct {
	Path string
}

// Fetch returns the file contents.
func (f FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	//nolint:gosec // path is configured by the local user
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return string(data), nil
}

// NewSource picks an HTTPSource for http(s) locations and a FileSource otherwise.
func NewSource(location string, opts ...Option) Source {
	loc := strings.TrimSpace(location)
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return NewHTTPSource(loc, opts...)
	}
	return FileSource{Path: strings.TrimPrefix(loc, "file://")}
}

// LocalPath returns the file path when src reads a local file.
func LocalPath(src Source) (string, bool) {
	if fs, ok := src.(FileSource); ok {
		return fs.Path, true
	}
	return "", false
}
