package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.UnixMilli(1718000000123)
}

func TestHTTPSource_AppendsCacheBuster(t *testing.T) {
	var (
		mu       sync.Mutex
		gotQuery string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQuery = r.URL.RawQuery
		mu.Unlock()
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/export?format=csv", WithClock(fixedClock))
	body, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "a,b\n1,2\n" {
		t.Errorf("body = %q", body)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotQuery != "format=csv&timestamp=1718000000123" {
		t.Errorf("query = %q, want format=csv&timestamp=1718000000123", gotQuery)
	}
}

func TestHTTPSource_TokenChangesPerRequest(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("timestamp"))
		mu.Unlock()
	}))
	defer srv.Close()

	tick := int64(100)
	src := NewHTTPSource(srv.URL, WithClock(func() time.Time {
		tick++
		return time.UnixMilli(tick)
	}))
	for i := 0; i < 2; i++ {
		if _, err := src.Fetch(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] == seen[1] {
		t.Fatalf("cache-busting tokens = %v, want two distinct values", seen)
	}
}

func TestHTTPSource_NonSuccessStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want StatusError 404", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", n)
	}
}

func TestHTTPSource_OversizedBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", maxBodySize+1)))
	}))
	defer srv.Close()

	body, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	if body != "" {
		t.Errorf("len(body) = %d, want no partial body", len(body))
	}
}

func TestHTTPSource_BodyAtLimitAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", maxBodySize)))
	}))
	defer srv.Close()

	body, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) != maxBodySize {
		t.Errorf("len(body) = %d, want %d", len(body), maxBodySize)
	}
}

func TestHTTPSource_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPSource(addr, WithTimeout(time.Second)).Fetch(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}

func TestHTTPSource_InvalidURL(t *testing.T) {
	_, err := NewHTTPSource("not a url").Fetch(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte("h\nv\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	body, err := FileSource{Path: path}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "h\nv\n" {
		t.Errorf("body = %q", body)
	}

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")}.Fetch(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("missing file err = %v, want ErrFetchFailed", err)
	}
}

func TestNewSource(t *testing.T) {
	if _, ok := NewSource("https://example.com/x.csv").(*HTTPSource); !ok {
		t.Error("https location should yield HTTPSource")
	}
	src := NewSource("file:///tmp/export.csv")
	path, ok := LocalPath(src)
	if !ok || path != "/tmp/export.csv" {
		t.Errorf("LocalPath = %q, %v; want /tmp/export.csv, true", path, ok)
	}
}
