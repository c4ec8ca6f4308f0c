package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/periodize/internal/cache"
	"github.com/ppiankov/periodize/internal/worker"
)

const sampleCSV = "name,dating\nvase,IV century BC\nbowl,1925\n"

func fastRetries(t *testing.T) {
	t.Helper()
	orig := fetchRetryDelay
	fetchRetryDelay = time.Millisecond
	t.Cleanup(func() { fetchRetryDelay = orig })
}

func newTestFetcher(opts ...FetcherOption) *Fetcher {
	return NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "", opts...)
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("Expected user agent test-agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = fmt.Fprint(w, sampleCSV)
	}))
	defer server.Close()

	result, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != sampleCSV {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if result.ContentType != "text/csv" {
		t.Errorf("Expected text/csv, got %q", result.ContentType)
	}
	if result.FromCache {
		t.Error("Expected fresh download")
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	fastRetries(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, sampleCSV)
	}))
	defer server.Close()

	result, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(result.Body) != sampleCSV {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	fastRetries(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 status error, got %v", err)
	}
	// 404 is not retryable, so should fail immediately
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	fastRetries(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher(WithAttempts(4)).FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != 4 {
		t.Errorf("Expected 4 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_429Retried(t *testing.T) {
	fastRetries(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, sampleCSV)
	}))
	defer server.Close()

	if _, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected success after 429 retry, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 64))
	}))
	defer server.Close()

	exact := NewFetcher(5*time.Second, "test-agent", 64, false, "", "", "")
	if _, err := exact.Fetch(context.Background(), server.URL); err != nil {
		t.Errorf("Expected body at the cap to pass, got %v", err)
	}

	small := NewFetcher(5*time.Second, "test-agent", 63, false, "", "", "")
	if _, err := small.Fetch(context.Background(), server.URL); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestFetch_Redirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/moved":
			http.Redirect(w, r, "/data.csv", http.StatusFound)
		case "/loop":
			http.Redirect(w, r, "/loop", http.StatusFound)
		default:
			_, _ = fmt.Fprint(w, sampleCSV)
		}
	}))
	defer server.Close()

	result, err := newTestFetcher().Fetch(context.Background(), server.URL+"/moved")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.FinalURL != server.URL+"/data.csv" {
		t.Errorf("Expected final URL %s/data.csv, got %s", server.URL, result.FinalURL)
	}

	if _, err := newTestFetcher().Fetch(context.Background(), server.URL+"/loop"); err == nil {
		t.Error("Expected redirect loop to fail")
	}
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	var downloads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		downloads.Add(1)
		_, _ = fmt.Fprint(w, sampleCSV)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, true, "", "", "")

	if _, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/private/data.csv"); !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/public/data.csv"); err != nil {
		t.Errorf("Expected public path to be allowed, got %v", err)
	}
	if downloads.Load() != 1 {
		t.Errorf("Expected 1 dataset download, got %d", downloads.Load())
	}
}

func TestFetch_UsesCache(t *testing.T) {
	var downloads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		_, _ = fmt.Fprint(w, sampleCSV)
	}))
	defer server.Close()

	c := cache.NewLayeredCache(time.Minute, t.TempDir(), time.Hour)
	fetcher := newTestFetcher(WithCache(c, time.Hour), WithLimiter(worker.NewLimiter(0, 1)))

	first, err := fetcher.Fetch(context.Background(), server.URL+"/data.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	second, err := fetcher.Fetch(context.Background(), server.URL+"/data.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if first.FromCache || !second.FromCache {
		t.Errorf("Expected miss then hit, got %v and %v", first.FromCache, second.FromCache)
	}
	if string(second.Body) != sampleCSV {
		t.Errorf("Unexpected cached body: %s", second.Body)
	}
	if downloads.Load() != 1 {
		t.Errorf("Expected 1 download, got %d", downloads.Load())
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	for _, raw := range []string{"data.csv", "http://[::1"} {
		if _, err := newTestFetcher().FetchWithRetry(context.Background(), raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Expected ErrInvalidURL for %q, got %v", raw, err)
		}
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		desc      string
		err       error
		retryable bool
	}{
		{"503", &StatusError{Code: 503, Status: "503 Service Unavailable"}, true},
		{"500", &StatusError{Code: 500, Status: "500 Internal Server Error"}, true},
		{"502", &StatusError{Code: 502, Status: "502 Bad Gateway"}, true},
		{"429", &StatusError{Code: 429, Status: "429 Too Many Requests"}, true},
		{"404", &StatusError{Code: 404, Status: "404 Not Found"}, false},
		{"403", &StatusError{Code: 403, Status: "403 Forbidden"}, false},
		{"transport", fmt.Errorf("fetch: %w", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}), true},
		{"truncated body", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), true},
		{"invalid URL", fmt.Errorf("%w: bad", ErrInvalidURL), false},
		{"robots", fmt.Errorf("%w: http://x/private", ErrDisallowed), false},
		{"too large", ErrTooLarge, false},
		{"cancelled", fmt.Errorf("rate limit: %w", context.Canceled), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := isRetryableFetchError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}
