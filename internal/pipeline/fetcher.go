package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ppiankov/periodize/internal/cache"
	"github.com/ppiankov/periodize/internal/util"
	"github.com/ppiankov/periodize/internal/worker"
)

var (
	// ErrDisallowed is returned when robots.txt forbids the download
	ErrDisallowed = errors.New("disallowed by robots.txt")
	// ErrTooLarge is returned when a body exceeds the configured cap
	ErrTooLarge = errors.New("response body too large")
	// ErrInvalidURL is returned for URLs a request cannot be built from
	ErrInvalidURL = errors.New("invalid URL")
)

// Overridden in tests
var fetchRetryDelay = 2 * time.Second

// StatusError is a non-2xx HTTP response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher downloads remote datasets
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	attempts   int
	logger     *slog.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithCache stores downloaded bodies in c for ttl
func WithCache(c cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLimiter paces requests per host
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithAttempts sets how many times FetchWithRetry tries a URL
func WithAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithFetchLogger sets the fetcher's logger
func WithFetchLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, respectRobots bool, httpProxy, httpsProxy, noProxy string, opts ...FetcherOption) *Fetcher {
	transport := util.NewTransport(httpProxy, httpsProxy, noProxy)

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		attempts:  3,
		logger:    slog.Default(),
	}

	if respectRobots {
		f.robots = util.NewRobotsChecker(userAgent, timeout, transport)
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// FetchResult contains a downloaded body and its metadata
type FetchResult struct {
	Body        []byte
	ContentType string
	FinalURL    string
	FromCache   bool
}

// Fetch downloads rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.DownloadKey(rawURL)
	if f.cache != nil {
		if body, ok := f.cache.Get(key); ok {
			f.logger.Debug("download cache hit", "url", rawURL, "bytes", len(body))
			return &FetchResult{Body: body, FinalURL: rawURL, FromCache: true}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if req.URL.Host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidURL, rawURL)
	}

	if err := f.waitTurn(ctx, rawURL, req.URL.Host); err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	// One extra byte tells a body at the cap from one over it
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	result := &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}

	f.logger.Debug("downloaded dataset", "url", result.FinalURL, "status", resp.StatusCode, "bytes", len(body))

	if f.cache != nil {
		if err := f.cache.Set(key, body, f.cacheTTL); err != nil {
			f.logger.Warn("failed to cache download", "url", rawURL, "error", err)
		}
	}

	return result, nil
}

// waitTurn applies robots.txt and the per-host rate limit
func (f *Fetcher) waitTurn(ctx context.Context, rawURL, host string) error {
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
		if f.limiter != nil {
			f.limiter.SlowHost(host, crawlDelay)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	return nil
}

// FetchWithRetry downloads rawURL, retrying transient failures with
// exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	return retry.DoWithData(
		func() (*FetchResult, error) {
			return f.Fetch(ctx, rawURL)
		},
		retry.Context(ctx),
		retry.Attempts(uint(f.attempts)),
		retry.Delay(fetchRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryableFetchError),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Warn("retrying download", "url", rawURL, "attempt", n+1, "error", err)
		}),
	)
}

// isRetryableFetchError reports whether a failed download may succeed on a
// later attempt: server errors, 429 and transport failures
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
