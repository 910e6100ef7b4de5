// Package fetch performs the blocking HTTP calls to lookup services and the
// graph-query endpoint, with a fixed retry budget around transient failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/util"
	"github.com/ppiankov/powlink/internal/worker"
)

// ErrRetriesExhausted is returned when every attempt failed with a
// transient error
var ErrRetriesExhausted = errors.New("retries exhausted")

// ErrResponseTooLarge is returned for bodies over Options.MaxBytes
var ErrResponseTooLarge = errors.New("response too large")

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = sleepContext

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures a Fetcher
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	MaxBytes   int64
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
	Attempts   int           // Total attempts, at least 1
	Backoff    time.Duration // Fixed wait between attempts
}

// Fetcher issues requests with retry and per-host politeness
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	attempts   int
	backoff    time.Duration
	limiter    *worker.Limiter
	logger     *zap.Logger
}

// NewFetcher creates a new Fetcher. limiter and logger may be nil.
func NewFetcher(opts Options, limiter *worker.Limiter, logger *zap.Logger) *Fetcher {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 64 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		attempts:  opts.Attempts,
		backoff:   opts.Backoff,
		limiter:   limiter,
		logger:    logger,
	}
}

// Request describes one call. A non-nil Form is sent as a urlencoded POST
// body; otherwise Query is appended to the URL of a GET.
type Request struct {
	URL    string
	Query  url.Values
	Form   url.Values
	Accept string
}

// Response contains the body and metadata of a successful call
type Response struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
}

// Fetch performs a single attempt
func (f *Fetcher) Fetch(ctx context.Context, r Request) (*Response, error) {
	req, err := f.newRequest(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, r.URL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrResponseTooLarge, f.maxBytes)
	}

	return &Response{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries transient failures (5xx, 429, connection errors)
// with a fixed backoff. Permanent failures are returned immediately.
func (f *Fetcher) FetchWithRetry(ctx context.Context, r Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		resp, err := f.Fetch(ctx, r)
		if err == nil {
			return resp, nil
		}
		if !isRetryableFetchError(err) {
			return nil, err
		}
		lastErr = err

		if attempt < f.attempts {
			f.logger.Warn("transient fetch failure, retrying",
				zap.String("url", r.URL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", f.backoff),
				zap.Error(err))
			if err := fetchSleepFunc(ctx, f.backoff); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, f.attempts, lastErr)
}

func (f *Fetcher) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	if r.Form != nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, r.URL, strings.NewReader(r.Form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		target := r.URL
		if len(r.Query) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + r.Query.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	accept := r.Accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	return req, nil
}

// isRetryableFetchError reports whether the failure is worth another attempt
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if strings.HasPrefix(msg, "unexpected status: ") {
		code := strings.TrimPrefix(msg, "unexpected status: ")
		return strings.HasPrefix(code, "5") || strings.HasPrefix(code, "429")
	}

	for _, transient := range []string{
		"connection refused",
		"connection reset",
		"i/o timeout",
		"EOF",
		"Client.Timeout exceeded",
	} {
		if strings.HasPrefix(msg, "fetch: ") && strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}
