package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/powlink/internal/worker"
)

func init() {
	fetchSleepFunc = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
}

func newTestFetcher(attempts int) *Fetcher {
	return NewFetcher(Options{
		Timeout:   5 * time.Second,
		UserAgent: "test-agent",
		MaxBytes:  1 << 20,
		Attempts:  attempts,
		Backoff:   3 * time.Second,
	}, nil, nil)
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	result, err := newTestFetcher(3).FetchWithRetry(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != `{"ok":true}` {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if result.ContentType != "application/json" {
		t.Errorf("Unexpected content type: %s", result.ContentType)
	}
}

func TestFetch_FormPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		_, _ = fmt.Fprint(w, r.PostForm.Get("text"))
	}))
	defer server.Close()

	result, err := newTestFetcher(1).Fetch(context.Background(), Request{
		URL:  server.URL,
		Form: url.Values{"text": {"Sääksmäki"}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != "Sääksmäki" {
		t.Errorf("Unexpected echo: %s", result.Body)
	}
}

func TestFetch_GetQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/n-triples" {
			t.Errorf("unexpected accept %q", r.Header.Get("Accept"))
		}
		_, _ = fmt.Fprint(w, r.URL.Query().Get("query"))
	}))
	defer server.Close()

	result, err := newTestFetcher(1).Fetch(context.Background(), Request{
		URL:    server.URL + "/sparql?default=1",
		Query:  url.Values{"query": {"SELECT * {}"}},
		Accept: "application/n-triples",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != "SELECT * {}" {
		t.Errorf("Unexpected echo: %s", result.Body)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	result, err := newTestFetcher(3).FetchWithRetry(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(result.Body) != "OK" {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(3).FetchWithRetry(context.Background(), Request{URL: server.URL})
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	// 404 is not retryable, so should fail immediately
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher(3).FetchWithRetry(context.Background(), Request{URL: server.URL})
	if err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("Expected ErrRetriesExhausted, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_429Retried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	_, err := newTestFetcher(3).FetchWithRetry(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Expected success after 429 retry, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetch_OversizedBodyIsAnError(t *testing.T) {
	const line = "<http://ldf.fi/a> <http://ldf.fi/p> <http://ldf.fi/b> .\n"
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = fmt.Fprint(w, line+line)
	}))
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, MaxBytes: int64(len(line)), Attempts: 3}, nil, nil)
	result, err := f.FetchWithRetry(context.Background(), Request{URL: server.URL})
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("Expected ErrResponseTooLarge, got %v (result %v)", err, result)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}

	exact := NewFetcher(Options{Timeout: 5 * time.Second, MaxBytes: int64(2 * len(line)), Attempts: 1}, nil, nil)
	result, err = exact.Fetch(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Expected a body of exactly MaxBytes to pass, got %v", err)
	}
	if string(result.Body) != line+line {
		t.Errorf("Unexpected body: %q", result.Body)
	}
}

func TestFetchWithRetry_CancelDuringBackoff(t *testing.T) {
	fetchSleepFunc = sleepContext
	defer func() {
		fetchSleepFunc = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, Attempts: 3, Backoff: time.Hour}, nil, nil)
	start := time.Now()
	_, err := f.FetchWithRetry(ctx, Request{URL: server.URL})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Cancellation took %v", elapsed)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("Expected sleep to end on cancellation")
	}
}

func TestFetch_UsesLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	limiter := worker.NewLimiter(0.001, 1)
	f := NewFetcher(Options{Timeout: 5 * time.Second, Attempts: 1}, limiter, nil)

	if _, err := f.Fetch(context.Background(), Request{URL: server.URL}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if limiter.Allow(server.URL) {
		t.Error("expected the fetch to consume the host's token")
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		err       string
		retryable bool
	}{
		{"unexpected status: 503 Service Unavailable", true},
		{"unexpected status: 500 Internal Server Error", true},
		{"unexpected status: 502 Bad Gateway", true},
		{"unexpected status: 429 Too Many Requests", true},
		{"unexpected status: 404 Not Found", false},
		{"unexpected status: 403 Forbidden", false},
		{"unexpected status: 401 Unauthorized", false},
		{"fetch: connection refused", true},
		{"fetch: connection reset by peer", true},
		{"create request: invalid URL", false},
		{"read body: unexpected EOF", false},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			err := fmt.Errorf("%s", tt.err)
			got := isRetryableFetchError(err)
			if got != tt.retryable {
				t.Errorf("isRetryableFetchError(%q) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestIsRetryableFetchError_Nil(t *testing.T) {
	if isRetryableFetchError(nil) {
		t.Error("Expected nil error to not be retryable")
	}
}
