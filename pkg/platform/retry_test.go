package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(baseURL string) (*Client, *[]time.Duration) {
	c := NewClient(ClientConfig{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		RequestsPerMinute: 60000,
		TimeoutSeconds:    5,
		MaxRetries:        3,
		BackoffBase:       time.Millisecond,
	})
	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return c, &sleeps
}

func TestRetryExhaustionCallsExactlyMaxRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	_, err := c.Get(context.Background(), "/workspaces")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Kind != KindTransientServer || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected final error: %v", apiErr)
	}
}

func TestAuthFailuresShortCircuit(t *testing.T) {
	for _, tc := range []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusUnauthorized, KindAuthFailure},
		{http.StatusForbidden, KindPermissionDenied},
	} {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(tc.status)
		}))

		c, _ := newTestClient(srv.URL)
		_, err := c.Get(context.Background(), "/me")
		srv.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := atomic.LoadInt32(&hits); got != 1 {
			t.Fatalf("status %d: expected exactly 1 attempt, got %d", tc.status, got)
		}
		apiErr := err.(*APIError)
		if apiErr.Kind != tc.kind {
			t.Fatalf("status %d: expected kind %v, got %v", tc.status, tc.kind, apiErr.Kind)
		}
		if apiErr.Retryable() {
			t.Fatalf("status %d: must not be retryable", tc.status)
		}
	}
}

func TestRateLimitedHonorsRetryAfter(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv.URL)
	body, err := c.Get(context.Background(), "/collections")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != `{"ok":true}` {
		t.Fatalf("unexpected body: %q", body)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected exactly one retry (2 attempts), got %d", got)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] < 2*time.Second {
		t.Fatalf("expected a single wait of >= 2s, got %v", *sleeps)
	}
}

func TestRateLimitedDefaultWaitAndSingleRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv.URL)
	_, err := c.Get(context.Background(), "/monitors")
	if err == nil {
		t.Fatal("expected error when the platform keeps rate limiting")
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("429s get exactly one retry, got %d attempts", got)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != DefaultRateLimitWait {
		t.Fatalf("expected one default wait of %v, got %v", DefaultRateLimitWait, *sleeps)
	}
	if err.(*APIError).Kind != KindRateLimited {
		t.Fatalf("unexpected error kind: %v", err)
	}
}

func TestClientTimeoutRetriedAsTransient(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	c.http.Timeout = 100 * time.Millisecond

	_, err := c.Get(context.Background(), "/workspaces")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("per-request timeouts must use the full attempt budget, got %d attempts", got)
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Kind != KindTransientNetwork {
		t.Fatalf("expected transient network classification, got %v", apiErr.Kind)
	}
}

func TestCallerCancellationSurfacesRaw(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/workspaces")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("caller deadline must surface unclassified, got %v", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("caller cancellation must not be classified: %v", apiErr)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("cancelled requests must not be retried, got %d attempts", got)
	}
}

func TestUnexpectedStatusNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	_, err := c.Get(context.Background(), "/nope")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", got)
	}
	if err.(*APIError).Kind != KindOther {
		t.Fatalf("unexpected kind: %v", err)
	}
}

func TestBackoffDelaysGrow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv.URL)
	c.backoffBase = 100 * time.Millisecond
	_, err := c.Get(context.Background(), "/workspaces")
	if err == nil {
		t.Fatal("expected error")
	}

	// Two backoff waits for three attempts: base*2^0 and base*2^1, each plus
	// up to a second of jitter.
	if len(*sleeps) != 2 {
		t.Fatalf("expected 2 backoff waits, got %d", len(*sleeps))
	}
	first, second := (*sleeps)[0], (*sleeps)[1]
	if first < 100*time.Millisecond || first >= 100*time.Millisecond+backoffJitterMax {
		t.Fatalf("first delay out of range: %v", first)
	}
	if second < 200*time.Millisecond || second >= 200*time.Millisecond+backoffJitterMax {
		t.Fatalf("second delay out of range: %v", second)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("7"); d != 7*time.Second {
		t.Fatalf("expected 7s, got %v", d)
	}
	if d := parseRetryAfter(""); d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
	if d := parseRetryAfter("garbage"); d != 0 {
		t.Fatalf("expected 0 for malformed header, got %v", d)
	}
}

func TestTransientStatusClassification(t *testing.T) {
	for _, code := range []int{502, 503, 504, 408, 520, 521, 522, 523, 524} {
		if !transientStatusCodes[code] {
			t.Fatalf("status %d should be transient", code)
		}
	}
	for _, code := range []int{400, 404, 500, 501} {
		if transientStatusCodes[code] {
			t.Fatalf("status %d should not be transient", code)
		}
	}
}
