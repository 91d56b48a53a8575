package platform

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sirupsen/logrus"

	"github.com/govscope/govscope/internal/utils"
)

const (
	// DefaultRateLimitWait is used for 429 responses without a Retry-After header.
	DefaultRateLimitWait = 5 * time.Second

	defaultMaxRetries  = 3
	defaultBackoffBase = 1 * time.Second
	defaultTimeoutSecs = 30
)

// ClientConfig carries the knobs for the platform API client.
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	TimeoutSeconds    int
	MaxRetries        int
	BackoffBase       time.Duration
}

// Client is a connection-reusing HTTP client for the API platform. Every
// request passes through the rate limiter and the retry policy; callers only
// ever see a response body or a classified *APIError.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *RateLimiter

	maxRetries  int
	backoffBase time.Duration

	log *logrus.Logger

	// sleep is swapped out in tests to observe backoff waits.
	sleep func(ctx context.Context, d time.Duration) error

	requestCount int64
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSecs
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		limiter:     NewRateLimiter(cfg.RequestsPerMinute),
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		log:         utils.Log,
		sleep:       sleepContext,
	}
}

// Get fetches a JSON document from the platform, honoring the pacing
// invariant and the retry policy. It returns the raw body for gjson
// extraction by the harvester.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	return c.doWithRetry(ctx, path)
}

// RequestCount returns the number of requests actually dispatched, for
// harvest telemetry. Not synchronized: the harvesting loop is serial.
func (c *Client) RequestCount() int64 {
	return c.requestCount
}

func (c *Client) send(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.requestCount++
	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransport(ctx, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Kind: KindTransientNetwork, Path: path, Message: "reading response body: " + err.Error(), wrapped: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return string(body), nil
	}
	return "", classifyStatus(resp, path, string(body))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
