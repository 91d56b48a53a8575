package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
	"time"
)

// ErrorKind classifies an API failure for retry decisions.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindRateLimited
	KindTransientNetwork
	KindTransientServer
	KindAuthFailure
	KindPermissionDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransientNetwork:
		return "transient_network"
	case KindTransientServer:
		return "transient_server"
	case KindAuthFailure:
		return "auth_failure"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "other"
	}
}

// APIError is the typed failure returned by the client for any non-2xx
// response or transport-level fault.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Path       string
	Message    string

	// RetryAfter is only set for rate-limited responses that carried a
	// Retry-After header.
	RetryAfter time.Duration

	wrapped error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: GET %s returned %d: %s", e.Kind, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: GET %s: %s", e.Kind, e.Path, e.Message)
}

func (e *APIError) Unwrap() error { return e.wrapped }

// Retryable reports whether the retry loop may attempt this request again.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindTransientNetwork, KindTransientServer:
		return true
	}
	return false
}

// transientStatusCodes are server-side failures worth retrying. Cloudflare's
// 52x range shows up when the upstream platform sits behind their proxy.
var transientStatusCodes = map[int]bool{
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
	http.StatusRequestTimeout:     true,
	520:                           true,
	521:                           true,
	522:                           true,
	523:                           true,
	524:                           true,
}

func classifyStatus(resp *http.Response, path, body string) *APIError {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &APIError{
			Kind:       KindRateLimited,
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    "rate limit exceeded",
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode == http.StatusUnauthorized:
		return &APIError{
			Kind:       KindAuthFailure,
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    "authentication failed, check that the API key is valid",
		}
	case resp.StatusCode == http.StatusForbidden:
		return &APIError{
			Kind:       KindPermissionDenied,
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    "permission denied, the API key lacks the required scope",
		}
	case transientStatusCodes[resp.StatusCode]:
		return &APIError{
			Kind:       KindTransientServer,
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    "transient server error",
		}
	}
	msg := body
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{
		Kind:       KindOther,
		StatusCode: resp.StatusCode,
		Path:       path,
		Message:    msg,
	}
}

func classifyTransport(ctx context.Context, path string, err error) error {
	// Caller cancellation is not a platform failure, let it surface as-is.
	// The request context, not the error value, is what decides: a
	// Client.Timeout expiry also matches context.DeadlineExceeded but is an
	// ordinary transient failure of a single request.
	if ctx.Err() != nil {
		return err
	}

	kind := KindOther
	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		kind = KindTransientNetwork
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTransientNetwork
	}

	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg = urlErr.Err.Error()
	}

	return &APIError{
		Kind:    kind,
		Path:    path,
		Message: msg,
		wrapped: err,
	}
}

// parseRetryAfter understands both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
