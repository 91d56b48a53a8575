package platform

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const backoffJitterMax = 1 * time.Second

// doWithRetry implements the per-request state machine: rate-limit wait,
// send, then either success, a bounded backoff loop for transient failures,
// a single honored retry for 429s, or immediate propagation for everything
// else. The last error wins when attempts run out.
func (c *Client) doWithRetry(ctx context.Context, path string) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffBase
	bo.Multiplier = 2
	bo.RandomizationFactor = 0 // jitter is added separately, additively
	bo.MaxInterval = 5 * time.Minute
	bo.MaxElapsedTime = 0
	bo.Reset()

	attempt := 0
	retriedRateLimit := false

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		body, err := c.send(ctx, path)
		if err == nil {
			return body, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return "", err
		}

		if apiErr.Kind == KindRateLimited {
			// 429s get exactly one retry regardless of the attempt budget.
			if retriedRateLimit {
				return "", err
			}
			retriedRateLimit = true
			wait := apiErr.RetryAfter
			if wait <= 0 {
				wait = DefaultRateLimitWait
			}
			c.log.WithFields(logrus.Fields{"path": path, "wait": wait}).Warn("Rate limited by platform, waiting before retry")
			if serr := c.sleep(ctx, wait); serr != nil {
				return "", serr
			}
			continue
		}

		attempt++
		if attempt >= c.maxRetries {
			return "", err
		}

		delay := bo.NextBackOff() + time.Duration(rand.Int63n(int64(backoffJitterMax)))
		c.log.WithFields(logrus.Fields{
			"path":    path,
			"attempt": attempt,
			"delay":   delay,
			"error":   apiErr.Message,
		}).Warn("Transient failure, backing off")
		if serr := c.sleep(ctx, delay); serr != nil {
			return "", serr
		}
	}
}
