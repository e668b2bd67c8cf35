// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the competitor fetcher,
// the generation providers, and the publisher.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/content-engine/pkg/types"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps how long a server-supplied Retry-After header may make
// us wait.
var MaxRetryAfter = time.Minute

const defaultMaxRetries = 3

// DefaultUserAgent is sent when the configuration leaves it empty.
const DefaultUserAgent = "content-engine/0.1"

// Retryable reports whether status indicates a transient server condition
// worth retrying: 429 Too Many Requests or 503 Service Unavailable.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// Throttled reports whether status is 429 Too Many Requests. A throttled
// request was refused before the server acted on it, so it is the only
// status safe to retry for requests that are not idempotent.
func Throttled(status int) bool {
	return status == http.StatusTooManyRequests
}

// DoWithRetry executes req and retries on 429 and 503 with exponential
// backoff starting at RetryBaseDelay. A Retry-After header given in seconds
// overrides the computed delay, up to MaxRetryAfter.
//
// When maxRetries is 0 the default (3) is used. Requests with a body must be
// built with http.NewRequest from a bytes or strings reader so the body can be
// replayed. If ctx is cancelled during a wait the function returns ctx.Err().
// After exhausting retries the last throttled response is returned so the
// caller can inspect it. Retry notices go to log when it is non-nil.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, log io.Writer) (*http.Response, error) {
	return DoWithRetryOn(ctx, client, req, maxRetries, log, Retryable)
}

// DoWithRetryOn is DoWithRetry with the set of retried statuses chosen by
// retryable.
func DoWithRetryOn(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, log io.Writer, retryable func(int) bool) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if log == nil {
		log = io.Discard
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		fmt.Fprintf(log, "%s %s: status %d, retrying in %v (attempt %d/%d)\n",
			req.Method, req.URL.Host, resp.StatusCode, wait, attempt+1, maxRetries)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > MaxRetryAfter {
			d = MaxRetryAfter
		}
		return d
	}
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}

// NewClient returns an http.Client honoring cfg.Timeout, falling back to
// fallback when the configured timeout is zero.
func NewClient(cfg types.HTTPConfig, fallback time.Duration) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = fallback
	}
	return &http.Client{Timeout: timeout}
}

// UserAgent returns cfg.UserAgent or DefaultUserAgent.
func UserAgent(cfg types.HTTPConfig) string {
	if cfg.UserAgent != "" {
		return cfg.UserAgent
	}
	return DefaultUserAgent
}

// ReadBody reads at most limit bytes of resp's body and closes it.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
