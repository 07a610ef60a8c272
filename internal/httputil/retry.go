// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil holds HTTP client helpers shared by the literature backends.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff after a throttled response; each
// further attempt doubles it. Tests shrink it.
var RetryBaseDelay = 2 * time.Second

// MaxRetryDelay caps a single wait, including server-requested ones.
var MaxRetryDelay = 2 * time.Minute

const defaultMaxRetries = 4

// Retryable reports whether a status code signals a transient overload.
func Retryable(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// DoWithRetry sends req and retries while the server answers 429 or 503,
// waiting for the Retry-After header when present and exponential backoff
// otherwise. maxRetries <= 0 uses the default of 4. When retries run out
// the last throttled response is returned unread so the caller can report
// its status. Cancelling ctx during a wait returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff returns the wait before retry attempt+1.
func backoff(attempt int, retryAfter string) time.Duration {
	wait := RetryBaseDelay << attempt
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		wait = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(retryAfter); err == nil {
		wait = time.Until(at)
	}
	if wait < 0 {
		wait = 0
	}
	if wait > MaxRetryDelay {
		wait = MaxRetryDelay
	}
	return wait
}
