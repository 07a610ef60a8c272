// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RetryBaseDelay = time.Millisecond
}

// statusServer answers with codes[i] on call i and 200 afterwards.
func statusServer(t *testing.T, calls *int32, codes ...int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1))
		if n <= len(codes) {
			w.WriteHeader(codes[n-1])
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		codes      []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"immediate success", nil, 3, http.StatusOK, 1},
		{"throttled then ok", []int{429, 429}, 3, http.StatusOK, 3},
		{"unavailable then ok", []int{503}, 3, http.StatusOK, 2},
		{"exhausts retries", []int{429, 429, 429, 429, 429}, 2, http.StatusTooManyRequests, 3},
		{"default retries", []int{429, 429, 429, 429, 429, 429}, 0, http.StatusTooManyRequests, 5},
		{"server error not retried", []int{500}, 3, http.StatusInternalServerError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := statusServer(t, &calls, tt.codes...)

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestDoWithRetryContextCancelled(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, 429, 429, 429)

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoff(t *testing.T) {
	old, oldMax := RetryBaseDelay, MaxRetryDelay
	RetryBaseDelay, MaxRetryDelay = time.Second, 10*time.Second
	defer func() { RetryBaseDelay, MaxRetryDelay = old, oldMax }()

	assert.Equal(t, time.Second, backoff(0, ""))
	assert.Equal(t, 4*time.Second, backoff(2, ""))
	assert.Equal(t, 10*time.Second, backoff(5, ""), "capped")
	assert.Equal(t, 3*time.Second, backoff(0, "3"), "Retry-After seconds")
	assert.Equal(t, 10*time.Second, backoff(0, "3600"), "Retry-After is capped too")
	assert.Equal(t, time.Duration(0), backoff(0, time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(http.StatusTooManyRequests))
	assert.True(t, Retryable(http.StatusServiceUnavailable))
	assert.False(t, Retryable(http.StatusBadGateway))
	assert.False(t, Retryable(http.StatusOK))
}
