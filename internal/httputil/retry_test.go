// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/content-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RetryBaseDelay = 1 * time.Millisecond
}

func statusSequence(t *testing.T, codes ...int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		code := codes[len(codes)-1]
		if n <= len(codes) {
			code = codes[n-1]
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		codes      []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"immediate success", []int{200}, 3, 200, 1},
		{"429 then success", []int{429, 429, 200}, 3, 200, 3},
		{"503 then success", []int{503, 200}, 3, 200, 2},
		{"exhausts retries", []int{429}, 2, 429, 3},
		{"default retries", []int{503}, 0, 503, 4},
		{"500 passes through", []int{500}, 3, 500, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := statusSequence(t, tt.codes...)
			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries, nil)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestDoWithRetryOn_Throttled(t *testing.T) {
	tests := []struct {
		name       string
		codes      []int
		wantStatus int
		wantCalls  int32
	}{
		{"429 retried", []int{429, 201}, 201, 2},
		{"503 returned at once", []int{503, 201}, 503, 1},
		{"500 returned at once", []int{500, 201}, 500, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := statusSequence(t, tt.codes...)
			req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{}`))
			require.NoError(t, err)

			resp, err := DoWithRetryOn(context.Background(), ts.Client(), req, 3, nil, Throttled)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestDoWithRetry_ReplaysBody(t *testing.T) {
	var calls int32
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL, bytes.NewReader([]byte(`{"a":1}`)))
	require.NoError(t, err)

	var log bytes.Buffer
	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 2, &log)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{`{"a":1}`, `{"a":1}`}, bodies)
	assert.Contains(t, log.String(), "status 429, retrying")
}

func TestDoWithRetry_ContextCancelled(t *testing.T) {
	ts, _ := statusSequence(t, http.StatusTooManyRequests)

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, 5, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 4*RetryBaseDelay, backoff(2, ""))
	assert.Equal(t, 3*time.Second, backoff(0, "3"))
	assert.Equal(t, MaxRetryAfter, backoff(0, "86400"))
	assert.Equal(t, RetryBaseDelay, backoff(0, "Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestNewClientAndUserAgent(t *testing.T) {
	c := NewClient(types.HTTPConfig{}, 5*time.Second)
	assert.Equal(t, 5*time.Second, c.Timeout)

	c = NewClient(types.HTTPConfig{Timeout: time.Second}, 5*time.Second)
	assert.Equal(t, time.Second, c.Timeout)

	assert.Equal(t, DefaultUserAgent, UserAgent(types.HTTPConfig{}))
	assert.Equal(t, "bot/1", UserAgent(types.HTTPConfig{UserAgent: "bot/1"}))
}

func TestReadBody_Limits(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader("abcdefgh"))}
	b, err := ReadBody(resp, 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(b))
}
