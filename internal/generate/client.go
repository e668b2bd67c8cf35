// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/pkg/types"
)

// backoffBase controls the base duration for exponential backoff between
// attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// ErrEmptyResponse is returned when a backend produces only whitespace.
var ErrEmptyResponse = errors.New("empty generation response")

// Client wraps a Backend with bounded retries. Every failure it returns is a
// types.ErrGenerationFailed whose cause is the last backend error.
type Client struct {
	Backend    Backend
	MaxRetries int

	// Log receives one line per failed attempt; nil discards.
	Log io.Writer
}

// NewClient returns a Client retrying up to maxRetries times.
func NewClient(b Backend, maxRetries int, log io.Writer) *Client {
	return &Client{Backend: b, MaxRetries: maxRetries, Log: log}
}

// Generate calls the backend, retrying with exponential backoff. Context
// cancellation and deadline errors stop retrying immediately.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	log := c.Log
	if log == nil {
		log = io.Discard
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", types.GenerationFailed("generate", ctx.Err())
			case <-time.After(backoff):
			}
		}

		text, err := c.Backend.Generate(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", types.GenerationFailed("generate", err)
		}
		if attempt < c.MaxRetries {
			fmt.Fprintf(log, "generation attempt %d/%d failed: %v\n", attempt+1, c.MaxRetries+1, err)
		}
	}
	return "", types.GenerationFailed("generate", fmt.Errorf("after %d retries: %w", c.MaxRetries, lastErr))
}
