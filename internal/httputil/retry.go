// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the API clients.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// OnRetry, when set, is called before each backoff wait.
type OnRetry func(attempt int, backoff time.Duration)

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) with exponential backoff starting at RetryBaseDelay and
// doubling each attempt.
//
// When maxRetries is 0 or negative the request is sent exactly once. On
// each 429 the response body is drained and closed before sleeping. If the
// context is cancelled during a backoff wait the function returns
// ctx.Err(). After exhausting retries the last 429 response is returned so
// the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, logger *slog.Logger, onRetry OnRetry) (*http.Response, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		logger.Warn("rate limited, retrying",
			slog.Duration("backoff", backoff),
			slog.Int("attempt", attempt+1),
			slog.Int("max_retries", maxRetries),
		)
		if onRetry != nil {
			onRetry(attempt+1, backoff)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
