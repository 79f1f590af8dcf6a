// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the Generative AI API used by the syllabus and
// content generation stages.
package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Client sends a single prompt to a generative model and returns the raw
// response text. The Gemini implementation lives in this package; tests
// supply mocks.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = 2 * time.Second

// GenerateWithRetry calls the client with exponential backoff and jitter.
// The delay before attempt n is backoffBase * 2^(n-1) scaled by a random
// factor in [0.5, 1.0). When maxRetries is 0 or negative, 3 is used.
func GenerateWithRetry(ctx context.Context, client Client, prompt string, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			jitter := 0.5 + rand.Float64()*0.5
			backoff = time.Duration(float64(backoff) * jitter)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := client.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
