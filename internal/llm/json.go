// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// ExtractJSON returns the JSON object embedded in a model response. Models
// often wrap JSON in Markdown code fences or surround it with prose; this
// strips fences and cuts the text down to the outermost brace pair. An
// empty string means no object was found.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)

	// Strip a leading ```json (or bare ```) fence and its closing fence.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// GenerateJSON prompts the client and unmarshals the JSON object in the
// response into v. A malformed response counts as a failed attempt and is
// retried with the same backoff as transport errors: models occasionally
// emit broken JSON and a fresh call usually repairs it.
func GenerateJSON(ctx context.Context, client Client, prompt string, maxRetries int, v any) error {
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
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := client.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}

		obj := ExtractJSON(text)
		if obj == "" {
			lastErr = fmt.Errorf("no JSON object in response")
			continue
		}

		if err := json.Unmarshal([]byte(obj), v); err != nil {
			lastErr = fmt.Errorf("parsing response JSON: %w", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
