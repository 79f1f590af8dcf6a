package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func init() {
	backoffBase = time.Millisecond
}

// flakyClient fails a fixed number of times before succeeding.
type flakyClient struct {
	failures int
	calls    int
}

func (c *flakyClient) Generate(_ context.Context, _ string) (string, error) {
	c.calls++
	if c.calls <= c.failures {
		return "", fmt.Errorf("transient error %d", c.calls)
	}
	return "ok", nil
}

func TestGenerateWithRetrySucceedsAfterFailures(t *testing.T) {
	client := &flakyClient{failures: 2}

	text, err := GenerateWithRetry(context.Background(), client, "prompt", 3)
	if err != nil {
		t.Fatalf("GenerateWithRetry() error = %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q, want %q", text, "ok")
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestGenerateWithRetryExhausted(t *testing.T) {
	client := &flakyClient{failures: 10}

	_, err := GenerateWithRetry(context.Background(), client, "prompt", 2)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// 1 initial + 2 retries.
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestGenerateWithRetryContextCancelled(t *testing.T) {
	old := backoffBase
	backoffBase = time.Second
	defer func() { backoffBase = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := &flakyClient{failures: 10}
	_, err := GenerateWithRetry(ctx, client, "prompt", 5)
	if err != context.DeadlineExceeded {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestGenerateWithRetryDefaultRetries(t *testing.T) {
	client := &flakyClient{failures: 10}

	_, err := GenerateWithRetry(context.Background(), client, "prompt", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	// 1 initial + 3 default retries.
	if client.calls != 4 {
		t.Errorf("calls = %d, want 4", client.calls)
	}
}

// sequenceClient returns canned responses in order.
type sequenceClient struct {
	responses []string
	calls     int
}

func (c *sequenceClient) Generate(_ context.Context, _ string) (string, error) {
	if c.calls >= len(c.responses) {
		return "", fmt.Errorf("no more responses")
	}
	r := c.responses[c.calls]
	c.calls++
	return r, nil
}

func TestGenerateJSONRetriesOnMalformedResponse(t *testing.T) {
	client := &sequenceClient{responses: []string{
		"sorry, I cannot produce JSON",
		`{"value": "broken`,
		"```json\n{\"value\": \"ok\"}\n```",
	}}

	var out struct {
		Value string `json:"value"`
	}
	if err := GenerateJSON(context.Background(), client, "prompt", 3, &out); err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if out.Value != "ok" {
		t.Errorf("out.Value = %q, want %q", out.Value, "ok")
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestGenerateJSONExhausted(t *testing.T) {
	client := &sequenceClient{responses: []string{"junk", "junk", "junk", "junk"}}

	var out map[string]any
	err := GenerateJSON(context.Background(), client, "prompt", 3, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no JSON object") {
		t.Errorf("err = %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced json", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", `Here is the JSON: {"a": 1} hope it helps`, `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no object", "no json here", ""},
		{"empty", "", ""},
		{"whitespace padded", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
