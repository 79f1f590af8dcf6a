// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/project-a/learning-hub/pkg/types"
)

// GeminiClient calls the Gemini API through the official genai client.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient constructs a Gemini-backed Client from the AI config.
// The API key and model are required.
func NewGeminiClient(ctx context.Context, cfg types.AIConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is empty: add .secrets/gemini-api-key or set it in config")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model identifier is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Generate sends the prompt to the configured model and returns the
// concatenated text parts of the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("Gemini API returned no candidates")
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("Gemini API blocked the response on safety grounds")
	}
	if cand.Content == nil {
		return "", fmt.Errorf("Gemini API returned empty content")
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		b.WriteString(part.Text)
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content in Gemini API response")
	}
	return text, nil
}
