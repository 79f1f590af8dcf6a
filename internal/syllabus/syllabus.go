// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package syllabus generates a course outline for a topic through the
// Generative AI API.
package syllabus

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/project-a/learning-hub/internal/llm"
	"github.com/project-a/learning-hub/pkg/types"
)

// response mirrors the JSON schema the prompt requests.
type response struct {
	MainHeadline string          `json:"main_headline"`
	Topics       []responseTopic `json:"topics"`
}

type responseTopic struct {
	Headline  string   `json:"headline"`
	Subtopics []string `json:"subtopics"`
}

// Generate produces a validated syllabus for the query. Topic and subtopic
// counts are clamped to the configured bounds; too few topics is an error
// because the downstream search expansion and content prompt assume a full
// outline.
func Generate(ctx context.Context, client llm.Client, query string, cfg types.SyllabusConfig) (*types.Syllabus, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty: provide a course topic")
	}

	minTopics := cfg.MinTopics
	if minTopics <= 0 {
		minTopics = 5
	}
	maxTopics := cfg.MaxTopics
	if maxTopics < minTopics {
		maxTopics = 7
	}
	maxSubtopics := cfg.MaxSubtopics
	if maxSubtopics <= 0 {
		maxSubtopics = 3
	}

	prompt, err := renderPrompt(promptData{
		Query:        query,
		MinTopics:    minTopics,
		MaxTopics:    maxTopics,
		MaxSubtopics: maxSubtopics,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	var resp response
	if err := llm.GenerateJSON(ctx, client, prompt, cfg.MaxRetries, &resp); err != nil {
		return nil, fmt.Errorf("generating syllabus: %w", err)
	}

	return convert(query, resp, minTopics, maxTopics, maxSubtopics)
}

// convert validates the model response and builds the Syllabus.
func convert(query string, resp response, minTopics, maxTopics, maxSubtopics int) (*types.Syllabus, error) {
	title := strings.TrimSpace(resp.MainHeadline)
	if title == "" {
		// The prototype fell back to the raw query when the model
		// omitted a title.
		title = query
	}

	var topics []types.Topic
	for i, rt := range resp.Topics {
		headline := strings.TrimSpace(rt.Headline)
		if headline == "" {
			return nil, fmt.Errorf("topic %d has an empty headline", i)
		}

		subtopics := make([]string, 0, len(rt.Subtopics))
		for _, st := range rt.Subtopics {
			st = strings.TrimSpace(st)
			if st == "" {
				continue
			}
			subtopics = append(subtopics, st)
			if len(subtopics) >= maxSubtopics {
				break
			}
		}

		topics = append(topics, types.Topic{
			ID:        stableID(query, headline),
			Headline:  headline,
			Subtopics: subtopics,
		})
		if len(topics) >= maxTopics {
			break
		}
	}

	if len(topics) < minTopics {
		return nil, fmt.Errorf("syllabus has %d topics, want at least %d", len(topics), minTopics)
	}

	return &types.Syllabus{
		CourseTitle: title,
		Topics:      topics,
	}, nil
}

// stableID generates a deterministic topic ID from query and headline.
// The ID is the first 12 hex characters of SHA-256(query + headline), so
// re-generating the same outline keeps the same IDs.
func stableID(query, headline string) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte(headline))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
