// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose turns a syllabus, its web sources, and its image set
// into the finished Markdown course. The heavy lifting happens in a
// single model call; compose builds the prompt, runs the call with
// retries, and rewrites the model's numbered image placeholders into
// real Markdown image links.
package compose

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/project-a/learning-hub/internal/llm"
	"github.com/project-a/learning-hub/pkg/types"
)

// imagePlaceholderPattern matches the ![IMAGE N](image_url_N) placeholders
// the generation prompt instructs the model to emit.
var imagePlaceholderPattern = regexp.MustCompile(`!\[IMAGE (\d+)\]\(image_url_(\d+)\)`)

// Input bundles everything a course generation needs.
type Input struct {
	Query    string
	Syllabus types.Syllabus
	Sources  []types.SearchResult
	Docs     []types.SourceDoc
	Images   []types.ImageRef
	Model    string
}

// Generate produces the full course from the gathered inputs.
func Generate(ctx context.Context, client llm.Client, in Input, maxRetries int) (types.Course, error) {
	if in.Query == "" {
		return types.Course{}, fmt.Errorf("query must not be empty")
	}
	if len(in.Syllabus.Topics) == 0 {
		return types.Course{}, fmt.Errorf("syllabus has no topics")
	}

	prompt, err := renderContentPrompt(in.Query, in.Syllabus, in.Sources, in.Docs, in.Images)
	if err != nil {
		return types.Course{}, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := llm.GenerateWithRetry(ctx, client, prompt, maxRetries)
	if err != nil {
		return types.Course{}, fmt.Errorf("generating course content: %w", err)
	}

	content := SubstituteImages(text, in.Images)

	return types.Course{
		ID:          Slug(in.Query),
		Query:       in.Query,
		Syllabus:    in.Syllabus,
		Content:     content,
		Images:      in.Images,
		Sources:     in.Sources,
		Model:       in.Model,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// SubstituteImages replaces ![IMAGE N](image_url_N) placeholders with
// Markdown links to the matching image. Placeholders whose number does
// not correspond to a known image are left untouched so a reviewer can
// spot them in the output.
func SubstituteImages(content string, images []types.ImageRef) string {
	if len(images) == 0 {
		return content
	}

	byID := make(map[int]types.ImageRef, len(images))
	for _, img := range images {
		byID[img.ID] = img
	}

	return imagePlaceholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		sub := imagePlaceholderPattern.FindStringSubmatch(match)
		// A mismatched pair like ![IMAGE 1](image_url_2) is a model
		// mistake, left in place so it shows up on review.
		if sub[1] != sub[2] {
			return match
		}
		id, err := strconv.Atoi(sub[1])
		if err != nil {
			return match
		}
		img, ok := byID[id]
		if !ok {
			return match
		}
		return fmt.Sprintf("![%s](%s)", img.Title, img.URL)
	})
}
