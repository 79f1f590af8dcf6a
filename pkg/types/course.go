// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Topic is one main headline of a course syllabus with its subtopics.
type Topic struct {
	// ID is a stable identifier for the topic, consistent across
	// re-generations of the same query and headline.
	ID string `json:"id" yaml:"id"`

	// Headline is the topic title.
	Headline string `json:"headline" yaml:"headline"`

	// Subtopics lists the points covered under the headline.
	Subtopics []string `json:"subtopics" yaml:"subtopics"`
}

// Syllabus is the course outline produced by the syllabus stage.
type Syllabus struct {
	// CourseTitle is the overall course title.
	CourseTitle string `json:"main_headline" yaml:"main_headline"`

	// Topics lists the main headlines in teaching order.
	Topics []Topic `json:"topics" yaml:"topics"`
}

// SourceDoc is the extracted text of one source page used to ground
// course content.
type SourceDoc struct {
	// URL is the source page URL.
	URL string `json:"url" yaml:"url"`

	// Title is the page title.
	Title string `json:"title" yaml:"title"`

	// Text is the extracted readable text, capped by SourcesConfig.MaxPageBytes.
	Text string `json:"text" yaml:"text"`

	// FetchedAt records when the page was downloaded.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Course is the complete output of one generation run.
type Course struct {
	// ID is a slug derived from the query (e.g. "artificial-intelligence-in-education").
	ID string `json:"id" yaml:"id"`

	// Query is the topic the course was generated for.
	Query string `json:"query" yaml:"query"`

	// Syllabus is the outline the content follows.
	Syllabus Syllabus `json:"syllabus" yaml:"syllabus"`

	// Content is the generated course body in Markdown.
	Content string `json:"content" yaml:"content"`

	// Images lists the images referenced from the content.
	Images []ImageRef `json:"images,omitempty" yaml:"images,omitempty"`

	// Sources lists the web results the content was grounded in.
	Sources []SearchResult `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Model is the AI model that generated the content.
	Model string `json:"model" yaml:"model"`

	// GeneratedAt records when generation completed.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}
