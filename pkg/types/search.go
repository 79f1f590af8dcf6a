// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the learning-hub pipeline.
package types

// SearchResult represents a web page returned by a search backend query.
type SearchResult struct {
	// URL is the resolved target URL of the result page.
	URL string `json:"url" yaml:"url"`

	// Title is the page title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// Snippet is the short body excerpt shown on the results page.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source identifies which backend found this result (e.g. "duckduckgo", "wikipedia").
	Source string `json:"source" yaml:"source"`

	// Query is the search query that produced this result. Topic-expanded
	// queries differ from the course's main query.
	Query string `json:"query" yaml:"query"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance to the query.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// ImageRef is an image retrieved for a course, referenced from the generated
// content by its sequential ID.
type ImageRef struct {
	// ID is the 1-based sequence number the content generator uses in
	// placeholders (IMAGE 1, IMAGE 2, ...).
	ID int `json:"id" yaml:"id"`

	// URL is the direct image URL.
	URL string `json:"url" yaml:"url"`

	// Title describes the image.
	Title string `json:"title" yaml:"title"`

	// SourcePage is the page the image was found on.
	SourcePage string `json:"source_page,omitempty" yaml:"source_page,omitempty"`
}
