// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds a course section with course metadata for export.
type ExportEntry struct {
	SectionID string        `json:"section_id" yaml:"section_id"`
	CourseID  string        `json:"course_id" yaml:"course_id"`
	Heading   string        `json:"heading" yaml:"heading"`
	Position  int           `json:"position" yaml:"position"`
	Content   string        `json:"content" yaml:"content"`
	Course    *ExportCourse `json:"course,omitempty" yaml:"course,omitempty"`
}

// ExportCourse holds the course-level fields included in each export entry.
type ExportCourse struct {
	Title string `json:"title" yaml:"title"`
	Query string `json:"query" yaml:"query"`
}

const exportLimit = 100000

// ExportYAML writes the library to library/index/export.yaml. It supports
// the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.libraryDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the library to library/index/export.json. It supports
// the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.libraryDir, indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			SectionID: r.SectionID,
			CourseID:  r.CourseID,
			Heading:   r.Heading,
			Position:  r.Position,
			Content:   r.Content,
		}
		if r.CourseTitle != "" || r.CourseQuery != "" {
			entries[i].Course = &ExportCourse{
				Title: r.CourseTitle,
				Query: r.CourseQuery,
			}
		}
	}

	return entries, nil
}
