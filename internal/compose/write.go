// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/project-a/learning-hub/pkg/types"
)

const (
	courseFile   = "course.md"
	metadataFile = "course.yaml"
)

// sectionFilePattern matches numbered section files: NN-slug.md.
var sectionFilePattern = regexp.MustCompile(`^\d{2}-.+\.md$`)

var nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a filesystem-safe directory name from a course query.
func Slug(query string) string {
	s := strings.ToLower(strings.TrimSpace(query))
	s = nonSlugPattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 60 {
		s = strings.Trim(s[:60], "-")
	}
	if s == "" {
		s = "course"
	}
	return s
}

// CourseDir picks an unused directory name under coursesDir for a course,
// appending a numeric suffix when the slug is already taken.
func CourseDir(coursesDir, query string) string {
	slug := Slug(query)
	dir := filepath.Join(coursesDir, slug)
	for i := 2; ; i++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return dir
		}
		dir = filepath.Join(coursesDir, fmt.Sprintf("%s-%d", slug, i))
	}
}

// WriteCourse persists a generated course to courseDir: the full document
// as course.md, its metadata as course.yaml, and one numbered NN-slug.md
// file per top-level section for downstream indexing.
func WriteCourse(courseDir string, course types.Course) error {
	if err := os.MkdirAll(courseDir, 0o755); err != nil {
		return fmt.Errorf("creating course directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(courseDir, courseFile), []byte(course.Content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", courseFile, err)
	}

	meta, err := yaml.Marshal(course)
	if err != nil {
		return fmt.Errorf("marshaling course metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(courseDir, metadataFile), meta, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", metadataFile, err)
	}

	for i, sec := range SplitSections(course.Content) {
		name := fmt.Sprintf("%02d-%s.md", i+1, Slug(sec.Heading))
		if err := os.WriteFile(filepath.Join(courseDir, name), []byte(sec.Body), 0o644); err != nil {
			return fmt.Errorf("writing section %s: %w", name, err)
		}
	}
	return nil
}

// Section is one top-level slice of a course document.
type Section struct {
	Heading string
	Body    string
}

// SplitSections breaks a Markdown course on its "## " headings. Content
// before the first heading becomes an "introduction" section. The heading
// line stays in the body so each file stands alone.
func SplitSections(content string) []Section {
	lines := strings.Split(content, "\n")

	var sections []Section
	current := Section{Heading: "introduction"}
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text != "" {
			current.Body = text + "\n"
			sections = append(sections, current)
		}
		body = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "## ") && !strings.HasPrefix(line, "###") {
			flush()
			current = Section{Heading: strings.TrimSpace(strings.TrimPrefix(line, "## "))}
		}
		body = append(body, line)
	}
	flush()
	return sections
}

// SectionFiles returns the ordered list of numbered section file paths
// (NN-*.md) in a course directory.
func SectionFiles(courseDir string) ([]string, error) {
	entries, err := os.ReadDir(courseDir)
	if err != nil {
		return nil, fmt.Errorf("reading course directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if sectionFilePattern.MatchString(e.Name()) {
			files = append(files, filepath.Join(courseDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
