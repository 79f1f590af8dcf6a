// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/project-a/learning-hub/pkg/types"
)

// contentPromptTmpl is the course generation prompt. It embeds the outline,
// the web sources, and the image list, and asks for Markdown that follows
// the outline and references images through numbered placeholders.
var contentPromptTmpl = template.Must(template.New("content").Parse(`Create a comprehensive educational course about "{{.Query}}".

Use the provided course structure, web search results, and image descriptions to create a well-formatted, educational course.

COURSE OUTLINE:
{{.Outline}}

WEB SEARCH RESULTS:
{{.Sources}}

AVAILABLE IMAGES:
{{.Images}}

Please create a well-structured course following these guidelines:
1. Begin with an engaging introduction to the topic
2. Follow the provided course outline structure
3. For each main topic:
   - Provide clear explanations using information from the search results
   - Reference relevant images where appropriate using: ![IMAGE X](image_url_X)
   - Include examples, facts, and interesting information
4. End with a summary and suggestions for further learning

Format the content in Markdown with proper headings and sections.
`))

// contentPromptData carries the rendered prompt blocks.
type contentPromptData struct {
	Query   string
	Outline string
	Sources string
	Images  string
}

// renderContentPrompt assembles the full generation prompt.
func renderContentPrompt(query string, syl types.Syllabus, sources []types.SearchResult, docs []types.SourceDoc, images []types.ImageRef) (string, error) {
	data := contentPromptData{
		Query:   query,
		Outline: formatOutline(query, syl),
		Sources: formatSources(sources, docs),
		Images:  formatImages(images),
	}
	var buf bytes.Buffer
	if err := contentPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatOutline renders the syllabus with Topic N / Subtopic N.M numbering.
func formatOutline(query string, syl types.Syllabus) string {
	title := syl.CourseTitle
	if title == "" {
		title = query
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course Title: %s\n\n", title)
	for i, topic := range syl.Topics {
		fmt.Fprintf(&b, "Topic %d: %s\n", i+1, topic.Headline)
		for j, sub := range topic.Subtopics {
			fmt.Fprintf(&b, "  - Subtopic %d.%d: %s\n", i+1, j+1, sub)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatSources renders numbered source blocks. When a fetched SourceDoc
// exists for a result its extracted text replaces the search snippet.
func formatSources(sources []types.SearchResult, docs []types.SourceDoc) string {
	if len(sources) == 0 {
		return "(no web sources available)"
	}

	textByURL := make(map[string]string, len(docs))
	for _, d := range docs {
		if d.Text != "" {
			textByURL[d.URL] = d.Text
		}
	}

	var blocks []string
	for i, s := range sources {
		content := s.Snippet
		if text, ok := textByURL[s.URL]; ok {
			content = text
		}
		title := s.Title
		if title == "" {
			title = "No Title"
		}
		blocks = append(blocks, fmt.Sprintf("--- SOURCE %d ---\nTitle: %s\nContent: %s\nURL: %s",
			i+1, title, content, s.URL))
	}
	return strings.Join(blocks, "\n\n")
}

// formatImages renders one line per available image.
func formatImages(images []types.ImageRef) string {
	if len(images) == 0 {
		return "(no images available)"
	}

	var lines []string
	for _, img := range images {
		lines = append(lines, fmt.Sprintf("IMAGE %d: %s (from %s)", img.ID, img.Title, img.SourcePage))
	}
	return strings.Join(lines, "\n")
}
