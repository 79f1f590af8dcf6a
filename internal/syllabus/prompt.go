// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syllabus

import (
	"bytes"
	"text/template"
)

// syllabusPromptTmpl instructs the model to produce a course outline as a
// strict JSON object.
var syllabusPromptTmpl = template.Must(template.New("syllabus").Parse(`Create a comprehensive course syllabus with {{.MinTopics}}-{{.MaxTopics}} main headlines for a learning module about: "{{.Query}}".

For each headline, provide 2-{{.MaxSubtopics}} sub-topics that should be covered.
Format your response as JSON with this structure:
{
    "main_headline": "The course title",
    "topics": [
        {
            "headline": "Topic 1",
            "subtopics": ["Subtopic 1.1", "Subtopic 1.2"]
        }
    ]
}

Respond with the JSON object only. Do not include any text outside the JSON object.
`))

// promptData carries the template fields.
type promptData struct {
	Query        string
	MinTopics    int
	MaxTopics    int
	MaxSubtopics int
}

// renderPrompt executes the syllabus prompt template.
func renderPrompt(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := syllabusPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
