package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "learning-hub/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the web search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the overall cap on merged search results (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MainResults is the number of results requested for the main topic query (default 5).
	MainResults int `json:"main_results" yaml:"main_results"`

	// PerTopicResults is the number of results requested per syllabus-topic query (default 2).
	PerTopicResults int `json:"per_topic_results" yaml:"per_topic_results"`

	// TopicSearchCount is how many syllabus topics get their own query (default 3).
	TopicSearchCount int `json:"topic_search_count" yaml:"topic_search_count"`

	// EnableDuckDuckGo controls whether the DuckDuckGo backend is used.
	EnableDuckDuckGo bool `json:"enable_duckduckgo" yaml:"enable_duckduckgo"`

	// EnableWikipedia controls whether the Wikipedia backend is used.
	EnableWikipedia bool `json:"enable_wikipedia" yaml:"enable_wikipedia"`

	// InterBackendDelay is the delay between calls to different backends (default 1s).
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay"`
}

// ImageConfig holds settings for the image retrieval stage.
type ImageConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxImages is the overall cap on retrieved images (default 4).
	MaxImages int `json:"max_images" yaml:"max_images"`

	// MainImages is the number of images requested for the main topic query (default 2).
	MainImages int `json:"main_images" yaml:"main_images"`

	// PerTopicImages is the number of images requested per syllabus-topic query (default 1).
	PerTopicImages int `json:"per_topic_images" yaml:"per_topic_images"`

	// TopicImageCount is how many syllabus topics get their own image query (default 2).
	TopicImageCount int `json:"topic_image_count" yaml:"topic_image_count"`
}

// SourcesConfig holds settings for the source page fetch stage.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// FetchPages controls whether full source pages are fetched. When false
	// only search snippets are used for grounding.
	FetchPages bool `json:"fetch_pages" yaml:"fetch_pages"`

	// MaxPageBytes caps the extracted text per source page (default 16384).
	MaxPageBytes int `json:"max_page_bytes" yaml:"max_page_bytes"`

	// FetchDelay is the delay between consecutive page fetches (default 1s).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`

	// CoursesDir is the base directory for courses (contains sources/).
	CoursesDir string `json:"courses_dir" yaml:"courses_dir"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SyllabusConfig holds settings for the syllabus generation stage.
type SyllabusConfig struct {
	AIConfig `yaml:",inline"`

	// MinTopics is the minimum number of syllabus topics (default 5).
	MinTopics int `json:"min_topics" yaml:"min_topics"`

	// MaxTopics is the maximum number of syllabus topics (default 7).
	MaxTopics int `json:"max_topics" yaml:"max_topics"`

	// MaxSubtopics caps the subtopics kept per topic (default 3).
	MaxSubtopics int `json:"max_subtopics" yaml:"max_subtopics"`
}

// GenerationConfig holds settings for the course content generation stage.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// CoursesDir is the directory for generated courses (e.g. "courses/").
	CoursesDir string `json:"courses_dir" yaml:"courses_dir"`
}

// LibraryConfig holds settings for the course library.
type LibraryConfig struct {
	// LibraryDir is the base directory for the library (contains index/).
	LibraryDir string `json:"library_dir" yaml:"library_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Images     ImageConfig      `json:"images" yaml:"images"`
	Sources    SourcesConfig    `json:"sources" yaml:"sources"`
	Syllabus   SyllabusConfig   `json:"syllabus" yaml:"syllabus"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Library    LibraryConfig    `json:"library" yaml:"library"`
}
