// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/project-a/learning-hub/internal/compose"
	"github.com/project-a/learning-hub/internal/images"
	"github.com/project-a/learning-hub/internal/llm"
	"github.com/project-a/learning-hub/internal/secrets"
	"github.com/project-a/learning-hub/internal/sources"
	"github.com/project-a/learning-hub/internal/syllabus"
	"github.com/project-a/learning-hub/internal/websearch"
	"github.com/project-a/learning-hub/pkg/types"
)

const defaultCoursesDir = "courses"

var generateCmd = &cobra.Command{
	Use:   "generate [query...]",
	Short: "Generate a complete course from a learning query",
	Long: `Generate runs the full pipeline: it creates a syllabus, gathers web
sources and images for the syllabus topics, asks the AI model to compose
the course content, and writes the finished course to the courses
directory.

Source and image gathering degrade gracefully: a failed backend or an
unreachable page produces a warning and the course is generated from
whatever material was collected.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("query", "", "learning query to build a course for")
	generateCmd.Flags().String("model", defaultModel, "AI model identifier")
	generateCmd.Flags().String("api-key", "", "Gemini API key (default: .secrets/gemini-api-key)")
	generateCmd.Flags().String("courses-dir", defaultCoursesDir, "directory for generated courses")
	generateCmd.Flags().Int("max-results", 10, "maximum number of web sources")
	generateCmd.Flags().Int("max-images", 4, "maximum number of images")
	generateCmd.Flags().Int("max-retries", 3, "retry attempts per AI model call")
	generateCmd.Flags().Bool("no-images", false, "skip image gathering")
	generateCmd.Flags().Bool("no-search", false, "skip web search; generate from the model alone")
	generateCmd.Flags().Bool("fetch-pages", false, "fetch full source pages instead of using snippets")
	generateCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	generateCmd.Flags().Bool("dry-run", false, "print the syllabus and planned searches, then stop")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	queryText, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")
	apiKey = secretDefault(secrets.GeminiAPIKey, apiKey)
	if apiKey == "" {
		return fmt.Errorf("no Gemini API key: use --api-key or place one in .secrets/%s", secrets.GeminiAPIKey)
	}

	coursesDir, _ := cmd.Flags().GetString("courses-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	maxImages, _ := cmd.Flags().GetInt("max-images")
	noImages, _ := cmd.Flags().GetBool("no-images")
	noSearch, _ := cmd.Flags().GetBool("no-search")
	fetchPages, _ := cmd.Flags().GetBool("fetch-pages")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	ctx := cmd.Context()
	aiCfg := types.AIConfig{Model: model, APIKey: apiKey, MaxRetries: maxRetries}

	client, err := llm.NewGeminiClient(ctx, aiCfg)
	if err != nil {
		return err
	}

	// Stage 1: syllabus.
	fmt.Fprintf(os.Stderr, "Generating syllabus for %q...\n", queryText)
	syl, err := syllabus.Generate(ctx, client, queryText, types.SyllabusConfig{AIConfig: aiCfg})
	if err != nil {
		return fmt.Errorf("syllabus generation failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Syllabus: %q (%d topics)\n", syl.CourseTitle, len(syl.Topics))

	searchCfg := types.SearchConfig{
		HTTPConfig:       types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
		MaxResults:       maxResults,
		EnableDuckDuckGo: true,
		EnableWikipedia:  true,
	}

	if dryRun {
		return printDryRun(queryText, *syl, searchCfg)
	}

	httpClient := &http.Client{Timeout: timeout}

	// Stage 2: web sources.
	var results []types.SearchResult
	if !noSearch {
		out, err := websearch.Gather(ctx, queryText, *syl, searchBackends(searchCfg, httpClient), searchCfg, os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: web search failed: %v\n", err)
		} else {
			results = out.Results
		}
		fmt.Fprintf(os.Stderr, "Collected %d web sources\n", len(results))
	}

	// Stage 3: full page text, when requested.
	var docs []types.SourceDoc
	if fetchPages && len(results) > 0 {
		srcCfg := types.SourcesConfig{
			HTTPConfig: types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
			FetchPages: true,
			FetchDelay: time.Second,
			CoursesDir: coursesDir,
		}
		batch := sources.FetchAll(ctx, httpClient, results, srcCfg, os.Stderr)
		docs = batch.Docs
		if batch.HasFailures() {
			fmt.Fprintf(os.Stderr, "warning: %d source page(s) failed to fetch\n", batch.Failed)
		}
	}

	// Stage 4: images.
	var imgs []types.ImageRef
	if !noImages {
		imgCfg := types.ImageConfig{
			HTTPConfig: types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
			MaxImages:  maxImages,
		}
		searcher := &images.DuckDuckGoSearcher{Client: httpClient, Config: imgCfg}
		imgs = images.Gather(ctx, searcher, queryText, *syl, imgCfg, os.Stderr)
		fmt.Fprintf(os.Stderr, "Collected %d images\n", len(imgs))
	}

	// Stage 5: course content.
	fmt.Fprintln(os.Stderr, "Composing course content...")
	course, err := compose.Generate(ctx, client, compose.Input{
		Query:    queryText,
		Syllabus: *syl,
		Sources:  results,
		Docs:     docs,
		Images:   imgs,
		Model:    model,
	}, aiCfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("course generation failed: %w", err)
	}

	dir := compose.CourseDir(coursesDir, queryText)
	if err := compose.WriteCourse(dir, course); err != nil {
		return err
	}
	fmt.Printf("Course written to %s\n", dir)
	return nil
}

// printDryRun shows the syllabus and the searches the pipeline would run.
func printDryRun(queryText string, syl types.Syllabus, cfg types.SearchConfig) error {
	fmt.Printf("Course: %s\n", syl.CourseTitle)
	for i, topic := range syl.Topics {
		fmt.Printf("  %d. %s\n", i+1, topic.Headline)
		for _, sub := range topic.Subtopics {
			fmt.Printf("     - %s\n", sub)
		}
	}
	fmt.Println("\nPlanned searches:")
	for _, q := range websearch.ExpandQueries(queryText, syl, cfg) {
		fmt.Printf("  %q (limit %d)\n", q.Text, q.Limit)
	}
	return nil
}

func queryFromFlags(cmd *cobra.Command, args []string) (string, error) {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	if queryText == "" {
		return "", fmt.Errorf("provide a query as arguments or with --query")
	}
	return queryText, nil
}
