// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/project-a/learning-hub/internal/llm"
	"github.com/project-a/learning-hub/internal/secrets"
	"github.com/project-a/learning-hub/internal/syllabus"
	"github.com/project-a/learning-hub/pkg/types"
)

const defaultModel = "gemini-2.0-flash"

var syllabusCmd = &cobra.Command{
	Use:   "syllabus [query...]",
	Short: "Generate a course syllabus for a learning query",
	Long: `Syllabus asks the AI model for a structured course outline: a course
title plus main topics with subtopics. The outline is validated and
printed as YAML (or JSON with --json) without running the rest of the
pipeline.`,
	RunE: runSyllabus,
}

func init() {
	syllabusCmd.Flags().String("query", "", "learning query to outline")
	syllabusCmd.Flags().String("model", defaultModel, "AI model identifier")
	syllabusCmd.Flags().String("api-key", "", "Gemini API key (default: .secrets/gemini-api-key)")
	syllabusCmd.Flags().Int("min-topics", 0, "minimum number of topics (0 = default)")
	syllabusCmd.Flags().Int("max-topics", 0, "maximum number of topics (0 = default)")
	syllabusCmd.Flags().Bool("json", false, "output the syllabus as JSON")

	rootCmd.AddCommand(syllabusCmd)
}

func runSyllabus(cmd *cobra.Command, args []string) error {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	if queryText == "" {
		return fmt.Errorf("provide a query as arguments or with --query")
	}

	cfg, err := syllabusConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	client, err := llm.NewGeminiClient(cmd.Context(), cfg.AIConfig)
	if err != nil {
		return err
	}

	syl, err := syllabus.Generate(cmd.Context(), client, queryText, cfg)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(syl)
	}
	data, err := yaml.Marshal(syl)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func syllabusConfigFromFlags(cmd *cobra.Command) (types.SyllabusConfig, error) {
	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")
	minTopics, _ := cmd.Flags().GetInt("min-topics")
	maxTopics, _ := cmd.Flags().GetInt("max-topics")

	apiKey = secretDefault(secrets.GeminiAPIKey, apiKey)
	if apiKey == "" {
		return types.SyllabusConfig{}, fmt.Errorf("no Gemini API key: use --api-key or place one in .secrets/%s", secrets.GeminiAPIKey)
	}

	return types.SyllabusConfig{
		AIConfig: types.AIConfig{
			Model:  model,
			APIKey: apiKey,
		},
		MinTopics: minTopics,
		MaxTopics: maxTopics,
	}, nil
}
