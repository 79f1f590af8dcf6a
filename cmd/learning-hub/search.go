// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/project-a/learning-hub/internal/websearch"
	"github.com/project-a/learning-hub/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "learning-hub/0.1"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the web for learning material on a topic",
	Long: `Search queries web backends (DuckDuckGo, Wikipedia) for pages matching a
learning query. Results are deduplicated across backends and ranked by
relevance. A backend failure degrades to a warning; remaining backends
still contribute results.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text learning query")
	searchCmd.Flags().Int("max-results", 10, "maximum number of results to return")
	searchCmd.Flags().Bool("no-duckduckgo", false, "disable the DuckDuckGo backend")
	searchCmd.Flags().Bool("no-wikipedia", false, "disable the Wikipedia backend")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	if queryText == "" {
		return fmt.Errorf("provide a query as arguments or with --query")
	}

	cfg := searchConfigFromFlags(cmd)
	client := &http.Client{Timeout: cfg.Timeout}
	backends := searchBackends(cfg, client)
	if len(backends) == 0 {
		return fmt.Errorf("all search backends disabled")
	}

	query := websearch.Query{Text: queryText, Limit: cfg.MaxResults}
	out, err := websearch.Search(cmd.Context(), query, backends, cfg, os.Stderr)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return websearch.FormatJSON(out, os.Stdout)
	}
	websearch.FormatTable(out, os.Stdout)
	return nil
}

func searchConfigFromFlags(cmd *cobra.Command) types.SearchConfig {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	noDDG, _ := cmd.Flags().GetBool("no-duckduckgo")
	noWiki, _ := cmd.Flags().GetBool("no-wikipedia")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxResults:       maxResults,
		EnableDuckDuckGo: !noDDG,
		EnableWikipedia:  !noWiki,
	}
}

func searchBackends(cfg types.SearchConfig, client *http.Client) []websearch.Backend {
	var backends []websearch.Backend
	if cfg.EnableDuckDuckGo {
		backends = append(backends, &websearch.DuckDuckGoBackend{Client: client})
	}
	if cfg.EnableWikipedia {
		backends = append(backends, &websearch.WikipediaBackend{Client: client})
	}
	return backends
}
