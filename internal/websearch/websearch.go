// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch queries web search backends and returns unified,
// deduplicated results for grounding course content.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/project-a/learning-hub/pkg/types"
)

// Backend searches a single web source. Each backend (DuckDuckGo,
// Wikipedia) implements this interface.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// Query is one search request with its per-query result cap.
type Query struct {
	Text  string
	Limit int
}

// Output holds the merged results and dedup statistics.
type Output struct {
	Results       []types.SearchResult
	DupsRemoved   int
	BackendErrors []string
}

// Search fans one query out to all backends concurrently, deduplicates,
// ranks, and caps the merged results.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, w io.Writer) (Output, error) {
	if strings.TrimSpace(query.Text) == "" {
		return Output{}, fmt.Errorf("query is empty: provide a course topic or search terms")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}

	type backendResult struct {
		results []types.SearchResult
		err     error
		name    string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for i, b := range backends {
		if i > 0 && cfg.InterBackendDelay > 0 {
			time.Sleep(cfg.InterBackendDelay)
		}
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query.Text, query.Limit, cfg)
			ch <- backendResult{results: results, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.SearchResult
	var backendErrors []string
	for br := range ch {
		if br.err != nil {
			msg := fmt.Sprintf("%s: %v", br.name, br.err)
			backendErrors = append(backendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		all = append(all, br.results...)
	}

	if len(backendErrors) == len(backends) {
		return Output{}, fmt.Errorf("all search backends failed: %s",
			strings.Join(backendErrors, "; "))
	}

	deduped, removed := deduplicate(all)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	if query.Limit > 0 && len(deduped) > query.Limit {
		deduped = deduped[:query.Limit]
	}

	return Output{
		Results:       deduped,
		DupsRemoved:   removed,
		BackendErrors: backendErrors,
	}, nil
}

// Gather runs the full query expansion for a course: the main query plus
// one query per leading syllabus topic, merged, deduplicated, and capped
// at cfg.MaxResults.
func Gather(ctx context.Context, mainQuery string, syl types.Syllabus, backends []Backend, cfg types.SearchConfig, w io.Writer) (Output, error) {
	queries := ExpandQueries(mainQuery, syl, cfg)

	var all []types.SearchResult
	var backendErrors []string
	totalRemoved := 0

	for _, q := range queries {
		out, err := Search(ctx, q, backends, cfg, w)
		if err != nil {
			return Output{}, fmt.Errorf("searching %q: %w", q.Text, err)
		}
		all = append(all, out.Results...)
		backendErrors = append(backendErrors, out.BackendErrors...)
		totalRemoved += out.DupsRemoved
	}

	deduped, removed := deduplicate(all)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}

	return Output{
		Results:       deduped,
		DupsRemoved:   totalRemoved + removed,
		BackendErrors: backendErrors,
	}, nil
}

// ExpandQueries builds the query list for a course: the main topic at
// cfg.MainResults, then "<topic> <headline>" for the first
// cfg.TopicSearchCount syllabus topics at cfg.PerTopicResults each.
func ExpandQueries(mainQuery string, syl types.Syllabus, cfg types.SearchConfig) []Query {
	mainResults := cfg.MainResults
	if mainResults <= 0 {
		mainResults = 5
	}
	perTopic := cfg.PerTopicResults
	if perTopic <= 0 {
		perTopic = 2
	}
	topicCount := cfg.TopicSearchCount
	if topicCount <= 0 {
		topicCount = 3
	}

	queries := []Query{{Text: mainQuery, Limit: mainResults}}
	for i, topic := range syl.Topics {
		if i >= topicCount {
			break
		}
		if topic.Headline == "" {
			continue
		}
		queries = append(queries, Query{
			Text:  mainQuery + " " + topic.Headline,
			Limit: perTopic,
		})
	}
	return queries
}

// deduplicate merges results that share a normalized URL or normalized title.
func deduplicate(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.SearchResult
	removed := 0

	for _, r := range results {
		key := "url:" + normalizeURL(r.URL)
		if key != "url:" {
			if idx, ok := seen[key]; ok {
				mergeInto(&deduped[idx], r)
				removed++
				continue
			}
		}

		titleKey := "title:" + normalizeTitle(r.Title)
		if titleKey != "title:" {
			if idx, ok := seen[titleKey]; ok {
				mergeInto(&deduped[idx], r)
				removed++
				continue
			}
		}

		idx := len(deduped)
		deduped = append(deduped, r)
		if key != "url:" {
			seen[key] = idx
		}
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src and keeps the higher score.
func mergeInto(dst *types.SearchResult, src types.SearchResult) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.Snippet == "" && src.Snippet != "" {
		dst.Snippet = src.Snippet
	}
	if len(src.Snippet) > len(dst.Snippet) {
		dst.Snippet = src.Snippet
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
	if dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// normalizeURL strips the scheme, a leading "www.", and any trailing slash
// so http/https and www variants of the same page collapse.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	path := strings.TrimSuffix(u.Path, "/")
	return host + path
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-6s  %-12s  %s\n",
		"Rank", "Title", "Score", "Source", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, r := range out.Results {
		title := r.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-6.2f  %-12s  %s\n",
			i+1, title, r.RelevanceScore, r.Source, r.URL)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Results)
}
