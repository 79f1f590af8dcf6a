// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	gohtml "html"

	"github.com/project-a/learning-hub/internal/httputil"
	"github.com/project-a/learning-hub/pkg/types"
)

// wikipediaAPIBase is the MediaWiki search endpoint. Declared as a var so
// tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

const wikipediaArticleBase = "https://en.wikipedia.org/wiki/"

// tagPattern strips the <span class="searchmatch"> markup MediaWiki
// embeds in snippets.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// WikipediaBackend queries the MediaWiki full-text search API.
type WikipediaBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *WikipediaBackend) Name() string { return "wikipedia" }

// Search queries the MediaWiki API and returns article results.
func (b *WikipediaBackend) Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Wikipedia query")
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprintf("%d", limit)},
		"srprop":   {"snippet"},
		"format":   {"json"},
	}
	reqURL := wikipediaAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Wikipedia API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Wikipedia API returned HTTP %d", resp.StatusCode)
	}

	var wr wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("parsing Wikipedia response: %w", err)
	}

	total := len(wr.Query.Search)
	var results []types.SearchResult
	for i, page := range wr.Query.Search {
		if page.Title == "" {
			continue
		}

		r := types.SearchResult{
			URL:     wikipediaArticleBase + url.PathEscape(strings.ReplaceAll(page.Title, " ", "_")),
			Title:   page.Title,
			Snippet: cleanSnippet(page.Snippet),
			Source:  "wikipedia",
			Query:   query,
		}

		// Position-based relevance score.
		if total > 1 {
			r.RelevanceScore = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			r.RelevanceScore = 1.0
		}

		results = append(results, r)
	}
	return results, nil
}

// cleanSnippet removes HTML markup and entities from a MediaWiki snippet.
func cleanSnippet(s string) string {
	return strings.TrimSpace(gohtml.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

// MediaWiki search response structures.
type wikipediaResponse struct {
	Query struct {
		Search []wikipediaPage `json:"search"`
	} `json:"query"`
}

type wikipediaPage struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	PageID  int    `json:"pageid"`
}
