// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources fetches the pages behind search results and extracts
// readable text to ground course generation. Fetched pages are cached
// under coursesDir/sources/ and reused on later runs.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/project-a/learning-hub/internal/httputil"
	"github.com/project-a/learning-hub/pkg/types"
)

const sourcesDir = "sources"

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Fetched int
	Cached  int
	Failed  int
	Docs    []types.SourceDoc
}

// Total returns the total number of results processed.
func (r BatchResult) Total() int {
	return r.Fetched + r.Cached + r.Failed
}

// HasFailures reports whether any pages failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchAll downloads each result page, extracts its text, and caches the
// SourceDoc as YAML. Pages already cached are loaded from disk. Failures
// are reported per page and never abort the batch: a course can be
// grounded on the pages that did resolve.
func FetchAll(ctx context.Context, client *http.Client, results []types.SearchResult, cfg types.SourcesConfig, w io.Writer) BatchResult {
	outDir := filepath.Join(cfg.CoursesDir, sourcesDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed to create %s: %v\n", outDir, err)
		return BatchResult{Failed: len(results)}
	}

	var batch BatchResult
	for i, r := range results {
		select {
		case <-ctx.Done():
			return batch
		default:
		}

		if i > 0 && cfg.FetchDelay > 0 {
			time.Sleep(cfg.FetchDelay)
		}

		slug := Slug(r.URL)
		cachePath := filepath.Join(outDir, slug+".yaml")

		if doc, err := readCached(cachePath); err == nil {
			fmt.Fprintf(w, "cached  %s\n", slug)
			batch.Cached++
			batch.Docs = append(batch.Docs, *doc)
			continue
		}

		doc, err := fetchPage(ctx, client, r, cfg)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", slug, err)
			batch.Failed++
			continue
		}

		if err := writeCached(cachePath, doc); err != nil {
			fmt.Fprintf(w, "warning: could not cache %s: %v\n", slug, err)
		}

		fmt.Fprintf(w, "fetched %s (%d bytes)\n", slug, len(doc.Text))
		batch.Fetched++
		batch.Docs = append(batch.Docs, *doc)
	}

	return batch
}

// fetchPage downloads one page and extracts its readable text.
func fetchPage(ctx context.Context, client *http.Client, r types.SearchResult, cfg types.SourcesConfig) (*types.SourceDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned HTTP %d", resp.StatusCode)
	}

	maxBytes := cfg.MaxPageBytes
	if maxBytes <= 0 {
		maxBytes = 16 * 1024
	}

	// Read more raw HTML than the text cap: markup overhead means the
	// extracted text is much smaller than the page.
	title, text, err := ExtractText(io.LimitReader(resp.Body, int64(maxBytes)*8), maxBytes)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	if title == "" {
		title = r.Title
	}

	return &types.SourceDoc{
		URL:       r.URL,
		Title:     title,
		Text:      text,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Slug derives a cache filename from a page URL: host plus path, lowercased,
// with non-alphanumeric runs collapsed to single hyphens.
func Slug(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return sanitize(raw)
	}
	s := strings.TrimPrefix(u.Host, "www.") + u.Path
	return sanitize(s)
}

func sanitize(s string) string {
	var b strings.Builder
	lastHyphen := true // trim leading hyphens
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 80 {
		slug = slug[:80]
	}
	if slug == "" {
		slug = "page"
	}
	return slug
}

func readCached(path string) (*types.SourceDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc types.SourceDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func writeCached(path string, doc *types.SourceDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling source doc: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
