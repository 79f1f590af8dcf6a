package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const ddgResultsPage = `<!DOCTYPE html>
<html><body>
<div class="serp__results">
  <div class="result results_links results_links_deep result--ad">
    <a class="result__a" href="https://ads.example.com/buy">Sponsored Thing</a>
    <a class="result__snippet">Buy now.</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fai-education&amp;rut=abc">AI in Education - Example</a>
    <a class="result__snippet">How artificial intelligence changes the classroom.</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <a class="result__a" href="https://edu.example.org/course">Free AI Course</a>
    <a class="result__snippet">A complete introduction.</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <a class="result__a" href="https://third.example.net/page">Third Result</a>
  </div>
</div>
</body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("missing q parameter")
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(ddgResultsPage))
	}))
	defer ts.Close()

	old := ddgHTMLBase
	ddgHTMLBase = ts.URL
	defer func() { ddgHTMLBase = old }()

	b := &DuckDuckGoBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), "AI in education", 5, testCfg())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3 (ad skipped)", len(results))
	}

	// Redirect link unwrapped to the target URL.
	if results[0].URL != "https://example.com/ai-education" {
		t.Errorf("results[0].URL = %q", results[0].URL)
	}
	if results[0].Title != "AI in Education - Example" {
		t.Errorf("results[0].Title = %q", results[0].Title)
	}
	if results[0].Snippet != "How artificial intelligence changes the classroom." {
		t.Errorf("results[0].Snippet = %q", results[0].Snippet)
	}
	if results[0].Source != "duckduckgo" {
		t.Errorf("results[0].Source = %q", results[0].Source)
	}

	// Direct links pass through.
	if results[1].URL != "https://edu.example.org/course" {
		t.Errorf("results[1].URL = %q", results[1].URL)
	}

	// Missing snippet is tolerated.
	if results[2].Snippet != "" {
		t.Errorf("results[2].Snippet = %q, want empty", results[2].Snippet)
	}

	// Scores decrease with position.
	if results[0].RelevanceScore <= results[2].RelevanceScore {
		t.Errorf("scores not descending: %f vs %f", results[0].RelevanceScore, results[2].RelevanceScore)
	}
}

func TestDuckDuckGoSearchLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(ddgResultsPage))
	}))
	defer ts.Close()

	old := ddgHTMLBase
	ddgHTMLBase = ts.URL
	defer func() { ddgHTMLBase = old }()

	b := &DuckDuckGoBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), "ai", 1, testCfg())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
}

func TestDuckDuckGoSearchEmptyQuery(t *testing.T) {
	b := &DuckDuckGoBackend{Client: http.DefaultClient}
	if _, err := b.Search(context.Background(), "  ", 5, testCfg()); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestDuckDuckGoSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	old := ddgHTMLBase
	ddgHTMLBase = ts.URL
	defer func() { ddgHTMLBase = old }()

	b := &DuckDuckGoBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), "ai", 5, testCfg()); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}

func TestUnwrapDDGHref(t *testing.T) {
	target := "https://example.com/page?x=1"
	wrapped := "//duckduckgo.com/l/?uddg=" + url.QueryEscape(target) + "&rut=deadbeef"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"redirect link", wrapped, target},
		{"direct link", "https://example.com/direct", "https://example.com/direct"},
		{"empty", "", ""},
		{"redirect without uddg", "//duckduckgo.com/l/?rut=x", "https://duckduckgo.com/l/?rut=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unwrapDDGHref(tt.in); got != tt.want {
				t.Errorf("unwrapDDGHref(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
