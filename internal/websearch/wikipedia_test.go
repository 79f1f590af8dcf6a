package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const wikipediaSearchResponse = `{
  "query": {
    "search": [
      {"title": "Artificial intelligence in education", "snippet": "Use of <span class=\"searchmatch\">AI</span> in teaching &amp; learning.", "pageid": 1},
      {"title": "Intelligent tutoring system", "snippet": "Computer system that provides instruction.", "pageid": 2}
    ]
  }
}`

func TestWikipediaSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "query" || q.Get("list") != "search" {
			t.Errorf("unexpected params: %v", q)
		}
		if q.Get("srsearch") == "" {
			t.Error("missing srsearch parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(wikipediaSearchResponse))
	}))
	defer ts.Close()

	old := wikipediaAPIBase
	wikipediaAPIBase = ts.URL
	defer func() { wikipediaAPIBase = old }()

	b := &WikipediaBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), "AI in education", 5, testCfg())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	if results[0].URL != "https://en.wikipedia.org/wiki/Artificial_intelligence_in_education" {
		t.Errorf("results[0].URL = %q", results[0].URL)
	}
	// Markup and entities stripped from the snippet.
	if results[0].Snippet != "Use of AI in teaching & learning." {
		t.Errorf("results[0].Snippet = %q", results[0].Snippet)
	}
	if results[0].Source != "wikipedia" {
		t.Errorf("results[0].Source = %q", results[0].Source)
	}
	if results[0].RelevanceScore <= results[1].RelevanceScore {
		t.Errorf("scores not descending: %f vs %f", results[0].RelevanceScore, results[1].RelevanceScore)
	}
}

func TestWikipediaSearchEmptyQuery(t *testing.T) {
	b := &WikipediaBackend{Client: http.DefaultClient}
	if _, err := b.Search(context.Background(), "", 5, testCfg()); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestWikipediaSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := wikipediaAPIBase
	wikipediaAPIBase = ts.URL
	defer func() { wikipediaAPIBase = old }()

	b := &WikipediaBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), "ai", 5, testCfg()); err == nil {
		t.Fatal("expected error for HTTP 503")
	}
}

func TestCleanSnippet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain text`, "plain text"},
		{`<span class="searchmatch">AI</span> systems`, "AI systems"},
		{`a &amp; b`, "a & b"},
		{`  padded  `, "padded"},
	}
	for _, tt := range tests {
		if got := cleanSnippet(tt.in); got != tt.want {
			t.Errorf("cleanSnippet(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
