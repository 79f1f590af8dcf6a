// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/project-a/learning-hub/internal/httputil"
	"github.com/project-a/learning-hub/pkg/types"
)

// ddgHTMLBase is the DuckDuckGo HTML results endpoint. Declared as a var
// so tests can substitute an httptest server.
var ddgHTMLBase = "https://html.duckduckgo.com/html/"

// DuckDuckGoBackend scrapes the DuckDuckGo HTML results page. DuckDuckGo
// has no official API; the HTML endpoint is the stable surface its own
// lite clients use.
type DuckDuckGoBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// Search requests the HTML results page and parses organic results.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty DuckDuckGo query")
	}
	if limit <= 0 {
		limit = 5
	}

	reqURL := ddgHTMLBase + "?" + url.Values{"q": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo HTML: %w", err)
	}

	parsed := parseDDGResults(doc)
	if len(parsed) > limit {
		parsed = parsed[:limit]
	}

	total := len(parsed)
	results := make([]types.SearchResult, 0, total)
	for i, p := range parsed {
		r := types.SearchResult{
			URL:     p.href,
			Title:   p.title,
			Snippet: p.snippet,
			Source:  "duckduckgo",
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

// ddgResult is one parsed organic result from the HTML page.
type ddgResult struct {
	href    string
	title   string
	snippet string
}

// parseDDGResults walks the document for result containers. Each organic
// result is a div carrying the "result" class token; ads carry
// "result--ad" and are skipped.
func parseDDGResults(doc *html.Node) []ddgResult {
	var results []ddgResult

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" &&
			hasClassToken(n, "result") && !hasClassToken(n, "result--ad") {
			if r, ok := parseDDGResult(n); ok {
				results = append(results, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results
}

// parseDDGResult extracts the title link and snippet from one result div.
func parseDDGResult(div *html.Node) (ddgResult, bool) {
	var r ddgResult

	if a := findByClass(div, "a", "result__a"); a != nil {
		r.title = strings.TrimSpace(textContent(a))
		r.href = unwrapDDGHref(attrValue(a, "href"))
	}
	if r.href == "" || r.title == "" {
		return ddgResult{}, false
	}

	// The snippet node is an <a> on the html endpoint and a <div> on some
	// variants; accept either.
	if sn := findByClass(div, "a", "result__snippet"); sn != nil {
		r.snippet = strings.TrimSpace(textContent(sn))
	} else if sn := findByClass(div, "div", "result__snippet"); sn != nil {
		r.snippet = strings.TrimSpace(textContent(sn))
	}

	return r, true
}

// unwrapDDGHref resolves DuckDuckGo redirect links of the form
// //duckduckgo.com/l/?uddg=<escaped-url>&rut=... to the target URL.
func unwrapDDGHref(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

// --- html node helpers ---

// hasClassToken reports whether the node's class attribute contains the
// exact token.
func hasClassToken(n *html.Node, token string) bool {
	for _, t := range strings.Fields(attrValue(n, "class")) {
		if t == token {
			return true
		}
	}
	return false
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// findByClass returns the first descendant element with the given tag and
// class token, or nil.
func findByClass(n *html.Node, tag, token string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && hasClassToken(n, token) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, token); found != nil {
			return found
		}
	}
	return nil
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
