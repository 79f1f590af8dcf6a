// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images retrieves topic illustrations through DuckDuckGo image
// search. Image retrieval is best-effort: a course generates fine without
// images, so failures degrade to an empty list rather than aborting the
// pipeline.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/project-a/learning-hub/internal/httputil"
	"github.com/project-a/learning-hub/pkg/types"
)

// DuckDuckGo endpoints. Declared as vars so tests can substitute
// httptest servers.
var (
	ddgTokenBase = "https://duckduckgo.com/"
	ddgImageBase = "https://duckduckgo.com/i.js"
)

// vqdPattern extracts the session token DuckDuckGo requires on the image
// endpoint. The token appears in the results page as vqd="4-157..." or
// vqd='4-157...'.
var vqdPattern = regexp.MustCompile(`vqd=['"]?([0-9-]+)`)

// Searcher queries an image search service. The DuckDuckGo implementation
// lives in this package; tests supply mocks.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.ImageRef, error)
}

// DuckDuckGoSearcher implements Searcher against the DuckDuckGo image API.
type DuckDuckGoSearcher struct {
	Client *http.Client
	Config types.ImageConfig
}

// Search fetches a vqd token and queries the image endpoint.
func (s *DuckDuckGoSearcher) Search(ctx context.Context, query string, limit int) ([]types.ImageRef, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty image query")
	}
	if limit <= 0 {
		limit = 2
	}

	vqd, err := s.token(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"l":   {"us-en"},
		"o":   {"json"},
		"q":   {query},
		"vqd": {vqd},
	}
	reqURL := ddgImageBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("image search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search returned HTTP %d", resp.StatusCode)
	}

	var ir imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, fmt.Errorf("parsing image response: %w", err)
	}

	var refs []types.ImageRef
	for _, item := range ir.Results {
		if item.Image == "" {
			continue
		}
		refs = append(refs, types.ImageRef{
			URL:        item.Image,
			Title:      item.Title,
			SourcePage: item.URL,
		})
		if len(refs) >= limit {
			break
		}
	}
	return refs, nil
}

// token requests the search page and extracts the vqd session token.
func (s *DuckDuckGoSearcher) token(ctx context.Context, query string) (string, error) {
	reqURL := ddgTokenBase + "?" + url.Values{"q": {query}, "iax": {"images"}, "ia": {"images"}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading token page: %w", err)
	}

	m := vqdPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no vqd token in search page")
	}
	return string(m[1]), nil
}

// imageResponse is the i.js endpoint response.
type imageResponse struct {
	Results []imageItem `json:"results"`
}

type imageItem struct {
	Image  string `json:"image"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Gather collects course images: an educational-diagram query for the main
// topic plus one illustration query per leading syllabus topic, capped at
// cfg.MaxImages with sequential 1-based IDs. Failed queries warn and are
// skipped.
func Gather(ctx context.Context, searcher Searcher, query string, syl types.Syllabus, cfg types.ImageConfig, w io.Writer) []types.ImageRef {
	mainImages := cfg.MainImages
	if mainImages <= 0 {
		mainImages = 2
	}
	perTopic := cfg.PerTopicImages
	if perTopic <= 0 {
		perTopic = 1
	}
	topicCount := cfg.TopicImageCount
	if topicCount <= 0 {
		topicCount = 2
	}
	maxImages := cfg.MaxImages
	if maxImages <= 0 {
		maxImages = 4
	}

	type imageQuery struct {
		text  string
		limit int
	}

	queries := []imageQuery{{text: query + " diagram educational", limit: mainImages}}
	for i, topic := range syl.Topics {
		if i >= topicCount {
			break
		}
		if topic.Headline == "" {
			continue
		}
		queries = append(queries, imageQuery{
			text:  topic.Headline + " " + query + " illustration",
			limit: perTopic,
		})
	}

	seen := make(map[string]bool)
	var images []types.ImageRef
	for _, q := range queries {
		if len(images) >= maxImages {
			break
		}
		refs, err := searcher.Search(ctx, q.text, q.limit)
		if err != nil {
			fmt.Fprintf(w, "warning: image search %q failed: %v\n", q.text, err)
			continue
		}
		for _, ref := range refs {
			if seen[ref.URL] {
				continue
			}
			seen[ref.URL] = true
			images = append(images, ref)
			if len(images) >= maxImages {
				break
			}
		}
	}

	for i := range images {
		images[i].ID = i + 1
		if images[i].Title == "" {
			images[i].Title = fmt.Sprintf("Image related to %s", query)
		}
	}
	return images
}
