// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements never contribute readable text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"iframe":   true,
	"form":     true,
	"svg":      true,
}

// blockElements start a new paragraph in the extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "blockquote": true, "pre": true, "article": true, "section": true,
}

// ExtractText parses HTML and returns the page title and the readable body
// text with collapsed whitespace, capped at maxBytes.
func ExtractText(r io.Reader, maxBytes int) (title, text string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedElements[n.Data] {
				return
			}
			if n.Data == "title" && title == "" {
				title = strings.TrimSpace(nodeText(n))
				return
			}
			if blockElements[n.Data] {
				b.WriteByte('\n')
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, collapseWhitespace(b.String(), maxBytes), nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

// collapseWhitespace reduces runs of spaces within lines and runs of blank
// lines to single separators, then truncates at maxBytes on a line
// boundary where possible.
func collapseWhitespace(s string, maxBytes int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	out := strings.Join(lines, "\n")

	if maxBytes > 0 && len(out) > maxBytes {
		out = out[:maxBytes]
		if idx := strings.LastIndexByte(out, '\n'); idx > 0 {
			out = out[:idx]
		}
	}
	return out
}
