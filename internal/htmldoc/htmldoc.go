// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package htmldoc parses chapter markup and finds the heading titles that
// become bookmarks.
package htmldoc

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pdiddy/pdftoc/pkg/types"
)

// HeaderTags lists the heading elements, outermost level first.
var HeaderTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// HeadingLevel returns the 0-based level of a heading tag (h1 = 0).
func HeadingLevel(tag string) (int, bool) {
	for i, h := range HeaderTags {
		if strings.EqualFold(tag, h) {
			return i, true
		}
	}
	return 0, false
}

// Parse parses markup into a document node.
func Parse(markup string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// Flatten returns the element nodes under root in pre-order. The document
// node itself is not included.
func Flatten(root *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return nodes
}

// FlattenMarkup parses markup and flattens it.
func FlattenMarkup(markup string) ([]*html.Node, error) {
	doc, err := Parse(markup)
	if err != nil {
		return nil, err
	}
	return Flatten(doc), nil
}

// Headings returns the text and level of every h1-h6 element in document
// order. Whitespace inside a heading is collapsed; empty headings are
// dropped.
func Headings(markup string) ([]types.Title, error) {
	nodes, err := FlattenMarkup(markup)
	if err != nil {
		return nil, err
	}

	var titles []types.Title
	for _, n := range nodes {
		level, ok := HeadingLevel(n.Data)
		if !ok {
			continue
		}
		text := CollapseSpace(TextContent(n))
		if text == "" {
			continue
		}
		titles = append(titles, types.Title{Text: text, Level: level})
	}
	return titles, nil
}

// DocumentTitle returns the trimmed <title> text, or "" when absent.
func DocumentTitle(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return CollapseSpace(doc.Find("title").First().Text())
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return b.String()
}

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// CollapseSpace trims s and replaces every run of whitespace, including
// non-breaking spaces, with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
