// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toc builds table-of-contents entries from document bookmarks and
// renders them as HTML.
package toc

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/pdftoc/pkg/types"
)

// maxHeading is the deepest heading tag an entry can use.
const maxHeading = 6

// Entries lists the bookmarks of docs in order, each document's bookmarks
// ordered by page index. An entry's page number is the number printed on
// that page: the document's first page number plus the bookmark's page
// index.
func Entries(docs []*types.Document) []types.TocEntry {
	var entries []types.TocEntry
	for _, doc := range docs {
		marks := make([]types.Bookmark, len(doc.Bookmarks))
		copy(marks, doc.Bookmarks)
		sort.SliceStable(marks, func(i, j int) bool {
			return marks[i].PageIndex < marks[j].PageIndex
		})

		first := doc.FirstPageNumber
		if first < 1 {
			first = 1
		}
		for _, b := range marks {
			entries = append(entries, types.TocEntry{
				Title:      b.Title,
				PageNumber: first + b.PageIndex,
				Level:      b.Level,
			})
		}
	}
	return entries
}

// HTML renders entries as one heading per line, "title ... page", using
// h1 for level 0 down to h6. title, when set, is printed first as a
// paragraph so it is not mistaken for an entry.
func HTML(entries []types.TocEntry, title string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>\n")
	if title != "" {
		fmt.Fprintf(&b, "<p><b>%s</b></p>\n", html.EscapeString(title))
	}
	for _, e := range entries {
		n := e.Level + 1
		if n < 1 {
			n = 1
		}
		if n > maxHeading {
			n = maxHeading
		}
		fmt.Fprintf(&b, "<h%d>%s ... %d</h%d>\n", n, html.EscapeString(e.Title), e.PageNumber, n)
	}
	b.WriteString("</body></html>\n")
	return b.String()
}
