// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline locates heading titles on rendered pages and turns them
// into bookmarks.
package outline

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdftoc/internal/htmldoc"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// TextExtractor returns the plain text of every page of a PDF, one string
// per page in page order.
type TextExtractor interface {
	PageTexts(data []byte) ([]string, error)
}

// PDFTextExtractor reads page text with ledongthuc/pdf.
type PDFTextExtractor struct{}

// PageTexts implements TextExtractor. Pages with no content yield "".
func (PDFTextExtractor) PageTexts(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}

	n := r.NumPage()
	texts := make([]string, n)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}
		texts[i-1] = text
	}
	return texts, nil
}

// page holds the two normalized forms a title is matched against.
type page struct {
	spaced  string
	compact string
}

func newPage(text string) page {
	spaced := htmldoc.CollapseSpace(text)
	return page{spaced: spaced, compact: strings.ReplaceAll(spaced, " ", "")}
}

func (p page) contains(title string) bool {
	if strings.Contains(p.spaced, title) {
		return true
	}
	// Extracted text often loses or adds inter-word spacing.
	return strings.Contains(p.compact, strings.ReplaceAll(title, " ", ""))
}

// Detect finds each title on the pages of doc and returns one bookmark per
// located title, ordered by page index and then by level. Titles are taken
// in document order and matched monotonically: a title is searched for
// from the page where the previous title was found, so repeated titles
// bind to successive occurrences and body text on earlier pages cannot
// steal a later heading. Titles that are never found are returned as
// missing.
//
// doc.PageText is used when present; otherwise the extractor reads the PDF.
func Detect(doc *types.Document, titles []types.Title, ex TextExtractor) ([]types.Bookmark, []types.Title, error) {
	texts := doc.PageText
	if texts == nil {
		if ex == nil {
			return nil, nil, fmt.Errorf("no page text for %s and no extractor", doc.ID)
		}
		var err error
		texts, err = ex.PageTexts(doc.PDF)
		if err != nil {
			return nil, nil, fmt.Errorf("extracting text from %s: %w", doc.ID, err)
		}
	}

	pages := make([]page, len(texts))
	for i, t := range texts {
		pages[i] = newPage(t)
	}

	var bookmarks []types.Bookmark
	var missing []types.Title
	cursor := 0
	for _, title := range titles {
		text := htmldoc.CollapseSpace(title.Text)
		if text == "" {
			continue
		}
		found := -1
		for i := cursor; i < len(pages); i++ {
			if pages[i].contains(text) {
				found = i
				break
			}
		}
		if found < 0 {
			missing = append(missing, title)
			continue
		}
		cursor = found
		bookmarks = append(bookmarks, types.Bookmark{Title: text, PageIndex: found, Level: title.Level})
	}

	sort.SliceStable(bookmarks, func(i, j int) bool {
		if bookmarks[i].PageIndex != bookmarks[j].PageIndex {
			return bookmarks[i].PageIndex < bookmarks[j].PageIndex
		}
		return bookmarks[i].Level < bookmarks[j].Level
	})
	return bookmarks, missing, nil
}

// Normalize rewrites bookmark levels into outline depths. Each bookmark
// nests under the nearest earlier bookmark with a smaller original level,
// so skipped levels collapse and siblings stay siblings. Negative levels
// count as 0. The input is not modified.
func Normalize(bookmarks []types.Bookmark) []types.Bookmark {
	out := make([]types.Bookmark, len(bookmarks))
	var open []int
	for i, b := range bookmarks {
		level := max(b.Level, 0)
		for len(open) > 0 && open[len(open)-1] >= level {
			open = open[:len(open)-1]
		}
		b.Level = len(open)
		out[i] = b
		open = append(open, level)
	}
	return out
}
