// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdftoc/internal/render"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// fakeExtractor returns canned page text.
type fakeExtractor struct {
	texts []string
	err   error
	calls int
}

func (f *fakeExtractor) PageTexts([]byte) ([]string, error) {
	f.calls++
	return f.texts, f.err
}

var demoTitles = []types.Title{
	{Text: "1st chapter main title", Level: 0},
	{Text: "1st chapter 2nd level title", Level: 1},
	{Text: "1st chapter 3rd level title", Level: 2},
}

func TestDetect_UsesRendererPageText(t *testing.T) {
	doc := &types.Document{
		ID:        "intro",
		PageCount: 6,
		PageText: []string{
			"1st chapter main title This is the intro of the page",
			"",
			"1st chapter 2nd level title",
			"",
			"1st chapter 3rd level title",
			"",
		},
	}
	ex := &fakeExtractor{}

	got, missing, err := Detect(doc, demoTitles, ex)
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Equal(t, 0, ex.calls, "extractor should not run when page text is known")
	assert.Equal(t, []types.Bookmark{
		{Title: "1st chapter main title", PageIndex: 0, Level: 0},
		{Title: "1st chapter 2nd level title", PageIndex: 2, Level: 1},
		{Title: "1st chapter 3rd level title", PageIndex: 4, Level: 2},
	}, got)
}

func TestDetect_Extractor(t *testing.T) {
	ex := &fakeExtractor{texts: []string{
		"Page 7\n2nd chapter main title\nA lot of persons over here...",
		"Page 8",
		"2ndchapter2ndleveltitle Page 9",
	}}
	titles := []types.Title{
		{Text: "2nd chapter main title", Level: 0},
		{Text: "2nd chapter 2nd level title", Level: 1},
		{Text: "2nd chapter 3rd level title", Level: 2},
	}

	got, missing, err := Detect(&types.Document{ID: "persons"}, titles, ex)
	require.NoError(t, err)
	assert.Equal(t, 1, ex.calls)
	assert.Equal(t, []types.Bookmark{
		{Title: "2nd chapter main title", PageIndex: 0, Level: 0},
		{Title: "2nd chapter 2nd level title", PageIndex: 2, Level: 1},
	}, got)
	assert.Equal(t, []types.Title{titles[2]}, missing)
}

func TestDetect_OrdersSamePageByLevel(t *testing.T) {
	doc := &types.Document{PageText: []string{"Sub Heading then Main Heading"}}
	titles := []types.Title{
		{Text: "Sub Heading", Level: 1},
		{Text: "Main Heading", Level: 0},
	}

	got, _, err := Detect(doc, titles, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Main Heading", got[0].Title)
	assert.Equal(t, "Sub Heading", got[1].Title)
}

func TestDetect_RepeatedTitlesAdvance(t *testing.T) {
	doc := &types.Document{PageText: []string{
		"Summary mentioned early in the overview Overview",
		"Details",
		"Summary",
	}}
	titles := []types.Title{
		{Text: "Overview", Level: 0},
		{Text: "Details", Level: 1},
		{Text: "Summary", Level: 1},
	}

	got, missing, err := Detect(doc, titles, nil)
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[2].PageIndex, "Summary must bind after Details, not to the body text on page 0")
}

func TestDetect_ExtractorError(t *testing.T) {
	_, _, err := Detect(&types.Document{ID: "bad"}, demoTitles, &fakeExtractor{err: errors.New("malformed xref")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	_, _, err = Detect(&types.Document{ID: "none"}, demoTitles, nil)
	require.Error(t, err)
}

func TestDetect_ExtractsRenderedPDF(t *testing.T) {
	r := render.NewFPDFRenderer(types.DefaultTocRender())
	doc, err := r.Render(context.Background(), render.Job{
		ID:   "real",
		HTML: `<h1>Alpha</h1><div style="page-break-after: always">&nbsp;</div><h2>Beta</h2>`,
	})
	require.NoError(t, err)
	doc.PageText = nil

	got, missing, err := Detect(doc, []types.Title{{Text: "Alpha"}, {Text: "Beta", Level: 1}}, PDFTextExtractor{})
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Equal(t, []types.Bookmark{
		{Title: "Alpha", PageIndex: 0, Level: 0},
		{Title: "Beta", PageIndex: 1, Level: 1},
	}, got)
}

func TestDetect_UndrawableTitleIsMissing(t *testing.T) {
	r := render.NewFPDFRenderer(types.DefaultTocRender())
	doc, err := r.Render(context.Background(), render.Job{
		ID:   "intl",
		HTML: `<h1>Café</h1><div style="page-break-after: always">&nbsp;</div><h2>Привет</h2>`,
	})
	require.NoError(t, err)

	got, missing, err := Detect(doc, []types.Title{{Text: "Café"}, {Text: "Привет", Level: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.Bookmark{{Title: "Café", PageIndex: 0, Level: 0}}, got)
	assert.Equal(t, []types.Title{{Text: "Привет", Level: 1}}, missing)
}

func TestNormalize(t *testing.T) {
	in := []types.Bookmark{
		{Title: "a", Level: 1},
		{Title: "b", Level: 3},
		{Title: "c", Level: 2},
		{Title: "d", Level: 0},
		{Title: "e", Level: -1},
	}
	got := Normalize(in)

	var levels []int
	for _, b := range got {
		levels = append(levels, b.Level)
	}
	assert.Equal(t, []int{0, 1, 1, 0, 0}, levels)
	assert.Equal(t, 1, in[0].Level, "input must not be modified")
}

func TestNormalize_Nesting(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"skipped level collapses", []int{0, 2, 2}, []int{0, 1, 1}},
		{"shallower sibling after deep child", []int{0, 2, 1, 2}, []int{0, 1, 1, 2}},
		{"starts deep", []int{2, 3, 1}, []int{0, 1, 0}},
		{"flat", []int{1, 1, 1}, []int{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]types.Bookmark, len(tt.in))
			for i, l := range tt.in {
				in[i] = types.Bookmark{Level: l}
			}
			var got []int
			for _, b := range Normalize(in) {
				got = append(got, b.Level)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
