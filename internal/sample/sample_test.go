// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sample

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdftoc/internal/htmldoc"
	"github.com/pdiddy/pdftoc/internal/manifest"
	"github.com/pdiddy/pdftoc/internal/render"
	"github.com/pdiddy/pdftoc/pkg/types"
)

func TestHeadings(t *testing.T) {
	one, err := htmldoc.Headings(IntroHTML)
	require.NoError(t, err)
	two, err := htmldoc.Headings(PersonListHTML)
	require.NoError(t, err)
	assert.Equal(t, Titles, append(one, two...))
}

func TestPageLayout(t *testing.T) {
	r := render.NewFPDFRenderer(types.DefaultChapterRender())
	tests := []struct {
		html  string
		pages map[string]int
	}{
		{IntroHTML, map[string]int{Titles[0].Text: 0, Titles[1].Text: 2, Titles[2].Text: 4}},
		{PersonListHTML, map[string]int{Titles[3].Text: 0, Titles[4].Text: 2, Titles[5].Text: 5}},
	}
	for _, tt := range tests {
		doc, err := r.Render(context.Background(), render.Job{HTML: tt.html})
		require.NoError(t, err)
		assert.Equal(t, 6, doc.PageCount)
		for title, idx := range tt.pages {
			assert.Contains(t, doc.PageText[idx], title)
		}
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	path, err := Write(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "book.yaml"), path)

	book, err := manifest.Load(path)
	require.NoError(t, err)
	require.Len(t, book.Chapters, 2)
	assert.Equal(t, "intro.html", book.Chapters[0].File)
	assert.Empty(t, book.Chapters[0].Content)

	require.NoError(t, manifest.Resolve(context.Background(), book, dir, nil))
	assert.Equal(t, IntroHTML, book.Chapters[0].HTML)
	assert.Equal(t, PersonListHTML, book.Chapters[1].HTML)
}
