// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdftoc/pkg/types"
)

const pageBreak = `<div style='page-break-after: always;'>&nbsp;</div>`

// chapterHTML mirrors the demo chapter: headings separated by pairs of
// page-break divs.
var chapterHTML = `
<h1>1st chapter main title</h1>
<div>This is the intro of the page</div>
` + pageBreak + "\n" + pageBreak + `
<h2>1st chapter 2nd level title</h2>
` + pageBreak + "\n" + pageBreak + `
<h3>1st chapter 3rd level title</h3>
` + pageBreak + "\n" + pageBreak

func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
}

func TestExpandTokens(t *testing.T) {
	v := NewVars("Intro", fixedNow())
	v.Page = "7"
	v.TotalPages = "12"

	assert.Equal(t, "Page 7 of 12", ExpandTokens("Page {page} of {total-pages}", v))
	assert.Equal(t, "2026-10-19 09:30", ExpandTokens("{date} {time}", v))
	assert.Equal(t, "Intro", ExpandTokens("{pdf-title}", v))
	assert.Equal(t, "no tokens", ExpandTokens("no tokens", v))
}

func TestPageBreaks(t *testing.T) {
	tests := []struct {
		style      string
		wantBefore bool
		wantAfter  bool
	}{
		{"page-break-after: always;", false, true},
		{"PAGE-BREAK-BEFORE : Always", true, false},
		{"color: red; break-after: page", false, true},
		{"page-break-after: auto", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			before, after := pageBreaks(tt.style)
			assert.Equal(t, tt.wantBefore, before)
			assert.Equal(t, tt.wantAfter, after)
		})
	}
}

func newTestRenderer(cfg types.RenderConfig) *FPDFRenderer {
	r := NewFPDFRenderer(cfg)
	r.Now = fixedNow
	return r
}

func TestFPDFRenderer_PageBreaks(t *testing.T) {
	r := newTestRenderer(types.DefaultChapterRender())

	doc, err := r.Render(context.Background(), Job{
		ID:              "intro",
		Title:           "great chapter 1",
		HTML:            chapterHTML,
		FirstPageNumber: 7,
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(doc.PDF, []byte("%PDF-")), "output should be a PDF")
	assert.Equal(t, "intro", doc.ID)
	assert.Equal(t, 7, doc.FirstPageNumber)
	// Each break div ends its page; the trailing break adds no blank page.
	assert.Equal(t, 6, doc.PageCount)
	require.Len(t, doc.PageText, 6)

	assert.Contains(t, doc.PageText[0], "1st chapter main title")
	assert.Contains(t, doc.PageText[0], "This is the intro of the page")
	assert.Contains(t, doc.PageText[2], "1st chapter 2nd level title")
	assert.Contains(t, doc.PageText[4], "1st chapter 3rd level title")
	assert.Empty(t, doc.PageText[1])
}

func TestFPDFRenderer_PageCountReadable(t *testing.T) {
	r := newTestRenderer(types.DefaultTocRender())

	doc, err := r.Render(context.Background(), Job{ID: "toc", HTML: "<h1>Only</h1>" + pageBreak + "<p>Second</p>"})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.FirstPageNumber, "first page defaults to 1")
	assert.Equal(t, 2, doc.PageCount)

	n, err := CountPages(doc.PDF)
	require.NoError(t, err)
	assert.Equal(t, doc.PageCount, n)
}

func TestFPDFRenderer_InlineAndBlocks(t *testing.T) {
	r := newTestRenderer(types.DefaultTocRender())

	markup := `<html><head><title>Ignored in body</title><style>h1{color:red}</style></head><body>
		<p>Some <b>bold</b>, <em>italic</em> and <code>code</code> with a <a href="https://example.com">link</a>.</p>
		<ul><li>first</li><li>second</li></ul>
		<ol><li>one</li></ol>
		<pre>line 1
line 2</pre>
		<table><thead><tr><th>Name</th><th>Pages</th></tr></thead>
		<tbody><tr><td>Intro</td><td>6</td></tr></tbody></table>
		<hr><br>
	</body></html>`

	doc, err := r.Render(context.Background(), Job{ID: "mixed", HTML: markup})
	require.NoError(t, err)
	require.Equal(t, 1, doc.PageCount)

	text := doc.PageText[0]
	assert.Contains(t, text, "Some bold , italic and code with a link .")
	assert.Contains(t, text, "first")
	assert.Contains(t, text, "1.")
	assert.Contains(t, text, "line 2")
	assert.Contains(t, text, "Intro")
	assert.NotContains(t, text, "Ignored in body")
	assert.NotContains(t, text, "color:red")
}

func TestFPDFRenderer_PageTextMatchesDrawnText(t *testing.T) {
	r := newTestRenderer(types.DefaultTocRender())

	markup := `<h1>Café Привет</h1>
		<table><tr><td>Ελλάδα</td><td>Zürich</td></tr></table>`
	doc, err := r.Render(context.Background(), Job{ID: "intl", HTML: markup})
	require.NoError(t, err)

	text := doc.PageText[0]
	assert.Contains(t, text, "Café ......")
	assert.Contains(t, text, "Zürich")
	assert.NotContains(t, text, "Привет")
	assert.NotContains(t, text, "Ελλάδα")
}

func TestFPDFRenderer_LongContentBreaksAutomatically(t *testing.T) {
	r := newTestRenderer(types.DefaultChapterRender())

	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("<p>Paragraph of filler text that occupies a line.</p>")
	}
	b.WriteString("<h2>Late heading</h2>")

	doc, err := r.Render(context.Background(), Job{ID: "long", HTML: b.String()})
	require.NoError(t, err)
	require.Greater(t, doc.PageCount, 1)

	last := doc.PageText[doc.PageCount-1]
	assert.Contains(t, last, "Late heading")
	assert.NotContains(t, doc.PageText[0], "Late heading")
}

func TestFPDFRenderer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRenderer(types.DefaultTocRender()).Render(ctx, Job{HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, context.Canceled)
}

// fakeRuntime implements container.Runtime, rendering stdin with gofpdf so
// the output is a real PDF.
type fakeRuntime struct {
	imageErr error
	runErr   error
	empty    bool
	gotArgs  []string
}

func (f *fakeRuntime) Name() string { return "docker" }

func (f *fakeRuntime) Available(context.Context) bool { return true }

func (f *fakeRuntime) ImageExists(context.Context, string) error { return f.imageErr }

func (f *fakeRuntime) Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.gotArgs = args
	if f.runErr != nil {
		return f.runErr
	}
	if f.empty {
		return nil
	}
	markup, _ := io.ReadAll(stdin)
	doc, err := newTestRenderer(types.DefaultTocRender()).Render(ctx, Job{HTML: string(markup)})
	if err != nil {
		return err
	}
	_, err = stdout.Write(doc.PDF)
	return err
}

func TestContainerRenderer(t *testing.T) {
	cfg := types.DefaultChapterRender()
	cfg.Backend = types.BackendWkhtmltopdf

	t.Run("missing image", func(t *testing.T) {
		_, err := NewContainerRenderer(context.Background(), &fakeRuntime{imageErr: errors.New("no such image")}, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wkhtmltopdf image not available")
	})

	t.Run("renders and counts pages", func(t *testing.T) {
		rt := &fakeRuntime{}
		r, err := NewContainerRenderer(context.Background(), rt, cfg)
		require.NoError(t, err)

		doc, err := r.Render(context.Background(), Job{ID: "c2", Title: "Person list", HTML: "<h1>A</h1>" + pageBreak + "<h2>B</h2>", FirstPageNumber: 7})
		require.NoError(t, err)
		assert.Equal(t, 2, doc.PageCount)
		assert.Equal(t, 7, doc.FirstPageNumber)
		assert.Nil(t, doc.PageText)

		args := strings.Join(rt.gotArgs, " ")
		assert.Contains(t, args, "--page-offset 6")
		assert.Contains(t, args, "--margin-top 50mm")
		assert.Contains(t, args, "--print-media-type")
		assert.Contains(t, args, "--disable-javascript")
		assert.Contains(t, args, "--header-center [title]")
		assert.Contains(t, args, "--footer-right Page [page]")
		assert.Contains(t, args, "--footer-left [date] [time]")
		assert.Contains(t, args, "--title Person list")
		assert.True(t, strings.HasSuffix(args, "- -"))
	})

	t.Run("empty output", func(t *testing.T) {
		r, err := NewContainerRenderer(context.Background(), &fakeRuntime{empty: true}, cfg)
		require.NoError(t, err)
		_, err = r.Render(context.Background(), Job{ID: "c3", HTML: "<p>x</p>"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty output")
	})
}

func TestContainerRenderer_ArgsWithoutBands(t *testing.T) {
	cfg := types.DefaultTocRender()
	cfg.EnableJavaScript = true
	cfg.CSSMediaType = types.MediaScreen
	r := &ContainerRenderer{cfg: cfg}

	args := strings.Join(r.Args(Job{HTML: "<p>toc</p>"}), " ")
	assert.NotContains(t, args, "--header-")
	assert.NotContains(t, args, "--footer-")
	assert.Contains(t, args, "--enable-javascript --javascript-delay 100")
	assert.Contains(t, args, "--no-print-media-type")
	assert.Contains(t, args, "--page-offset 0")
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), types.RenderConfig{Backend: "chrome"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown render backend")
}
