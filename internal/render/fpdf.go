// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/pdftoc/internal/htmldoc"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// totalPagesAlias is replaced by gofpdf with the page count of the document.
const totalPagesAlias = "{nb}"

const (
	ptToMM      = 25.4 / 72
	lineSpacing = 1.35
	bodySize    = 12.0
	monoFamily  = "Courier"
	listIndent  = 6.0
)

var headingSizes = map[string]float64{
	"h1": 24, "h2": 20, "h3": 16, "h4": 14, "h5": 12, "h6": 11,
}

// FPDFRenderer renders a practical subset of HTML with gofpdf. It knows
// which page every piece of text lands on and reports it in
// Document.PageText. JavaScript and stylesheets are not evaluated; only
// inline page-break styles are honored.
type FPDFRenderer struct {
	cfg types.RenderConfig

	// Now supplies the {date} and {time} tokens and the PDF creation date.
	Now func() time.Time
}

// NewFPDFRenderer returns a renderer using the given print options.
func NewFPDFRenderer(cfg types.RenderConfig) *FPDFRenderer {
	if cfg.PaperSize == "" {
		cfg.PaperSize = types.DefaultPaperSize
	}
	if cfg.Orientation == "" {
		cfg.Orientation = "P"
	}
	if cfg.FontFamily == "" {
		cfg.FontFamily = types.DefaultFont
	}
	return &FPDFRenderer{cfg: cfg, Now: time.Now}
}

// Render lays out job.HTML and returns the resulting PDF.
func (r *FPDFRenderer) Render(ctx context.Context, job Job) (*types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := htmldoc.Parse(job.HTML)
	if err != nil {
		return nil, err
	}

	title := htmldoc.DocumentTitle(job.HTML)
	if title == "" {
		title = job.Title
	}
	first := firstPage(job.FirstPageNumber)
	now := r.Now()

	pdf := gofpdf.New(r.cfg.Orientation, "mm", r.cfg.PaperSize, "")
	pdf.SetMargins(r.cfg.MarginLeft, r.cfg.MarginTop, r.cfg.MarginRight)
	pdf.SetAutoPageBreak(true, r.cfg.MarginBottom)
	pdf.SetTitle(title, true)
	pdf.SetCreator("pdftoc", true)
	pdf.SetCreationDate(now)
	pdf.AliasNbPages(totalPagesAlias)

	w := &writer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: r.cfg.FontFamily,
		size:   bodySize,
	}

	vars := NewVars(title, now)
	vars.TotalPages = totalPagesAlias
	pageVars := func() Vars {
		v := vars
		v.Page = strconv.Itoa(first + pdf.PageNo() - 1)
		return v
	}
	if !r.cfg.Header.IsEmpty() {
		pdf.SetHeaderFuncMode(func() { w.drawHeader(r.cfg, pageVars()) }, true)
	}
	if !r.cfg.Footer.IsEmpty() {
		pdf.SetFooterFunc(func() { w.drawFooter(r.cfg, pageVars()) })
	}

	pdf.AddPage()
	w.applyFont()
	w.walk(root)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", job.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := pdf.PageCount()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF for %s: %w", job.ID, err)
	}

	text := make([]string, pages)
	for i := range text {
		if i < len(w.pageText) {
			text[i] = htmldoc.CollapseSpace(strings.Join(w.pageText[i], " "))
		}
	}

	return &types.Document{
		ID:              job.ID,
		Title:           job.Title,
		PDF:             buf.Bytes(),
		PageCount:       pages,
		FirstPageNumber: first,
		PageText:        text,
	}, nil
}

// list tracks numbering for one ul/ol level.
type list struct {
	ordered bool
	n       int
}

// writer walks the DOM and emits gofpdf calls.
type writer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string

	family string
	size   float64
	bold   int
	italic int
	under  int
	mono   int
	pre    int

	href  string
	lists []list

	// breakPending defers a forced page break until more content arrives,
	// so a trailing page-break does not produce an empty page.
	breakPending bool

	pageText [][]string
}

func (w *writer) lineHeight() float64 {
	return w.size * ptToMM * lineSpacing
}

func (w *writer) applyFont() {
	style := ""
	if w.bold > 0 {
		style += "B"
	}
	if w.italic > 0 {
		style += "I"
	}
	if w.under > 0 {
		style += "U"
	}
	family := w.family
	if w.mono > 0 {
		family = monoFamily
	}
	w.pdf.SetFont(family, style, w.size)
}

// record appends text to the page the cursor is on after writing it.
func (w *writer) record(text string) {
	idx := w.pdf.PageNo() - 1
	if idx < 0 {
		return
	}
	for len(w.pageText) <= idx {
		w.pageText = append(w.pageText, nil)
	}
	w.pageText[idx] = append(w.pageText[idx], text)
}

// visible decodes cp1252 text produced by the translator, giving the text
// as it reads once drawn. Runes outside cp1252 show as the placeholder.
func (w *writer) visible(encoded string) string {
	out, err := charmap.Windows1252.NewDecoder().String(encoded)
	if err != nil {
		return encoded
	}
	return out
}

func (w *writer) flushBreak() {
	if w.breakPending {
		w.breakPending = false
		w.pdf.AddPage()
	}
}

// newLine moves to the start of the next line unless already there.
func (w *writer) newLine() {
	left, _, _, _ := w.pdf.GetMargins()
	if w.pdf.GetX() > left+0.01 {
		w.pdf.Ln(w.lineHeight())
	}
}

func (w *writer) atPageTop() bool {
	_, top, _, _ := w.pdf.GetMargins()
	return w.pdf.GetY() <= top+0.01
}

func (w *writer) gap(h float64) {
	if !w.atPageTop() {
		w.pdf.Ln(h)
	}
}

func (w *writer) text(s string) {
	if s == "" {
		return
	}
	w.flushBreak()
	h := w.lineHeight()
	enc := w.tr(s)
	if w.href != "" {
		w.pdf.WriteLinkString(h, enc, w.href)
	} else {
		w.pdf.Write(h, enc)
	}
	w.record(w.visible(enc))
}

func (w *writer) walk(n *html.Node) {
	switch n.Type {
	case html.DocumentNode:
		w.children(n)
	case html.TextNode:
		w.textNode(n)
	case html.ElementNode:
		w.element(n)
	}
}

func (w *writer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *writer) textNode(n *html.Node) {
	if w.pre > 0 {
		lines := strings.Split(n.Data, "\n")
		for i, line := range lines {
			if i > 0 {
				w.pdf.Ln(w.lineHeight())
			}
			w.text(strings.ReplaceAll(line, "\t", "    "))
		}
		return
	}

	s := n.Data
	lead := len(s) > 0 && isSpace(s[0])
	trail := len(s) > 0 && isSpace(s[len(s)-1])
	s = htmldoc.CollapseSpace(s)
	if s == "" {
		return
	}
	left, _, _, _ := w.pdf.GetMargins()
	if lead && w.pdf.GetX() > left+0.01 {
		s = " " + s
	}
	if trail {
		s += " "
	}
	w.text(s)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func (w *writer) element(n *html.Node) {
	tag := n.Data
	switch tag {
	case "head", "script", "style", "title", "meta", "link", "template", "img":
		return
	case "html", "body":
		w.children(n)
		return
	}

	before, after := pageBreaks(htmldoc.Attr(n, "style"))

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.block(n, before, after, func() {
			prevSize := w.size
			w.size = headingSizes[tag]
			w.bold++
			w.gap(w.lineHeight() * 0.5)
			w.applyFont()
			w.children(n)
			w.newLine()
			w.bold--
			w.size = prevSize
			w.applyFont()
			w.pdf.Ln(w.lineHeight() * 0.3)
		})
	case "p":
		w.block(n, before, after, func() {
			w.children(n)
			w.newLine()
			w.pdf.Ln(w.lineHeight() * 0.4)
		})
	case "div", "section", "article", "header", "footer", "main", "nav", "aside", "blockquote", "figure", "dl", "dt", "dd":
		w.block(n, before, after, func() { w.children(n) })
	case "br":
		w.flushBreak()
		w.pdf.Ln(w.lineHeight())
	case "hr":
		w.block(n, before, after, func() {
			left, _, right, _ := w.pdf.GetMargins()
			pageW, _ := w.pdf.GetPageSize()
			y := w.pdf.GetY() + 2
			w.pdf.Line(left, y, pageW-right, y)
			w.pdf.Ln(4)
		})
	case "b", "strong":
		w.inline(n, &w.bold)
	case "i", "em", "cite", "var":
		w.inline(n, &w.italic)
	case "u", "ins":
		w.inline(n, &w.under)
	case "code", "tt", "kbd", "samp":
		w.inline(n, &w.mono)
	case "a":
		prev := w.href
		if href := htmldoc.Attr(n, "href"); href != "" && !strings.HasPrefix(href, "#") {
			w.href = href
		}
		w.children(n)
		w.href = prev
	case "pre":
		w.block(n, before, after, func() {
			w.mono++
			w.pre++
			w.applyFont()
			w.children(n)
			w.pre--
			w.mono--
			w.applyFont()
			w.newLine()
			w.pdf.Ln(w.lineHeight() * 0.4)
		})
	case "ul", "ol":
		w.block(n, before, after, func() {
			w.lists = append(w.lists, list{ordered: tag == "ol"})
			w.children(n)
			w.lists = w.lists[:len(w.lists)-1]
		})
	case "li":
		w.block(n, before, after, func() { w.listItem(n) })
	case "table":
		w.block(n, before, after, func() { w.table(n) })
	default:
		w.children(n)
	}
}

// block wraps a block-level element: it starts on a fresh line, honors
// page-break-before, and schedules page-break-after.
func (w *writer) block(n *html.Node, breakBefore, breakAfter bool, body func()) {
	w.flushBreak()
	w.newLine()
	if breakBefore && !w.atPageTop() {
		w.pdf.AddPage()
	}
	body()
	w.newLine()
	if breakAfter {
		w.breakPending = true
	}
}

func (w *writer) inline(n *html.Node, counter *int) {
	*counter++
	w.applyFont()
	w.children(n)
	*counter--
	w.applyFont()
}

func (w *writer) listItem(n *html.Node) {
	marker := "• "
	depth := len(w.lists)
	if depth > 0 {
		l := &w.lists[depth-1]
		l.n++
		if l.ordered {
			marker = strconv.Itoa(l.n) + ". "
		}
	} else {
		depth = 1
	}

	left, _, _, _ := w.pdf.GetMargins()
	indent := left + listIndent*float64(depth)
	w.pdf.SetLeftMargin(indent)
	w.pdf.SetX(indent)
	w.text(marker)
	w.children(n)
	w.newLine()
	w.pdf.SetLeftMargin(left)
	w.pdf.SetX(left)
}

// pageBreaks reports forced breaks in an inline style attribute.
func pageBreaks(style string) (before, after bool) {
	if style == "" {
		return false, false
	}
	s := strings.ToLower(strings.Join(strings.Fields(style), ""))
	for _, decl := range strings.Split(s, ";") {
		switch decl {
		case "page-break-before:always", "break-before:page", "break-before:always":
			before = true
		case "page-break-after:always", "break-after:page", "break-after:always":
			after = true
		}
	}
	return before, after
}

func (w *writer) bandWidth(cfg types.RenderConfig) (left, width float64) {
	pageW, _ := w.pdf.GetPageSize()
	return cfg.MarginLeft, pageW - cfg.MarginLeft - cfg.MarginRight
}

func (w *writer) drawBand(cfg types.RenderConfig, hf *types.HeaderFooter, y, lineY float64, v Vars) {
	size := hf.FontSize
	if size <= 0 {
		size = 10
	}
	h := size * ptToMM * lineSpacing
	left, width := w.bandWidth(cfg)

	w.pdf.SetFont(w.family, "", size)
	for _, part := range []struct{ text, align string }{
		{hf.LeftText, "L"}, {hf.CenterText, "C"}, {hf.RightText, "R"},
	} {
		if part.text == "" {
			continue
		}
		w.pdf.SetXY(left, y)
		w.pdf.CellFormat(width, h, w.tr(ExpandTokens(part.text, v)), "", 0, part.align, false, 0, "")
	}
	if hf.DrawDividerLine {
		w.pdf.SetLineWidth(0.2)
		w.pdf.Line(left, lineY, left+width, lineY)
	}
}

func (w *writer) drawHeader(cfg types.RenderConfig, v Vars) {
	size := cfg.Header.FontSize
	if size <= 0 {
		size = 10
	}
	h := size * ptToMM * lineSpacing
	lineY := cfg.MarginTop - 3
	y := lineY - h - 1
	if y < 2 {
		y = 2
	}
	w.drawBand(cfg, cfg.Header, y, lineY, v)
}

func (w *writer) drawFooter(cfg types.RenderConfig, v Vars) {
	_, pageH := w.pdf.GetPageSize()
	lineY := pageH - cfg.MarginBottom + 3
	w.drawBand(cfg, cfg.Footer, lineY+1, lineY, v)
}
