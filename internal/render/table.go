// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/pdftoc/internal/htmldoc"
)

const (
	tableFontSize = 10.0
	cellPadding   = 1.5
)

// tableRows collects the cell text of every row under a table, descending
// through thead, tbody and tfoot. The second result marks header rows.
func tableRows(n *html.Node) ([][]string, []bool) {
	var rows [][]string
	var header []bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead", "tbody", "tfoot":
				walk(c)
			case "tr":
				var row []string
				isHeader := true
				for td := c.FirstChild; td != nil; td = td.NextSibling {
					if td.Type != html.ElementNode || (td.Data != "td" && td.Data != "th") {
						continue
					}
					if td.Data == "td" {
						isHeader = false
					}
					row = append(row, htmldoc.CollapseSpace(htmldoc.TextContent(td)))
				}
				if len(row) > 0 {
					rows = append(rows, row)
					header = append(header, isHeader)
				}
			}
		}
	}
	walk(n)
	return rows, header
}

// table draws a grid with equal column widths. Rows that do not fit on the
// current page move to the next one.
func (w *writer) table(n *html.Node) {
	rows, header := tableRows(n)
	if len(rows) == 0 {
		return
	}

	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	left, _, right, bottom := w.pdf.GetMargins()
	pageW, pageH := w.pdf.GetPageSize()
	colW := (pageW - left - right) / float64(cols)

	prevSize := w.size
	w.size = tableFontSize
	lineH := w.lineHeight()

	for i, row := range rows {
		if header[i] {
			w.bold++
		}
		w.applyFont()

		maxLines := 1
		for _, cell := range row {
			if n := len(w.splitText(w.tr(cell), colW-2*cellPadding)); n > maxLines {
				maxLines = n
			}
		}
		rowH := float64(maxLines)*lineH + 2*cellPadding

		if w.pdf.GetY()+rowH > pageH-bottom {
			w.pdf.AddPage()
			w.applyFont()
		}

		x, y := left, w.pdf.GetY()
		for c := 0; c < cols; c++ {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			cx := x + float64(c)*colW
			if header[i] {
				w.pdf.SetFillColor(240, 240, 240)
				w.pdf.Rect(cx, y, colW, rowH, "FD")
			} else {
				w.pdf.Rect(cx, y, colW, rowH, "D")
			}
			for j, line := range w.splitText(w.tr(cell), colW-2*cellPadding) {
				w.pdf.SetXY(cx+cellPadding, y+cellPadding+float64(j)*lineH)
				w.pdf.CellFormat(colW-2*cellPadding, lineH, line, "", 0, "L", false, 0, "")
			}
			w.record(w.visible(w.tr(cell)))
		}
		w.pdf.SetXY(left, y+rowH)

		if header[i] {
			w.bold--
		}
	}

	w.size = prevSize
	w.applyFont()
	w.pdf.Ln(lineH * 0.5)
}

// splitText breaks text into lines no wider than width in the current font.
func (w *writer) splitText(text string, width float64) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if w.pdf.GetStringWidth(candidate) > width && current != "" {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
