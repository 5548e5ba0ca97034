// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge concatenates rendered documents into one PDF and attaches
// the outline built from their bookmarks.
package merge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/unicode"

	"github.com/pdiddy/pdftoc/internal/outline"
	"github.com/pdiddy/pdftoc/pkg/types"
)

func init() {
	// pdfcpu would otherwise install a config dir under the user's home.
	api.DisableConfigDir()
}

// Options controls the merged document.
type Options struct {
	Title       string
	Author      string
	PaperSize   string
	Orientation string
	Protection  types.Protection

	// Now sets the creation date; zero means time.Now.
	Now time.Time
}

// Result describes the merged document.
type Result struct {
	Pages int

	// Outline holds the bookmarks as written, with PageIndex counted from
	// the first page of the merged file.
	Outline []types.Bookmark
}

// Merge writes docs, in order, to w as a single PDF. Each document's
// bookmarks become outline entries pointing at the merged page they were
// found on. With protection enabled the finished file is encrypted as a
// whole, imported pages included.
func Merge(docs []*types.Document, opts Options, w io.Writer) (*Result, error) {
	if len(docs) == 0 {
		return nil, errors.New("nothing to merge")
	}

	paper := opts.PaperSize
	if paper == "" {
		paper = types.DefaultPaperSize
	}
	orientation := opts.Orientation
	if orientation == "" {
		orientation = "P"
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	pdf := gofpdf.New(orientation, "mm", paper, "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("pdftoc", true)
	pdf.SetCreationDate(now)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}

	var placed []types.Bookmark
	start := 0
	for _, doc := range docs {
		if len(doc.PDF) == 0 {
			return nil, fmt.Errorf("document %s has no PDF data", doc.ID)
		}
		for _, b := range doc.Bookmarks {
			placed = append(placed, types.Bookmark{Title: b.Title, PageIndex: start + b.PageIndex, Level: b.Level})
		}
		start += doc.PageCount
	}
	sort.SliceStable(placed, func(i, j int) bool { return placed[i].PageIndex < placed[j].PageIndex })
	placed = outline.Normalize(placed)

	imp := gofpdi.NewImporter()
	page := 0
	next := 0
	for _, doc := range docs {
		// gofpdi keys sources by the stream pointer, so each document
		// needs its own variable.
		rs := io.ReadSeeker(bytes.NewReader(doc.PDF))
		for i := 1; i <= doc.PageCount; i++ {
			tpl := imp.ImportPageFromStream(pdf, &rs, i, "/MediaBox")
			if err := pdf.Error(); err != nil {
				return nil, fmt.Errorf("importing page %d of %s: %w", i, doc.ID, err)
			}
			pdf.AddPage()
			width, height := pdf.GetPageSize()
			imp.UseImportedTemplate(pdf, tpl, 0, 0, width, height)

			for next < len(placed) && placed[next].PageIndex == page {
				pdf.Bookmark(outlineTitle(placed[next].Title), placed[next].Level, 0)
				next++
			}
			page++
		}
	}

	if !opts.Protection.Enabled() {
		if err := pdf.Output(w); err != nil {
			return nil, fmt.Errorf("writing merged PDF: %w", err)
		}
		return &Result{Pages: page, Outline: placed}, nil
	}

	var plain bytes.Buffer
	if err := pdf.Output(&plain); err != nil {
		return nil, fmt.Errorf("writing merged PDF: %w", err)
	}
	if err := encrypt(plain.Bytes(), opts.Protection, w); err != nil {
		return nil, err
	}
	return &Result{Pages: page, Outline: placed}, nil
}

// encrypt writes data to w with AES-256 encryption. Readers may print but
// not modify the document. An empty owner password falls back to the user
// password.
func encrypt(data []byte, p types.Protection, w io.Writer) error {
	owner := p.OwnerPassword
	if owner == "" {
		owner = p.UserPassword
	}
	conf := model.NewAESConfiguration(p.UserPassword, owner, 256)
	conf.Permissions = model.PermissionsPrint
	if err := api.Encrypt(bytes.NewReader(data), w, conf); err != nil {
		return fmt.Errorf("encrypting merged PDF: %w", err)
	}
	return nil
}

// outlineTitle encodes s as a UTF-16BE text string with byte order mark,
// the form PDF outlines need for text outside PDFDocEncoding. ASCII titles
// are kept as they are.
func outlineTitle(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	enc, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(s)
	if err != nil {
		return s
	}
	return enc
}
