// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns chapter HTML into PDF documents through pluggable
// backends: a native gofpdf renderer and a wkhtmltopdf container.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdftoc/internal/container"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// Job is one HTML document to render.
type Job struct {
	// ID is copied to the resulting document.
	ID string

	// Title is used for {pdf-title} when the markup has no <title>.
	Title string

	HTML string

	// FirstPageNumber is the number printed on the first page (default 1).
	FirstPageNumber int
}

// Renderer transforms HTML into a PDF document. Implementations fill
// Document.PDF, PageCount and FirstPageNumber; PageText is optional.
type Renderer interface {
	Render(ctx context.Context, job Job) (*types.Document, error)
}

// New returns the renderer for cfg.Backend.
func New(ctx context.Context, cfg types.RenderConfig) (Renderer, error) {
	switch cfg.Backend {
	case types.BackendFPDF, "":
		return NewFPDFRenderer(cfg), nil
	case types.BackendWkhtmltopdf:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewContainerRenderer(ctx, rt, cfg)
	default:
		return nil, fmt.Errorf("unknown render backend %q (want %s or %s)",
			cfg.Backend, types.BackendFPDF, types.BackendWkhtmltopdf)
	}
}

// Vars holds the values substituted into header and footer text.
type Vars struct {
	Page       string
	TotalPages string
	Title      string
	Date       string
	Time       string
}

// NewVars formats the date and time tokens from now.
func NewVars(title string, now time.Time) Vars {
	return Vars{
		Title: title,
		Date:  now.Format("2006-01-02"),
		Time:  now.Format("15:04"),
	}
}

// ExpandTokens replaces {page}, {total-pages}, {pdf-title}, {date} and
// {time} in text.
func ExpandTokens(text string, v Vars) string {
	if !strings.Contains(text, "{") {
		return text
	}
	r := strings.NewReplacer(
		"{page}", v.Page,
		"{total-pages}", v.TotalPages,
		"{pdf-title}", v.Title,
		"{date}", v.Date,
		"{time}", v.Time,
	)
	return r.Replace(text)
}

// CountPages returns the number of pages in a PDF file.
func CountPages(data []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("reading PDF: %w", err)
	}
	return r.NumPage(), nil
}

func firstPage(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
