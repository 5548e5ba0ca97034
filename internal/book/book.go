// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package book renders a book's chapters with running page numbers,
// locates their headings, builds the table of contents and merges
// everything into one PDF.
package book

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/pdftoc/internal/catalog"
	"github.com/pdiddy/pdftoc/internal/htmldoc"
	"github.com/pdiddy/pdftoc/internal/merge"
	"github.com/pdiddy/pdftoc/internal/outline"
	"github.com/pdiddy/pdftoc/internal/render"
	"github.com/pdiddy/pdftoc/internal/toc"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// Cache stores rendered chapters and build records. *catalog.Store
// implements it.
type Cache interface {
	Lookup(ctx context.Context, id, hash string, firstPage int) (*types.Document, error)
	Save(ctx context.Context, doc *types.Document, hash string) error
	RecordBuild(ctx context.Context, rec catalog.BuildRecord) (int64, error)
}

// Builder produces a merged PDF from a resolved book.
type Builder struct {
	Chapters  render.Renderer
	Toc       render.Renderer
	Extractor outline.TextExtractor

	// Cache is optional. With NoCache set, cached chapters are ignored
	// but new renderings and builds are still recorded.
	Cache   Cache
	NoCache bool

	// ConfigKey identifies the chapter render settings; it is part of
	// every chapter's cache key.
	ConfigKey string

	Author      string
	PaperSize   string
	Orientation string
	Protection  types.Protection

	// Out receives status lines.
	Out io.Writer

	Now func() time.Time
}

// ChapterResult reports how one chapter was produced.
type ChapterResult struct {
	ID       string
	Status   types.RenderStatus
	Pages    int
	First    int
	Missing  []types.Title
	Document *types.Document
}

// Result summarizes a build.
type Result struct {
	Chapters []ChapterResult
	Rendered int
	Cached   int

	ChapterPages int
	TocPages     int
	Pages        int

	Output  string
	Size    int64
	Entries []types.TocEntry
	Outline []types.Bookmark
}

// ConfigKey fingerprints render settings for chapter cache keys.
func ConfigKey(cfg types.RenderConfig) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	return string(data)
}

func (b *Builder) out() io.Writer {
	if b.Out == nil {
		return io.Discard
	}
	return b.Out
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// Build renders every chapter of bk in order, each starting at the page
// number following the previous chapter, then writes the merged file to
// bk.Output. Chapter HTML must already be resolved. A chapter that fails
// to render aborts the build.
func (b *Builder) Build(ctx context.Context, bk *types.Book) (*Result, error) {
	w := b.out()
	res := &Result{Output: bk.Output}
	if res.Output == "" {
		res.Output = types.DefaultOutput
	}

	first := bk.FirstPageNumber
	if first < 1 {
		first = 1
	}

	docs := make([]*types.Document, 0, len(bk.Chapters))
	for _, ch := range bk.Chapters {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		cr, err := b.chapter(ctx, ch, first)
		if err != nil {
			fmt.Fprintf(w, "failed:   %s: %v\n", ch.ID, err)
			return res, fmt.Errorf("chapter %s: %w", ch.ID, err)
		}

		switch cr.Status {
		case types.RenderCached:
			res.Cached++
			fmt.Fprintf(w, "cached:   %s (%d pages, first page %d)\n", ch.ID, cr.Pages, cr.First)
		default:
			res.Rendered++
			fmt.Fprintf(w, "rendered: %s (%d pages, first page %d)\n", ch.ID, cr.Pages, cr.First)
		}
		for _, m := range cr.Missing {
			fmt.Fprintf(w, "warning:  %s: heading %q not found on any page\n", ch.ID, m.Text)
		}

		res.Chapters = append(res.Chapters, *cr)
		docs = append(docs, cr.Document)
		res.ChapterPages += cr.Pages
		first += cr.Pages
	}

	res.Entries = toc.Entries(docs)

	all := docs
	if !bk.Toc.Disabled {
		title := bk.Toc.Title
		tocDoc, err := b.Toc.Render(ctx, render.Job{
			ID:    "toc",
			Title: bk.Title,
			HTML:  toc.HTML(res.Entries, title),
		})
		if err != nil {
			fmt.Fprintf(w, "failed:   toc: %v\n", err)
			return res, fmt.Errorf("rendering table of contents: %w", err)
		}
		res.TocPages = tocDoc.PageCount
		all = append([]*types.Document{tocDoc}, docs...)
	}

	merged, size, err := b.write(res.Output, all, bk)
	if err != nil {
		return res, err
	}
	res.Pages = merged.Pages
	res.Outline = merged.Outline
	res.Size = size

	if b.Cache != nil {
		_, err := b.Cache.RecordBuild(ctx, catalog.BuildRecord{
			Title:    bk.Title,
			Output:   res.Output,
			Pages:    res.Pages,
			TocPages: res.TocPages,
			BuiltAt:  b.now(),
			Entries:  res.Entries,
		})
		if err != nil {
			fmt.Fprintf(w, "warning:  recording build: %v\n", err)
		}
	}

	fmt.Fprintf(w, "\nrendered: %d, cached: %d, pages: %d (toc: %d), output: %s (%s)\n",
		res.Rendered, res.Cached, res.Pages, res.TocPages, res.Output, humanize.Bytes(uint64(size)))
	return res, nil
}

// chapter returns the cached or freshly rendered chapter with bookmarks.
func (b *Builder) chapter(ctx context.Context, ch types.Chapter, first int) (*ChapterResult, error) {
	titles := ch.Headings
	if len(titles) == 0 {
		var err error
		if titles, err = htmldoc.Headings(ch.HTML); err != nil {
			return nil, err
		}
	}
	hash := ContentHash(b.ConfigKey, ch, titles)

	if b.Cache != nil && !b.NoCache {
		doc, err := b.Cache.Lookup(ctx, ch.ID, hash, first)
		if err != nil {
			fmt.Fprintf(b.out(), "warning:  cache lookup for %s: %v\n", ch.ID, err)
		}
		if doc != nil {
			// Bookmarks come from the cache; unmatched titles are recomputed.
			_, missing, err := outline.Detect(doc, titles, b.Extractor)
			if err != nil {
				fmt.Fprintf(b.out(), "warning:  checking headings of cached %s: %v\n", ch.ID, err)
			}
			return &ChapterResult{
				ID: ch.ID, Status: types.RenderCached,
				Pages: doc.PageCount, First: doc.FirstPageNumber,
				Missing: missing, Document: doc,
			}, nil
		}
	}

	doc, err := b.Chapters.Render(ctx, render.Job{
		ID:              ch.ID,
		Title:           ch.Title,
		HTML:            ch.HTML,
		FirstPageNumber: first,
	})
	if err != nil {
		return nil, err
	}

	marks, missing, err := outline.Detect(doc, titles, b.Extractor)
	if err != nil {
		return nil, err
	}
	doc.Bookmarks = marks

	if b.Cache != nil {
		if err := b.Cache.Save(ctx, doc, hash); err != nil {
			fmt.Fprintf(b.out(), "warning:  caching %s: %v\n", ch.ID, err)
		}
	}

	return &ChapterResult{
		ID: ch.ID, Status: types.RenderDone,
		Pages: doc.PageCount, First: doc.FirstPageNumber,
		Missing: missing, Document: doc,
	}, nil
}

// write merges docs into a temporary file beside path and renames it into
// place, so a failed build leaves no partial output.
func (b *Builder) write(path string, docs []*types.Document, bk *types.Book) (*merge.Result, int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, 0, fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pdftoc-*.pdf")
	if err != nil {
		return nil, 0, fmt.Errorf("creating temporary output: %w", err)
	}
	defer os.Remove(tmp.Name())

	author := bk.Author
	if author == "" {
		author = b.Author
	}
	merged, err := merge.Merge(docs, merge.Options{
		Title:       bk.Title,
		Author:      author,
		PaperSize:   b.PaperSize,
		Orientation: b.Orientation,
		Protection:  b.Protection,
		Now:         b.now(),
	}, tmp)
	if err != nil {
		tmp.Close()
		return nil, 0, err
	}

	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return nil, 0, fmt.Errorf("checking output size: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, 0, fmt.Errorf("closing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return merged, info.Size(), nil
}

// ContentHash keys a chapter rendering by its markup, title, headings and
// render settings.
func ContentHash(configKey string, ch types.Chapter, titles []types.Title) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", configKey, ch.Title, ch.HTML)
	for _, t := range titles {
		fmt.Fprintf(h, "%d:%s\x00", t.Level, t.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}
