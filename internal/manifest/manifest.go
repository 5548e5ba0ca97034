// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest loads book manifests and resolves each chapter's HTML
// from inline content, local files, Markdown, or URLs.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/russross/blackfriday/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdftoc/internal/httputil"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// DefaultFile is the manifest read when no path is given.
const DefaultFile = "book.yaml"

// Load reads a YAML manifest, applies defaults and validates it.
func Load(path string) (*types.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes manifest YAML, applies defaults and validates it.
func Parse(data []byte) (*types.Book, error) {
	var book types.Book
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	applyDefaults(&book)
	if err := Validate(&book); err != nil {
		return nil, err
	}
	return &book, nil
}

func applyDefaults(b *types.Book) {
	if b.Output == "" {
		b.Output = types.DefaultOutput
	}
	if b.FirstPageNumber < 1 {
		b.FirstPageNumber = 1
	}
	for i := range b.Chapters {
		ch := &b.Chapters[i]
		if ch.ID == "" {
			ch.ID = Slug(ch.Title)
		}
		if ch.ID == "" {
			ch.ID = fmt.Sprintf("chapter-%d", i+1)
		}
	}
}

// Validate checks that the book has chapters, every chapter has exactly
// one source, and chapter ids are unique.
func Validate(b *types.Book) error {
	if len(b.Chapters) == 0 {
		return errors.New("manifest has no chapters")
	}

	seen := make(map[string]bool, len(b.Chapters))
	var errs []error
	for i, ch := range b.Chapters {
		name := ch.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		sources := 0
		for _, s := range []string{ch.Content, ch.File, ch.URL} {
			if s != "" {
				sources++
			}
		}
		if sources != 1 {
			errs = append(errs, fmt.Errorf("chapter %s: want exactly one of content, file, url (got %d)", name, sources))
		}
		if seen[ch.ID] {
			errs = append(errs, fmt.Errorf("chapter %s: duplicate id", name))
		}
		seen[ch.ID] = true

		for _, h := range ch.Headings {
			if strings.TrimSpace(h.Text) == "" || h.Level < 0 {
				errs = append(errs, fmt.Errorf("chapter %s: invalid heading %+v", name, h))
			}
		}
	}
	return errors.Join(errs...)
}

// Slug lowercases s and replaces every run of non-alphanumeric characters
// with a single dash.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Fetcher downloads remote chapter sources.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over HTTP with retry on 429 and 503.
type HTTPFetcher struct {
	Client *http.Client
	Config types.HTTPConfig
}

// NewHTTPFetcher returns a fetcher whose client honors cfg.Timeout.
func NewHTTPFetcher(cfg types.HTTPConfig) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: cfg.Timeout}, Config: cfg}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	return httputil.Fetch(ctx, f.Client, u, f.Config)
}

// Resolve fills Chapter.HTML for every chapter. Relative file paths are
// taken from baseDir. fetcher may be nil when no chapter has a URL.
func Resolve(ctx context.Context, b *types.Book, baseDir string, fetcher Fetcher) error {
	for i := range b.Chapters {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch := &b.Chapters[i]
		markup, err := resolveChapter(ctx, ch, baseDir, fetcher)
		if err != nil {
			return fmt.Errorf("chapter %s: %w", ch.ID, err)
		}
		ch.HTML = markup
	}
	return nil
}

func resolveChapter(ctx context.Context, ch *types.Chapter, baseDir string, fetcher Fetcher) (string, error) {
	switch {
	case ch.Content != "":
		return ch.Content, nil

	case ch.File != "":
		path := ch.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", ch.File, err)
		}
		return toHTML(ch.File, data), nil

	case ch.URL != "":
		u, err := url.Parse(ch.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return "", fmt.Errorf("invalid url %q", ch.URL)
		}
		if fetcher == nil {
			return "", errors.New("no fetcher configured for url chapters")
		}
		data, err := fetcher.Fetch(ctx, ch.URL)
		if err != nil {
			return "", err
		}
		return toHTML(u.Path, data), nil
	}
	return "", errors.New("no source")
}

// toHTML converts Markdown sources to HTML and returns anything else as is.
func toHTML(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return string(blackfriday.Run(data))
	}
	return string(data)
}
