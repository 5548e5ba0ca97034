// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Book is the manifest for one merged output document: an ordered list of
// chapters plus table-of-contents settings.
type Book struct {
	// Title is written into the merged PDF metadata.
	Title string `json:"title" yaml:"title"`

	// Author is written into the merged PDF metadata.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Output is the path of the merged PDF (default "HtmlToPDF.pdf").
	Output string `json:"output" yaml:"output"`

	// FirstPageNumber is the number printed on the first chapter page (default 1).
	FirstPageNumber int `json:"first_page_number" yaml:"first_page_number"`

	// Toc controls the synthesized table-of-contents document.
	Toc TocSettings `json:"toc" yaml:"toc"`

	// Chapters lists the chapters in output order.
	Chapters []Chapter `json:"chapters" yaml:"chapters"`
}

// TocSettings controls the table-of-contents document.
type TocSettings struct {
	// Disabled skips the ToC document entirely.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	// Title is an optional heading printed above the entries.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Chapter is one HTML source rendered into its own PDF before merging.
// Exactly one of Content, File, or URL is set.
type Chapter struct {
	// ID is a stable slug used as the cache key (derived from Title when empty).
	ID string `json:"id" yaml:"id"`

	// Title names the chapter in status output and the {pdf-title} token
	// when the HTML has no <title>.
	Title string `json:"title" yaml:"title"`

	// Content is inline HTML markup.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// File is a path to an HTML or Markdown file, relative to the manifest.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// URL is an http(s) address fetched at build time.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Headings overrides the titles detected from the HTML heading elements.
	Headings []Title `json:"headings,omitempty" yaml:"headings,omitempty"`

	// HTML is the resolved markup. It is filled in by manifest.Resolve.
	HTML string `json:"-" yaml:"-"`
}

// Title is a heading text searched for on rendered pages.
type Title struct {
	Text string `json:"text" yaml:"text"`

	// Level is the 0-based indentation (h1 = 0).
	Level int `json:"level" yaml:"level"`
}

// Bookmark is a heading located on a page of a rendered document.
type Bookmark struct {
	Title string `json:"title" yaml:"title"`

	// PageIndex is 0-based within the owning document.
	PageIndex int `json:"page_index" yaml:"page_index"`

	Level int `json:"level" yaml:"level"`
}

// Document is one rendered PDF with its bookmarks.
type Document struct {
	ID    string
	Title string

	// PDF holds the raw file bytes.
	PDF []byte

	PageCount int

	// FirstPageNumber is the number printed in the footer of page index 0.
	FirstPageNumber int

	// PageText holds the text of each page when the renderer knows it.
	// When nil, text is extracted from PDF.
	PageText []string

	Bookmarks []Bookmark
}

// TocEntry is one line of the table of contents.
type TocEntry struct {
	Title      string `json:"title" yaml:"title"`
	PageNumber int    `json:"page_number" yaml:"page_number"`
	Level      int    `json:"level" yaml:"level"`
}

// RenderStatus reports how a chapter was produced during a build.
type RenderStatus string

const (
	RenderDone   RenderStatus = "rendered"
	RenderCached RenderStatus = "cached"
	RenderFailed RenderStatus = "failed"
)
