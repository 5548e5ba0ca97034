// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds settings for chapters fetched from a URL.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pdftoc/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// RenderBackend identifies the HTML-to-PDF engine.
type RenderBackend string

const (
	BackendFPDF        RenderBackend = "fpdf"
	BackendWkhtmltopdf RenderBackend = "wkhtmltopdf"
)

// CSSMediaType selects which CSS media rules apply while rendering.
type CSSMediaType string

const (
	MediaPrint  CSSMediaType = "print"
	MediaScreen CSSMediaType = "screen"
)

// HeaderFooter describes a simple text header or footer. Text fields accept
// the tokens {page}, {total-pages}, {pdf-title}, {date} and {time}.
type HeaderFooter struct {
	LeftText        string  `json:"left_text,omitempty" yaml:"left_text,omitempty"`
	CenterText      string  `json:"center_text,omitempty" yaml:"center_text,omitempty"`
	RightText       string  `json:"right_text,omitempty" yaml:"right_text,omitempty"`
	DrawDividerLine bool    `json:"draw_divider_line" yaml:"draw_divider_line"`
	FontSize        float64 `json:"font_size" yaml:"font_size"`
}

// IsEmpty reports whether the header or footer prints nothing.
func (h *HeaderFooter) IsEmpty() bool {
	return h == nil || (h.LeftText == "" && h.CenterText == "" && h.RightText == "" && !h.DrawDividerLine)
}

// RenderConfig holds the print options of one renderer. Lengths are millimeters.
type RenderConfig struct {
	Backend RenderBackend `json:"backend" yaml:"backend"`

	// PaperSize is a gofpdf size name such as "A4" or "Letter".
	PaperSize string `json:"paper_size" yaml:"paper_size"`

	// Orientation is "P" (portrait) or "L" (landscape).
	Orientation string `json:"orientation" yaml:"orientation"`

	MarginTop    float64 `json:"margin_top" yaml:"margin_top"`
	MarginBottom float64 `json:"margin_bottom" yaml:"margin_bottom"`
	MarginLeft   float64 `json:"margin_left" yaml:"margin_left"`
	MarginRight  float64 `json:"margin_right" yaml:"margin_right"`

	CSSMediaType     CSSMediaType  `json:"css_media_type" yaml:"css_media_type"`
	EnableJavaScript bool          `json:"enable_javascript" yaml:"enable_javascript"`
	RenderDelay      time.Duration `json:"render_delay" yaml:"render_delay"`

	// FontFamily is the body font for the fpdf backend (default "Helvetica").
	FontFamily string `json:"font_family" yaml:"font_family"`

	Header *HeaderFooter `json:"header,omitempty" yaml:"header,omitempty"`
	Footer *HeaderFooter `json:"footer,omitempty" yaml:"footer,omitempty"`

	// Image is the container image used by the wkhtmltopdf backend.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// CatalogConfig holds settings for the render cache and build index.
type CatalogConfig struct {
	// WorkDir is the base directory for the cache (contains cache/, index/).
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// Disabled turns off cached chapter reuse. Builds are still recorded.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// Protection holds optional PDF passwords for the merged output.
type Protection struct {
	UserPassword  string `json:"-" yaml:"-"`
	OwnerPassword string `json:"-" yaml:"-"`
}

// Enabled reports whether any password is configured.
func (p Protection) Enabled() bool {
	return p.UserPassword != "" || p.OwnerPassword != ""
}

// BuildConfig groups all settings of one build.
type BuildConfig struct {
	// Chapter renders chapters with header and footer.
	Chapter RenderConfig `json:"chapter" yaml:"chapter"`

	// Toc renders the table-of-contents document.
	Toc RenderConfig `json:"toc" yaml:"toc"`

	HTTP       HTTPConfig    `json:"http" yaml:"http"`
	Catalog    CatalogConfig `json:"catalog" yaml:"catalog"`
	Protection Protection    `json:"-" yaml:"-"`
}

const (
	DefaultOutput    = "HtmlToPDF.pdf"
	DefaultPaperSize = "A4"
	DefaultFont      = "Helvetica"
	DefaultWorkDir   = ".pdftoc"
	DefaultImage     = "surnet/alpine-wkhtmltopdf:3.20.2-0.12.6-full"
)

// DefaultChapterRender returns the print options used for chapters: 50 mm
// top and bottom margins, print media, no JavaScript, a centered title
// header and a date/page footer.
func DefaultChapterRender() RenderConfig {
	cfg := DefaultTocRender()
	cfg.Header = &HeaderFooter{
		CenterText:      "{pdf-title}",
		DrawDividerLine: true,
		FontSize:        16,
	}
	cfg.Footer = &HeaderFooter{
		LeftText:        "{date} {time}",
		RightText:       "Page {page}",
		DrawDividerLine: true,
		FontSize:        14,
	}
	return cfg
}

// DefaultTocRender returns the print options used for the table of
// contents: the chapter options without header and footer.
func DefaultTocRender() RenderConfig {
	return RenderConfig{
		Backend:          BackendFPDF,
		PaperSize:        DefaultPaperSize,
		Orientation:      "P",
		MarginTop:        50,
		MarginBottom:     50,
		MarginLeft:       20,
		MarginRight:      20,
		CSSMediaType:     MediaPrint,
		EnableJavaScript: false,
		RenderDelay:      100 * time.Millisecond,
		FontFamily:       DefaultFont,
		Image:            DefaultImage,
	}
}

// DefaultBuildConfig returns a BuildConfig with every default applied.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Chapter: DefaultChapterRender(),
		Toc:     DefaultTocRender(),
		HTTP: HTTPConfig{
			Timeout:    60 * time.Second,
			UserAgent:  "pdftoc/0.1",
			MaxRetries: 5,
		},
		Catalog: CatalogConfig{WorkDir: DefaultWorkDir},
	}
}
