// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/pdftoc/internal/container"
	"github.com/pdiddy/pdftoc/internal/htmldoc"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// wkhtmlTokens maps header/footer tokens to wkhtmltopdf substitution variables.
var wkhtmlTokens = strings.NewReplacer(
	"{page}", "[page]",
	"{total-pages}", "[topage]",
	"{pdf-title}", "[title]",
	"{date}", "[date]",
	"{time}", "[time]",
)

// ContainerRenderer renders HTML by piping it through wkhtmltopdf running
// in a container. The page count is read back from the produced PDF;
// Document.PageText is left empty.
type ContainerRenderer struct {
	runtime container.Runtime
	cfg     types.RenderConfig
}

// NewContainerRenderer verifies the wkhtmltopdf image exists in rt and
// returns a renderer using it.
func NewContainerRenderer(ctx context.Context, rt container.Runtime, cfg types.RenderConfig) (*ContainerRenderer, error) {
	if cfg.Image == "" {
		cfg.Image = types.DefaultImage
	}
	if err := rt.ImageExists(ctx, cfg.Image); err != nil {
		return nil, fmt.Errorf("wkhtmltopdf image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerRenderer{runtime: rt, cfg: cfg}, nil
}

// Render runs wkhtmltopdf with job.HTML on stdin.
func (r *ContainerRenderer) Render(ctx context.Context, job Job) (*types.Document, error) {
	first := firstPage(job.FirstPageNumber)

	var out bytes.Buffer
	if err := r.runtime.Run(ctx, r.cfg.Image, r.Args(job), strings.NewReader(job.HTML), &out); err != nil {
		return nil, fmt.Errorf("rendering %s with wkhtmltopdf: %w", job.ID, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("wkhtmltopdf produced empty output for %s", job.ID)
	}

	pages, err := CountPages(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", job.ID, err)
	}

	return &types.Document{
		ID:              job.ID,
		Title:           job.Title,
		PDF:             out.Bytes(),
		PageCount:       pages,
		FirstPageNumber: first,
	}, nil
}

// Args builds the wkhtmltopdf command line for job. Input and output are
// stdin and stdout.
func (r *ContainerRenderer) Args(job Job) []string {
	cfg := r.cfg
	title := htmldoc.DocumentTitle(job.HTML)
	if title == "" {
		title = job.Title
	}

	orientation := "Portrait"
	if strings.EqualFold(cfg.Orientation, "L") {
		orientation = "Landscape"
	}
	paper := cfg.PaperSize
	if paper == "" {
		paper = types.DefaultPaperSize
	}

	args := []string{
		"--quiet",
		"--encoding", "utf-8",
		"--page-size", paper,
		"--orientation", orientation,
		"--margin-top", mm(cfg.MarginTop),
		"--margin-bottom", mm(cfg.MarginBottom),
		"--margin-left", mm(cfg.MarginLeft),
		"--margin-right", mm(cfg.MarginRight),
		// [page] counts from offset+1.
		"--page-offset", strconv.Itoa(firstPage(job.FirstPageNumber) - 1),
	}
	if title != "" {
		args = append(args, "--title", title)
	}

	if cfg.CSSMediaType == types.MediaScreen {
		args = append(args, "--no-print-media-type")
	} else {
		args = append(args, "--print-media-type")
	}

	if cfg.EnableJavaScript {
		args = append(args, "--enable-javascript")
		if cfg.RenderDelay > 0 {
			args = append(args, "--javascript-delay", strconv.FormatInt(cfg.RenderDelay.Milliseconds(), 10))
		}
	} else {
		args = append(args, "--disable-javascript")
	}

	args = append(args, bandArgs("header", cfg.Header)...)
	args = append(args, bandArgs("footer", cfg.Footer)...)
	return append(args, "-", "-")
}

func bandArgs(band string, hf *types.HeaderFooter) []string {
	if hf.IsEmpty() {
		return nil
	}
	var args []string
	for _, part := range []struct{ pos, text string }{
		{"left", hf.LeftText}, {"center", hf.CenterText}, {"right", hf.RightText},
	} {
		if part.text != "" {
			args = append(args, "--"+band+"-"+part.pos, wkhtmlTokens.Replace(part.text))
		}
	}
	if hf.DrawDividerLine {
		args = append(args, "--"+band+"-line")
	}
	if hf.FontSize > 0 {
		args = append(args, "--"+band+"-font-size", strconv.Itoa(int(hf.FontSize)))
	}
	return append(args, "--"+band+"-spacing", "5")
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}
