// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdftoc/internal/book"
	"github.com/pdiddy/pdftoc/internal/catalog"
	"github.com/pdiddy/pdftoc/internal/manifest"
	"github.com/pdiddy/pdftoc/internal/outline"
	"github.com/pdiddy/pdftoc/internal/render"
	"github.com/pdiddy/pdftoc/internal/watch"
	"github.com/pdiddy/pdftoc/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build [manifest]",
	Short: "Render chapters and merge them with a table of contents",
	Long: `Build reads a book manifest (default book.yaml), renders every chapter with
page numbers continuing from the previous chapter, bookmarks each heading on
the page it landed on, and writes a table of contents followed by all
chapters to one PDF.

Backends: fpdf renders natively; wkhtmltopdf runs in a docker or podman
container and supports full CSS.

With --watch, the book is rebuilt whenever the manifest or a chapter file
changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := manifest.DefaultFile
	if len(args) > 0 {
		path = args[0]
	}
	output, _ := cmd.Flags().GetString("output")
	noToc, _ := cmd.Flags().GetBool("no-toc")
	watchMode, _ := cmd.Flags().GetBool("watch")

	cfg := loadConfig(viper.GetViper(), loadedSecrets)
	opts := buildOptions{manifest: path, output: output, noToc: noToc}

	ctx := cmd.Context()
	if !watchMode {
		return buildOnce(ctx, cfg, opts, os.Stdout)
	}

	if err := buildOnce(ctx, cfg, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
	}

	paths, err := watchPaths(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "watching %d file(s) for changes\n", len(paths))
	return watch.Run(ctx, paths, watch.DefaultDebounce, func(ctx context.Context) {
		fmt.Fprintln(os.Stdout, "\nchange detected, rebuilding")
		if err := buildOnce(ctx, cfg, opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		}
	})
}

type buildOptions struct {
	manifest string
	output   string
	noToc    bool
}

// buildOnce loads and resolves the manifest, then builds it.
func buildOnce(ctx context.Context, cfg types.BuildConfig, opts buildOptions, w io.Writer) error {
	bk, err := manifest.Load(opts.manifest)
	if err != nil {
		return err
	}
	if opts.output != "" {
		bk.Output = opts.output
	}
	if opts.noToc {
		bk.Toc.Disabled = true
	}

	fetcher := manifest.NewHTTPFetcher(cfg.HTTP)
	if err := manifest.Resolve(ctx, bk, filepath.Dir(opts.manifest), fetcher); err != nil {
		return err
	}

	chapters, err := render.New(ctx, cfg.Chapter)
	if err != nil {
		return err
	}
	tocRenderer, err := render.New(ctx, cfg.Toc)
	if err != nil {
		return err
	}

	b := &book.Builder{
		Chapters:    chapters,
		Toc:         tocRenderer,
		Extractor:   outline.PDFTextExtractor{},
		NoCache:     cfg.Catalog.Disabled,
		ConfigKey:   book.ConfigKey(cfg.Chapter),
		PaperSize:   cfg.Chapter.PaperSize,
		Orientation: cfg.Chapter.Orientation,
		Protection:  cfg.Protection,
		Out:         w,
	}

	store, err := catalog.Open(cfg.Catalog)
	if err != nil {
		fmt.Fprintf(w, "warning:  catalog unavailable, building without cache: %v\n", err)
	} else {
		defer store.Close()
		b.Cache = store
	}

	_, err = b.Build(ctx, bk)
	return err
}

// watchPaths lists the manifest and the local chapter files it names.
func watchPaths(manifestPath string) ([]string, error) {
	bk, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	paths := []string{manifestPath}
	base := filepath.Dir(manifestPath)
	for _, ch := range bk.Chapters {
		if ch.File == "" {
			continue
		}
		if filepath.IsAbs(ch.File) {
			paths = append(paths, ch.File)
		} else {
			paths = append(paths, filepath.Join(base, ch.File))
		}
	}
	return paths, nil
}

func init() {
	buildCmd.Flags().String("backend", string(types.BackendFPDF), "render backend: fpdf or wkhtmltopdf")
	buildCmd.Flags().StringP("output", "o", "", "output PDF path (default from manifest, else HtmlToPDF.pdf)")
	buildCmd.Flags().String("paper-size", types.DefaultPaperSize, "paper size, e.g. A4 or Letter")
	buildCmd.Flags().Float64("margin-top", 50, "top margin in mm")
	buildCmd.Flags().Float64("margin-bottom", 50, "bottom margin in mm")
	buildCmd.Flags().Float64("margin-left", 20, "left margin in mm")
	buildCmd.Flags().Float64("margin-right", 20, "right margin in mm")
	buildCmd.Flags().Bool("no-cache", false, "render every chapter even if a cached rendering matches")
	buildCmd.Flags().Bool("no-toc", false, "do not generate the table of contents document")
	buildCmd.Flags().Bool("watch", false, "rebuild when the manifest or chapter files change")

	for key, flag := range map[string]string{
		keyBackend:      "backend",
		keyPaperSize:    "paper-size",
		keyMarginTop:    "margin-top",
		keyMarginBottom: "margin-bottom",
		keyMarginLeft:   "margin-left",
		keyMarginRight:  "margin-right",
		keyNoCache:      "no-cache",
	} {
		viper.BindPFlag(key, buildCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(buildCmd)
}
