// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdftoc/internal/catalog"
)

var tocCmd = &cobra.Command{
	Use:   "toc",
	Short: "Print or export the table of contents of the last build",
	Long: `Toc prints the table of contents recorded by the most recent build, with
the page numbers printed in the chapter footers. Use --export to write it to
the work directory as YAML or JSON instead.`,
	Args: cobra.NoArgs,
	RunE: runToc,
}

func runToc(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("export")
	path, _ := cmd.Flags().GetString("path")

	cfg := loadConfig(viper.GetViper(), loadedSecrets)
	store, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	switch format {
	case "":
		rec, err := store.LatestToc(ctx)
		if err != nil {
			return err
		}
		formatToc(rec, os.Stdout)
		return nil
	case "yaml", "json":
		if path == "" {
			path = store.ExportPath(format)
		}
		if format == "yaml" {
			err = store.ExportYAML(ctx, path)
		} else {
			err = store.ExportJSON(ctx, path)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

func formatToc(rec *catalog.BuildRecord, w io.Writer) {
	fmt.Fprintf(w, "%s (%s, %d pages, built %s)\n\n", rec.Title, rec.Output, rec.Pages,
		rec.BuiltAt.Local().Format("2006-01-02 15:04"))
	for _, e := range rec.Entries {
		fmt.Fprintf(w, "%s%s ... %d\n", strings.Repeat("  ", e.Level), e.Title, e.PageNumber)
	}
}

func init() {
	tocCmd.Flags().String("export", "", "write the table of contents instead of printing it: yaml or json")
	tocCmd.Flags().String("path", "", "export file path (default <work-dir>/index/toc.<format>)")

	rootCmd.AddCommand(tocCmd)
}
