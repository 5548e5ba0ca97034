// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdftoc/internal/catalog"
	"github.com/pdiddy/pdftoc/internal/manifest"
	"github.com/pdiddy/pdftoc/pkg/types"
)

var outlineCmd = &cobra.Command{
	Use:   "outline [manifest]",
	Short: "Show the bookmarks detected in each chapter",
	Long: `Outline lists, per chapter of the manifest, the headings found during the
last build and the page index (0-based within the chapter) each one landed
on. Chapters that have not been built are marked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOutline,
}

// chapterOutline is the JSON form of one chapter's bookmarks.
type chapterOutline struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Built     bool             `json:"built"`
	Bookmarks []types.Bookmark `json:"bookmarks"`
}

func runOutline(cmd *cobra.Command, args []string) error {
	path := manifest.DefaultFile
	if len(args) > 0 {
		path = args[0]
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	bk, err := manifest.Load(path)
	if err != nil {
		return err
	}

	cfg := loadConfig(viper.GetViper(), loadedSecrets)
	store, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	chapters, err := collectOutlines(cmd.Context(), store, bk)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chapters)
	}
	formatOutline(chapters, os.Stdout)
	return nil
}

// collectOutlines reads the stored bookmarks of every chapter of bk. A
// chapter counts as built when the catalog has a rendering of it, even one
// without bookmarks.
func collectOutlines(ctx context.Context, store *catalog.Store, bk *types.Book) ([]chapterOutline, error) {
	var chapters []chapterOutline
	for _, ch := range bk.Chapters {
		built, err := store.HasDocument(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		out := chapterOutline{ID: ch.ID, Title: ch.Title, Built: built}
		if built {
			marks, err := store.Bookmarks(ctx, ch.ID)
			if err != nil {
				return nil, err
			}
			out.Bookmarks = append([]types.Bookmark{}, marks...)
		}
		chapters = append(chapters, out)
	}
	return chapters, nil
}

func formatOutline(chapters []chapterOutline, w io.Writer) {
	for _, ch := range chapters {
		fmt.Fprintf(w, "%s (%s)\n", ch.ID, ch.Title)
		if !ch.Built {
			fmt.Fprintln(w, "  not built")
			continue
		}
		for _, b := range ch.Bookmarks {
			fmt.Fprintf(w, "  %-6s %s%s\n", fmt.Sprintf("[%d]", b.PageIndex), strings.Repeat("  ", b.Level), b.Title)
		}
	}
}

func init() {
	outlineCmd.Flags().Bool("json", false, "output bookmarks as JSON")

	rootCmd.AddCommand(outlineCmd)
}
