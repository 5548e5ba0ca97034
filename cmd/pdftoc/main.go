// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdftoc CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdftoc/internal/secrets"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds values loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the pdftoc CLI.
var rootCmd = &cobra.Command{
	Use:   "pdftoc",
	Short: "Merge HTML chapters into one PDF with bookmarks and a table of contents",
	Long: `pdftoc renders the chapters of a book manifest to PDF with running page
numbers, finds each chapter's headings on the rendered pages, and merges a
generated table of contents and all chapters into one bookmarked document.

Rendered chapters are cached in the work directory so unchanged chapters are
not rendered again.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdftoc.yaml or ~/.config/pdftoc/config.yaml)")
	rootCmd.PersistentFlags().String("work-dir", types.DefaultWorkDir, "directory for the render cache and build index")
	viper.BindPFlag("catalog.work_dir", rootCmd.PersistentFlags().Lookup("work-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile == "" {
		home, _ := os.UserHomeDir()
		cfgFile = configFile(home)
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("PDFTOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
