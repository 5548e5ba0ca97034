// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdftoc/internal/sample"
)

var sampleCmd = &cobra.Command{
	Use:   "sample [dir]",
	Short: "Write a two-chapter demo book",
	Long: `Sample writes book.yaml and two chapter files to dir (default "sample").
Build it with: pdftoc build <dir>/book.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "sample"
		if len(args) > 0 {
			dir = args[0]
		}
		path, err := sample.Write(dir)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}
