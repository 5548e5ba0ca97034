// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sample provides a two-chapter demo book whose headings fall on
// known pages.
package sample

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdftoc/pkg/types"
)

const pageBreak = "<div style='page-break-after: always;'>&nbsp;</div>\n"

// Titles lists the demo headings in document order.
var Titles = []types.Title{
	{Text: "1st chapter main title", Level: 0},
	{Text: "1st chapter 2nd level title", Level: 1},
	{Text: "1st chapter 3rd level title", Level: 2},
	{Text: "2nd chapter main title", Level: 0},
	{Text: "2nd chapter 2nd level title", Level: 1},
	{Text: "2nd chapter 3rd level title", Level: 2},
}

// IntroHTML is six pages with headings on page indexes 0, 2 and 4.
var IntroHTML = "<h1>" + Titles[0].Text + "</h1>\n" +
	"<div>This is the intro of the page</div>\n" +
	strings.Repeat(pageBreak, 2) +
	"<h2>" + Titles[1].Text + "</h2>\n" +
	strings.Repeat(pageBreak, 2) +
	"<h3>" + Titles[2].Text + "</h3>\n" +
	strings.Repeat(pageBreak, 2)

// PersonListHTML is six pages with headings on page indexes 0, 2 and 5.
var PersonListHTML = "<h1>" + Titles[3].Text + "</h1>\n" +
	"<div>A lot of persons over here...</div>\n" +
	strings.Repeat(pageBreak, 2) +
	"<h2>" + Titles[4].Text + "</h2>\n" +
	strings.Repeat(pageBreak, 3) +
	"<h3>" + Titles[5].Text + "</h3>\n" +
	pageBreak

// Book returns the demo book with inline chapter content.
func Book() *types.Book {
	return &types.Book{
		Title:           "pdftoc demo",
		Output:          types.DefaultOutput,
		FirstPageNumber: 1,
		Chapters: []types.Chapter{
			{ID: "intro", Title: "great chapter 1", Content: IntroHTML},
			{ID: "person-list", Title: "great chapter 2", Content: PersonListHTML},
		},
	}
}

// Write creates dir/book.yaml with chapters stored as HTML files next to
// it, and returns the manifest path.
func Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	book := Book()
	for i := range book.Chapters {
		ch := &book.Chapters[i]
		name := ch.ID + ".html"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(ch.Content), 0o644); err != nil {
			return "", fmt.Errorf("writing chapter %s: %w", ch.ID, err)
		}
		ch.Content = ""
		ch.File = name
	}

	data, err := yaml.Marshal(book)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, "book.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}
