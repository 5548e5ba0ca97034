// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdftoc/pkg/types"
)

// BuildRecord describes one merged output and its table of contents.
type BuildRecord struct {
	ID       int64            `json:"id" yaml:"id"`
	Title    string           `json:"title" yaml:"title"`
	Output   string           `json:"output" yaml:"output"`
	Pages    int              `json:"pages" yaml:"pages"`
	TocPages int              `json:"toc_pages" yaml:"toc_pages"`
	BuiltAt  time.Time        `json:"built_at" yaml:"built_at"`
	Entries  []types.TocEntry `json:"entries" yaml:"entries"`
}

// RecordBuild stores rec and its entries. It returns the new build id.
func (s *Store) RecordBuild(ctx context.Context, rec BuildRecord) (int64, error) {
	if rec.BuiltAt.IsZero() {
		rec.BuiltAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO builds (title, output, pages, toc_pages, built_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Title, rec.Output, rec.Pages, rec.TocPages, rec.BuiltAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting build: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading build id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO toc_entries (build_id, position, title, page_number, level) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range rec.Entries {
		if _, err := stmt.ExecContext(ctx, id, i, e.Title, e.PageNumber, e.Level); err != nil {
			return 0, fmt.Errorf("inserting toc entry %q: %w", e.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// LatestToc returns the most recent build with its entries, or ErrNoBuilds.
func (s *Store) LatestToc(ctx context.Context) (*BuildRecord, error) {
	var (
		rec     BuildRecord
		builtAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, output, pages, toc_pages, built_at FROM builds ORDER BY id DESC LIMIT 1`,
	).Scan(&rec.ID, &rec.Title, &rec.Output, &rec.Pages, &rec.TocPages, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBuilds
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest build: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, builtAt); err == nil {
		rec.BuiltAt = t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, page_number, level FROM toc_entries WHERE build_id = ? ORDER BY position`, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("querying toc entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e types.TocEntry
		if err := rows.Scan(&e.Title, &e.PageNumber, &e.Level); err != nil {
			return nil, fmt.Errorf("scanning toc entry: %w", err)
		}
		rec.Entries = append(rec.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ExportPath returns the default export location for the given format
// ("yaml" or "json").
func (s *Store) ExportPath(format string) string {
	return filepath.Join(s.workDir, indexDir, "toc."+format)
}

// ExportYAML writes the latest build's table of contents to path.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	rec, err := s.LatestToc(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the latest build's table of contents to path.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	rec, err := s.LatestToc(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
