// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists rendered chapters and build results so unchanged
// chapters are not rendered twice and the last table of contents can be
// inspected without rebuilding.
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

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdftoc/pkg/types"
)

const (
	indexDir = "index"
	cacheDir = "cache"
	dbFile   = "pdftoc.db"
)

// ErrNoBuilds is returned when no build has been recorded yet.
var ErrNoBuilds = errors.New("no builds recorded")

// Store manages the catalog SQLite database and the cached chapter PDFs.
type Store struct {
	db      *sql.DB
	workDir string
}

// Open opens or creates the catalog database at workDir/index/pdftoc.db.
// It creates the schema if it does not exist.
func Open(cfg types.CatalogConfig) (*Store, error) {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = types.DefaultWorkDir
	}
	for _, dir := range []string{indexDir, cacheDir} {
		if err := os.MkdirAll(filepath.Join(workDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", dir, err)
		}
	}

	dbPath := filepath.Join(workDir, indexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, workDir: workDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			content_hash TEXT NOT NULL,
			first_page INTEGER NOT NULL,
			page_count INTEGER NOT NULL,
			pdf_path TEXT NOT NULL,
			page_text TEXT,
			rendered_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			page_index INTEGER NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (document_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT,
			output TEXT,
			pages INTEGER,
			toc_pages INTEGER,
			built_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS toc_entries (
			build_id INTEGER NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			page_number INTEGER NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (build_id, position)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) cachePath(id string) string {
	return filepath.Join(s.workDir, cacheDir, id+".pdf")
}

// Lookup returns the cached rendering of chapter id when it was produced
// from the same content hash and starting page number. It returns nil, nil
// on a cache miss, including when the cached PDF file has gone missing.
func (s *Store) Lookup(ctx context.Context, id, hash string, firstPage int) (*types.Document, error) {
	var (
		title, storedHash, pdfPath string
		pageText                   sql.NullString
		storedFirst, pageCount     int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, content_hash, first_page, page_count, pdf_path, page_text
		 FROM documents WHERE id = ?`, id,
	).Scan(&title, &storedHash, &storedFirst, &pageCount, &pdfPath, &pageText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", id, err)
	}
	if storedHash != hash || storedFirst != firstPage {
		return nil, nil
	}

	data, err := os.ReadFile(pdfPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached PDF for %s: %w", id, err)
	}

	doc := &types.Document{
		ID:              id,
		Title:           title,
		PDF:             data,
		PageCount:       pageCount,
		FirstPageNumber: storedFirst,
	}
	if pageText.Valid && pageText.String != "" {
		if err := json.Unmarshal([]byte(pageText.String), &doc.PageText); err != nil {
			return nil, fmt.Errorf("decoding page text for %s: %w", id, err)
		}
	}

	doc.Bookmarks, err = s.Bookmarks(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Save stores doc and its bookmarks under hash, replacing any previous
// rendering of the same chapter. The cached PDF is replaced only once the
// row is committed, so a failed save leaves the previous entry intact.
func (s *Store) Save(ctx context.Context, doc *types.Document, hash string) (err error) {
	path := s.cachePath(doc.ID)
	tmp, err := os.CreateTemp(filepath.Dir(path), doc.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cached PDF: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()
	if _, err := tmp.Write(doc.PDF); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cached PDF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cached PDF: %w", err)
	}

	var pageText string
	if doc.PageText != nil {
		data, err := json.Marshal(doc.PageText)
		if err != nil {
			return fmt.Errorf("encoding page text: %w", err)
		}
		pageText = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, content_hash, first_page, page_count, pdf_path, page_text, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, content_hash=excluded.content_hash,
			first_page=excluded.first_page, page_count=excluded.page_count,
			pdf_path=excluded.pdf_path, page_text=excluded.page_text,
			rendered_at=excluded.rendered_at`,
		doc.ID, doc.Title, hash, doc.FirstPageNumber, doc.PageCount, path, pageText,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", doc.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("deleting old bookmarks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bookmarks (document_id, position, title, page_index, level) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range doc.Bookmarks {
		if _, err := stmt.ExecContext(ctx, doc.ID, i, b.Title, b.PageIndex, b.Level); err != nil {
			return fmt.Errorf("inserting bookmark %q: %w", b.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document %s: %w", doc.ID, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// The row now names content the file does not hold; drop it so the
		// next lookup misses.
		s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc.ID)
		return fmt.Errorf("replacing cached PDF: %w", err)
	}
	return nil
}

// HasDocument reports whether a rendering of documentID is recorded.
func (s *Store) HasDocument(ctx context.Context, documentID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE id = ?`, documentID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking document %s: %w", documentID, err)
	}
	return n > 0, nil
}

// Bookmarks returns the stored bookmarks of a document in detection order.
func (s *Store) Bookmarks(ctx context.Context, documentID string) ([]types.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, page_index, level FROM bookmarks WHERE document_id = ? ORDER BY position`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarks: %w", err)
	}
	defer rows.Close()

	var out []types.Bookmark
	for rows.Next() {
		var b types.Bookmark
		if err := rows.Scan(&b.Title, &b.PageIndex, &b.Level); err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
