package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gsabyss/internal/logging"

	_ "modernc.org/sqlite"
)

// Asset is one downloaded file recorded in the index.
type Asset struct {
	Path      string
	Category  string
	Name      string
	URL       string
	Bytes     int64
	Width     int
	Height    int
	FetchedAt time.Time
}

// Index records downloaded assets in SQLite so they can be listed and audited
// without walking the cache directory.
type Index struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// OpenIndex opens (or creates) the asset index at path.
func OpenIndex(path string) (*Index, error) {
	timer := logging.StartTimer(logging.CategoryCache, "OpenIndex")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.CacheDebug("Failed to set sqlite busy_timeout: %v", err)
	}

	idx := &Index{db: db, dbPath: path}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.CacheDebug("Asset index opened at %s", path)
	return idx, nil
}

func (i *Index) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		path TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		bytes INTEGER NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assets_category ON assets(category);
	`
	if _, err := i.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create assets table: %w", err)
	}
	return nil
}

// Record upserts an asset.
func (i *Index) Record(a Asset) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if a.FetchedAt.IsZero() {
		a.FetchedAt = time.Now()
	}
	_, err := i.db.Exec(`
		INSERT INTO assets (path, category, name, url, bytes, width, height, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			url = excluded.url,
			bytes = excluded.bytes,
			width = excluded.width,
			height = excluded.height,
			fetched_at = excluded.fetched_at`,
		a.Path, a.Category, a.Name, a.URL, a.Bytes, a.Width, a.Height, a.FetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("record asset %s: %w", a.Path, err)
	}
	return nil
}

// Lookup returns the asset stored at path.
func (i *Index) Lookup(path string) (Asset, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	row := i.db.QueryRow(`SELECT path, category, name, url, bytes, width, height, fetched_at
		FROM assets WHERE path = ?`, path)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, false, nil
	}
	if err != nil {
		return Asset{}, false, fmt.Errorf("lookup asset %s: %w", path, err)
	}
	return a, true, nil
}

// List returns assets ordered by category and name. An empty category lists all.
func (i *Index) List(category string) ([]Asset, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	query := `SELECT path, category, name, url, bytes, width, height, fetched_at FROM assets`
	var args []interface{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, name`

	rows, err := i.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Forget removes an asset record.
func (i *Index) Forget(path string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, err := i.db.Exec(`DELETE FROM assets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("forget asset %s: %w", path, err)
	}
	return nil
}

// Close closes the database.
func (i *Index) Close() error {
	return i.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(s scanner) (Asset, error) {
	var a Asset
	var fetched int64
	if err := s.Scan(&a.Path, &a.Category, &a.Name, &a.URL, &a.Bytes, &a.Width, &a.Height, &fetched); err != nil {
		return Asset{}, err
	}
	a.FetchedAt = time.Unix(fetched, 0)
	return a, nil
}
