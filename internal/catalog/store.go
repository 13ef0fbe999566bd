// Copyright 2024 Adaptive Card Engine Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package catalog provides the SQLite-backed registry of logical card names
// to asset paths or inline JSON documents. It is a layer the cardengine
// Asset Resolver consults, through the cardengine.CatalogLookup interface,
// ahead of the static registry files.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// EntryKind discriminates whether a catalog entry resolves to a filesystem
// asset path or carries its card JSON inline.
type EntryKind string

// Supported entry kinds.
const (
	KindAsset  EntryKind = "asset"
	KindInline EntryKind = "inline"
)

// Entry is a single catalog registration.
type Entry struct {
	Name       string
	Kind       EntryKind
	Path       string
	InlineJSON json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store handles queries against the SQLite catalog registry.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (creating if necessary) the SQLite database at dbPath and
// initializes its schema.
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("initializing catalog store", zap.String("db_path", dbPath))

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	store := &Store{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}
	return store, nil
}

// DB exposes the underlying *sql.DB for health checking.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("closing catalog store")
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const query = `
		CREATE TABLE IF NOT EXISTS catalog_entries (
			name TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			path TEXT,
			inline_json TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create catalog_entries table: %w", err)
	}
	return nil
}

// Put registers or replaces a catalog entry.
func (s *Store) Put(entry Entry) error {
	s.logger.Debug("putting catalog entry", zap.String("name", entry.Name), zap.String("kind", string(entry.Kind)))

	var inlineText string
	if len(entry.InlineJSON) > 0 {
		inlineText = string(entry.InlineJSON)
	}

	const query = `
		INSERT INTO catalog_entries (name, kind, path, inline_json, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			kind = excluded.kind,
			path = excluded.path,
			inline_json = excluded.inline_json,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, entry.Name, string(entry.Kind), entry.Path, inlineText); err != nil {
		return fmt.Errorf("failed to put catalog entry %q: %w", entry.Name, err)
	}
	return nil
}

// Get returns the catalog entry registered under name.
func (s *Store) Get(name string) (Entry, bool, error) {
	const query = `SELECT name, kind, path, inline_json, created_at, updated_at FROM catalog_entries WHERE name = ?`

	var entry Entry
	var kind string
	var path, inlineText sql.NullString

	row := s.db.QueryRow(query, name)
	if err := row.Scan(&entry.Name, &kind, &path, &inlineText, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to get catalog entry %q: %w", name, err)
	}

	entry.Kind = EntryKind(kind)
	entry.Path = path.String
	if inlineText.Valid && inlineText.String != "" {
		entry.InlineJSON = json.RawMessage(inlineText.String)
	}
	return entry, true, nil
}

// List returns every registered catalog entry.
func (s *Store) List() ([]Entry, error) {
	const query = `SELECT name, kind, path, inline_json, created_at, updated_at FROM catalog_entries ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var kind string
		var path, inlineText sql.NullString
		if err := rows.Scan(&entry.Name, &kind, &path, &inlineText, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entry.Kind = EntryKind(kind)
		entry.Path = path.String
		if inlineText.Valid && inlineText.String != "" {
			entry.InlineJSON = json.RawMessage(inlineText.String)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes a catalog entry. It is not an error to delete a name that
// does not exist.
func (s *Store) Delete(name string) error {
	if _, err := s.db.Exec(`DELETE FROM catalog_entries WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete catalog entry %q: %w", name, err)
	}
	return nil
}

// Lookup implements cardengine.CatalogLookup: a read-only accessor the Asset
// Resolver calls during Catalog source resolution. Lookup failures
// (including a closed or nil store) are treated as a miss so the resolver
// falls through to the next layer rather than erroring.
func (s *Store) Lookup(name string) (path string, inlineJSON json.RawMessage, ok bool) {
	if s == nil || s.db == nil {
		return "", nil, false
	}
	entry, found, err := s.Get(name)
	if err != nil || !found {
		return "", nil, false
	}
	return entry.Path, entry.InlineJSON, true
}
