// Package sqlite implements state.KV as a single SQLite table of JSON blobs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-filters/pkg/state"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// DefaultTable stores one row per persisted filter store.
const DefaultTable = "filter_state"

// Store persists filter blobs to SQLite.
type Store struct {
	db    *sql.DB
	table string
	path  string
}

var _ state.KV = (*Store)(nil)

type Option func(*Store)

// WithTable overrides DefaultTable. The name must be a plain identifier.
func WithTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// NewStore opens (or creates) the database at path and ensures the table
// exists.
func NewStore(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = "filters.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("state: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite: %w", err)
	}
	// a single connection serialises writers and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	store := &Store{db: db, table: DefaultTable, path: path}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if !validIdentifier(store.table) {
		_ = db.Close()
		return nil, fmt.Errorf("state: invalid table name %q", store.table)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + store.table + ` (
		store_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: create %s table: %w", store.table, err)
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Get loads the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, state.ErrKeyRequired
	}
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM `+s.table+` WHERE store_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("state: select %q: %w", key, err)
	}
	return payload, true, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return state.ErrKeyRequired
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+s.table+`(store_key, payload) VALUES(?, ?)
		ON CONFLICT(store_key) DO UPDATE SET payload = excluded.payload`,
		key, value)
	if err != nil {
		return fmt.Errorf("state: upsert %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return state.ErrKeyRequired
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE store_key = ?`, key); err != nil {
		return fmt.Errorf("state: delete %q: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
