// Package store persists the user's annotations for an account: magic
// descriptions, magic groups, account settings and the dashboard view mode.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidViewMode = errors.New("invalid view mode")
)

const Schema = `
CREATE TABLE IF NOT EXISTS magic_descriptions (
	account TEXT NOT NULL,
	magic INTEGER NOT NULL,
	description TEXT NOT NULL,
	PRIMARY KEY (account, magic)
);

CREATE TABLE IF NOT EXISTS magic_groups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS magic_group_assignments (
	account_id TEXT NOT NULL,
	group_id INTEGER NOT NULL,
	magic INTEGER NOT NULL,
	PRIMARY KEY (account_id, group_id, magic)
);

CREATE TABLE IF NOT EXISTS account_settings (
	account_id TEXT PRIMARY KEY,
	account_title TEXT,
	leverage INTEGER,
	server TEXT
);

CREATE TABLE IF NOT EXISTS view_settings (
	account_id TEXT PRIMARY KEY,
	view_mode TEXT NOT NULL DEFAULT 'individual'
);

CREATE INDEX IF NOT EXISTS idx_groups_account ON magic_groups(account_id);
`

// Store is safe for concurrent use; database/sql pools the connection.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema %q: %w", path, err)
	}

	s := New(db, log)
	s.path = path
	return s, nil
}

// New wraps an already open database. The schema is assumed to exist.
func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log.Named("store")}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Stats summarizes the annotation tables.
type Stats struct {
	TotalDescriptions int    `json:"total_descriptions"`
	UniqueAccounts    int    `json:"unique_accounts"`
	Groups            int    `json:"groups"`
	Path              string `json:"database_path"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Path: s.path}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT account) FROM magic_descriptions`,
	).Scan(&st.TotalDescriptions, &st.UniqueAccounts)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM magic_groups`).Scan(&st.Groups); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
