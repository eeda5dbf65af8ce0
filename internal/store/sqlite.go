package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists entries in a single keyed table so flashcard sets
// and sessions survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite connects to the SQLite database at path and runs schema
// migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_foreign_keys=1", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			value BLOB NOT NULL,
			expires_at DATETIME,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (namespace, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_expires ON entries(expires_at) WHERE expires_at IS NOT NULL;`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, ns Namespace, id string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM entries WHERE namespace = ? AND id = ?;
	`, string(ns), id)

	var value []byte
	var expiresAt sql.NullTime
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	if expiresAt.Valid && time.Now().UTC().After(expiresAt.Time) {
		_ = s.Delete(ctx, ns, id)
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, ns Namespace, id string, value []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: now.Add(ttl), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (namespace, id, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at;
	`, string(ns), id, value, expiresAt, now); err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ns Namespace, id string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM entries WHERE namespace = ? AND id = ?;
	`, string(ns), id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// PurgeExpired removes every lapsed entry. Called once at startup; reads
// also drop expired entries lazily.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM entries WHERE expires_at IS NOT NULL AND expires_at <= ?;
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
