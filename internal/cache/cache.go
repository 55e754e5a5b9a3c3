// Package cache stores fetched blobs (thumbnails, full images) keyed by a
// content-address hash of their source URL.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	key      TEXT PRIMARY KEY,
	data     BLOB NOT NULL,
	accessed INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS blobs_accessed ON blobs (accessed);
`

// Store is a sqlite-backed blob cache. One connection per store; sqlite
// serializes access, and all writes commit before callers are signalled.
type Store struct {
	log *zap.Logger
	db  *sqlx.DB
}

// Key hashes a source URL into a cache key.
func Key(url string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(url))
}

// Open opens or creates a cache at path.
func Open(log *zap.Logger, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cache path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{log: log, db: db}, nil
}

// Get returns the blob for key and refreshes its access stamp.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.Get(&data, `SELECT data FROM blobs WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if _, err := s.db.Exec(`UPDATE blobs SET accessed = ? WHERE key = ?`, time.Now().UnixNano(), key); err != nil {
		s.log.Warn("cache access stamp update failed", zap.Error(err))
	}
	return data, true, nil
}

// Put stores a blob. On a duplicate key the existing entry wins.
func (s *Store) Put(key string, data []byte) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO blobs (key, data, accessed) VALUES (?, ?, ?) ON CONFLICT (key) DO NOTHING`,
		key, data, time.Now().UnixNano(),
	); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Delete removes a blob. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	return err
}

// Trim evicts least-recently-used entries until at most keep remain.
func (s *Store) Trim(keep int) error {
	if keep < 0 {
		keep = 0
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		`DELETE FROM blobs WHERE key NOT IN (SELECT key FROM blobs ORDER BY accessed DESC LIMIT ?)`,
		keep,
	); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Len returns the number of cached blobs.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM blobs`); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
