// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/oroclass/spotctl/internal/cacheutil"
)

const schema = `CREATE TABLE IF NOT EXISTS blobs(
	key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	modified INTEGER NOT NULL
)`

// Store keeps the cache document as one row of the blobs table. The modified
// column holds unix nanoseconds.
type Store struct {
	db  *sql.DB
	dsn string
	key string
	now func() time.Time
}

type Option func(*Store)

// WithKey selects the row. Defaults to cacheutil.DefaultFileName.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the database at dsn and ensures the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}
	// One writer at a time; sqlite serialises anyway and this keeps :memory:
	// databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	s := &Store{
		db:  db,
		dsn: dsn,
		key: cacheutil.DefaultFileName,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Debugf("sqlite store ready: %s key=%s", dsn, s.key)
	return s, nil
}

func (s *Store) String() string {
	return fmt.Sprintf("sqlite:%s#%s", s.dsn, s.key)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Read(ctx context.Context) (cacheutil.Entry, error) {
	var (
		data     []byte
		modified int64
	)
	row := s.db.QueryRowContext(ctx, `SELECT data, modified FROM blobs WHERE key=?`, s.key)
	if err := row.Scan(&data, &modified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cacheutil.Entry{}, cacheutil.ErrNotExist
		}
		return cacheutil.Entry{}, fmt.Errorf("failed to read %s: %w", s.key, err)
	}
	return cacheutil.Entry{Data: data, ModTime: time.Unix(0, modified)}, nil
}

// Write upserts the row; the single statement is atomic for readers.
func (s *Store) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs(key, data, modified) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data=excluded.data, modified=excluded.modified`,
		s.key, data, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", s.key, err)
	}
	return nil
}
