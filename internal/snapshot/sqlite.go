package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteSnapshotter keeps the snapshot as one row of a key-value table.
type SQLiteSnapshotter struct {
	logger zerolog.Logger
	db     *sql.DB
	key    string
}

func OpenSQLite(dbPath, key string, logger zerolog.Logger) (*SQLiteSnapshotter, error) {
	if dbPath == "" {
		return nil, errors.New("empty database path")
	}
	if key == "" {
		return nil, errors.New("empty snapshot key")
	}
	if err := ensureDir(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteSnapshotter{
		logger: logger,
		db:     db,
		key:    key,
	}
	err = s.migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info().
		Str("path", dbPath).
		Str("key", key).
		Msg("opened sqlite snapshot")
	return s, nil
}

func (s *SQLiteSnapshotter) migrate() error {
	const createTableQuery = `
CREATE TABLE IF NOT EXISTS snapshots (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)
`
	_, err := s.db.Exec(createTableQuery)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *SQLiteSnapshotter) Load(ctx context.Context) (*State, error) {
	const selectSnapshotQuery = `
SELECT value
FROM snapshots
WHERE key = ?
`
	var value string
	err := s.db.QueryRowContext(ctx, selectSnapshotQuery, s.key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug().
				Str("key", s.key).
				Msg("snapshot row not found")
			return emptyState(), nil
		}
		return nil, fmt.Errorf("select snapshot: %w", err)
	}

	return decode([]byte(value))
}

func (s *SQLiteSnapshotter) Save(ctx context.Context, state *State) error {
	b, err := encode(state)
	if err != nil {
		return err
	}

	const upsertSnapshotQuery = `
INSERT INTO snapshots (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value,
                               updated_at = excluded.updated_at
`
	_, err = s.db.ExecContext(ctx, upsertSnapshotQuery, s.key, string(b))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	s.logger.Trace().
		Str("key", s.key).
		Int("bytes", len(b)).
		Msg("saved sqlite snapshot")
	return nil
}

func (s *SQLiteSnapshotter) Close() error {
	return s.db.Close()
}
