// Package mirror copies task documents into Postgres so other services can
// read them. The local snapshot stays the source of truth.
package mirror

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

type PostgresMirror struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPostgresMirror(logger zerolog.Logger, pgPool *pgxpool.Pool) *PostgresMirror {
	return &PostgresMirror{
		logger: logger,
		pgPool: pgPool,
	}
}

const createTableQuery = `
CREATE TABLE IF NOT EXISTS task_documents (
    id         TEXT PRIMARY KEY,
    user_id    TEXT        NOT NULL,
    document   JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS task_documents_user_id_idx ON task_documents (user_id);
`

func (m *PostgresMirror) EnsureTable(ctx context.Context) error {
	_, err := m.pgPool.Exec(ctx, createTableQuery)
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to create task_documents table")
		return err
	}
	m.logger.Debug().Msg("ensured task_documents table")
	return nil
}

// UpsertTask writes the task document. An older document never overwrites
// a newer one.
func (m *PostgresMirror) UpsertTask(ctx context.Context, task models.Task) error {
	doc, err := json.Marshal(task)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to marshal task document")
		return err
	}

	const upsertTaskQuery = `
INSERT INTO task_documents (id,
                            user_id,
                            document,
                            updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET user_id = EXCLUDED.user_id,
    document = EXCLUDED.document,
    updated_at = EXCLUDED.updated_at
WHERE task_documents.updated_at <= EXCLUDED.updated_at
`
	err = m.exec(ctx, upsertTaskQuery, task.ID, task.UserID, doc, task.UpdatedAt)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to upsert task document")
		return err
	}

	m.logger.Debug().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("mirrored task")
	return nil
}

func (m *PostgresMirror) DeleteTask(ctx context.Context, taskID string) error {
	const deleteTaskQuery = `
DELETE FROM task_documents
WHERE id = $1
`
	err := m.exec(ctx, deleteTaskQuery, taskID)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task document")
		return err
	}

	m.logger.Debug().
		Str("task_id", taskID).
		Msg("deleted mirrored task")
	return nil
}

// exec runs the statement, creating the table once if it does not exist yet.
func (m *PostgresMirror) exec(ctx context.Context, sql string, args ...any) error {
	_, err := m.pgPool.Exec(ctx, sql, args...)
	if err == nil || !isUndefinedTable(err) {
		return err
	}

	m.logger.Warn().Msg("task_documents table is missing, creating it")
	if err = m.EnsureTable(ctx); err != nil {
		return err
	}
	_, err = m.pgPool.Exec(ctx, sql, args...)
	return err
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
