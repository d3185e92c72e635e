package app

import (
	"context"

	"github.com/adanyl0v/go-todo-planner/internal/config"
	"github.com/adanyl0v/go-todo-planner/internal/mirror"
	"github.com/adanyl0v/go-todo-planner/internal/snapshot"
	"github.com/adanyl0v/go-todo-planner/internal/store"
)

// MustOpenSnapshotter opens the configured snapshot backend.
func MustOpenSnapshotter() snapshot.Snapshotter {
	cfg := config.Global().Snapshot

	snaps, err := snapshot.New(cfg.Driver, cfg.Path, cfg.Key, globalLogger)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("driver", cfg.Driver).
			Str("path", cfg.Path).
			Msg("failed to open snapshot backend")
		panic(err)
	}
	globalLogger.Info().
		Str("driver", cfg.Driver).
		Str("path", cfg.Path).
		Msg("opened snapshot backend")
	return snaps
}

// MustOpenStore loads the task store. When the mirror is enabled the
// Postgres pool must already be connected.
func MustOpenStore(ctx context.Context) *store.Store {
	cfg := config.Global()

	opts := []store.Option{
		store.WithHistoryLimit(cfg.History.Limit),
	}
	if cfg.Mirror.Enabled {
		m := mirror.NewPostgresMirror(globalLogger, globalPostgresPool)
		err := m.EnsureTable(ctx)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to prepare mirror")
			panic(err)
		}
		opts = append(opts, store.WithMirror(m, cfg.Mirror.Timeout))
	}

	return store.Open(ctx, globalLogger, MustOpenSnapshotter(), opts...)
}

func CloseStore(st *store.Store) {
	err := st.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close store")
		return
	}
	globalLogger.Info().Msg("closed store")
}
