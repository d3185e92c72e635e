package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileSnapshotter keeps the snapshot in a JSON file, replaced atomically on save.
type FileSnapshotter struct {
	logger zerolog.Logger
	path   string
}

func NewFileSnapshotter(path string, logger zerolog.Logger) (*FileSnapshotter, error) {
	if path == "" {
		return nil, errors.New("empty snapshot path")
	}
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	return &FileSnapshotter{
		logger: logger,
		path:   path,
	}, nil
}

func (s *FileSnapshotter) Load(_ context.Context) (*State, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug().
				Str("path", s.path).
				Msg("snapshot file not found")
			return emptyState(), nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	state, err := decode(b)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str("path", s.path).
		Int("tasks", len(state.Tasks)).
		Msg("loaded snapshot file")
	return state, nil
}

func (s *FileSnapshotter) Save(_ context.Context, state *State) error {
	b, err := encode(state)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(b)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	s.logger.Trace().
		Str("path", s.path).
		Int("bytes", len(b)).
		Msg("saved snapshot file")
	return nil
}

func (s *FileSnapshotter) Close() error {
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
