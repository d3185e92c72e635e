// Package snapshot persists the whole task store as a single named blob.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"

	formatVersion = 1
)

var (
	ErrCorrupt       = errors.New("corrupt snapshot")
	ErrUnknownDriver = errors.New("unknown snapshot driver")
)

// State is everything the store persists.
type State struct {
	Tasks            []models.Task             `json:"tasks" yaml:"tasks"`
	CompletedHistory []models.CompletionRecord `json:"completedHistory" yaml:"completedHistory"`
}

func (s *State) normalize() {
	if s.Tasks == nil {
		s.Tasks = []models.Task{}
	}
	if s.CompletedHistory == nil {
		s.CompletedHistory = []models.CompletionRecord{}
	}
	for i := range s.Tasks {
		s.Tasks[i].Normalize()
	}
	for i := range s.CompletedHistory {
		s.CompletedHistory[i].Task.Normalize()
	}
}

// Snapshotter reads and writes the persisted State. Load returns an
// empty State when nothing has been saved yet.
type Snapshotter interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	Close() error
}

// New opens the snapshot backend selected by driver. For the file driver
// location is a file path; for sqlite it is the database path and key
// names the row holding the blob.
func New(driver, location, key string, logger zerolog.Logger) (Snapshotter, error) {
	var (
		s   Snapshotter
		err error
	)
	switch driver {
	case DriverFile:
		s, err = NewFileSnapshotter(location, logger)
	case DriverSQLite:
		s, err = OpenSQLite(location, key, logger)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

type envelope struct {
	Version int   `json:"version"`
	State   State `json:"state"`
}

func encode(state *State) ([]byte, error) {
	b, err := json.Marshal(envelope{Version: formatVersion, State: *state})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return b, nil
}

func decode(b []byte) (*State, error) {
	var env envelope
	err := json.Unmarshal(b, &env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, env.Version)
	}

	env.State.normalize()
	return &env.State, nil
}

func emptyState() *State {
	s := &State{}
	s.normalize()
	return s
}
