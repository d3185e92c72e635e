// Package store is the single authority over the task collection. Every
// mutation recomputes derived fields before it returns and is followed by
// a full snapshot save.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-planner/internal/models"
	"github.com/adanyl0v/go-todo-planner/internal/query"
	"github.com/adanyl0v/go-todo-planner/internal/snapshot"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrNoteNotFound    = errors.New("note not found")
)

const (
	DefaultHistoryLimit  = 500
	defaultMirrorTimeout = 5 * time.Second
)

type SyncStatus struct {
	Synced      bool      `json:"synced"`
	LastError   string    `json:"lastError,omitempty"`
	LastSavedAt time.Time `json:"lastSavedAt"`
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithHistoryLimit bounds the completion history. Zero keeps every entry.
func WithHistoryLimit(limit int) Option {
	return func(s *Store) { s.historyLimit = limit }
}

func WithMirror(m Mirror, timeout time.Duration) Option {
	if timeout <= 0 {
		timeout = defaultMirrorTimeout
	}
	return func(s *Store) {
		s.mirror = newMirrorQueue(m, timeout, mirrorQueueSize, s.logger)
	}
}

type Store struct {
	logger    zerolog.Logger
	snapshots snapshot.Snapshotter
	mirror    *mirrorQueue

	now          func() time.Time
	newID        func() string
	historyLimit int

	mu      sync.RWMutex
	tasks   []models.Task
	index   map[string]int
	history []models.CompletionRecord
	status  SyncStatus
}

// Open loads the persisted snapshot and returns a ready store. A missing
// or unreadable snapshot yields an empty store; the failure is only logged.
func Open(ctx context.Context, logger zerolog.Logger, snapshots snapshot.Snapshotter, opts ...Option) *Store {
	s := &Store{
		logger:       logger,
		snapshots:    snapshots,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        newUUID,
		historyLimit: DefaultHistoryLimit,
		tasks:        []models.Task{},
		index:        map[string]int{},
		history:      []models.CompletionRecord{},
		status:       SyncStatus{Synced: true},
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := snapshots.Load(ctx)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("failed to load snapshot, starting with an empty store")
		return s
	}

	s.tasks = state.Tasks
	s.history = state.CompletedHistory
	s.reindexLocked()
	s.logger.Info().
		Int("tasks", len(s.tasks)).
		Int("history", len(s.history)).
		Msg("loaded task store")
	return s
}

// Close drains pending mirror writes and releases the snapshot backend.
func (s *Store) Close() error {
	s.mu.Lock()
	q := s.mirror
	s.mirror = nil
	s.mu.Unlock()

	if q != nil {
		q.close()
	}
	return s.snapshots.Close()
}

func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, len(s.tasks))
	for i := range s.tasks {
		out[i] = s.tasks[i].Clone()
	}
	return out
}

func (s *Store) Task(id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.lookupLocked(id)
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	return t.Clone(), nil
}

// FilterTasks returns copies of the tasks matching f, in store order.
func (s *Store) FilterTasks(f query.Filter) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := query.Select(s.tasks, f)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// History returns the completion log, oldest entry first.
func (s *Store) History() []models.CompletionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CompletionRecord, len(s.history))
	for i, rec := range s.history {
		rec.Task = rec.Task.Clone()
		out[i] = rec
	}
	return out
}

func (s *Store) SyncStatus() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Store) lookupLocked(id string) (*models.Task, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.tasks[i], true
}

func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.tasks))
	for i := range s.tasks {
		s.index[s.tasks[i].ID] = i
	}
}

// persistLocked saves the whole state, even if ctx is already cancelled.
// A failed save keeps the in-memory state and marks the store as unsynced
// until the next successful save.
func (s *Store) persistLocked(ctx context.Context) {
	err := s.snapshots.Save(context.WithoutCancel(ctx), &snapshot.State{
		Tasks:            s.tasks,
		CompletedHistory: s.history,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("failed to persist snapshot")
		s.status.Synced = false
		s.status.LastError = err.Error()
		return
	}

	s.status = SyncStatus{
		Synced:      true,
		LastSavedAt: s.now(),
	}
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
