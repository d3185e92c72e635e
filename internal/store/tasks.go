package store

import (
	"context"
	"fmt"
	"time"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

// AddTask appends a new task built from d. The store assigns the id,
// timestamps, an empty subtask list and zero progress. A task with an
// invalid priority or status is rejected, since it could never be saved.
func (s *Store) AddTask(ctx context.Context, d models.TaskDraft) (models.Task, error) {
	err := validateEnums(&d.Priority, &d.Status)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("user_id", d.UserID).
			Msg("rejected task")
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := models.Task{
		ID:          s.newID(),
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Priority:    d.Priority,
		Status:      d.Status,
		Progress:    0,
		Subtasks:    []models.SubTask{},
		Notes:       s.prepareNotes(d.Notes, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.tasks = append(s.tasks, t)
	s.index[t.ID] = len(s.tasks) - 1
	s.persistLocked(ctx)

	s.logger.Info().
		Str("task_id", t.ID).
		Str("user_id", t.UserID).
		Msg("created task")

	out := t.Clone()
	s.mirror.upsert(out)
	return out, nil
}

// Check inspects a task after a patch has been merged into it. A non-nil
// error discards the patch.
type Check func(t *models.Task) error

// UpdateTask merges p into the task. Replacing the subtasks recomputes
// progress from them; an explicit progress only applies to tasks that
// have no subtasks after the merge.
func (s *Store) UpdateTask(ctx context.Context, id string, p models.TaskPatch) (models.Task, error) {
	return s.UpdateTaskChecked(ctx, id, p, nil)
}

// UpdateTaskChecked is UpdateTask with check run against the merged task
// under the store lock, so it sees every update applied before it.
func (s *Store) UpdateTaskChecked(ctx context.Context, id string, p models.TaskPatch, check Check) (models.Task, error) {
	err := validateEnums(p.Priority, p.Status)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("task_id", id).
			Msg("rejected task update")
		return models.Task{}, err
	}

	return s.mutate(ctx, id, "updated task", func(t *models.Task, now time.Time) error {
		merged := t.Clone()
		s.applyPatch(&merged, p, now)
		if check != nil {
			if err := check(&merged); err != nil {
				return err
			}
		}
		*t = merged
		return nil
	})
}

func (s *Store) applyPatch(t *models.Task, p models.TaskPatch, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Notes != nil {
		t.Notes = s.prepareNotes(*p.Notes, now)
	}
	if p.Subtasks != nil {
		t.Subtasks = s.prepareSubtasks(*p.Subtasks, now)
		t.Progress = models.SubtaskProgress(t.Subtasks)
	}
	if p.Progress != nil && len(t.Subtasks) == 0 {
		t.Progress = models.ClampProgress(*p.Progress)
	}
}

// validateEnums rejects values that cannot be marshalled. Nil means unset.
func validateEnums(priority *models.Priority, status *models.Status) error {
	if priority != nil && !priority.Valid() {
		return fmt.Errorf("%w: %d", models.ErrInvalidPriority, *priority)
	}
	if status != nil && !status.Valid() {
		return fmt.Errorf("%w: %d", models.ErrInvalidStatus, *status)
	}
	return nil
}

// DeleteTask removes the task together with its subtasks and notes.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		s.logger.Warn().
			Str("task_id", id).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.reindexLocked()
	s.persistLocked(ctx)

	s.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	s.mirror.delete(id)
	return nil
}

// MarkTaskDone forces the task to Done with full progress and appends a
// snapshot of it to the completion history. Every call appends an entry.
func (s *Store) MarkTaskDone(ctx context.Context, id string) (models.CompletionRecord, error) {
	var record models.CompletionRecord
	_, err := s.mutate(ctx, id, "marked task done", func(t *models.Task, now time.Time) error {
		t.Status = models.StatusDone
		t.Progress = 100
		t.UpdatedAt = now

		record = models.CompletionRecord{
			ID:          s.newID(),
			Task:        t.Clone(),
			CompletedAt: now,
		}
		s.appendHistoryLocked(record)
		return nil
	})
	if err != nil {
		return models.CompletionRecord{}, err
	}

	record.Task = record.Task.Clone()
	return record, nil
}

func (s *Store) appendHistoryLocked(record models.CompletionRecord) {
	s.history = append(s.history, record)
	if s.historyLimit <= 0 || len(s.history) <= s.historyLimit {
		return
	}

	pruned := len(s.history) - s.historyLimit
	s.history = append([]models.CompletionRecord(nil), s.history[pruned:]...)
	s.logger.Debug().
		Int("pruned", pruned).
		Int("limit", s.historyLimit).
		Msg("pruned completion history")
}

// mutate runs fn against the live task under the write lock. fn must
// return before changing anything if it cannot complete. On success the
// task's updatedAt is bumped, the state is persisted and the change is
// queued for the mirror.
func (s *Store) mutate(ctx context.Context, id, msg string, fn func(t *models.Task, now time.Time) error) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.lookupLocked(id)
	if !ok {
		s.logger.Warn().
			Str("task_id", id).
			Msg("task not found")
		return models.Task{}, ErrTaskNotFound
	}

	now := s.now()
	err := fn(t, now)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("task_id", id).
			Msg("failed to mutate task")
		return models.Task{}, err
	}
	t.UpdatedAt = now
	s.persistLocked(ctx)

	s.logger.Info().
		Str("task_id", id).
		Int("progress", t.Progress).
		Msg(msg)

	out := t.Clone()
	s.mirror.upsert(out)
	return out, nil
}

func (s *Store) prepareNotes(notes []models.Note, now time.Time) []models.Note {
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		if n.ID == "" {
			n.ID = s.newID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = n.CreatedAt
		}
		out[i] = n
	}
	return out
}

func (s *Store) prepareSubtasks(subtasks []models.SubTask, now time.Time) []models.SubTask {
	out := make([]models.SubTask, len(subtasks))
	for i, st := range subtasks {
		if st.ID == "" {
			st.ID = s.newID()
		}
		if st.CreatedAt.IsZero() {
			st.CreatedAt = now
		}
		if st.UpdatedAt.IsZero() {
			st.UpdatedAt = now
		}
		st.Notes = s.prepareNotes(st.Notes, now)
		out[i] = st
	}
	return out
}
