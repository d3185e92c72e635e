package store

import (
	"context"
	"time"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

// AddSubtask appends an incomplete subtask and returns the parent task
// with its progress recomputed.
func (s *Store) AddSubtask(ctx context.Context, taskID, title string) (models.Task, error) {
	return s.mutate(ctx, taskID, "added subtask", func(t *models.Task, now time.Time) error {
		t.Subtasks = append(t.Subtasks, models.SubTask{
			ID:        s.newID(),
			Title:     title,
			Completed: false,
			Notes:     []models.Note{},
			CreatedAt: now,
			UpdatedAt: now,
		})
		t.Progress = models.SubtaskProgress(t.Subtasks)
		return nil
	})
}

// ToggleSubtask flips the completion flag of one subtask. The parent's
// status is left as it was.
func (s *Store) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error) {
	return s.mutate(ctx, taskID, "toggled subtask", func(t *models.Task, now time.Time) error {
		i := t.SubtaskIndex(subtaskID)
		if i < 0 {
			return ErrSubtaskNotFound
		}

		st := &t.Subtasks[i]
		st.Completed = !st.Completed
		st.UpdatedAt = now
		t.Progress = models.SubtaskProgress(t.Subtasks)
		return nil
	})
}

// DeleteSubtask removes one subtask. Removing the last one resets the
// parent's progress to zero.
func (s *Store) DeleteSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error) {
	return s.mutate(ctx, taskID, "deleted subtask", func(t *models.Task, _ time.Time) error {
		i := t.SubtaskIndex(subtaskID)
		if i < 0 {
			return ErrSubtaskNotFound
		}

		t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
		t.Progress = models.SubtaskProgress(t.Subtasks)
		return nil
	})
}
