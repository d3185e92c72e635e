package store

import (
	"context"
	"time"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

func (s *Store) AddTaskNote(ctx context.Context, taskID, content string) (models.Note, error) {
	var note models.Note
	_, err := s.mutate(ctx, taskID, "added task note", func(t *models.Task, now time.Time) error {
		note = s.newNote(content, now)
		t.Notes = append(t.Notes, note)
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Store) AddSubtaskNote(ctx context.Context, taskID, subtaskID, content string) (models.Note, error) {
	var note models.Note
	_, err := s.mutate(ctx, taskID, "added subtask note", func(t *models.Task, now time.Time) error {
		i := t.SubtaskIndex(subtaskID)
		if i < 0 {
			return ErrSubtaskNotFound
		}

		note = s.newNote(content, now)
		st := &t.Subtasks[i]
		st.Notes = append(st.Notes, note)
		st.UpdatedAt = now
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Store) newNote(content string, now time.Time) models.Note {
	return models.Note{
		ID:        s.newID(),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Store) UpdateTaskNote(ctx context.Context, taskID, noteID, content string) (models.Note, error) {
	var note models.Note
	_, err := s.mutate(ctx, taskID, "updated task note", func(t *models.Task, now time.Time) error {
		i := noteIndex(t.Notes, noteID)
		if i < 0 {
			return ErrNoteNotFound
		}

		t.Notes[i].Content = content
		t.Notes[i].UpdatedAt = now
		note = t.Notes[i]
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Store) DeleteTaskNote(ctx context.Context, taskID, noteID string) (models.Task, error) {
	return s.mutate(ctx, taskID, "deleted task note", func(t *models.Task, _ time.Time) error {
		i := noteIndex(t.Notes, noteID)
		if i < 0 {
			return ErrNoteNotFound
		}

		t.Notes = append(t.Notes[:i], t.Notes[i+1:]...)
		return nil
	})
}

func (s *Store) UpdateSubtaskNote(ctx context.Context, taskID, subtaskID, noteID, content string) (models.Note, error) {
	var note models.Note
	_, err := s.mutate(ctx, taskID, "updated subtask note", func(t *models.Task, now time.Time) error {
		i := t.SubtaskIndex(subtaskID)
		if i < 0 {
			return ErrSubtaskNotFound
		}
		st := &t.Subtasks[i]
		j := noteIndex(st.Notes, noteID)
		if j < 0 {
			return ErrNoteNotFound
		}

		st.Notes[j].Content = content
		st.Notes[j].UpdatedAt = now
		st.UpdatedAt = now
		note = st.Notes[j]
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Store) DeleteSubtaskNote(ctx context.Context, taskID, subtaskID, noteID string) (models.Task, error) {
	return s.mutate(ctx, taskID, "deleted subtask note", func(t *models.Task, now time.Time) error {
		i := t.SubtaskIndex(subtaskID)
		if i < 0 {
			return ErrSubtaskNotFound
		}
		st := &t.Subtasks[i]
		j := noteIndex(st.Notes, noteID)
		if j < 0 {
			return ErrNoteNotFound
		}

		st.Notes = append(st.Notes[:j], st.Notes[j+1:]...)
		st.UpdatedAt = now
		return nil
	})
}

func noteIndex(notes []models.Note, id string) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}
