package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-planner/internal/models"
	"github.com/adanyl0v/go-todo-planner/internal/query"
	"github.com/adanyl0v/go-todo-planner/internal/snapshot"
)

type memorySnapshotter struct {
	mu      sync.Mutex
	state   *snapshot.State
	loadErr error
	saveErr error
	saves   int
}

func (m *memorySnapshotter) Load(context.Context) (*snapshot.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.state == nil {
		return &snapshot.State{Tasks: []models.Task{}, CompletedHistory: []models.CompletionRecord{}}, nil
	}
	return copyState(m.state), nil
}

func (m *memorySnapshotter) Save(_ context.Context, state *snapshot.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = copyState(state)
	return nil
}

func (m *memorySnapshotter) Close() error { return nil }

func (m *memorySnapshotter) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memorySnapshotter) failSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func copyState(s *snapshot.State) *snapshot.State {
	out := &snapshot.State{
		Tasks:            make([]models.Task, len(s.Tasks)),
		CompletedHistory: make([]models.CompletionRecord, len(s.CompletedHistory)),
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = t.Clone()
	}
	for i, rec := range s.CompletedHistory {
		rec.Task = rec.Task.Clone()
		out.CompletedHistory[i] = rec
	}
	return out
}

type recordingMirror struct {
	mu  sync.Mutex
	ops []string
}

func (m *recordingMirror) UpsertTask(_ context.Context, t models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "upsert:"+t.ID)
	return nil
}

func (m *recordingMirror) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "delete:"+id)
	return nil
}

var baseTime = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := baseTime
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestStore(t *testing.T, snaps snapshot.Snapshotter, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(tickingClock()), WithIDGenerator(sequentialIDs())}, opts...)
	s := Open(context.Background(), zerolog.Nop(), snaps, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addTask(t *testing.T, s *Store, d models.TaskDraft) models.Task {
	t.Helper()
	task, err := s.AddTask(context.Background(), d)
	require.NoError(t, err)
	return task
}

func draft(title string) models.TaskDraft {
	return models.TaskDraft{
		UserID:    "user-1",
		Title:     title,
		StartDate: models.NewDate(2025, time.March, 1),
		EndDate:   models.NewDate(2025, time.March, 10),
		Priority:  models.PriorityMedium,
		Status:    models.StatusTodo,
	}
}

func TestAddTaskDefaults(t *testing.T) {
	snaps := &memorySnapshotter{}
	s := newTestStore(t, snaps)

	task := addTask(t, s, draft("Write report"))

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, 0, task.Progress)
	assert.Empty(t, task.Subtasks)
	assert.NotNil(t, task.Subtasks)
	assert.NotNil(t, task.Notes)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	assert.Equal(t, 1, snaps.saveCount())
	assert.Equal(t, []models.Task{task}, s.Tasks())
}

func TestAddTaskAssignsNoteIDs(t *testing.T) {
	s := newTestStore(t, &memorySnapshotter{})

	d := draft("With notes")
	d.Notes = []models.Note{{Content: "first"}}
	task := addTask(t, s, d)

	require.Len(t, task.Notes, 1)
	assert.NotEmpty(t, task.Notes[0].ID)
	assert.Equal(t, "first", task.Notes[0].Content)
	assert.False(t, task.Notes[0].CreatedAt.IsZero())
}

func TestAddTaskIDsAreUnique(t *testing.T) {
	s := Open(context.Background(), zerolog.Nop(), &memorySnapshotter{})
	t.Cleanup(func() { _ = s.Close() })

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		task := addTask(t, s, draft("t"))
		require.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestSubtaskScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("Write report"))

	task, err := s.AddSubtask(ctx, task.ID, "Outline")
	require.NoError(t, err)
	task, err = s.AddSubtask(ctx, task.ID, "Draft")
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, 0, task.Progress)

	task, err = s.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, task.Progress)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.True(t, task.Subtasks[0].Completed)

	stored, err := s.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, stored)
}

func TestToggleSubtaskTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("t"))
	task, err := s.AddSubtask(ctx, task.ID, "a")
	require.NoError(t, err)
	subID := task.Subtasks[0].ID

	_, err = s.ToggleSubtask(ctx, task.ID, subID)
	require.NoError(t, err)
	task, err = s.ToggleSubtask(ctx, task.ID, subID)
	require.NoError(t, err)

	assert.False(t, task.Subtasks[0].Completed)
	assert.Equal(t, 0, task.Progress)
}

func TestProgressRoundsToNearest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("t"))
	for _, title := range []string{"a", "b", "c"} {
		var err error
		task, err = s.AddSubtask(ctx, task.ID, title)
		require.NoError(t, err)
	}

	task, err := s.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 33, task.Progress)

	task, err = s.ToggleSubtask(ctx, task.ID, task.Subtasks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 67, task.Progress)
}

func TestDeleteSubtaskRecomputesProgress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("t"))
	task, _ = s.AddSubtask(ctx, task.ID, "a")
	task, _ = s.AddSubtask(ctx, task.ID, "b")
	task, _ = s.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID)
	require.Equal(t, 50, task.Progress)

	task, err := s.DeleteSubtask(ctx, task.ID, task.Subtasks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, task.Progress)

	task, err = s.DeleteSubtask(ctx, task.ID, task.Subtasks[0].ID)
	require.NoError(t, err)
	assert.Empty(t, task.Subtasks)
	assert.Equal(t, 0, task.Progress)
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("t"))
	task, _ = s.AddSubtask(ctx, task.ID, "a")

	note, err := s.AddTaskNote(ctx, task.ID, "task note")
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)
	assert.Equal(t, note.CreatedAt, note.UpdatedAt)

	subNote, err := s.AddSubtaskNote(ctx, task.ID, task.Subtasks[0].ID, "subtask note")
	require.NoError(t, err)

	stored, err := s.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Note{note}, stored.Notes)
	assert.Equal(t, []models.Note{subNote}, stored.Subtasks[0].Notes)
	assert.Equal(t, 0, stored.Progress)
}

func TestEditAndDeleteNotes(t *testing.T) {
	ctx := context.Background()
	snaps := &memorySnapshotter{}
	s := newTestStore(t, snaps)

	task := addTask(t, s, draft("t"))
	task, _ = s.AddSubtask(ctx, task.ID, "a")
	subtaskID := task.Subtasks[0].ID
	note, _ := s.AddTaskNote(ctx, task.ID, "draft")
	subNote, _ := s.AddSubtaskNote(ctx, task.ID, subtaskID, "draft")

	edited, err := s.UpdateTaskNote(ctx, task.ID, note.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, note.ID, edited.ID)
	assert.Equal(t, "final", edited.Content)
	assert.Equal(t, note.CreatedAt, edited.CreatedAt)
	assert.True(t, edited.UpdatedAt.After(note.UpdatedAt))

	editedSub, err := s.UpdateSubtaskNote(ctx, task.ID, subtaskID, subNote.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final", editedSub.Content)

	stored, _ := s.Task(task.ID)
	assert.Equal(t, []models.Note{edited}, stored.Notes)
	assert.Equal(t, []models.Note{editedSub}, stored.Subtasks[0].Notes)

	got, err := s.DeleteTaskNote(ctx, task.ID, note.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)

	got, err = s.DeleteSubtaskNote(ctx, task.ID, subtaskID, subNote.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Subtasks[0].Notes)

	saves := snaps.saveCount()
	_, err = s.UpdateTaskNote(ctx, task.ID, note.ID, "again")
	assert.ErrorIs(t, err, ErrNoteNotFound)
	_, err = s.DeleteSubtaskNote(ctx, task.ID, subtaskID, subNote.ID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	_, err = s.UpdateSubtaskNote(ctx, task.ID, "missing", subNote.ID, "again")
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
	_, err = s.DeleteTaskNote(ctx, "missing", note.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, saves, snaps.saveCount())
}

func TestMissingTaskIsReported(t *testing.T) {
	ctx := context.Background()
	snaps := &memorySnapshotter{}
	s := newTestStore(t, snaps)

	task := addTask(t, s, draft("t"))
	task, _ = s.AddSubtask(ctx, task.ID, "a")
	require.NoError(t, s.DeleteTask(ctx, task.ID))
	saves := snaps.saveCount()

	_, err := s.Task(task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID), ErrTaskNotFound)
	_, err = s.AddSubtask(ctx, task.ID, "b")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.DeleteSubtask(ctx, task.ID, task.Subtasks[0].ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.AddTaskNote(ctx, task.ID, "n")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.AddSubtaskNote(ctx, task.ID, task.Subtasks[0].ID, "n")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.MarkTaskDone(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	assert.Empty(t, s.Tasks())
	assert.Empty(t, s.History())
	assert.Equal(t, saves, snaps.saveCount())
}

func TestMissingSubtaskLeavesTaskUntouched(t *testing.T) {
	ctx := context.Background()
	snaps := &memorySnapshotter{}
	s := newTestStore(t, snaps)

	task := addTask(t, s, draft("t"))
	task, _ = s.AddSubtask(ctx, task.ID, "a")
	saves := snaps.saveCount()

	_, err := s.ToggleSubtask(ctx, task.ID, "nope")
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
	_, err = s.DeleteSubtask(ctx, task.ID, "nope")
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
	_, err = s.AddSubtaskNote(ctx, task.ID, "nope", "n")
	assert.ErrorIs(t, err, ErrSubtaskNotFound)

	stored, err := s.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, stored)
	assert.Equal(t, saves, snaps.saveCount())
}

func TestDeleteTaskKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	a := addTask(t, s, draft("a"))
	b := addTask(t, s, draft("b"))
	c := addTask(t, s, draft("c"))

	require.NoError(t, s.DeleteTask(ctx, b.ID))

	assert.Equal(t, []models.Task{a, c}, s.Tasks())
	got, err := s.Task(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestMarkTaskDone(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("t"))
	task, _ = s.AddSubtask(ctx, task.ID, "a")

	for i := 0; i < 3; i++ {
		rec, err := s.MarkTaskDone(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDone, rec.Task.Status)
		assert.Equal(t, 100, rec.Task.Progress)
		assert.Equal(t, task.ID, rec.Task.ID)
	}

	stored, err := s.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	assert.False(t, stored.Subtasks[0].Completed)

	history := s.History()
	require.Len(t, history, 3)
	assert.True(t, history[0].CompletedAt.Before(history[2].CompletedAt))
}

func TestHistoryIsAnIndependentSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("before"))
	_, err := s.MarkTaskDone(ctx, task.ID)
	require.NoError(t, err)

	title := "after"
	_, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{Title: &title})
	require.NoError(t, err)
	require.NoError(t, s.DeleteTask(ctx, task.ID))

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, "before", history[0].Task.Title)

	history[0].Task.Title = "mutated"
	assert.Equal(t, "before", s.History()[0].Task.Title)
}

func TestHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{}, WithHistoryLimit(2))

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		task := addTask(t, s, draft(title))
		rec, err := s.MarkTaskDone(ctx, task.ID)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, ids[1:], []string{history[0].ID, history[1].ID})
}

func TestUpdateTaskFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("t"))

	title := "renamed"
	priority := models.PriorityHigh
	status := models.StatusInProgress
	end := models.NewDate(2025, time.April, 1)
	updated, err := s.UpdateTask(ctx, task.ID, models.TaskPatch{
		Title:    &title,
		Priority: &priority,
		Status:   &status,
		EndDate:  &end,
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, end, updated.EndDate)
	assert.Equal(t, task.StartDate, updated.StartDate)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))
}

func TestUpdateTaskProgress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("t"))

	progress := 150
	task, err := s.UpdateTask(ctx, task.ID, models.TaskPatch{Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 100, task.Progress)

	subtasks := []models.SubTask{
		{Title: "a", Completed: true},
		{Title: "b"},
		{Title: "c"},
		{Title: "d"},
	}
	progress = 90
	task, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{Subtasks: &subtasks, Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 25, task.Progress)
	for _, st := range task.Subtasks {
		assert.NotEmpty(t, st.ID)
		assert.NotNil(t, st.Notes)
	}

	progress = 10
	task, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 25, task.Progress)

	empty := []models.SubTask{}
	task, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{Subtasks: &empty})
	require.NoError(t, err)
	assert.Equal(t, 0, task.Progress)
}

func TestUpdateTaskCheckedRejectsMergedTask(t *testing.T) {
	ctx := context.Background()
	snaps := &memorySnapshotter{}
	s := newTestStore(t, snaps)
	task := addTask(t, s, draft("t"))

	inOrder := func(t *models.Task) error {
		return models.ValidateDateRange(t.StartDate, t.EndDate)
	}

	end := models.NewDate(2025, time.March, 20)
	_, err := s.UpdateTaskChecked(ctx, task.ID, models.TaskPatch{EndDate: &end}, inOrder)
	require.NoError(t, err)

	saves := snaps.saveCount()
	start := models.NewDate(2025, time.March, 25)
	title := "changed"
	_, err = s.UpdateTaskChecked(ctx, task.ID, models.TaskPatch{Title: &title, StartDate: &start}, inOrder)
	require.ErrorIs(t, err, models.ErrInvalidDateRange)

	stored, _ := s.Task(task.ID)
	assert.Equal(t, "t", stored.Title)
	assert.Equal(t, task.StartDate, stored.StartDate)
	assert.Equal(t, end, stored.EndDate)
	assert.Equal(t, saves, snaps.saveCount())
}

func TestFilterTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	a := addTask(t, s, draft("Buy milk"))
	b := addTask(t, s, draft("Write report"))
	c := addTask(t, s, draft("Buy bread"))
	status := models.StatusInProgress
	b, _ = s.UpdateTask(ctx, b.ID, models.TaskPatch{Status: &status})

	got := s.FilterTasks(query.Filter{Search: "buy"})
	assert.Equal(t, []models.Task{a, c}, got)

	got = s.FilterTasks(query.Filter{Status: &status})
	assert.Equal(t, []models.Task{b}, got)

	assert.Len(t, s.FilterTasks(query.Filter{}), 3)
}

func TestReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	task := addTask(t, s, draft("t"))
	task, _ = s.AddSubtask(ctx, task.ID, "a")

	task.Subtasks[0].Completed = true
	task.Title = "changed"

	stored, err := s.Task(task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Subtasks[0].Completed)
	assert.Equal(t, "t", stored.Title)
}

func TestPersistFailureKeepsChange(t *testing.T) {
	ctx := context.Background()
	snaps := &memorySnapshotter{}
	s := newTestStore(t, snaps)

	assert.True(t, s.SyncStatus().Synced)

	snaps.failSaves(errors.New("disk full"))
	task := addTask(t, s, draft("t"))

	stored, err := s.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, stored)

	status := s.SyncStatus()
	assert.False(t, status.Synced)
	assert.Equal(t, "disk full", status.LastError)

	snaps.failSaves(nil)
	_, err = s.AddSubtask(ctx, task.ID, "a")
	require.NoError(t, err)
	assert.True(t, s.SyncStatus().Synced)
	assert.Empty(t, s.SyncStatus().LastError)
}

func TestOpenWithUnreadableSnapshotStartsEmpty(t *testing.T) {
	snaps := &memorySnapshotter{loadErr: snapshot.ErrCorrupt}
	s := newTestStore(t, snaps)

	assert.Empty(t, s.Tasks())
	assert.Empty(t, s.History())

	task := addTask(t, s, draft("t"))
	assert.NotEmpty(t, task.ID)
}

func TestReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "task-storage.json")

	snaps, err := snapshot.NewFileSnapshotter(path, zerolog.Nop())
	require.NoError(t, err)
	s := Open(ctx, zerolog.Nop(), snaps, WithClock(tickingClock()), WithIDGenerator(sequentialIDs()))

	task := addTask(t, s, draft("t"))
	task, _ = s.AddSubtask(ctx, task.ID, "a")
	_, _ = s.AddSubtaskNote(ctx, task.ID, task.Subtasks[0].ID, "note")
	_, _ = s.AddTaskNote(ctx, task.ID, "note")
	_, err = s.MarkTaskDone(ctx, task.ID)
	require.NoError(t, err)
	addTask(t, s, draft("second"))

	tasks, history := s.Tasks(), s.History()
	require.NoError(t, s.Close())

	reopened, err := snapshot.NewFileSnapshotter(path, zerolog.Nop())
	require.NoError(t, err)
	r := Open(ctx, zerolog.Nop(), reopened)
	t.Cleanup(func() { _ = r.Close() })

	assert.Equal(t, tasks, r.Tasks())
	assert.Equal(t, history, r.History())

	got, err := r.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks[0], got)
}

func TestInvalidEnumsAreNeverStored(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "task-storage.json")

	snaps, err := snapshot.NewFileSnapshotter(path, zerolog.Nop())
	require.NoError(t, err)
	s := Open(ctx, zerolog.Nop(), snaps, WithClock(tickingClock()), WithIDGenerator(sequentialIDs()))

	first := addTask(t, s, draft("first"))

	bad := draft("no priority")
	bad.Priority = 0
	_, err = s.AddTask(ctx, bad)
	require.ErrorIs(t, err, models.ErrInvalidPriority)

	bad = draft("odd status")
	bad.Status = models.Status(42)
	_, err = s.AddTask(ctx, bad)
	require.ErrorIs(t, err, models.ErrInvalidStatus)

	status := models.Status(42)
	_, err = s.UpdateTask(ctx, first.ID, models.TaskPatch{Status: &status})
	require.ErrorIs(t, err, models.ErrInvalidStatus)

	addTask(t, s, draft("second"))
	assert.True(t, s.SyncStatus().Synced)
	require.Len(t, s.Tasks(), 2)

	stored, _ := s.Task(first.ID)
	assert.Equal(t, first, stored)
	require.NoError(t, s.Close())

	reopened, err := snapshot.NewFileSnapshotter(path, zerolog.Nop())
	require.NoError(t, err)
	r := Open(ctx, zerolog.Nop(), reopened)
	t.Cleanup(func() { _ = r.Close() })

	tasks := r.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "first", tasks[0].Title)
	assert.Equal(t, "second", tasks[1].Title)
}

func TestMirrorReceivesChangesInOrder(t *testing.T) {
	ctx := context.Background()
	m := &recordingMirror{}
	s := Open(ctx, zerolog.Nop(), &memorySnapshotter{},
		WithIDGenerator(sequentialIDs()),
		WithMirror(m, time.Second),
	)

	task := addTask(t, s, draft("t"))
	_, err := s.AddSubtask(ctx, task.ID, "a")
	require.NoError(t, err)
	require.NoError(t, s.DeleteTask(ctx, task.ID))
	_, err = s.AddSubtask(ctx, task.ID, "b")
	require.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, s.Close())

	assert.Equal(t, []string{
		"upsert:" + task.ID,
		"upsert:" + task.ID,
		"delete:" + task.ID,
	}, m.ops)
}

type blockingMirror struct {
	recordingMirror
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (m *blockingMirror) UpsertTask(ctx context.Context, t models.Task) error {
	m.once.Do(func() {
		close(m.started)
		<-m.release
	})
	return m.recordingMirror.UpsertTask(ctx, t)
}

func TestMirrorKeepsDeleteWhenQueueIsFull(t *testing.T) {
	m := &blockingMirror{started: make(chan struct{}), release: make(chan struct{})}
	q := newMirrorQueue(m, time.Second, 1, zerolog.Nop())

	q.upsert(models.Task{ID: "a"})
	<-m.started
	q.upsert(models.Task{ID: "b"})
	q.delete("a")
	q.upsert(models.Task{ID: "c"})

	close(m.release)
	q.close()

	assert.Equal(t, []string{"upsert:a", "upsert:b", "delete:a"}, m.ops)
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, zerolog.Nop(), &memorySnapshotter{})
	t.Cleanup(func() { _ = s.Close() })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task, err := s.AddTask(ctx, draft(fmt.Sprintf("task %d", i)))
			if err != nil {
				return
			}
			_, _ = s.AddSubtask(ctx, task.ID, "sub")
		}(i)
	}
	wg.Wait()

	tasks := s.Tasks()
	assert.Len(t, tasks, 50)
	for _, task := range tasks {
		assert.Len(t, task.Subtasks, 1)
		assert.Equal(t, 0, task.Progress)
	}
}
