package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority  = errors.New("invalid task priority")
	ErrInvalidStatus    = errors.New("invalid task status")
	ErrInvalidDateRange = errors.New("end date is before start date")
	ErrEmptyTitle       = errors.New("title must not be empty")
	ErrEmptyContent     = errors.New("note content must not be empty")
)

type Priority uint8

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return fmt.Sprintf("Priority(%d)", uint8(p))
	}
}

// Weight orders priorities from Low (1) to High (3).
func (p Priority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p.Weight() != 0
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type Status uint8

const (
	StatusTodo Status = iota + 1
	StatusInProgress
	StatusDone
)

func ParseStatus(s string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	switch normalized {
	case "todo", "to do":
		return StatusTodo, nil
	case "in progress", "inprogress":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "Todo"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

type SubTask struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Completed bool      `json:"completed" yaml:"completed"`
	Notes     []Note    `json:"notes" yaml:"notes"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

func (st SubTask) Clone() SubTask {
	st.Notes = cloneNotes(st.Notes)
	return st
}

type Task struct {
	ID          string    `json:"id" yaml:"id"`
	UserID      string    `json:"userId" yaml:"userId"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	StartDate   Date      `json:"startDate" yaml:"startDate"`
	EndDate     Date      `json:"endDate" yaml:"endDate"`
	Priority    Priority  `json:"priority" yaml:"priority"`
	Status      Status    `json:"status" yaml:"status"`
	Progress    int       `json:"progress" yaml:"progress"`
	Subtasks    []SubTask `json:"subtasks" yaml:"subtasks"`
	Notes       []Note    `json:"notes" yaml:"notes"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a copy that shares no slices with t.
func (t Task) Clone() Task {
	subtasks := make([]SubTask, len(t.Subtasks))
	for i, st := range t.Subtasks {
		subtasks[i] = st.Clone()
	}
	t.Subtasks = subtasks
	t.Notes = cloneNotes(t.Notes)
	return t
}

func (t *Task) SubtaskIndex(subtaskID string) int {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			return i
		}
	}
	return -1
}

func (t *Task) CompletedSubtasks() int {
	completed := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			completed++
		}
	}
	return completed
}

// Normalize replaces nil slices with empty ones so that a freshly
// created task and a reloaded one look the same.
func (t *Task) Normalize() {
	if t.Subtasks == nil {
		t.Subtasks = []SubTask{}
	}
	if t.Notes == nil {
		t.Notes = []Note{}
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].Notes == nil {
			t.Subtasks[i].Notes = []Note{}
		}
	}
}

// TaskDraft carries the caller-supplied fields of a new task.
type TaskDraft struct {
	UserID      string
	Title       string
	Description string
	StartDate   Date
	EndDate     Date
	Priority    Priority
	Status      Status
	Notes       []Note
}

func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if !d.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !d.Status.Valid() {
		return ErrInvalidStatus
	}
	return ValidateDateRange(d.StartDate, d.EndDate)
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	StartDate   *Date
	EndDate     *Date
	Priority    *Priority
	Status      *Status
	Progress    *int
	Subtasks    *[]SubTask
	Notes       *[]Note
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil &&
		p.StartDate == nil && p.EndDate == nil &&
		p.Priority == nil && p.Status == nil &&
		p.Progress == nil && p.Subtasks == nil && p.Notes == nil
}

// CompletionRecord is an immutable snapshot of a task taken when it was marked done.
type CompletionRecord struct {
	ID          string    `json:"id" yaml:"id"`
	Task        Task      `json:"task" yaml:"task"`
	CompletedAt time.Time `json:"completedAt" yaml:"completedAt"`
}

func ValidateDateRange(start, end Date) error {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

func cloneNotes(notes []Note) []Note {
	if notes == nil {
		return nil
	}
	out := make([]Note, len(notes))
	copy(out, notes)
	return out
}
