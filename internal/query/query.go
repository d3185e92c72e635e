// Package query derives filtered and ordered views over tasks
// without mutating them.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

var (
	ErrInvalidSortKey       = errors.New("invalid sort key")
	ErrInvalidSortDirection = errors.New("invalid sort direction")
)

// Filter is a conjunction of criteria. Nil or empty fields match any task.
type Filter struct {
	Priority *models.Priority
	Status   *models.Status
	Search   string
	UserID   string
}

// ParseFilter builds a Filter from its textual form, where "" and "any"
// stand for no constraint.
func ParseFilter(priority, status, search string) (Filter, error) {
	f := Filter{Search: search}

	if !isAny(priority) {
		p, err := models.ParsePriority(priority)
		if err != nil {
			return Filter{}, err
		}
		f.Priority = &p
	}
	if !isAny(status) {
		s, err := models.ParseStatus(status)
		if err != nil {
			return Filter{}, err
		}
		f.Status = &s
	}
	return f, nil
}

func (f Filter) Match(t *models.Task) bool {
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}

	search := strings.ToLower(f.Search)
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), search) ||
		strings.Contains(strings.ToLower(t.Description), search)
}

// Select returns the tasks matching f in their original order.
func Select(tasks []models.Task, f Filter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if f.Match(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out
}

type SortKey string

const (
	SortByDue      SortKey = "due"
	SortByPriority SortKey = "priority"
	SortByProgress SortKey = "progress"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Key       SortKey
	Direction Direction
}

// DefaultSort orders by due date, earliest first.
var DefaultSort = Sort{Key: SortByDue, Direction: Asc}

func ParseSort(key, direction string) (Sort, error) {
	s := DefaultSort

	switch SortKey(strings.ToLower(strings.TrimSpace(key))) {
	case "":
	case SortByDue:
		s.Key = SortByDue
	case SortByPriority:
		s.Key = SortByPriority
	case SortByProgress:
		s.Key = SortByProgress
	default:
		return Sort{}, fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
	}

	switch Direction(strings.ToLower(strings.TrimSpace(direction))) {
	case "":
	case Asc:
		s.Direction = Asc
	case Desc:
		s.Direction = Desc
	default:
		return Sort{}, fmt.Errorf("%w: %q", ErrInvalidSortDirection, direction)
	}
	return s, nil
}

// Order sorts tasks in place. The sort is stable, so ties keep their
// original relative order in either direction.
func (s Sort) Order(tasks []models.Task) {
	sign := 1
	if s.Direction == Desc {
		sign = -1
	}

	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		return sign * s.compare(&a, &b)
	})
}

func (s Sort) compare(a, b *models.Task) int {
	switch s.Key {
	case SortByPriority:
		return a.Priority.Weight() - b.Priority.Weight()
	case SortByProgress:
		return a.Progress - b.Progress
	case SortByDue:
		return a.EndDate.Compare(b.EndDate)
	default:
		return a.EndDate.Compare(b.EndDate)
	}
}

// Apply filters tasks and orders the result. The input slice is not modified.
func Apply(tasks []models.Task, f Filter, s Sort) []models.Task {
	out := Select(tasks, f)
	s.Order(out)
	return out
}

func isAny(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "any") || strings.EqualFold(s, "all")
}
