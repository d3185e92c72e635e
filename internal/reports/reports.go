// Package reports computes read-only summaries over a set of tasks and the
// completion history. Nothing here mutates its input.
package reports

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

const longTermDays = 7

var ErrInvalidWindow = errors.New("invalid history window")

type Overview struct {
	Total           int `json:"total" yaml:"total"`
	Done            int `json:"done" yaml:"done"`
	Remaining       int `json:"remaining" yaml:"remaining"`
	HighPriority    int `json:"highPriority" yaml:"highPriority"`
	AverageProgress int `json:"averageProgress" yaml:"averageProgress"`
}

func NewOverview(tasks []models.Task) Overview {
	o := Overview{Total: len(tasks)}

	sum := 0
	for i := range tasks {
		if tasks[i].Status == models.StatusDone {
			o.Done++
		}
		if tasks[i].Priority == models.PriorityHigh {
			o.HighPriority++
		}
		sum += tasks[i].Progress
	}
	o.Remaining = o.Total - o.Done
	o.AverageProgress = roundedMean(sum, o.Total)
	return o
}

// Day is the set of tasks scheduled on one calendar day.
type Day struct {
	Date            models.Date   `json:"date" yaml:"date"`
	Tasks           []models.Task `json:"tasks" yaml:"tasks"`
	AverageProgress int           `json:"averageProgress" yaml:"averageProgress"`
}

// DailyProgress collects the tasks whose inclusive date span contains day.
// Tasks missing either date are never scheduled.
func DailyProgress(tasks []models.Task, day models.Date) Day {
	d := Day{
		Date:  day,
		Tasks: []models.Task{},
	}

	sum := 0
	for i := range tasks {
		t := &tasks[i]
		if t.StartDate.IsZero() || t.EndDate.IsZero() {
			continue
		}
		if day.Within(t.StartDate, t.EndDate) {
			d.Tasks = append(d.Tasks, t.Clone())
			sum += t.Progress
		}
	}
	d.AverageProgress = roundedMean(sum, len(d.Tasks))
	return d
}

// Week returns seven consecutive days starting at start.
func Week(tasks []models.Task, start models.Date) []Day {
	days := make([]Day, 7)
	for i := range days {
		days[i] = DailyProgress(tasks, start.AddDays(i))
	}
	return days
}

type WeekSummary struct {
	Start           models.Date `json:"start" yaml:"start"`
	End             models.Date `json:"end" yaml:"end"`
	Tasks           int         `json:"tasks" yaml:"tasks"`
	AverageProgress int         `json:"averageProgress" yaml:"averageProgress"`
}

// Month splits the calendar month containing day into weeks starting on
// Monday. The first and last weeks may reach into the neighbouring months.
// A task counts towards every week its date span overlaps.
func Month(tasks []models.Task, day models.Date) []WeekSummary {
	first := models.NewDate(day.Year(), day.Month(), 1)
	last := models.NewDate(day.Year(), day.Month()+1, 1).AddDays(-1)

	offset := (int(first.Time().Weekday()) + 6) % 7
	weeks := []WeekSummary{}
	for start := first.AddDays(-offset); !start.After(last); start = start.AddDays(7) {
		w := WeekSummary{Start: start, End: start.AddDays(6)}

		sum := 0
		for i := range tasks {
			t := &tasks[i]
			if t.StartDate.IsZero() || t.EndDate.IsZero() {
				continue
			}
			if t.StartDate.After(w.End) || t.EndDate.Before(w.Start) {
				continue
			}
			w.Tasks++
			sum += t.Progress
		}
		w.AverageProgress = roundedMean(sum, w.Tasks)
		weeks = append(weeks, w)
	}
	return weeks
}

type OngoingTask struct {
	Task              models.Task `json:"task" yaml:"task"`
	SpanDays          int         `json:"spanDays" yaml:"spanDays"`
	CompletedSubtasks int         `json:"completedSubtasks" yaml:"completedSubtasks"`
	TotalSubtasks     int         `json:"totalSubtasks" yaml:"totalSubtasks"`
}

// Ongoing lists long-running tasks: not Done and spanning at least a week.
func Ongoing(tasks []models.Task) []OngoingTask {
	out := []OngoingTask{}
	for i := range tasks {
		t := &tasks[i]
		if t.Status == models.StatusDone || t.StartDate.IsZero() || t.EndDate.IsZero() {
			continue
		}

		span := t.StartDate.DaysUntil(t.EndDate)
		if span < longTermDays {
			continue
		}
		out = append(out, OngoingTask{
			Task:              t.Clone(),
			SpanDays:          span,
			CompletedSubtasks: t.CompletedSubtasks(),
			TotalSubtasks:     len(t.Subtasks),
		})
	}
	return out
}

type HistoryStats struct {
	Completed             int                     `json:"completed" yaml:"completed"`
	ByPriority            map[models.Priority]int `json:"byPriority" yaml:"byPriority"`
	AverageDaysToComplete float64                 `json:"averageDaysToComplete" yaml:"averageDaysToComplete"`
}

// NewHistoryStats summarizes the completion records at or after since. A
// zero since includes every record. Records whose task had no start date
// do not contribute to the average duration.
func NewHistoryStats(records []models.CompletionRecord, since time.Time) HistoryStats {
	s := HistoryStats{ByPriority: map[models.Priority]int{}}

	days, timed := 0, 0
	for _, rec := range records {
		if !since.IsZero() && rec.CompletedAt.Before(since) {
			continue
		}

		s.Completed++
		if rec.Task.Priority.Valid() {
			s.ByPriority[rec.Task.Priority]++
		}
		if !rec.Task.StartDate.IsZero() {
			days += rec.Task.StartDate.DaysUntil(models.DateOf(rec.CompletedAt))
			timed++
		}
	}
	if timed > 0 {
		s.AverageDaysToComplete = float64(days) / float64(timed)
	}
	return s
}

// WindowStart resolves a named history window relative to now: "all",
// "month" (since the first of the current month), "3months" or "6months".
// An empty name means "all", which returns the zero time.
func WindowStart(window string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(window)) {
	case "", "all":
		return time.Time{}, nil
	case "month":
		return models.NewDate(now.Year(), now.Month(), 1).Time(), nil
	case "3months":
		return now.AddDate(0, -3, 0), nil
	case "6months":
		return now.AddDate(0, -6, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}
}

type HistoryFilter struct {
	UserID   string
	Priority *models.Priority
	Since    time.Time
}

func (f HistoryFilter) Match(rec *models.CompletionRecord) bool {
	if f.UserID != "" && rec.Task.UserID != f.UserID {
		return false
	}
	if f.Priority != nil && rec.Task.Priority != *f.Priority {
		return false
	}
	return f.Since.IsZero() || !rec.CompletedAt.Before(f.Since)
}

// FilterHistory returns the matching records, most recently completed first.
func FilterHistory(records []models.CompletionRecord, f HistoryFilter) []models.CompletionRecord {
	out := []models.CompletionRecord{}
	for i := range records {
		if f.Match(&records[i]) {
			rec := records[i]
			rec.Task = rec.Task.Clone()
			out = append(out, rec)
		}
	}

	slices.SortStableFunc(out, func(a, b models.CompletionRecord) int {
		return b.CompletedAt.Compare(a.CompletedAt)
	})
	return out
}

type MonthGroup struct {
	Month   string                    `json:"month" yaml:"month"`
	Records []models.CompletionRecord `json:"records" yaml:"records"`
}

// GroupByMonth buckets records by the "YYYY-MM" of their completion time.
// Groups and the records inside them keep the order of the input.
func GroupByMonth(records []models.CompletionRecord) []MonthGroup {
	groups := []MonthGroup{}
	index := map[string]int{}
	for _, rec := range records {
		key := rec.CompletedAt.Format("2006-01")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Month: key})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

func roundedMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return (2*sum + n) / (2 * n)
}
