package model

import (
	"strings"
	"time"
)

// DateLayout is the format of a task's due date: a calendar day with no time
// component, e.g. "2025-03-14". It is the same layout the JSON records use.
const DateLayout = "2006-01-02"

// Priority is how urgent a task is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities so that a higher rank is more urgent.
// Unknown priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Status is where a task is in its lifecycle.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a unit of work.
//
// WHY *string FOR AssignedTo?
// A task may be unassigned. A nil pointer encodes that as JSON null, which is
// different from "assigned to the principal with an empty ID". Using the zero
// value "" for "nobody" would work too, but null is what the persisted
// records have always contained.
//
// WHY string FOR DueDate (not time.Time)?
// A due date is a calendar day, not an instant. time.Time would drag a time
// zone into every comparison and serialise as "2025-03-14T00:00:00Z".
// Keeping the "YYYY-MM-DD" string makes equality filters exact and the JSON
// stable, and the layout sorts lexically in date order.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	AssignedTo  *string   `json:"assignedTo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Assignee returns the assignee ID, or "" when the task is unassigned.
func (t Task) Assignee() string {
	if t.AssignedTo == nil {
		return ""
	}
	return *t.AssignedTo
}

// IsOverdue reports whether the task is still open and its due date is
// strictly before today's calendar date.
func (t Task) IsOverdue(today time.Time) bool {
	if t.Status == StatusDone {
		return false
	}
	return t.DueDate != "" && t.DueDate < today.Format(DateLayout)
}

// NewTask carries the caller-supplied fields of a task being created.
// ID, CreatedBy and the timestamps are filled in by the task store.
type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	AssignedTo  *string  `json:"assignedTo"`
}

// TaskPatch is a partial update. A nil field means "leave unchanged".
//
// AssignedTo follows the same rule, with one extra case: a pointer to the
// empty string clears the assignee. There is no CreatedBy, ID
// or CreatedAt field; those never change after creation.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	AssignedTo  *string   `json:"assignedTo,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Status == nil && p.AssignedTo == nil
}

// TaskFilter selects tasks. Empty fields are ignored; every non-empty field
// must match for a task to be included.
type TaskFilter struct {
	Status     Status   `json:"status,omitempty"`
	Priority   Priority `json:"priority,omitempty"`
	AssignedTo string   `json:"assignedTo,omitempty"`
	CreatedBy  string   `json:"createdBy,omitempty"`
	DueDate    string   `json:"dueDate,omitempty"`
	Search     string   `json:"search,omitempty"`
}

// Matches reports whether t satisfies every field set on the filter.
// Search is a case-insensitive substring match against the title or the
// description.
func (f TaskFilter) Matches(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.AssignedTo != "" && t.Assignee() != f.AssignedTo {
		return false
	}
	if f.CreatedBy != "" && t.CreatedBy != f.CreatedBy {
		return false
	}
	if f.DueDate != "" && t.DueDate != f.DueDate {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	return true
}

// MonthRange returns the first and last day of t's month as YYYY-MM-DD.
func MonthRange(t time.Time) (string, string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout)
}
