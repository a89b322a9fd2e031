package service

import (
	"math"
	"sort"
	"time"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
)

// Directory lists the principals reports are broken down by.
type Directory interface {
	Roster() []model.Principal
}

// ReportService builds read-only views over the task board. It holds no
// state of its own; every call reads a fresh snapshot from the task store.
type ReportService struct {
	tasks     *TaskService
	directory Directory
}

func NewReportService(tasks *TaskService, directory Directory) *ReportService {
	return &ReportService{tasks: tasks, directory: directory}
}

// Dashboard is one principal's view of the board.
type Dashboard struct {
	PrincipalID string `json:"principalId"`

	Assigned   int `json:"assigned"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
	Created    int `json:"created"`
	Overdue    int `json:"overdue"`

	AssignedTasks []model.Task `json:"assignedTasks"`
	CreatedTasks  []model.Task `json:"createdTasks"`
	OverdueTasks  []model.Task `json:"overdueTasks"`
}

// Dashboard summarises the tasks assigned to and created by principalID.
// A task is overdue when it is assigned to the principal, not done, and due
// strictly before today's date.
func (r *ReportService) Dashboard(principalID string, today time.Time) Dashboard {
	assigned := r.tasks.QueryTasks(model.TaskFilter{AssignedTo: principalID})
	created := r.tasks.QueryTasks(model.TaskFilter{CreatedBy: principalID})

	d := Dashboard{
		PrincipalID:   principalID,
		Assigned:      len(assigned),
		Created:       len(created),
		AssignedTasks: assigned,
		CreatedTasks:  created,
		OverdueTasks:  []model.Task{},
	}
	for _, t := range assigned {
		switch t.Status {
		case model.StatusTodo:
			d.Todo++
		case model.StatusInProgress:
			d.InProgress++
		case model.StatusDone:
			d.Done++
		}
		if t.IsOverdue(today) {
			d.OverdueTasks = append(d.OverdueTasks, t)
		}
	}
	d.Overdue = len(d.OverdueTasks)
	return d
}

// MemberProgress is one roster member's row in the team view.
type MemberProgress struct {
	Principal      model.Principal `json:"principal"`
	Total          int             `json:"total"`
	Completed      int             `json:"completed"`
	InProgress     int             `json:"inProgress"`
	Overdue        int             `json:"overdue"`
	CompletionRate int             `json:"completionRate"` // percent, rounded
}

// TeamProgress returns a row per roster member, in roster order, counting the
// tasks assigned to them. CompletionRate is 0 for a member with no tasks.
func (r *ReportService) TeamProgress(today time.Time) []MemberProgress {
	roster := r.directory.Roster()
	tasks := r.tasks.Tasks()

	rows := make([]MemberProgress, 0, len(roster))
	for _, p := range roster {
		row := MemberProgress{Principal: p}
		for _, t := range tasks {
			if t.Assignee() != p.ID {
				continue
			}
			row.Total++
			switch t.Status {
			case model.StatusDone:
				row.Completed++
			case model.StatusInProgress:
				row.InProgress++
			}
			if t.IsOverdue(today) {
				row.Overdue++
			}
		}
		if row.Total > 0 {
			row.CompletionRate = int(math.Round(float64(row.Completed) / float64(row.Total) * 100))
		}
		rows = append(rows, row)
	}
	return rows
}

// CalendarDay groups the tasks due on one date.
type CalendarDay struct {
	Date string `json:"date"`
	// TopPriority is the most urgent priority among the day's tasks; the
	// calendar colours the day by it.
	TopPriority model.Priority `json:"topPriority"`
	Tasks       []model.Task   `json:"tasks"`
}

// Calendar groups tasks by due date for every date in [from, to], both
// inclusive and formatted YYYY-MM-DD. Days without tasks are omitted; days
// are returned in date order and each day's tasks in insertion order.
func (r *ReportService) Calendar(from, to string) ([]CalendarDay, error) {
	if _, err := time.Parse(model.DateLayout, from); err != nil {
		return nil, apperror.ValidationFailed("from", "from must be a date in YYYY-MM-DD format")
	}
	if _, err := time.Parse(model.DateLayout, to); err != nil {
		return nil, apperror.ValidationFailed("to", "to must be a date in YYYY-MM-DD format")
	}
	if to < from {
		return nil, apperror.ValidationFailed("to", "to must not be before from")
	}

	byDate := make(map[string]*CalendarDay)
	for _, t := range r.tasks.Tasks() {
		// YYYY-MM-DD strings order the same way the dates do
		if t.DueDate < from || t.DueDate > to {
			continue
		}
		day, ok := byDate[t.DueDate]
		if !ok {
			day = &CalendarDay{Date: t.DueDate}
			byDate[t.DueDate] = day
		}
		day.Tasks = append(day.Tasks, t)
		if t.Priority.Rank() > day.TopPriority.Rank() {
			day.TopPriority = t.Priority
		}
	}

	days := make([]CalendarDay, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}
