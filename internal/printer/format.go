package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/service"
)

// NameFunc resolves a principal ID to a display name.
type NameFunc func(id string) string

var priorityColor = map[model.Priority]func(a ...any) string{
	model.PriorityHigh:   red.SprintFunc(),
	model.PriorityMedium: yellow.SprintFunc(),
	model.PriorityLow:    green.SprintFunc(),
}

// FormatTasks writes tasks as a table and returns how many it wrote.
func FormatTasks(w io.Writer, tasks []model.Task, name NameFunc) int {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return 0
	}

	fmt.Fprintf(w, "%-20s %-11s %-6s %-10s %-14s %s\n",
		"ID", "STATUS", "PRIO", "DUE", "ASSIGNEE", "TITLE")
	fmt.Fprintf(w, "%-20s %-11s %-6s %-10s %-14s %s\n",
		strings.Repeat("-", 20), strings.Repeat("-", 11), strings.Repeat("-", 6),
		strings.Repeat("-", 10), strings.Repeat("-", 14), strings.Repeat("-", 30))

	for _, t := range tasks {
		assignee := "-"
		if a := t.Assignee(); a != "" {
			assignee = truncate(name(a), 14)
		}
		fmt.Fprintf(w, "%-20s %-11s %-6s %-10s %-14s %s\n",
			t.ID, t.Status, t.Priority, t.DueDate, assignee, truncate(t.Title, 50))
	}

	noun := "task"
	if len(tasks) != 1 {
		noun = "tasks"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(tasks), noun)
	return len(tasks)
}

// FormatTask writes every field of one task.
func FormatTask(w io.Writer, t model.Task, name NameFunc) {
	assignee := "unassigned"
	if a := t.Assignee(); a != "" {
		assignee = fmt.Sprintf("%s (%s)", name(a), a)
	}
	paint := priorityColor[t.Priority]
	if paint == nil {
		paint = fmt.Sprint
	}

	fmt.Fprintf(w, "%s\n\n", t.Title)
	fmt.Fprintf(w, "  ID:          %s\n", t.ID)
	fmt.Fprintf(w, "  Status:      %s\n", t.Status)
	fmt.Fprintf(w, "  Priority:    %s\n", paint(string(t.Priority)))
	fmt.Fprintf(w, "  Due:         %s\n", t.DueDate)
	fmt.Fprintf(w, "  Assigned to: %s\n", assignee)
	fmt.Fprintf(w, "  Created by:  %s (%s)\n", name(t.CreatedBy), t.CreatedBy)
	fmt.Fprintf(w, "  Created:     %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Updated:     %s\n", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "\n%s\n", t.Description)
}

// FormatPrincipals writes the roster, marking the signed-in principal.
func FormatPrincipals(w io.Writer, roster []model.Principal, currentID string) {
	fmt.Fprintf(w, "  %-38s %-16s %-24s %s\n", "ID", "NAME", "EMAIL", "ROLE")
	for _, p := range roster {
		marker := " "
		if p.ID == currentID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-38s %-16s %-24s %s\n", marker, p.ID, truncate(p.Name, 16), p.Email, p.Role)
	}
}

// FormatNotifications writes notifications, newest last, with an unread
// marker.
func FormatNotifications(w io.Writer, notes []model.Notification) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notifications")
		return
	}
	unread := 0
	for _, n := range notes {
		marker := " "
		if !n.IsRead {
			marker = "•"
			unread++
		}
		fmt.Fprintf(w, "%s %-20s %s  %s\n", marker, n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
	}
	fmt.Fprintf(w, "\n%d unread\n", unread)
}

// FormatDashboard writes a principal's summary counts and overdue tasks.
func FormatDashboard(w io.Writer, p model.Principal, d service.Dashboard) {
	fmt.Fprintf(w, "Dashboard for %s\n\n", p.Name)
	fmt.Fprintf(w, "  Assigned to you:  %d\n", d.Assigned)
	fmt.Fprintf(w, "    todo:           %d\n", d.Todo)
	fmt.Fprintf(w, "    in progress:    %d\n", d.InProgress)
	fmt.Fprintf(w, "    done:           %d\n", d.Done)
	fmt.Fprintf(w, "  Created by you:   %d\n", d.Created)
	fmt.Fprintf(w, "  Overdue:          %d\n", d.Overdue)

	if len(d.OverdueTasks) > 0 {
		fmt.Fprintf(w, "\nOverdue:\n")
		for _, t := range d.OverdueTasks {
			fmt.Fprintf(w, "  %s  %s (due %s)\n", red.Sprint("!"), t.Title, t.DueDate)
		}
	}
}

// FormatTeam writes one progress row per roster member.
func FormatTeam(w io.Writer, rows []service.MemberProgress) {
	fmt.Fprintf(w, "%-16s %5s %5s %8s %7s %5s\n", "MEMBER", "TOTAL", "DONE", "WORKING", "OVERDUE", "RATE")
	for _, r := range rows {
		fmt.Fprintf(w, "%-16s %5d %5d %8d %7d %4d%%\n",
			truncate(r.Principal.Name, 16), r.Total, r.Completed, r.InProgress, r.Overdue, r.CompletionRate)
	}
}

// FormatCalendar writes the days that have tasks, each with its tasks.
func FormatCalendar(w io.Writer, days []service.CalendarDay) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No tasks due in this range")
		return
	}
	for _, d := range days {
		paint := priorityColor[d.TopPriority]
		if paint == nil {
			paint = fmt.Sprint
		}
		fmt.Fprintf(w, "%s  %s\n", d.Date, paint(string(d.TopPriority)))
		for _, t := range d.Tasks {
			fmt.Fprintf(w, "    %-11s %s\n", t.Status, t.Title)
		}
	}
}

// FormatJSON writes v as indented JSON, for --json output.
func FormatJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
