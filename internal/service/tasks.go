package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// Session is what the task store needs to know about identity: who is
// signed in, and whether an ID names a known principal.
//
// INTERFACE AT THE CONSUMER:
// The interface is declared here, where it is used, not next to
// IdentityService. TaskService depends only on these two methods, and tests
// can satisfy it with a tiny fake.
type Session interface {
	Current() (*model.Principal, bool)
	Lookup(id string) (model.Principal, bool)
}

// TaskService owns the task collection and the notifications derived from
// it.
//
// NOTIFICATION POLICY:
// A notification is raised whenever a task's assignee becomes a non-empty
// principal different from the previous one: at creation, through
// UpdateTask, or through AssignTask (which is UpdateTask). Re-assigning a
// task to its current assignee raises nothing.
type TaskService struct {
	mu      sync.Mutex
	store   repository.Store
	session Session
	logger  *slog.Logger

	// now and newID are swapped in tests for a controllable clock and
	// predictable IDs.
	now   func() time.Time
	newID func() string

	tasks         []model.Task
	notifications []model.Notification
}

// NewTaskService creates an empty task store. Call Restore to load the
// persisted collections (or the seed tasks on first run).
func NewTaskService(store repository.Store, session Session, logger *slog.Logger) *TaskService {
	return &TaskService{
		store:   store,
		session: session,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return xid.New().String() },
	}
}

// Restore loads tasks and notifications independently.
//
// Tasks: missing or malformed → the seed tasks, written back immediately so
// their due dates stay fixed from then on. Notifications: missing or
// malformed → empty.
func (s *TaskService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []model.Task
	found, err := loadJSON(ctx, s.store, repository.KeyTasks, &tasks)
	if err != nil && !errors.Is(err, errMalformed) {
		return fmt.Errorf("service/tasks: %w", err)
	}
	if errors.Is(err, errMalformed) {
		s.logger.Warn("discarding persisted tasks", slog.String("error", err.Error()))
	}
	if !found {
		tasks = model.SeedTasks(s.now())
		if err := saveJSON(ctx, s.store, repository.KeyTasks, tasks); err != nil {
			return fmt.Errorf("service/tasks: seeding: %w", err)
		}
		s.logger.Info("seeded task board", slog.Int("count", len(tasks)))
	}
	s.tasks = tasks

	var notes []model.Notification
	found, err = loadJSON(ctx, s.store, repository.KeyNotifications, &notes)
	if err != nil && !errors.Is(err, errMalformed) {
		return fmt.Errorf("service/tasks: %w", err)
	}
	if errors.Is(err, errMalformed) {
		s.logger.Warn("discarding persisted notifications", slog.String("error", err.Error()))
	}
	if !found {
		notes = nil
	}
	s.notifications = notes

	return nil
}

// CreateTask validates in, stamps it with the signed-in principal and adds it
// to the board.
//
// Returns apperror.ErrUnauthenticated when nobody is signed in and
// apperror.ErrValidation when a field is missing or invalid.
func (s *TaskService) CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error) {
	creator, ok := s.session.Current()
	if !ok {
		return nil, apperror.Unauthenticated("sign in to create tasks")
	}

	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	if in.AssignedTo != nil && *in.AssignedTo == "" {
		in.AssignedTo = nil
	}

	now := s.now()
	task := model.Task{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     strings.TrimSpace(in.DueDate),
		Priority:    in.Priority,
		Status:      in.Status,
		CreatedBy:   creator.ID,
		AssignedTo:  in.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.validate(task); err != nil {
		return nil, err
	}
	if err := s.validateAssignee(task); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := append(append([]model.Task(nil), s.tasks...), task)
	notes := s.notifications
	if task.AssignedTo != nil {
		notes = s.withNotification(notes, task, "You have been assigned a new task: ")
	}

	if err := s.persist(ctx, tasks, notes); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("title", task.Title),
		slog.String("createdBy", task.CreatedBy),
	)

	out := task
	return &out, nil
}

// UpdateTask merges patch into the task with the given ID.
//
// The merged task is validated as a whole, updatedAt is refreshed, and a
// notification is raised if the assignee changed to someone new. An unknown
// ID returns apperror.ErrNotFound and changes nothing.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, apperror.NotFound("task", id)
	}

	prev := s.tasks[idx]
	next := prev

	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.DueDate != nil {
		next.DueDate = strings.TrimSpace(*patch.DueDate)
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.AssignedTo != nil {
		if *patch.AssignedTo == "" {
			next.AssignedTo = nil
		} else {
			assignee := *patch.AssignedTo
			next.AssignedTo = &assignee
		}
	}

	if err := s.validate(next); err != nil {
		return nil, err
	}
	if patch.AssignedTo != nil {
		if err := s.validateAssignee(next); err != nil {
			return nil, err
		}
	}
	next.UpdatedAt = s.stamp(prev.UpdatedAt)

	tasks := append([]model.Task(nil), s.tasks...)
	tasks[idx] = next

	notes := s.notifications
	if a := next.Assignee(); a != "" && a != prev.Assignee() {
		notes = s.withNotification(notes, next, "You have been assigned a task: ")
	}

	if err := s.persist(ctx, tasks, notes); err != nil {
		return nil, err
	}

	s.logger.Info("task updated",
		slog.String("id", next.ID),
		slog.String("status", string(next.Status)),
	)

	out := next
	return &out, nil
}

// AssignTask sets the task's assignee. It is exactly
// UpdateTask(taskID, TaskPatch{AssignedTo: &userID}), notification included.
func (s *TaskService) AssignTask(ctx context.Context, taskID, userID string) (*model.Task, error) {
	return s.UpdateTask(ctx, taskID, model.TaskPatch{AssignedTo: &userID})
}

// DeleteTask removes a task together with its notifications.
// Deleting an unknown ID is a no-op.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.logger.Debug("delete of unknown task ignored", slog.String("id", id))
		return nil
	}

	tasks := make([]model.Task, 0, len(s.tasks)-1)
	tasks = append(tasks, s.tasks[:idx]...)
	tasks = append(tasks, s.tasks[idx+1:]...)

	notes := make([]model.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.TaskID != id {
			notes = append(notes, n)
		}
	}

	if err := s.persist(ctx, tasks, notes); err != nil {
		return err
	}

	s.logger.Info("task deleted", slog.String("id", id))
	return nil
}

// GetTask returns the task with the given ID.
func (s *TaskService) GetTask(id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, apperror.NotFound("task", id)
	}
	out := s.tasks[idx]
	return &out, nil
}

// Tasks returns every task in insertion order.
func (s *TaskService) Tasks() []model.Task {
	return s.QueryTasks(model.TaskFilter{})
}

// QueryTasks returns the tasks matching every field set on filter, in
// insertion order. The result is a new slice; the store is not modified.
func (s *TaskService) QueryTasks(filter model.TaskFilter) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Notifications returns every notification, oldest first.
func (s *TaskService) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification{}, s.notifications...)
}

// UnreadCount is the number of notifications not yet marked read.
func (s *TaskService) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, note := range s.notifications {
		if !note.IsRead {
			n++
		}
	}
	return n
}

// MarkNotificationRead flags a notification as read.
// Unknown IDs return apperror.ErrNotFound.
func (s *TaskService) MarkNotificationRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID != id {
			continue
		}
		if n.IsRead {
			return nil
		}
		notes := append([]model.Notification(nil), s.notifications...)
		notes[i].IsRead = true
		if err := saveJSON(ctx, s.store, repository.KeyNotifications, notes); err != nil {
			return fmt.Errorf("service/tasks: %w", err)
		}
		s.notifications = notes
		return nil
	}
	return apperror.NotFound("notification", id)
}

// DismissNotification removes a notification. Unknown IDs are a no-op.
func (s *TaskService) DismissNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]model.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.ID != id {
			notes = append(notes, n)
		}
	}
	if len(notes) == len(s.notifications) {
		s.logger.Debug("dismiss of unknown notification ignored", slog.String("id", id))
		return nil
	}

	if err := saveJSON(ctx, s.store, repository.KeyNotifications, notes); err != nil {
		return fmt.Errorf("service/tasks: %w", err)
	}
	s.notifications = notes
	return nil
}

// validate checks a complete task record.
func (s *TaskService) validate(t model.Task) error {
	if t.Title == "" {
		return apperror.ValidationFailed("title", "Title is required")
	}
	if t.Description == "" {
		return apperror.ValidationFailed("description", "Description is required")
	}
	if t.DueDate == "" {
		return apperror.ValidationFailed("dueDate", "Due date is required")
	}
	if _, err := time.Parse(model.DateLayout, t.DueDate); err != nil {
		return apperror.ValidationFailed("dueDate", "Due date must be a date in YYYY-MM-DD format")
	}
	if t.Priority == "" {
		return apperror.ValidationFailed("priority", "Priority is required")
	}
	if !t.Priority.Valid() {
		return apperror.ValidationFailed("priority",
			fmt.Sprintf("unknown priority %q (want high, medium or low)", t.Priority))
	}
	if !t.Status.Valid() {
		return apperror.ValidationFailed("status",
			fmt.Sprintf("unknown status %q (want todo, in-progress or done)", t.Status))
	}
	return nil
}

// validateAssignee checks that a newly set assignee is on the roster. It
// runs only when the assignee is being set: a task already assigned to
// someone who has since left the roster can still be edited.
func (s *TaskService) validateAssignee(t model.Task) error {
	if a := t.Assignee(); a != "" {
		if _, ok := s.session.Lookup(a); !ok {
			return apperror.ValidationFailed("assignedTo", fmt.Sprintf("unknown assignee %q", a))
		}
	}
	return nil
}

// withNotification returns a copy of notes with one more notification for t.
func (s *TaskService) withNotification(notes []model.Notification, t model.Task, prefix string) []model.Notification {
	out := append([]model.Notification(nil), notes...)
	return append(out, model.Notification{
		ID:        s.newID(),
		Message:   prefix + t.Title,
		CreatedAt: s.now(),
		TaskID:    t.ID,
		UserID:    t.Assignee(),
	})
}

// persist writes both collections and, only if both writes succeed, makes
// them the store's state. If the notifications write fails, the previous
// tasks record is written back so the stored pair still matches memory.
// Must be called with s.mu held.
func (s *TaskService) persist(ctx context.Context, tasks []model.Task, notes []model.Notification) error {
	undoTasks, err := snapshot(ctx, s.store, repository.KeyTasks)
	if err != nil {
		return fmt.Errorf("service/tasks: %w", err)
	}
	if err := saveJSON(ctx, s.store, repository.KeyTasks, tasks); err != nil {
		s.logger.Error("failed to persist tasks", slog.String("error", err.Error()))
		return fmt.Errorf("service/tasks: %w", err)
	}
	if err := saveJSON(ctx, s.store, repository.KeyNotifications, notes); err != nil {
		s.logger.Error("failed to persist notifications", slog.String("error", err.Error()))
		if undoErr := undoTasks(context.WithoutCancel(ctx)); undoErr != nil {
			s.logger.Error("failed to restore tasks", slog.String("error", undoErr.Error()))
		}
		return fmt.Errorf("service/tasks: %w", err)
	}
	s.tasks = tasks
	s.notifications = notes
	return nil
}

// indexOf must be called with s.mu held. Returns -1 when absent.
func (s *TaskService) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// stamp returns a modification time strictly after prev, even when the clock
// hasn't moved (or moved backwards) since the last mutation.
func (s *TaskService) stamp(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}
