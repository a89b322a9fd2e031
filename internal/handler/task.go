package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/service"
)

// TaskHandler serves the task collection.
type TaskHandler struct {
	tasks    *service.TaskService
	identity *service.IdentityService
	logger   *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, identity *service.IdentityService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, identity: identity, logger: logger}
}

// HandleList returns the tasks matching the query string.
//
// HTTP: GET /api/tasks?status=todo&priority=high&assignedTo=2&createdBy=1&dueDate=2025-03-14&search=plan
//
// Every parameter is optional; those present must all match.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	filter := model.TaskFilter{
		Status:     model.Status(q.Get("status")),
		Priority:   model.Priority(q.Get("priority")),
		AssignedTo: q.Get("assignedTo"),
		CreatedBy:  q.Get("createdBy"),
		DueDate:    q.Get("dueDate"),
		Search:     q.Get("search"),
	}
	writeJSON(w, http.StatusOK, h.tasks.QueryTasks(filter))
}

// HandleCreate adds a task created by the signed-in principal.
//
// HTTP: POST /api/tasks
// REQUEST BODY: {"title":"...","description":"...","dueDate":"2025-03-14","priority":"high","assignedTo":"2"}
// RESPONSE: 201 with the stored task
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in model.NewTask
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// HandleGet returns one task.
//
// HTTP: GET /api/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.tasks.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleUpdate applies a partial update. Omitted fields are unchanged;
// "assignedTo":"" unassigns the task.
//
// HTTP: PATCH /api/tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var patch model.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes a task. Unknown IDs also answer 204.
//
// HTTP: DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	UserID string `json:"userId"`
}

// HandleAssign sets a task's assignee.
//
// HTTP: POST /api/tasks/{id}/assign
// REQUEST BODY: {"userId":"3"}
func (h *TaskHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.tasks.AssignTask(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
