package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/service"
)

type NotificationHandler struct {
	tasks    *service.TaskService
	identity *service.IdentityService
	logger   *slog.Logger
}

func NewNotificationHandler(tasks *service.TaskService, identity *service.IdentityService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{tasks: tasks, identity: identity, logger: logger}
}

type notificationList struct {
	Unread        int                  `json:"unread"`
	Notifications []model.Notification `json:"notifications"`
}

// HandleList returns every notification plus the unread count.
//
// HTTP: GET /api/notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notificationList{
		Unread:        h.tasks.UnreadCount(),
		Notifications: h.tasks.Notifications(),
	})
}

// HandleMarkRead flags a notification as read.
//
// HTTP: POST /api/notifications/{id}/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.tasks.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDismiss removes a notification. Unknown IDs also answer 204.
//
// HTTP: DELETE /api/notifications/{id}
func (h *NotificationHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.tasks.DismissNotification(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
