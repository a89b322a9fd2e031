package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/service"
)

// ReportHandler serves the dashboard, team and calendar views.
type ReportHandler struct {
	reports  *service.ReportService
	identity *service.IdentityService
	logger   *slog.Logger

	// now is replaced in tests
	now func() time.Time
}

func NewReportHandler(reports *service.ReportService, identity *service.IdentityService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reports:  reports,
		identity: identity,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleDashboard summarises the signed-in principal's tasks.
//
// HTTP: GET /api/dashboard
func (h *ReportHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := currentPrincipal(r, h.identity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.reports.Dashboard(p.ID, h.now()))
}

// HandleTeam returns per-member progress.
//
// HTTP: GET /api/team
func (h *ReportHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.reports.TeamProgress(h.now()))
}

// HandleCalendar groups tasks by due date.
//
// HTTP: GET /api/calendar?from=2025-03-01&to=2025-03-31
//
// Without parameters the range is the current calendar month.
func (h *ReportHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}

	defFrom, defTo := model.MonthRange(h.now())
	from := r.URL.Query().Get("from")
	if from == "" {
		from = defFrom
	}
	to := r.URL.Query().Get("to")
	if to == "" {
		to = defTo
	}

	days, err := h.reports.Calendar(from, to)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}
