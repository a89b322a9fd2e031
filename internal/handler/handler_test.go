package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/handler"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository/memory"
	"github.com/sakif/taskboard/internal/service"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================

// testEnv is a fully wired API over an in-memory store: real services, real
// JWTs, real chi routing. Only persistence is faked.
type testEnv struct {
	router   http.Handler
	identity *service.IdentityService
	tasks    *service.TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store := memory.New()
	identity := service.NewIdentityService(store, auth.NewPasswordServiceForTest(4), service.IdentityConfig{}, logger)
	require.NoError(t, identity.Restore(ctx))
	tasks := service.NewTaskService(store, identity, logger)
	require.NoError(t, tasks.Restore(ctx))
	reports := service.NewReportService(tasks, identity)

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	authH := handler.NewAuthHandler(identity, tokens, logger)
	taskH := handler.NewTaskHandler(tasks, identity, logger)
	noteH := handler.NewNotificationHandler(tasks, identity, logger)
	reportH := handler.NewReportHandler(reports, identity, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/login", authH.HandleLogin)
	r.Post("/api/auth/register", authH.HandleRegister)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Post("/api/auth/logout", authH.HandleLogout)
		r.Get("/api/me", authH.HandleMe)
		r.Get("/api/users", authH.HandleUsers)
		r.Get("/api/tasks", taskH.HandleList)
		r.Post("/api/tasks", taskH.HandleCreate)
		r.Get("/api/tasks/{id}", taskH.HandleGet)
		r.Patch("/api/tasks/{id}", taskH.HandleUpdate)
		r.Delete("/api/tasks/{id}", taskH.HandleDelete)
		r.Post("/api/tasks/{id}/assign", taskH.HandleAssign)
		r.Get("/api/notifications", noteH.HandleList)
		r.Post("/api/notifications/{id}/read", noteH.HandleMarkRead)
		r.Delete("/api/notifications/{id}", noteH.HandleDismiss)
		r.Get("/api/dashboard", reportH.HandleDashboard)
		r.Get("/api/team", reportH.HandleTeam)
		r.Get("/api/calendar", reportH.HandleCalendar)
	})

	return &testEnv{router: r, identity: identity, tasks: tasks}
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// login signs in through the API and returns the session cookie.
func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

// =========================================================================
// AUTH
// =========================================================================

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid credentials", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"jane@example.com","password":"secret1"}`, nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		p := decode[model.Principal](t, rr)
		assert.Equal(t, "2", p.ID)
	})

	t.Run("short password", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"jane@example.com","password":"123"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		body := decode[handler.ErrorResponse](t, rr)
		assert.Equal(t, "validation_error", body.Error)
		assert.Equal(t, "Invalid email or password", body.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/auth/login", `{"email":`, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register",
		`{"name":"Carol White","email":"carol@example.com","password":"hunter22"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Result().Cookies())

	rr = env.do(t, http.MethodPost, "/api/auth/register",
		`{"name":"Carol","email":"carol@example.com","password":"hunter22"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email already registered", decode[handler.ErrorResponse](t, rr).Message)
}

func TestMe_And_Logout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "bob@example.com")

	rr := env.do(t, http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Bob Johnson", decode[model.Principal](t, rr).Name)

	rr = env.do(t, http.MethodPost, "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	_, ok := env.identity.Current()
	assert.False(t, ok)

	// the token is still cryptographically valid, but the session is gone
	rr = env.do(t, http.MethodGet, "/api/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSessionEndsWhenSomeoneElseSignsIn(t *testing.T) {
	env := newTestEnv(t)
	bob := env.login(t, "bob@example.com")
	env.login(t, "alice@example.com")

	rr := env.do(t, http.MethodGet, "/api/tasks", "", bob)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProtectedRoutesNeedCookie(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/me", "/api/users", "/api/tasks", "/api/notifications", "/api/dashboard"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "john@example.com")

	rr := env.do(t, http.MethodGet, "/api/users", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Principal](t, rr), 4)
}

// =========================================================================
// TASKS
// =========================================================================

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "jane@example.com")

	// create
	rr := env.do(t, http.MethodPost, "/api/tasks", `{
		"title":"Ship release",
		"description":"Tag and publish v1.0",
		"dueDate":"2030-01-15",
		"priority":"high",
		"assignedTo":"3"
	}`, cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[model.Task](t, rr)
	assert.Equal(t, "2", created.CreatedBy)
	assert.Equal(t, model.StatusTodo, created.Status)

	// get
	rr = env.do(t, http.MethodGet, "/api/tasks/"+created.ID, "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	// patch
	rr = env.do(t, http.MethodPatch, "/api/tasks/"+created.ID, `{"status":"done"}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[model.Task](t, rr)
	assert.Equal(t, model.StatusDone, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	// assign
	rr = env.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/assign", `{"userId":"4"}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "4", decode[model.Task](t, rr).Assignee())

	// delete
	rr = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID, "", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/tasks/"+created.ID, "", cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// deleting again is still 204
	rr = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID, "", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestCreateTask_Validation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "jane@example.com")

	rr := env.do(t, http.MethodPost, "/api/tasks", `{"title":"No details"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[handler.ErrorResponse](t, rr)
	assert.Equal(t, "description", body.Field)
}

func TestUpdateTask_Unknown(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "jane@example.com")

	rr := env.do(t, http.MethodPatch, "/api/tasks/nope", `{"status":"done"}`, cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListTasks_Filters(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "jane@example.com")

	tests := []struct {
		query   string
		wantLen int
	}{
		{"", 5},
		{"?search=plan", 1},
		{"?search=zzz", 0},
		{"?assignedTo=2", 2},
		{"?assignedTo=2&priority=high", 1},
		{"?status=in-progress", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/tasks"+tt.query, "", cookie)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Len(t, decode[[]model.Task](t, rr), tt.wantLen)
		})
	}
}

// =========================================================================
// NOTIFICATIONS
// =========================================================================

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "john@example.com")

	rr := env.do(t, http.MethodPost, "/api/tasks/1/assign", `{"userId":"3"}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	type list struct {
		Unread        int                  `json:"unread"`
		Notifications []model.Notification `json:"notifications"`
	}

	rr = env.do(t, http.MethodGet, "/api/notifications", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[list](t, rr)
	require.Len(t, got.Notifications, 1)
	assert.Equal(t, 1, got.Unread)
	id := got.Notifications[0].ID

	rr = env.do(t, http.MethodPost, "/api/notifications/"+id+"/read", "", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, env.tasks.UnreadCount())

	rr = env.do(t, http.MethodPost, "/api/notifications/nope/read", "", cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/notifications/"+id, "", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, env.tasks.Notifications())
}

// =========================================================================
// REPORTS
// =========================================================================

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "john@example.com")

	rr := env.do(t, http.MethodGet, "/api/dashboard", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	d := decode[service.Dashboard](t, rr)
	assert.Equal(t, "1", d.PrincipalID)
	assert.Equal(t, 1, d.Assigned)
	assert.Equal(t, 2, d.Created)
	assert.Equal(t, 1, d.Overdue)
}

func TestTeam(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "john@example.com")

	rr := env.do(t, http.MethodGet, "/api/team", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]service.MemberProgress](t, rr), 4)
}

func TestCalendar(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "john@example.com")

	today := time.Now().UTC()
	from := today.AddDate(0, 0, -30).Format(model.DateLayout)
	to := today.AddDate(0, 0, 30).Format(model.DateLayout)

	rr := env.do(t, http.MethodGet, "/api/calendar?from="+from+"&to="+to, "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]service.CalendarDay](t, rr), 5)

	rr = env.do(t, http.MethodGet, "/api/calendar?from=tomorrow", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// default range is the current month
	rr = env.do(t, http.MethodGet, "/api/calendar", "", cookie)
	assert.Equal(t, http.StatusOK, rr.Code)
}
