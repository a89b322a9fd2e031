package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/service"
)

// AuthHandler serves sign-in, registration, sign-out and the roster.
//
// ONE SESSION AT A TIME:
// The identity store has a single current principal, exactly like the
// command-line client. The JWT cookie proves which principal a browser signed
// in as; currentPrincipal additionally checks that this principal is still
// the current one. Signing in elsewhere ends every other browser's session.
type AuthHandler struct {
	identity *service.IdentityService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewAuthHandler(identity *service.IdentityService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, tokens: tokens, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin signs a roster principal in and sets the session cookie.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email":"john@example.com","password":"secret1"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.startSession(w, r, p)
}

// HandleRegister creates a principal, signs it in and sets the cookie.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"name":"Carol White","email":"carol@example.com","password":"hunter22"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.identity.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.startSession(w, r, p)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, p *model.Principal) {
	token, err := h.tokens.Generate(p.ID)
	if err != nil {
		h.logger.Error("failed to issue session token",
			slog.String("principalID", p.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, h.logger, err)
		return
	}
	auth.SetSessionCookie(w, r, token, h.tokens.TTL())
	writeJSON(w, http.StatusOK, p)
}

// HandleLogout ends the session and deletes the cookie.
//
// HTTP: POST /api/auth/logout
// Auth: required
//
// POST, not GET: logging out changes state, and browsers pre-fetch GETs.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err == nil {
		if err := h.identity.SignOut(r.Context()); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the signed-in principal.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, err := currentPrincipal(r, h.identity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUsers returns the roster.
//
// HTTP: GET /api/users
func (h *AuthHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := currentPrincipal(r, h.identity); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.identity.Roster())
}

// currentPrincipal returns the identity store's current principal, provided
// it is the one the request's token was issued to.
func currentPrincipal(r *http.Request, identity *service.IdentityService) (*model.Principal, error) {
	tokenID, ok := auth.PrincipalIDFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthenticated("valid authentication required")
	}
	p, ok := identity.Current()
	if !ok || p.ID != tokenID {
		return nil, apperror.Unauthenticated("session has ended, sign in again")
	}
	return p, nil
}
