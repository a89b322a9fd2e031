package auth

import (
	"context"
	"net/http"
	"time"
)

// CookieName is the session cookie holding the JWT.
const CookieName = "token"

// contextKey is unexported so no other package can read or overwrite the
// principal ID stored in a request context.
type contextKey string

const principalIDKey contextKey = "principalID"

// RequireAuth rejects requests without a valid session cookie with 401 and
// stores the principal ID in the context of those that have one.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns one that wraps it.
// Chi applies them in order: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principalID, err := extractPrincipalID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipalID(r.Context(), principalID)))
		})
	}
}

// WithPrincipalID returns a copy of ctx carrying principalID. Handler tests
// use it to fake an authenticated request without a cookie.
func WithPrincipalID(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, principalIDKey, principalID)
}

// PrincipalIDFromContext returns the authenticated principal's ID, or
// ("", false) for an anonymous request.
func PrincipalIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalIDKey).(string)
	return id, ok && id != ""
}

// SetSessionCookie writes the session cookie for token.
//
// COOKIE ATTRIBUTES:
//   - HttpOnly: JavaScript can't read it, so XSS can't steal the session
//   - SameSite=Lax: not sent on cross-site POSTs (CSRF protection)
//   - Secure: only when the request itself came over TLS, so plain-HTTP
//     local development still works
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractPrincipalID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
