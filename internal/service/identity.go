// Package service contains the business logic layer of the application.
//
// THE LAYERS:
//
//	Handler / CLI command  → parses input, renders output
//	Service (this package) → validates, enforces rules, owns the state
//	Repository             → stores opaque JSON blobs under fixed keys
//
// STATE LIVES HERE, NOT IN THE DATABASE:
// The two stores (IdentityService and TaskService) hold the whole board in
// memory and write the affected record back after every successful mutation.
// The repository is only a save/load capability. That keeps every rule in
// plain Go: tests hand the services an in-memory repository and call methods
// directly, with no SQL and no HTTP involved.
//
// CONCURRENCY:
// Each store guards its state with a mutex. Operations are applied one at a
// time, in the order they acquire the lock, so concurrent HTTP requests see
// the same single-threaded behaviour the CLI does.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// MinPasswordLength is the shortest password sign-in and registration accept.
const MinPasswordLength = 6

// Messages shown to the user verbatim.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailRegistered    = "Email already registered"
	msgPasswordTooShort   = "Password must be at least 6 characters"
	msgNameRequired       = "Name is required"
	msgEmailRequired      = "Email is required"
)

// IdentityConfig tunes the identity store.
type IdentityConfig struct {
	// SignInDelay is an artificial wait before SignIn and Register do any
	// work, imitating a round trip to an authentication server.
	SignInDelay time.Duration

	// VerifyPasswords makes SignIn check the password against the bcrypt hash
	// of principals that registered with one. Seed principals have no hash;
	// for them any password of sufficient length is accepted.
	VerifyPasswords bool
}

// rosterEntry is a principal as persisted in the roster record.
//
// EMBEDDED STRUCT:
// Embedding model.Principal promotes its fields, so the JSON is flat:
// {"id":"1","name":"John Doe",...,"passwordHash":"$2a$..."}. The hash never
// leaves this package; Roster() and Current() return bare Principals.
type rosterEntry struct {
	model.Principal
	PasswordHash string `json:"passwordHash,omitempty"`
}

// IdentityService owns the current principal and the roster of known
// principals.
//
// DEPENDENCIES (injected via NewIdentityService):
//   - store      repository.Store        → persists "user" and "roster"
//   - passwords  *auth.PasswordService   → bcrypt hashes for registered principals
//   - logger     *slog.Logger            → structured logging
type IdentityService struct {
	mu        sync.Mutex
	store     repository.Store
	passwords *auth.PasswordService
	cfg       IdentityConfig
	logger    *slog.Logger

	current *model.Principal
	roster  []rosterEntry
}

// compile-time check that IdentityService can serve as the task store's
// session
var _ Session = (*IdentityService)(nil)

// NewIdentityService creates an identity store with nobody signed in and the
// seed roster. Call Restore to load persisted state.
func NewIdentityService(
	store repository.Store,
	passwords *auth.PasswordService,
	cfg IdentityConfig,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		store:     store,
		passwords: passwords,
		cfg:       cfg,
		logger:    logger,
		roster:    seedEntries(),
	}
}

func seedEntries() []rosterEntry {
	seed := model.SeedRoster()
	entries := make([]rosterEntry, len(seed))
	for i, p := range seed {
		entries[i] = rosterEntry{Principal: p}
	}
	return entries
}

// Restore loads the persisted roster and current principal.
//
// A missing record means "nothing saved yet": seed roster, nobody signed in.
// A malformed record is discarded with a warning and treated the same way.
// Only a failing store is returned as an error.
func (s *IdentityService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var roster []rosterEntry
	found, err := loadJSON(ctx, s.store, repository.KeyRoster, &roster)
	switch {
	case errors.Is(err, errMalformed):
		s.logger.Warn("discarding persisted roster", slog.String("error", err.Error()))
		s.roster = seedEntries()
	case err != nil:
		return fmt.Errorf("service/identity: %w", err)
	case found && len(roster) > 0:
		s.roster = roster
	default:
		s.roster = seedEntries()
	}

	var current model.Principal
	found, err = loadJSON(ctx, s.store, repository.KeyCurrentPrincipal, &current)
	switch {
	case errors.Is(err, errMalformed):
		s.logger.Warn("discarding persisted session", slog.String("error", err.Error()))
		s.current = nil
	case err != nil:
		return fmt.Errorf("service/identity: %w", err)
	case found && current.ID != "":
		s.current = &current
	default:
		s.current = nil
	}

	return nil
}

// SignIn makes the roster principal with the given email current.
//
// The email must match exactly and the password must be at least
// MinPasswordLength characters. When password verification is enabled and
// the principal registered with a password, it must match as well. Every
// failure returns the same validation error so callers can't probe which
// emails exist. On failure the session is unchanged.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*model.Principal, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.findByEmail(email)
	if !ok || len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("email", msgInvalidCredentials)
	}
	if s.cfg.VerifyPasswords && entry.PasswordHash != "" {
		if err := s.passwords.Verify(entry.PasswordHash, password); err != nil {
			return nil, apperror.ValidationFailed("password", msgInvalidCredentials)
		}
	}

	principal := entry.Principal
	if err := saveJSON(ctx, s.store, repository.KeyCurrentPrincipal, principal); err != nil {
		s.logger.Error("failed to persist session",
			slog.String("principalID", principal.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/identity: %w", err)
	}
	s.current = &principal

	s.logger.Info("principal signed in",
		slog.String("principalID", principal.ID),
		slog.String("email", principal.Email),
	)

	out := principal
	return &out, nil
}

// Register creates a standard principal, appends it to the roster and signs
// it in.
//
// VALIDATION ORDER:
// name and email present → email not already in the roster → password long
// enough. The first failing rule is reported; nothing changes on failure.
func (s *IdentityService) Register(ctx context.Context, name, email, password string) (*model.Principal, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", msgNameRequired)
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", msgEmailRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.findByEmail(email); exists {
		return nil, apperror.ValidationFailed("email", msgEmailRegistered)
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", msgPasswordTooShort)
	}

	// Hash even when verification is off, so turning it on later covers
	// everyone who registered before.
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	entry := rosterEntry{
		Principal: model.Principal{
			ID:    uuid.NewString(),
			Name:  name,
			Email: email,
			Role:  model.RoleUser,
		},
		PasswordHash: hash,
	}

	// Two records change. Nothing in memory moves until both writes land,
	// and a failed session write puts the old roster record back.
	undoRoster, err := snapshot(ctx, s.store, repository.KeyRoster)
	if err != nil {
		return nil, fmt.Errorf("service/identity: %w", err)
	}
	roster := append(append([]rosterEntry(nil), s.roster...), entry)
	if err := saveJSON(ctx, s.store, repository.KeyRoster, roster); err != nil {
		s.logger.Error("failed to persist roster", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/identity: %w", err)
	}

	principal := entry.Principal
	if err := saveJSON(ctx, s.store, repository.KeyCurrentPrincipal, principal); err != nil {
		s.logger.Error("failed to persist session",
			slog.String("principalID", principal.ID),
			slog.String("error", err.Error()),
		)
		// the caller's ctx may be what failed; the undo must still run
		if undoErr := undoRoster(context.WithoutCancel(ctx)); undoErr != nil {
			s.logger.Error("failed to restore roster", slog.String("error", undoErr.Error()))
		}
		return nil, fmt.Errorf("service/identity: %w", err)
	}
	s.roster = roster
	s.current = &principal

	s.logger.Info("principal registered",
		slog.String("principalID", principal.ID),
		slog.String("email", principal.Email),
	)

	out := principal
	return &out, nil
}

// SignOut clears the current principal and its persisted record.
// Signing out with nobody signed in is a no-op.
func (s *IdentityService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, repository.KeyCurrentPrincipal); err != nil {
		return fmt.Errorf("service/identity: clearing session: %w", err)
	}
	if s.current != nil {
		s.logger.Info("principal signed out", slog.String("principalID", s.current.ID))
	}
	s.current = nil
	return nil
}

// Current returns a copy of the signed-in principal.
func (s *IdentityService) Current() (*model.Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	p := *s.current
	return &p, true
}

// Roster returns every known principal in roster order.
func (s *IdentityService) Roster() []model.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Principal, len(s.roster))
	for i, e := range s.roster {
		out[i] = e.Principal
	}
	return out
}

// Lookup finds a roster principal by ID.
func (s *IdentityService) Lookup(id string) (model.Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.roster {
		if e.ID == id {
			return e.Principal, true
		}
	}
	return model.Principal{}, false
}

// findByEmail must be called with s.mu held.
func (s *IdentityService) findByEmail(email string) (rosterEntry, bool) {
	for _, e := range s.roster {
		if e.Email == email {
			return e, true
		}
	}
	return rosterEntry{}, false
}

// wait sleeps for the configured sign-in delay, returning early with the
// context's error if it is cancelled first.
//
// WHY time.NewTimer INSTEAD OF time.Sleep?
// time.Sleep can't be interrupted. Selecting on a timer channel and ctx.Done()
// lets an aborted HTTP request (or Ctrl-C in the CLI) stop waiting at once.
func (s *IdentityService) wait(ctx context.Context) error {
	if s.cfg.SignInDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.cfg.SignInDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
