package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
	"github.com/sakif/taskboard/internal/repository/memory"
)

// =========================================================================
// SIGN IN
// =========================================================================

func TestSignIn_RosterPrincipal(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ids := newTestIdentity(t, store, IdentityConfig{})

	p, err := ids.SignIn(ctx, "bob@example.com", "whatever")
	require.NoError(t, err)
	assert.Equal(t, "3", p.ID)
	assert.Equal(t, "Bob Johnson", p.Name)

	current, ok := ids.Current()
	require.True(t, ok)
	assert.Equal(t, *p, *current)

	// the session is persisted under "user"
	raw, err := store.Get(ctx, repository.KeyCurrentPrincipal)
	require.NoError(t, err)
	var saved model.Principal
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, "3", saved.ID)
}

func TestSignIn_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "secret1"},
		{"short password", "john@example.com", "12345"},
		{"empty password", "john@example.com", ""},
		{"email is case-sensitive", "John@Example.com", "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			ids := newTestIdentity(t, store, IdentityConfig{})

			_, err := ids.SignIn(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, "Invalid email or password", err.Error())

			_, ok := ids.Current()
			assert.False(t, ok, "failed sign-in must not create a session")
			assert.Equal(t, 0, store.Writes)
		})
	}
}

func TestSignIn_FailureKeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	ids := newTestIdentity(t, memory.New(), IdentityConfig{})

	_, err := ids.SignIn(ctx, "john@example.com", "secret1")
	require.NoError(t, err)

	_, err = ids.SignIn(ctx, "john@example.com", "123")
	require.Error(t, err)

	current, ok := ids.Current()
	require.True(t, ok)
	assert.Equal(t, "1", current.ID)
}

func TestSignIn_DelayHonoursCancellation(t *testing.T) {
	ids := newTestIdentity(t, memory.New(), IdentityConfig{SignInDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := ids.SignIn(ctx, "john@example.com", "secret1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Minute)

	_, ok := ids.Current()
	assert.False(t, ok)
}

func TestSignIn_DelayElapses(t *testing.T) {
	ids := newTestIdentity(t, memory.New(), IdentityConfig{SignInDelay: 5 * time.Millisecond})

	start := time.Now()
	_, err := ids.SignIn(context.Background(), "john@example.com", "secret1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ids := newTestIdentity(t, store, IdentityConfig{})

	p, err := ids.Register(ctx, "Carol White", "carol@example.com", "hunter22")
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.RoleUser, p.Role)
	assert.Equal(t, "carol@example.com", p.Email)

	current, ok := ids.Current()
	require.True(t, ok)
	assert.Equal(t, p.ID, current.ID)

	// joined the roster
	roster := ids.Roster()
	require.Len(t, roster, 5)
	assert.Equal(t, p.ID, roster[4].ID)

	found, ok := ids.Lookup(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Carol White", found.Name)
}

func TestRegister_ThenSignInAndNoSecondRegistration(t *testing.T) {
	ctx := context.Background()
	ids := newTestIdentity(t, memory.New(), IdentityConfig{})

	p, err := ids.Register(ctx, "Carol White", "carol@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, ids.SignOut(ctx))

	again, err := ids.SignIn(ctx, "carol@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	_, err = ids.Register(ctx, "Carol Again", "carol@example.com", "hunter22")
	require.Error(t, err)
	assert.Equal(t, "Email already registered", err.Error())
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		email    string
		password string
		wantMsg  string
	}{
		{"existing roster email", "Jane Two", "jane@example.com", "secret1", "Email already registered"},
		{"short password", "Carol", "carol@example.com", "12345", "Password must be at least 6 characters"},
		{"blank name", "   ", "carol@example.com", "secret1", "Name is required"},
		{"blank email", "Carol", "", "secret1", "Email is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			ids := newTestIdentity(t, store, IdentityConfig{})

			_, err := ids.Register(context.Background(), tt.fullName, tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())

			_, ok := ids.Current()
			assert.False(t, ok)
			assert.Len(t, ids.Roster(), 4)
			assert.Equal(t, 0, store.Writes)
		})
	}
}

func TestRegister_VerifyPasswords(t *testing.T) {
	ctx := context.Background()
	ids := newTestIdentity(t, memory.New(), IdentityConfig{VerifyPasswords: true})

	_, err := ids.Register(ctx, "Carol White", "carol@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, ids.SignOut(ctx))

	_, err = ids.SignIn(ctx, "carol@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = ids.SignIn(ctx, "carol@example.com", "hunter22")
	assert.NoError(t, err)

	// seed principals have no hash, so any long-enough password works
	_, err = ids.SignIn(ctx, "john@example.com", "anything")
	assert.NoError(t, err)
}

// =========================================================================
// SIGN OUT / RESTORE
// =========================================================================

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ids := newTestIdentity(t, store, IdentityConfig{})

	_, err := ids.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, ids.SignOut(ctx))

	_, ok := ids.Current()
	assert.False(t, ok)

	_, err = store.Get(ctx, repository.KeyCurrentPrincipal)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	// twice is fine
	assert.NoError(t, ids.SignOut(ctx))
}

func TestRestore_SessionAndRosterSurvive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	first := newTestIdentity(t, store, IdentityConfig{})

	p, err := first.Register(ctx, "Carol White", "carol@example.com", "hunter22")
	require.NoError(t, err)

	second := newTestIdentity(t, store, IdentityConfig{})
	current, ok := second.Current()
	require.True(t, ok)
	assert.Equal(t, p.ID, current.ID)
	assert.Len(t, second.Roster(), 5)
}

func TestRestore_MalformedRecordsAreDiscarded(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Put(ctx, repository.KeyCurrentPrincipal, []byte(`{not json`)))
	require.NoError(t, store.Put(ctx, repository.KeyRoster, []byte(`42`)))

	ids := newTestIdentity(t, store, IdentityConfig{})

	_, ok := ids.Current()
	assert.False(t, ok)
	assert.Equal(t, model.SeedRoster(), ids.Roster())
}

func TestLookup_Unknown(t *testing.T) {
	ids := newTestIdentity(t, memory.New(), IdentityConfig{})
	_, ok := ids.Lookup("99")
	assert.False(t, ok)
}

// =========================================================================
// STORE FAILURES
// =========================================================================

func TestRegister_SessionWriteFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	ids := newTestIdentity(t, mem, IdentityConfig{})

	// an earlier registration, so there is a stored roster to protect
	_, err := ids.Register(ctx, "Kim Park", "kim@example.com", "secret1")
	require.NoError(t, err)
	rosterBefore := rawRecord(t, mem, repository.KeyRoster)
	sessionBefore := rawRecord(t, mem, repository.KeyCurrentPrincipal)

	broken := &failingStore{Store: mem, failKey: repository.KeyCurrentPrincipal}
	ids.store = broken

	_, err = ids.Register(ctx, "Sam Lee", "sam@example.com", "secret1")
	require.ErrorIs(t, err, errStoreDown)

	assert.Len(t, ids.Roster(), 5)
	current, ok := ids.Current()
	require.True(t, ok)
	assert.Equal(t, "kim@example.com", current.Email)
	assert.Equal(t, rosterBefore, rawRecord(t, mem, repository.KeyRoster))
	assert.Equal(t, sessionBefore, rawRecord(t, mem, repository.KeyCurrentPrincipal))

	// once the store recovers the same email can register
	broken.failKey = ""
	p, err := ids.Register(ctx, "Sam Lee", "sam@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Sam Lee", p.Name)
}

func TestRegister_FirstRegistrationFailureLeavesNoRoster(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	ids := newTestIdentity(t, mem, IdentityConfig{})
	ids.store = &failingStore{Store: mem, failKey: repository.KeyCurrentPrincipal}

	_, err := ids.Register(ctx, "Sam Lee", "sam@example.com", "secret1")
	require.ErrorIs(t, err, errStoreDown)

	assert.Empty(t, rawRecord(t, mem, repository.KeyRoster))

	reloaded := newTestIdentity(t, mem, IdentityConfig{})
	assert.Len(t, reloaded.Roster(), 4)
}
