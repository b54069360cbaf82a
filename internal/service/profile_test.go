package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/fresh-start/internal/apperror"
	"github.com/sakif/fresh-start/internal/records"
)

func TestProfileService_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.profiles.Create(ctx, "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, "1", alice.ID)
	assert.False(t, alice.HasPIN)

	bob, err := env.profiles.Create(ctx, "Bob", "2468")
	require.NoError(t, err)
	assert.True(t, bob.HasPIN)

	list, err := env.profiles.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, "Bob", list[1].Name)
}

func TestProfileService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.profiles.Create(ctx, "   ", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.profiles.Create(ctx, "Carol", "12")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	list, err := env.profiles.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected profiles must not reach the roster")
}

func TestProfileService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.profiles.Create(ctx, "Alice", "")
	require.NoError(t, err)
	bob, err := env.profiles.Create(ctx, "Bob", "2468")
	require.NoError(t, err)

	tests := []struct {
		name      string
		id, pin   string
		wantErr   error
		wantAdmin bool
	}{
		{name: "no PIN needed", id: alice.ID, wantAdmin: true},
		{name: "right PIN", id: bob.ID, pin: "2468"},
		{name: "wrong PIN", id: bob.ID, pin: "1357", wantErr: apperror.ErrUnauthorized},
		{name: "missing PIN", id: bob.ID, wantErr: apperror.ErrUnauthorized},
		{name: "unknown profile", id: "99", wantErr: apperror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := env.profiles.Authenticate(ctx, tt.id, tt.pin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, session.Profile.ID)
			assert.Equal(t, "session-1", session.SessionID)
			assert.Equal(t, tt.wantAdmin, session.Admin)
		})
	}
}

func TestProfileService_AuthenticateLogsSessionStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.profiles.Create(ctx, "Alice", "")
	require.NoError(t, err)
	_, err = env.profiles.Authenticate(ctx, alice.ID, "")
	require.NoError(t, err)

	log, err := env.records.For(alice.ID).ActivityLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, ActionSessionStarted, log[0].Action)
	assert.Equal(t, "session-1", log[0].SessionID)
}

func TestProfileService_IsAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ok, err := env.profiles.IsAdmin(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok, "nobody is admin on an empty roster")

	_, _ = env.profiles.Create(ctx, "Alice", "")
	_, _ = env.profiles.Create(ctx, "Bob", "")

	ok, _ = env.profiles.IsAdmin(ctx, "1")
	assert.True(t, ok)
	ok, _ = env.profiles.IsAdmin(ctx, "2")
	assert.False(t, ok)
	ok, _ = env.profiles.IsAdmin(ctx, "")
	assert.False(t, ok)
}

func TestProfileService_CorruptRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.Set(ctx, records.RosterKey, "oops"))

	_, err := env.profiles.List(ctx)
	assert.ErrorIs(t, err, apperror.ErrCorrupt)
}
