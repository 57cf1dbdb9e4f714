package session

import (
	"context"
	"testing"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/censo/core"
	inmemdb "github.com/trezcool/censo/storage/database/inmem"
)

func newTestCredentials(t *testing.T) Credentials {
	creds, err := NewCredentials(core.AdminConfig{Username: "Admin", Password: "admin123"})
	require.NoError(t, err)
	return creds
}

func TestNewCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		conf     core.AdminConfig
		password string
		wantErr  bool
	}{
		{name: "plain text default", conf: core.AdminConfig{Username: "admin", Password: "admin123"}, password: "admin123"},
		{name: "hash wins over password", conf: core.AdminConfig{Username: "admin", Password: "admin123", PasswordHash: string(hash)}, password: "s3cret!"},
		{name: "invalid hash", conf: core.AdminConfig{Username: "admin", PasswordHash: "not-a-hash"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := NewCredentials(tt.conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, creds.Check(" ADMIN ", tt.password))
			assert.False(t, creds.Check("admin", tt.password+"x"))
			assert.False(t, creds.Check("root", tt.password))
		})
	}
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	g := NewGuard(ctx, newTestCredentials(t), db, core.NewNopLogger())

	flag := func() string {
		raw, err := db.Get(ctx, core.KeyAdminAuthenticated)
		if err != nil {
			return ""
		}
		return string(raw)
	}

	assert.Equal(t, StateUnauthenticated, g.State(ctx))
	assert.False(t, g.IsAuthenticated(ctx))

	assert.Equal(t, ErrInvalidCredentials, g.Login(ctx, "admin", "wrong"))
	assert.False(t, g.IsAuthenticated(ctx))
	assert.Equal(t, "", flag())

	require.NoError(t, g.Login(ctx, "admin", "admin123"))
	assert.True(t, g.IsAuthenticated(ctx))
	assert.Equal(t, "true", flag())

	require.NoError(t, g.Login(ctx, "admin", "admin123"))
	assert.True(t, g.IsAuthenticated(ctx))

	require.NoError(t, g.Logout(ctx))
	assert.Equal(t, StateUnauthenticated, g.State(ctx))
	assert.Equal(t, "false", flag())

	require.NoError(t, g.Logout(ctx))
	assert.Equal(t, "false", flag())
}

func TestGuard_invalidTransitions(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(ctx, newTestCredentials(t), inmemdb.Open(), core.NewNopLogger())

	err := g.fire(ctx, eventLogout)
	require.Error(t, err)
	assert.IsType(t, fsm.InvalidEventError{}, errors.Cause(err))

	require.NoError(t, g.fire(ctx, eventLogin))
	err = g.fire(ctx, eventLogin)
	assert.IsType(t, fsm.InvalidEventError{}, errors.Cause(err))
}

func TestGuard_restoresPersistedFlag(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		flag string
		want string
	}{
		{flag: "true", want: StateAuthenticated},
		{flag: "false", want: StateUnauthenticated},
		{flag: "garbage", want: StateUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			db := inmemdb.Open()
			require.NoError(t, db.Set(ctx, core.KeyAdminAuthenticated, []byte(tt.flag)))
			g := NewGuard(ctx, newTestCredentials(t), db, core.NewNopLogger())
			assert.Equal(t, tt.want, g.State(ctx))
		})
	}
}

func TestGuard_sharedStore(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	creds := newTestCredentials(t)
	a := NewGuard(ctx, creds, db, core.NewNopLogger())
	b := NewGuard(ctx, creds, db, core.NewNopLogger())

	require.NoError(t, a.Login(ctx, "admin", "admin123"))
	assert.True(t, a.IsAuthenticated(ctx))
	assert.True(t, b.IsAuthenticated(ctx))

	require.NoError(t, b.Logout(ctx))
	assert.False(t, b.IsAuthenticated(ctx))
	assert.False(t, a.IsAuthenticated(ctx))
	assert.Equal(t, StateUnauthenticated, a.State(ctx))

	// a stale instance still logs in again
	require.NoError(t, a.Login(ctx, "admin", "admin123"))
	assert.True(t, b.IsAuthenticated(ctx))
}
