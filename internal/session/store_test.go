package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signals-client/internal/model"
	"signals-client/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.Store) {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st), st
}

func testIdentity() model.Identity {
	return model.Identity{
		ID:            7,
		Username:      "player_one",
		Balance:       100,
		ReferralCount: 2,
		ReferralCode:  "ref7",
	}
}

func TestStore_RestoreEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	state, err := s.Restore()
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.False(t, s.Authenticated())
	assert.False(t, s.IsAdmin())
}

func TestStore_LoginPersistsAndRestores(t *testing.T) {
	s, st := newTestStore(t)
	require.NoError(t, s.Login(testIdentity()))

	identity, ok := s.Identity()
	require.True(t, ok)
	assert.Equal(t, testIdentity(), identity)

	// A fresh store over the same storage restores the user session.
	restored := New(st)
	state, err := restored.Restore()
	require.NoError(t, err)
	assert.Equal(t, StateUser, state)

	identity, ok = restored.Identity()
	require.True(t, ok)
	assert.Equal(t, testIdentity(), identity)
}

func TestStore_RestoreCorruptIdentity(t *testing.T) {
	s, st := newTestStore(t)
	require.NoError(t, st.Set("user", "{not json"))

	state, err := s.Restore()
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.False(t, s.Authenticated())

	// The corrupt value must be removed from storage.
	_, ok, err := st.Get("user")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_AdminFlagWinsOnRestore(t *testing.T) {
	s, st := newTestStore(t)
	require.NoError(t, s.Login(testIdentity()))
	require.NoError(t, st.Set("isAdmin", "true"))

	restored := New(st)
	state, err := restored.Restore()
	require.NoError(t, err)
	assert.Equal(t, StateAdmin, state)
	assert.True(t, restored.IsAdmin())

	// Admin and identity are mutually exclusive.
	_, ok := restored.Identity()
	assert.False(t, ok)
}

func TestStore_EnterAdminClearsIdentity(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Login(testIdentity()))
	require.NoError(t, s.EnterAdmin())

	assert.True(t, s.IsAdmin())
	_, ok := s.Identity()
	assert.False(t, ok)
	assert.False(t, s.Authenticated())
}

func TestStore_LogoutClearsBothRoles(t *testing.T) {
	s, st := newTestStore(t)
	require.NoError(t, s.Login(testIdentity()))
	require.NoError(t, s.EnterAdmin())
	require.NoError(t, s.Logout())

	assert.False(t, s.IsAdmin())
	assert.False(t, s.Authenticated())

	// A subsequent restore yields an unauthenticated session.
	restored := New(st)
	state, err := restored.Restore()
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestStore_ApplyServerUpdate(t *testing.T) {
	balance := 150.0
	referrals := 5

	tests := []struct {
		name          string
		update        model.BalanceUpdate
		wantBalance   float64
		wantReferrals int
	}{
		{"balance only", model.BalanceUpdate{Balance: &balance}, 150, 2},
		{"referrals only", model.BalanceUpdate{ReferralCount: &referrals}, 100, 5},
		{"both fields", model.BalanceUpdate{Balance: &balance, ReferralCount: &referrals}, 150, 5},
		{"empty update", model.BalanceUpdate{}, 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := newTestStore(t)
			require.NoError(t, s.Login(testIdentity()))

			require.NoError(t, s.ApplyServerUpdate(tt.update))

			identity, ok := s.Identity()
			require.True(t, ok)
			assert.Equal(t, tt.wantBalance, identity.Balance)
			assert.Equal(t, tt.wantReferrals, identity.ReferralCount)
			// Untouched fields survive the merge.
			assert.Equal(t, "player_one", identity.Username)
			assert.Equal(t, "ref7", identity.ReferralCode)

			// The merged identity is persisted.
			restored := New(st)
			_, err := restored.Restore()
			require.NoError(t, err)
			identity, ok = restored.Identity()
			require.True(t, ok)
			assert.Equal(t, tt.wantBalance, identity.Balance)
			assert.Equal(t, tt.wantReferrals, identity.ReferralCount)
		})
	}
}

func TestStore_ApplyServerUpdateUnauthenticated(t *testing.T) {
	s, _ := newTestStore(t)

	balance := 150.0
	require.NoError(t, s.ApplyServerUpdate(model.BalanceUpdate{Balance: &balance}))
	assert.False(t, s.Authenticated())
}

func TestStore_RegisteredAccounts(t *testing.T) {
	s, st := newTestStore(t)

	ids, err := s.RegisteredAccounts()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.RecordRegistration(1))
	require.NoError(t, s.RecordRegistration(2))

	ids, err = s.RegisteredAccounts()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	// The list survives a restart; login/logout do not touch it.
	require.NoError(t, s.Login(testIdentity()))
	require.NoError(t, s.Logout())

	restored := New(st)
	ids, err = restored.RegisteredAccounts()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestStore_CorruptRegisteredAccountsIgnored(t *testing.T) {
	s, st := newTestStore(t)
	require.NoError(t, st.Set("registeredAccounts", "not json"))

	ids, err := s.RegisteredAccounts()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
