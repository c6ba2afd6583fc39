package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signals-client/internal/model"
)

type directoryCall struct {
	op            string
	userID        int64
	balance       float64
	referralCount int
	reason        string
}

type fakeDirectoryAPI struct {
	users   []model.DirectoryRecord
	listErr error
	opErr   error

	calls     []directoryCall
	listCalls int
}

func (f *fakeDirectoryAPI) ListUsers(_ context.Context) ([]model.DirectoryRecord, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeDirectoryAPI) UpdateUser(_ context.Context, userID int64, balance float64, referralCount int) error {
	f.calls = append(f.calls, directoryCall{op: "update_user", userID: userID, balance: balance, referralCount: referralCount})
	return f.opErr
}

func (f *fakeDirectoryAPI) BanUser(_ context.Context, userID int64, reason string) error {
	f.calls = append(f.calls, directoryCall{op: "ban_user", userID: userID, reason: reason})
	return f.opErr
}

func (f *fakeDirectoryAPI) UnbanUser(_ context.Context, userID int64) error {
	f.calls = append(f.calls, directoryCall{op: "unban_user", userID: userID})
	return f.opErr
}

func (f *fakeDirectoryAPI) DeleteUser(_ context.Context, userID int64) error {
	f.calls = append(f.calls, directoryCall{op: "delete_user", userID: userID})
	return f.opErr
}

func newAdminFixture(t *testing.T, dir *fakeDirectoryAPI) *AdminService {
	t.Helper()
	sess := newSessionStore(t)
	require.NoError(t, sess.EnterAdmin())
	return NewAdminService(dir, sess)
}

func TestAdminService_RequiresAdminSession(t *testing.T) {
	dir := &fakeDirectoryAPI{}
	sess := newSessionStore(t)
	require.NoError(t, sess.Login(identityFixture()))
	svc := NewAdminService(dir, sess)

	ctx := context.Background()
	_, err := svc.ListUsers(ctx)
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.ErrorIs(t, svc.UpdateUser(ctx, 1, "10", "0"), ErrNotAdmin)
	assert.ErrorIs(t, svc.BanUser(ctx, 1, "abuse"), ErrNotAdmin)
	assert.ErrorIs(t, svc.UnbanUser(ctx, 1), ErrNotAdmin)
	assert.ErrorIs(t, svc.DeleteUser(ctx, 1, true), ErrNotAdmin)

	assert.Empty(t, dir.calls)
	assert.Equal(t, 0, dir.listCalls)
}

func TestAdminService_ListUsersCachesSnapshot(t *testing.T) {
	dir := &fakeDirectoryAPI{users: []model.DirectoryRecord{
		{ID: 1, Username: "alpha", Balance: 10},
		{ID: 2, Username: "beta", Balance: 20, IsBanned: true, BanReason: "abuse"},
	}}
	svc := newAdminFixture(t, dir)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	cached := svc.Users()
	assert.Equal(t, users, cached)

	// The returned slices are copies; mutating one must not leak into the
	// cache.
	users[0].Username = "mutated"
	assert.Equal(t, "alpha", svc.Users()[0].Username)
}

func TestAdminService_UpdateUserParsesInput(t *testing.T) {
	tests := []struct {
		name          string
		balance       string
		referralCount string
		wantBalance   float64
		wantReferrals int
	}{
		{name: "valid values", balance: "150.50", referralCount: "3", wantBalance: 150.50, wantReferrals: 3},
		{name: "padded values", balance: " 75 ", referralCount: " 1 ", wantBalance: 75, wantReferrals: 1},
		{name: "unparseable balance becomes zero", balance: "abc", referralCount: "3", wantBalance: 0, wantReferrals: 3},
		{name: "unparseable referrals become zero", balance: "10", referralCount: "x", wantBalance: 10, wantReferrals: 0},
		{name: "both empty become zero", balance: "", referralCount: "", wantBalance: 0, wantReferrals: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectoryAPI{}
			svc := newAdminFixture(t, dir)

			require.NoError(t, svc.UpdateUser(context.Background(), 42, tt.balance, tt.referralCount))
			require.Len(t, dir.calls, 1)
			assert.Equal(t, directoryCall{
				op:            "update_user",
				userID:        42,
				balance:       tt.wantBalance,
				referralCount: tt.wantReferrals,
			}, dir.calls[0])
		})
	}
}

func TestAdminService_MutationRefreshesCache(t *testing.T) {
	dir := &fakeDirectoryAPI{users: []model.DirectoryRecord{{ID: 42, Balance: 150}}}
	svc := newAdminFixture(t, dir)

	require.NoError(t, svc.UpdateUser(context.Background(), 42, "150", "0"))
	assert.Equal(t, 1, dir.listCalls)

	cached := svc.Users()
	require.Len(t, cached, 1)
	assert.Equal(t, float64(150), cached[0].Balance)
}

func TestAdminService_BanUserEmptyReason(t *testing.T) {
	dir := &fakeDirectoryAPI{}
	svc := newAdminFixture(t, dir)

	err := svc.BanUser(context.Background(), 42, "   ")
	assert.ErrorIs(t, err, ErrEmptyBanReason)
	assert.Empty(t, dir.calls)
}

func TestAdminService_BanUserTrimsReason(t *testing.T) {
	dir := &fakeDirectoryAPI{}
	svc := newAdminFixture(t, dir)

	require.NoError(t, svc.BanUser(context.Background(), 42, "  abusive behaviour  "))
	require.Len(t, dir.calls, 1)
	assert.Equal(t, "abusive behaviour", dir.calls[0].reason)
}

func TestAdminService_UnbanUser(t *testing.T) {
	dir := &fakeDirectoryAPI{}
	svc := newAdminFixture(t, dir)

	require.NoError(t, svc.UnbanUser(context.Background(), 42))
	require.Len(t, dir.calls, 1)
	assert.Equal(t, "unban_user", dir.calls[0].op)
}

func TestAdminService_DeleteUserRequiresConfirmation(t *testing.T) {
	dir := &fakeDirectoryAPI{}
	svc := newAdminFixture(t, dir)

	err := svc.DeleteUser(context.Background(), 42, false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, dir.calls)

	require.NoError(t, svc.DeleteUser(context.Background(), 42, true))
	require.Len(t, dir.calls, 1)
	assert.Equal(t, "delete_user", dir.calls[0].op)
}

func TestAdminService_MutationFailurePreservesCache(t *testing.T) {
	dir := &fakeDirectoryAPI{users: []model.DirectoryRecord{{ID: 42, Balance: 100}}}
	svc := newAdminFixture(t, dir)

	_, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	dir.opErr = errors.New("server unavailable")
	err = svc.BanUser(context.Background(), 42, "abuse")
	assert.Error(t, err)

	// The failed mutation must not refresh, so the earlier snapshot stands.
	assert.Equal(t, 1, dir.listCalls)
	cached := svc.Users()
	require.Len(t, cached, 1)
	assert.Equal(t, float64(100), cached[0].Balance)
}
