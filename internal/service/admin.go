package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"signals-client/internal/model"
	"signals-client/internal/session"
)

// Common errors for admin operations.
var (
	ErrNotAdmin       = errors.New("admin session required")
	ErrEmptyBanReason = errors.New("ban reason is required")
	ErrNotConfirmed   = errors.New("deletion requires confirmation")
)

// DirectoryAPI is the slice of the directory client used by admin
// operations.
type DirectoryAPI interface {
	ListUsers(ctx context.Context) ([]model.DirectoryRecord, error)
	UpdateUser(ctx context.Context, userID int64, balance float64, referralCount int) error
	BanUser(ctx context.Context, userID int64, reason string) error
	UnbanUser(ctx context.Context, userID int64) error
	DeleteUser(ctx context.Context, userID int64) error
}

// AdminService exposes the directory mutations available to an admin
// session. Each operation is a single request/response exchange; on success
// the cached directory snapshot is refreshed so the admin view reflects the
// authoritative state.
type AdminService struct {
	directory DirectoryAPI
	session   *session.Store

	mu    sync.RWMutex
	users []model.DirectoryRecord
}

// NewAdminService creates an AdminService.
func NewAdminService(directory DirectoryAPI, sess *session.Store) *AdminService {
	return &AdminService{
		directory: directory,
		session:   sess,
	}
}

// ListUsers fetches the full directory snapshot, caches it and returns it.
func (s *AdminService) ListUsers(ctx context.Context) ([]model.DirectoryRecord, error) {
	if !s.session.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.refresh(ctx)
}

// Users returns the cached directory snapshot from the last refresh.
func (s *AdminService) Users() []model.DirectoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.DirectoryRecord(nil), s.users...)
}

// UpdateUser overwrites a user's balance and referral count. The values
// arrive as free-form text from the admin; unparseable input is coerced to
// zero before sending, matching the remote contract.
func (s *AdminService) UpdateUser(ctx context.Context, userID int64, balance, referralCount string) error {
	if !s.session.IsAdmin() {
		return ErrNotAdmin
	}

	newBalance, err := strconv.ParseFloat(strings.TrimSpace(balance), 64)
	if err != nil {
		newBalance = 0
	}
	newReferrals, err := strconv.Atoi(strings.TrimSpace(referralCount))
	if err != nil {
		newReferrals = 0
	}

	if err := s.directory.UpdateUser(ctx, userID, newBalance, newReferrals); err != nil {
		return err
	}

	log.Info().
		Int64("target_id", userID).
		Float64("balance", newBalance).
		Int("referral_count", newReferrals).
		Str("operation", "update_user").
		Msg("Admin operation executed")

	_, err = s.refresh(ctx)
	return err
}

// BanUser bans a user. An empty reason fails locally with ErrEmptyBanReason
// and no request is sent.
func (s *AdminService) BanUser(ctx context.Context, userID int64, reason string) error {
	if !s.session.IsAdmin() {
		return ErrNotAdmin
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyBanReason
	}

	if err := s.directory.BanUser(ctx, userID, reason); err != nil {
		return err
	}

	log.Info().
		Int64("target_id", userID).
		Str("reason", reason).
		Str("operation", "ban_user").
		Msg("Admin operation executed")

	_, err := s.refresh(ctx)
	return err
}

// UnbanUser lifts a user's ban.
func (s *AdminService) UnbanUser(ctx context.Context, userID int64) error {
	if !s.session.IsAdmin() {
		return ErrNotAdmin
	}

	if err := s.directory.UnbanUser(ctx, userID); err != nil {
		return err
	}

	log.Info().
		Int64("target_id", userID).
		Str("operation", "unban_user").
		Msg("Admin operation executed")

	_, err := s.refresh(ctx)
	return err
}

// DeleteUser removes a user from the directory. The caller must pass an
// explicit confirmation; without it no request is sent.
func (s *AdminService) DeleteUser(ctx context.Context, userID int64, confirmed bool) error {
	if !s.session.IsAdmin() {
		return ErrNotAdmin
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	if err := s.directory.DeleteUser(ctx, userID); err != nil {
		return err
	}

	log.Info().
		Int64("target_id", userID).
		Str("operation", "delete_user").
		Msg("Admin operation executed")

	_, err := s.refresh(ctx)
	return err
}

func (s *AdminService) refresh(ctx context.Context) ([]model.DirectoryRecord, error) {
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()

	return append([]model.DirectoryRecord(nil), users...), nil
}
