// Package session holds the authenticated identity (or none) and mirrors it
// to the durable local store, so a restart restores either an admin session
// or a user session, never both.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"signals-client/internal/model"
	"signals-client/internal/storage"
)

// Storage keys. They match the keys the hosted client kept in origin storage.
const (
	keyUser               = "user"
	keyIsAdmin            = "isAdmin"
	keyRegisteredAccounts = "registeredAccounts"
)

// State describes the session role after a lifecycle transition.
type State int

const (
	StateUnauthenticated State = iota
	StateUser
	StateAdmin
)

// Store owns the process-wide session state: the single mutable Identity, or
// the admin flag, never both. All durable-store writes for session state go
// through it.
type Store struct {
	mu       sync.RWMutex
	storage  *storage.Store
	identity *model.Identity
	isAdmin  bool
}

// New creates a Store backed by the given durable storage.
func New(st *storage.Store) *Store {
	return &Store{storage: st}
}

// Restore loads persisted session state. Precedence: a persisted admin flag
// wins, then a persisted Identity, then unauthenticated. A corrupt persisted
// Identity is removed and the session falls back to unauthenticated rather
// than operating on bad data.
func (s *Store) Restore() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	adminFlag, ok, err := s.storage.Get(keyIsAdmin)
	if err != nil {
		return StateUnauthenticated, fmt.Errorf("restore admin flag: %w", err)
	}
	if ok && adminFlag == "true" {
		s.isAdmin = true
		s.identity = nil
		return StateAdmin, nil
	}

	raw, ok, err := s.storage.Get(keyUser)
	if err != nil {
		return StateUnauthenticated, fmt.Errorf("restore identity: %w", err)
	}
	if !ok {
		return StateUnauthenticated, nil
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		log.Warn().Err(err).Msg("Corrupt persisted identity, clearing it")
		if delErr := s.storage.Delete(keyUser); delErr != nil {
			return StateUnauthenticated, fmt.Errorf("clear corrupt identity: %w", delErr)
		}
		return StateUnauthenticated, nil
	}

	s.identity = &identity
	s.isAdmin = false
	return StateUser, nil
}

// Login replaces the current Identity, persists it, and transitions the
// session to the authenticated-user state.
func (s *Store) Login(identity model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistIdentity(&identity); err != nil {
		return err
	}
	s.identity = &identity
	s.isAdmin = false

	log.Info().Int64("user_id", identity.ID).Str("username", identity.Username).Msg("Logged in")
	return nil
}

// EnterAdmin sets the persisted admin flag and transitions to the admin
// state. Any regular Identity is cleared: the admin role never carries one.
func (s *Store) EnterAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(keyIsAdmin, "true"); err != nil {
		return fmt.Errorf("persist admin flag: %w", err)
	}
	if err := s.storage.Delete(keyUser); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	s.isAdmin = true
	s.identity = nil

	log.Info().Msg("Entered admin session")
	return nil
}

// Logout clears both the Identity and the admin flag, in memory and in the
// durable store. This is the only path back to the unauthenticated state.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(keyUser); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	if err := s.storage.Delete(keyIsAdmin); err != nil {
		return fmt.Errorf("clear admin flag: %w", err)
	}
	s.identity = nil
	s.isAdmin = false

	log.Info().Msg("Logged out")
	return nil
}

// ApplyServerUpdate merges the given partial update into the current
// Identity and persists the result. It is a no-op when no user is
// authenticated.
func (s *Store) ApplyServerUpdate(update model.BalanceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return nil
	}

	merged := *s.identity
	if update.Balance != nil {
		merged.Balance = *update.Balance
	}
	if update.ReferralCount != nil {
		merged.ReferralCount = *update.ReferralCount
	}

	if err := s.persistIdentity(&merged); err != nil {
		return err
	}
	s.identity = &merged
	return nil
}

// Identity returns a copy of the current Identity and whether one is present.
func (s *Store) Identity() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return model.Identity{}, false
	}
	return *s.identity, true
}

// IsAdmin reports whether the session is in the admin state.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAdmin
}

// Authenticated reports whether a regular user is logged in.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// RegisteredAccounts returns the ids of accounts registered from this
// device. The list backs the advisory registration cap.
func (s *Store) RegisteredAccounts() ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readRegisteredAccounts()
}

// RecordRegistration appends an account id to the device's registration
// list.
func (s *Store) RecordRegistration(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.readRegisteredAccounts()
	if err != nil {
		return err
	}
	ids = append(ids, id)

	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode registered accounts: %w", err)
	}
	if err := s.storage.Set(keyRegisteredAccounts, string(raw)); err != nil {
		return fmt.Errorf("persist registered accounts: %w", err)
	}
	return nil
}

func (s *Store) readRegisteredAccounts() ([]int64, error) {
	raw, ok, err := s.storage.Get(keyRegisteredAccounts)
	if err != nil {
		return nil, fmt.Errorf("read registered accounts: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		// Treat a corrupt list the same as an empty one.
		log.Warn().Err(err).Msg("Corrupt registered accounts list, ignoring it")
		return nil, nil
	}
	return ids, nil
}

func (s *Store) persistIdentity(identity *model.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.storage.Set(keyUser, string(raw)); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	return nil
}
