// Package service provides the client's operation surface: authentication
// flows and the admin mutation operations.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"signals-client/internal/api"
	"signals-client/internal/model"
	"signals-client/internal/notify"
	"signals-client/internal/session"
)

// Common errors for auth operations.
var (
	ErrEmptyCredentials  = errors.New("username and password are required")
	ErrRegistrationLimit = errors.New("registration limit reached for this device")
)

// Authenticator is the slice of the auth service client used here.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.Identity, error)
	Register(ctx context.Context, username, password, referralCode string) (model.Identity, error)
}

// AdminAuthenticator authenticates the reserved admin account against the
// directory service.
type AdminAuthenticator interface {
	AdminLogin(ctx context.Context, username, password string) error
}

// AuthService drives the session lifecycle: login, register, admin login and
// logout. Failures are surfaced as notifications and leave the session
// unchanged.
type AuthService struct {
	auth          Authenticator
	directory     AdminAuthenticator
	session       *session.Store
	notifier      notify.Notifier
	adminUsername string
	maxAccounts   int
}

// NewAuthService creates an AuthService.
func NewAuthService(
	auth Authenticator,
	directory AdminAuthenticator,
	sess *session.Store,
	notifier notify.Notifier,
	adminUsername string,
	maxAccounts int,
) *AuthService {
	return &AuthService{
		auth:          auth,
		directory:     directory,
		session:       sess,
		notifier:      notifier,
		adminUsername: adminUsername,
		maxAccounts:   maxAccounts,
	}
}

// Login authenticates the given credentials. The reserved admin username is
// tried against the directory service first and enters the admin session on
// success; a rejected admin attempt falls through to the regular auth
// service, matching the remote contract.
func (s *AuthService) Login(ctx context.Context, username, password string) (session.State, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		s.notifier.Notify(notify.Error("Enter a username and password"))
		return session.StateUnauthenticated, ErrEmptyCredentials
	}

	if username == s.adminUsername {
		err := s.directory.AdminLogin(ctx, username, password)
		switch {
		case err == nil:
			if err := s.session.EnterAdmin(); err != nil {
				return session.StateUnauthenticated, err
			}
			s.notifier.Notify(notify.Info("Welcome, administrator"))
			return session.StateAdmin, nil
		case isRejected(err):
			// Not the admin after all; fall through to the regular flow.
			log.Debug().Err(err).Msg("Admin login rejected, trying regular auth")
		default:
			s.notifier.Notify(notify.Error("Could not reach the server"))
			return session.StateUnauthenticated, err
		}
	}

	identity, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.notifyAuthFailure(err)
		return session.StateUnauthenticated, err
	}

	if err := s.session.Login(identity); err != nil {
		return session.StateUnauthenticated, err
	}
	s.notifier.Notify(notify.Info("Logged in successfully"))
	return session.StateUser, nil
}

// Register creates a new account and logs it in. The per-device cap on
// registrations is advisory only: it is enforced from locally persisted
// state and is not a security control.
func (s *AuthService) Register(ctx context.Context, username, password, referralCode string) (session.State, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		s.notifier.Notify(notify.Error("Enter a username and password"))
		return session.StateUnauthenticated, ErrEmptyCredentials
	}

	registered, err := s.session.RegisteredAccounts()
	if err != nil {
		return session.StateUnauthenticated, err
	}
	if s.maxAccounts > 0 && len(registered) >= s.maxAccounts {
		s.notifier.Notify(notify.Error("Registration limit reached for this device (max %d accounts)", s.maxAccounts))
		return session.StateUnauthenticated, ErrRegistrationLimit
	}

	identity, err := s.auth.Register(ctx, username, password, referralCode)
	if err != nil {
		s.notifyAuthFailure(err)
		return session.StateUnauthenticated, err
	}

	if err := s.session.Login(identity); err != nil {
		return session.StateUnauthenticated, err
	}
	if err := s.session.RecordRegistration(identity.ID); err != nil {
		// The account exists either way; the cap just loses one entry.
		log.Warn().Err(err).Msg("Failed to record registration")
	}

	s.notifier.Notify(notify.Info("Registered successfully"))
	return session.StateUser, nil
}

// Logout ends the current session, whichever role it holds.
func (s *AuthService) Logout() error {
	if err := s.session.Logout(); err != nil {
		return err
	}
	s.notifier.Notify(notify.Info("Logged out"))
	return nil
}

func (s *AuthService) notifyAuthFailure(err error) {
	var rejected *api.RejectedError
	if errors.As(err, &rejected) {
		msg := rejected.Message
		if msg == "" {
			msg = "Authentication failed"
		}
		s.notifier.Notify(notify.Error("%s", msg))
		return
	}
	s.notifier.Notify(notify.Error("Could not reach the server"))
}

func isRejected(err error) bool {
	var rejected *api.RejectedError
	return errors.As(err, &rejected)
}
