// Package session holds the authenticated identity of the CLI user and keeps
// it mirrored into a Persistence adapter.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/acadeval/internal/api"
	"github.com/me/acadeval/internal/logging"
	"github.com/me/acadeval/pkg/model"
)

var (
	// ErrLoginPending is returned when a login is attempted while another is in flight.
	ErrLoginPending = errors.New("a login is already in progress")
	// ErrSuperseded is returned when the session changed (logout, eviction)
	// while a login was in flight; its response is discarded.
	ErrSuperseded = errors.New("login superseded by a newer session change")
	// ErrEmptyToken is returned when the server answers without a token or identity.
	ErrEmptyToken = errors.New("server returned no token")
)

// DefaultLoginError is the message used when the server gives no detail.
const DefaultLoginError = "login failed"

// Phase is the state-machine position of a Store.
type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
	PhaseErrored        Phase = "errored"
)

// State is an immutable snapshot of a Store.
type State struct {
	Identity  *model.User
	Token     string
	Pending   bool
	LastError string
}

// Authenticated is true iff both identity and token are present.
func (s State) Authenticated() bool {
	return s.Identity != nil && s.Token != ""
}

// Phase derives the state-machine position from the snapshot.
func (s State) Phase() Phase {
	switch {
	case s.Pending:
		return PhaseAuthenticating
	case s.Authenticated():
		return PhaseAuthenticated
	case s.LastError != "":
		return PhaseErrored
	default:
		return PhaseAnonymous
	}
}

// Role returns the identity's role, or "" when anonymous.
func (s State) Role() model.Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Authenticator performs the credential exchanges. api.AuthService implements it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.TokenResponse, error)
	StudentLogin(ctx context.Context, studentNumber, lastName, firstName string) (*model.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
}

// Store owns the session. All mutation goes through its methods; identity and
// token are always set and cleared together. Persistence writes happen under
// mu so storage never disagrees with memory.
type Store struct {
	auth    Authenticator
	persist Persistence
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	user      *model.User
	token     string
	expiresAt time.Time
	pending   bool
	lastErr   string
	// gen increments on every logout/eviction so an in-flight login can tell
	// its response is stale.
	gen uint64
}

// NewStore creates an anonymous store. Call Restore to load a saved session.
func NewStore(auth Authenticator, persist Persistence, logger *slog.Logger) *Store {
	if persist == nil {
		persist = NewMemoryPersistence()
	}
	return &Store{
		auth:    auth,
		persist: persist,
		logger:  logging.Component(logger, "session"),
		now:     time.Now,
	}
}

// Restore loads the persisted session. Incomplete records are cleared. An
// expired record is renewed once through the refresh token when it has one,
// and cleared otherwise. A valid record is adopted without a network call.
func (s *Store) Restore(ctx context.Context) error {
	rec, err := s.persist.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if rec == nil {
		return nil
	}

	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = tokenExpiry(rec.Token)
	}
	renewed := false
	if rec.Complete() && rec.IsExpired() && rec.RefreshToken != "" {
		resp, err := s.auth.Refresh(ctx, rec.RefreshToken)
		switch {
		case err != nil:
			s.logger.Info("session refresh failed", "error", err)
		case resp == nil || resp.AccessToken == "":
			s.logger.Info("session refresh returned no token")
		default:
			rec = s.newSession(resp, rec.User)
			renewed = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !rec.Complete() || rec.IsExpired() {
		s.logger.Info("discarding stored session", "complete", rec.Complete(), "expires_at", rec.ExpiresAt)
		return s.persist.Clear(ctx)
	}
	if renewed {
		if err := s.persist.Save(ctx, rec); err != nil {
			return fmt.Errorf("save renewed session: %w", err)
		}
		s.logger.Info("session renewed", "username", rec.User.Username)
	}
	s.adopt(rec)
	s.logger.Debug("session restored", "username", rec.User.Username, "role", rec.User.Role)
	return nil
}

// Login exchanges a username and password. On failure LastError is set and
// the error is returned so the caller can stay on the form.
func (s *Store) Login(ctx context.Context, username, password string) error {
	return s.authenticate(ctx, func(ctx context.Context) (*model.TokenResponse, error) {
		return s.auth.Login(ctx, username, password)
	})
}

// StudentLogin exchanges a student number and name.
func (s *Store) StudentLogin(ctx context.Context, studentNumber, lastName, firstName string) error {
	return s.authenticate(ctx, func(ctx context.Context) (*model.TokenResponse, error) {
		return s.auth.StudentLogin(ctx, studentNumber, lastName, firstName)
	})
}

func (s *Store) authenticate(ctx context.Context, exchange func(context.Context) (*model.TokenResponse, error)) error {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrLoginPending
	}
	s.pending = true
	s.lastErr = ""
	gen := s.gen
	s.mu.Unlock()

	resp, err := exchange(ctx)
	if err == nil && (resp == nil || resp.AccessToken == "") {
		err = ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A logout or eviction ran meanwhile. Whatever happened since owns
	// memory and storage; this response touches neither.
	if s.gen != gen {
		s.logger.Debug("discarding superseded login response")
		return ErrSuperseded
	}
	s.pending = false

	if err == nil {
		u := resp.User
		sess := s.newSession(resp, &u)
		if perr := s.persist.Save(ctx, sess); perr != nil {
			err = fmt.Errorf("save session: %w", perr)
		} else {
			s.adopt(sess)
			s.lastErr = ""
			s.logger.Info("logged in", "username", sess.User.Username, "role", sess.User.Role)
			return nil
		}
	}

	s.lastErr = api.DetailOr(err, DefaultLoginError)
	s.logger.Info("login failed", "error", err)
	return err
}

// Logout clears the in-memory and persisted session. It does not call the server.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.lastErr = ""

	s.logger.Debug("logged out")
	return s.persist.Clear(ctx)
}

// Evict is the forced logout run when the server rejects the token.
func (s *Store) Evict(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != ""
	s.reset()

	if had {
		s.logger.Warn("session evicted")
	}
	if err := s.persist.Clear(ctx); err != nil {
		s.logger.Error("clear evicted session", "error", err)
	}
}

func (s *Store) newSession(resp *model.TokenResponse, u *model.User) *model.Session {
	return &model.Session{
		Token:        resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         cloneUser(u),
		ExpiresAt:    s.expiry(resp),
		SavedAt:      s.now(),
	}
}

// adopt must be called with mu held.
func (s *Store) adopt(sess *model.Session) {
	s.user = cloneUser(sess.User)
	s.token = sess.Token
	s.expiresAt = sess.ExpiresAt
}

// reset must be called with mu held.
func (s *Store) reset() {
	s.user = nil
	s.token = ""
	s.expiresAt = time.Time{}
	s.pending = false
	s.gen++
}

// ClearError resets LastError.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Identity:  cloneUser(s.user),
		Token:     s.token,
		Pending:   s.pending,
		LastError: s.lastErr,
	}
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// ExpiresAt returns the token expiry, zero when unknown.
func (s *Store) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Store) expiry(resp *model.TokenResponse) time.Time {
	if resp.ExpiresIn > 0 {
		return s.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tokenExpiry(resp.AccessToken)
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
