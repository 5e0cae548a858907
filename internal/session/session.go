// Package session holds the signed-in user's token, identity and mode.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"

	"github.com/nhle/taskflow/internal/credential"
	"github.com/nhle/taskflow/internal/model"
)

// ErrNotAdmin is returned when a non-admin tries to enter admin mode.
var ErrNotAdmin = errors.New("admin mode requires an admin account")

type persisted struct {
	Token     string         `json:"token"`
	User      model.AuthUser `json:"user"`
	AdminMode bool           `json:"admin_mode"`
}

// Session is the explicit replacement for scattered browser-storage flags.
// It is shared by the UI and the background poller, so every accessor
// takes the lock.
type Session struct {
	mu        gosync.RWMutex
	secrets   credential.Store
	logger    *slog.Logger
	token     string
	user      model.AuthUser
	profile   *model.Profile
	adminMode bool
	onLogout  []func()
}

// New creates an empty session persisted through secrets.
func New(secrets credential.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{secrets: secrets, logger: logger}
}

// Load restores a previously saved session. A missing entry leaves the
// session signed out without error.
func (s *Session) Load() error {
	raw, err := s.secrets.Get(credential.SessionKey)
	if errors.Is(err, credential.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("discarding unreadable session", slog.Any("error", err))
		return s.secrets.Delete(credential.SessionKey)
	}

	s.mu.Lock()
	s.token = p.Token
	s.user = p.User
	s.adminMode = p.AdminMode && p.User.IsAdmin
	s.mu.Unlock()
	return nil
}

// Begin starts a session after login. Admins start in admin mode.
func (s *Session) Begin(token string, user model.AuthUser) error {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.profile = nil
	s.adminMode = user.IsAdmin
	s.mu.Unlock()
	return s.save()
}

// SetToken replaces the token after a refresh.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.save()
}

// OnInvalidate registers fn to run after the session is cleared.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Invalidate clears the token, identity and admin mode. It is called on
// logout and by the API client on HTTP 401.
func (s *Session) Invalidate() {
	s.mu.Lock()
	wasSignedIn := s.token != ""
	s.token = ""
	s.user = model.AuthUser{}
	s.profile = nil
	s.adminMode = false
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	if err := s.secrets.Delete(credential.SessionKey); err != nil {
		s.logger.Warn("clearing stored session", slog.Any("error", err))
	}
	if wasSignedIn {
		for _, fn := range hooks {
			fn()
		}
	}
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignedIn reports whether a token is present.
func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

// User returns the signed-in identity.
func (s *Session) User() model.AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetProfile caches the latest profile.
func (s *Session) SetProfile(p *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	if p != nil && p.ID == s.user.ID {
		s.user.Name = p.Name
	}
}

// Profile returns the cached profile, or nil when none was fetched yet.
func (s *Session) Profile() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// ToggleAdminMode switches between admin and worker views.
func (s *Session) ToggleAdminMode() (bool, error) {
	s.mu.Lock()
	if !s.user.IsAdmin {
		s.mu.Unlock()
		return false, ErrNotAdmin
	}
	s.adminMode = !s.adminMode
	mode := s.adminMode
	s.mu.Unlock()
	return mode, s.save()
}

// AdminMode reports whether the admin console is active.
func (s *Session) AdminMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminMode
}

func (s *Session) save() error {
	s.mu.RLock()
	p := persisted{Token: s.token, User: s.user, AdminMode: s.adminMode}
	s.mu.RUnlock()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.secrets.Set(credential.SessionKey, string(data)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
