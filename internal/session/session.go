// Package session owns the administrator's authenticated context: the bearer
// token and role returned by login, kept in a Store keyed by a console
// session id.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/util"
	"github.com/ctks/admin-console/internal/validation"
)

const RoleAdmin = "admin"

// NotAdminMessage is shown to an account that signs in without the admin role.
const NotAdminMessage = "You do not have admin privileges"

var (
	ErrNoSession    = errors.New("no session")
	ErrNotAdmin     = errors.New("account does not have the admin role")
	ErrLoginRefused = errors.New("invalid login response")
)

type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Session) IsAdmin() bool { return s != nil && s.Token != "" && s.Role == RoleAdmin }

// Store persists sessions. Get returns ErrNoSession for unknown ids.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager is the single authority over session state. Forced logout
// (Invalidate) and explicit logout both go through it.
type Manager struct {
	store  Store
	api    *apiclient.Client
	log    *zap.Logger
	mu     sync.Mutex
	onDrop []func(id string)
}

func NewManager(store Store, api *apiclient.Client, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, api: api, log: log}
}

// OnDrop registers a callback run after a session is removed, explicitly or
// forcibly. The console uses it to discard per-session screen state.
func (m *Manager) OnDrop(fn func(id string)) {
	m.mu.Lock()
	m.onDrop = append(m.onDrop, fn)
	m.mu.Unlock()
}

// Login authenticates against the backend. A session is stored only when the
// response carries both token and role; a non-admin role is refused and
// nothing is stored.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	if err := validation.Credentials(username, password); err != nil {
		return nil, err
	}
	res, err := m.api.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return nil, err
	}
	if res.Token == "" || res.Role == "" {
		return nil, ErrLoginRefused
	}
	if res.Role != RoleAdmin {
		m.log.Info("non-admin login refused", zap.String("username", username), zap.String("role", res.Role))
		return nil, ErrNotAdmin
	}

	s := &Session{
		ID:        util.NewID(),
		Token:     res.Token,
		Role:      res.Role,
		Username:  strings.TrimSpace(username),
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.log.Info("admin logged in", zap.String("session_id", s.ID), zap.String("username", s.Username))
	return s, nil
}

// Current returns the stored session, or ErrNoSession.
func (m *Manager) Current(ctx context.Context, id string) (*Session, error) {
	return m.store.Get(ctx, id)
}

// Client returns an API client bound to the session's token. A 401/403 from
// any call made with it invalidates the session.
func (m *Manager) Client(s *Session) *apiclient.Client {
	id := s.ID
	return m.api.WithBearer(s.Token, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.Invalidate(ctx, id)
	})
}

// Logout notifies the backend and clears the session even when the backend
// call fails.
func (m *Manager) Logout(ctx context.Context, id string) error {
	s, err := m.Current(ctx, id)
	if err != nil {
		return err
	}

	// the hook must not re-enter Invalidate while we are logging out
	apiErr := m.api.WithBearer(s.Token, nil).Logout(ctx)
	if apiErr != nil {
		m.log.Warn("backend logout failed; clearing local session anyway",
			zap.String("session_id", id), zap.Error(apiErr))
	}
	m.drop(ctx, id)
	return nil
}

// Invalidate clears the session without calling the backend.
func (m *Manager) Invalidate(ctx context.Context, id string) {
	m.log.Info("session invalidated", zap.String("session_id", id))
	m.drop(ctx, id)
}

func (m *Manager) drop(ctx context.Context, id string) {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNoSession) {
		m.log.Error("delete session", zap.String("session_id", id), zap.Error(err))
	}
	m.mu.Lock()
	hooks := append([]func(string){}, m.onDrop...)
	m.mu.Unlock()
	for _, fn := range hooks {
		fn(id)
	}
}
