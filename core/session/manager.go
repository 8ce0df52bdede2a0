package session

import (
	"sync"

	"github.com/pkg/errors"
)

// LogoutHook is the navigation effect fired after a logout clears state;
// the web layer installs a redirect-to-login here. Kept separate from the
// clearing itself so the lifecycle stays testable without a UI.
type LogoutHook func()

// Manager owns the in-memory session state for one client process
// (one browser session in the web front-end). All writes go through it;
// the Store is a durable mirror, never a second writer.
type Manager struct {
	mu    sync.RWMutex
	curr  Session
	store Store

	onLogout LogoutHook
}

func NewManager(store Store) *Manager {
	m := &Manager{store: store}

	// Treat a persisted session as already logged in without re-validating
	// against the server; validation happens lazily on the first API call.
	if s, err := store.Load(); err == nil {
		m.curr = s
	}
	return m
}

// SetLogoutHook installs the effect fired once per terminal failure chain.
func (m *Manager) SetLogoutHook(h LogoutHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = h
}

// Current returns the session, valid or zero.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.curr
}

// LoggedIn reports whether a fully-populated session is held.
func (m *Manager) LoggedIn() bool {
	return m.Current().Valid()
}

// Login installs a fully-populated session (identity + token pair) and
// mirrors it to the store.
func (m *Manager) Login(s Session) error {
	if !s.Valid() {
		return errors.New("session: login requires identity and both tokens")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(s); err != nil {
		return errors.Wrap(err, "persisting session")
	}
	m.curr = s
	return nil
}

// UpdateTokens replaces just the token fields, leaving identity untouched.
// Used only by the refresh flow. If refresh is empty the existing refresh
// token is retained (rotation is optional per server response).
func (m *Manager) UpdateTokens(access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.curr.Valid() {
		return errors.New("session: no session to update")
	}
	m.curr.AccessToken = access
	if refresh != "" {
		m.curr.RefreshToken = refresh
	}
	return errors.Wrap(m.store.Save(m.curr), "persisting session")
}

// Logout clears the in-memory session and the store, then fires the logout
// hook. It is idempotent: with no session held it does nothing, so N
// concurrent terminal failures produce exactly one hook invocation.
func (m *Manager) Logout() {
	m.mu.Lock()
	if !m.curr.Valid() {
		m.mu.Unlock()
		return
	}
	m.curr = Session{}
	_ = m.store.Clear()
	hook := m.onLogout
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}
