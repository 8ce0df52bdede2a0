package localstore

import (
	"encoding/json"
	"sync"

	"github.com/jualearn/jualearn-web/core/session"
)

// InMemStore is a map-backed session.Store used by tests and per-browser
// web sessions, where durability across process restarts is not wanted.
type InMemStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ session.Store = (*InMemStore)(nil)

func NewInMem() *InMemStore {
	return &InMemStore{data: make(map[string]string)}
}

func (s *InMemStore) Save(sess session.Session) error {
	identity, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session.KeyAccessToken] = sess.AccessToken
	s.data[session.KeyRefreshToken] = sess.RefreshToken
	s.data[session.KeyUser] = string(identity)
	return nil
}

func (s *InMemStore) Load() (session.Session, error) {
	s.mu.RLock()
	access := s.data[session.KeyAccessToken]
	refresh := s.data[session.KeyRefreshToken]
	identity := s.data[session.KeyUser]
	s.mu.RUnlock()

	if access == "" || refresh == "" || identity == "" {
		return session.Session{}, session.ErrAbsent
	}
	var sess session.Session
	if err := json.Unmarshal([]byte(identity), &sess); err != nil {
		return session.Session{}, session.ErrAbsent
	}
	sess.AccessToken = access
	sess.RefreshToken = refresh
	if !sess.Valid() {
		return session.Session{}, session.ErrAbsent
	}
	return sess, nil
}

func (s *InMemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, session.KeyAccessToken)
	delete(s.data, session.KeyRefreshToken)
	delete(s.data, session.KeyUser)
	return nil
}

func (s *InMemStore) SaveTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session.KeyTheme] = theme
	return nil
}

func (s *InMemStore) LoadTheme() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[session.KeyTheme], nil
}

// Corrupt overwrites or removes a single key, simulating partial storage
// damage in tests.
func (s *InMemStore) Corrupt(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.data, key)
		return
	}
	s.data[key] = value
}
