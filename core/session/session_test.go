package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore is a minimal in-package Store for manager tests.
type mapStore struct {
	saved   *Session
	saveErr error
}

func (s *mapStore) Save(sess Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &sess
	return nil
}

func (s *mapStore) Load() (Session, error) {
	if s.saved == nil || !s.saved.Valid() {
		return Session{}, ErrAbsent
	}
	return *s.saved, nil
}

func (s *mapStore) Clear() error {
	s.saved = nil
	return nil
}

func (s *mapStore) SaveTheme(string) error { return nil }

func (s *mapStore) LoadTheme() (string, error) { return "", nil }

func studentSession() Session {
	return Session{
		UserID:       1,
		Username:     "amina",
		Email:        "amina@jualearn.test",
		Role:         RoleStudent,
		FirstName:    "Amina",
		AccessToken:  "A1",
		RefreshToken: "R1",
	}
}

func Test_Allowed(t *testing.T) {
	student := studentSession()

	tests := []struct {
		name  string
		sess  Session
		roles []Role
		want  bool
	}{
		{"student requires teacher", student, []Role{RoleTeacher}, false},
		{"student requires student", student, []Role{RoleStudent}, true},
		{"student requires any of teacher/admin", student, []Role{RoleTeacher, RoleAdmin}, false},
		{"student requires any of student/teacher", student, []Role{RoleStudent, RoleTeacher}, true},
		{"no requirement only demands a valid session", student, nil, true},
		{"absent session denies everything", Session{}, []Role{RoleStudent}, false},
		{"absent session denies even empty requirement", Session{}, nil, false},
		{"missing access token is absent", Session{Username: "x", Role: RoleAdmin, RefreshToken: "R"}, []Role{RoleAdmin}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.sess, tt.roles...))
		})
	}
}

func Test_Manager_loginLogout(t *testing.T) {
	store := &mapStore{}
	mgr := NewManager(store)
	assert.False(t, mgr.LoggedIn())

	// partial session rejected
	assert.Error(t, mgr.Login(Session{Username: "amina"}))

	sess := studentSession()
	require.NoError(t, mgr.Login(sess))
	assert.True(t, mgr.LoggedIn())
	assert.Equal(t, sess, mgr.Current())
	require.NotNil(t, store.saved) // mirrored to the store

	var hookCalls int
	mgr.SetLogoutHook(func() { hookCalls++ })

	mgr.Logout()
	assert.False(t, mgr.LoggedIn())
	assert.Nil(t, store.saved)
	assert.Equal(t, 1, hookCalls)

	// idempotent: a second terminal failure does not re-fire the hook
	mgr.Logout()
	assert.Equal(t, 1, hookCalls)
}

func Test_Manager_initFromStore(t *testing.T) {
	store := &mapStore{}
	sess := studentSession()
	require.NoError(t, store.Save(sess))

	// a persisted session counts as logged in without server validation
	mgr := NewManager(store)
	assert.Equal(t, sess, mgr.Current())
}

func Test_Manager_updateTokens(t *testing.T) {
	store := &mapStore{}
	mgr := NewManager(store)

	// no session to update
	assert.Error(t, mgr.UpdateTokens("A2", ""))

	require.NoError(t, mgr.Login(studentSession()))

	// rotation supplied: both tokens replaced, identity untouched
	require.NoError(t, mgr.UpdateTokens("A2", "R2"))
	curr := mgr.Current()
	assert.Equal(t, "A2", curr.AccessToken)
	assert.Equal(t, "R2", curr.RefreshToken)
	assert.Equal(t, "amina", curr.Username)

	// no rotation: the existing refresh token is retained
	require.NoError(t, mgr.UpdateTokens("A3", ""))
	curr = mgr.Current()
	assert.Equal(t, "A3", curr.AccessToken)
	assert.Equal(t, "R2", curr.RefreshToken)

	// mirror kept in sync
	assert.Equal(t, curr, *store.saved)
}
