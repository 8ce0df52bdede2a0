package session

import "github.com/pkg/errors"

// ErrAbsent is returned by Store.Load when no complete session is persisted.
var ErrAbsent = errors.New("no session in store")

// Storage keys, kept compatible with the browser build of the client.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyTheme        = "theme"
)

// Store is durable key-value persistence for the current session:
// access token, refresh token and serialized identity. It performs no
// network access and no validation of token contents.
//
// Load must treat partial data as absent: if any of the three session
// keys is missing or unparseable, it returns ErrAbsent rather than a
// half-populated session.
type Store interface {
	Save(s Session) error
	Load() (Session, error)
	Clear() error

	// Theme is a UI preference rider on the same store, unrelated to
	// session correctness; it survives Clear.
	SaveTheme(theme string) error
	LoadTheme() (string, error)
}
