// Package localstore provides the durable key-value store backing the
// session lifecycle: access token, refresh token and serialized identity,
// plus the theme preference. Values are opaque; nothing here touches the
// network or validates token contents.
package localstore

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/jualearn/jualearn-web/core/session"
)

// SQLiteStore implements session.Store on a single-table sqlite file, the
// local analog of the browser build's origin-scoped storage.
type SQLiteStore struct {
	db *sql.DB
}

var _ session.Store = (*SQLiteStore)(nil)

func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating store directory")
	}

	dsn := path + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening store")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "pinging store")
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, errors.Wrap(err, "initializing store schema")
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS local_store (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Save writes all three session values, overwriting any prior values.
func (s *SQLiteStore) Save(sess session.Session) error {
	identity, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "serializing identity")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning save")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for key, value := range map[string]string{
		session.KeyAccessToken:  sess.AccessToken,
		session.KeyRefreshToken: sess.RefreshToken,
		session.KeyUser:         string(identity),
	} {
		if err := s.setTx(tx, key, value); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "committing save")
}

// Load returns the last-saved session. If any of the three keys is
// missing or unparseable the whole session is treated as absent; a half
// session is never resurrected.
func (s *SQLiteStore) Load() (session.Session, error) {
	access, err := s.get(session.KeyAccessToken)
	if err != nil {
		return session.Session{}, err
	}
	refresh, err := s.get(session.KeyRefreshToken)
	if err != nil {
		return session.Session{}, err
	}
	identity, err := s.get(session.KeyUser)
	if err != nil {
		return session.Session{}, err
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

// Clear removes the three session keys. The theme preference survives.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(
		`DELETE FROM local_store WHERE key IN (?, ?, ?)`,
		session.KeyAccessToken, session.KeyRefreshToken, session.KeyUser,
	)
	return errors.Wrap(err, "clearing session keys")
}

func (s *SQLiteStore) SaveTheme(theme string) error {
	return s.set(session.KeyTheme, theme)
}

func (s *SQLiteStore) LoadTheme() (string, error) {
	theme, err := s.get(session.KeyTheme)
	if errors.Cause(err) == session.ErrAbsent {
		return "", nil
	}
	return theme, err
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM local_store WHERE key = ?`, key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", session.ErrAbsent
	case err != nil:
		return "", errors.Wrapf(err, "reading %q", key)
	case value == "":
		return "", session.ErrAbsent
	}
	return value, nil
}

func (s *SQLiteStore) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO local_store (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return errors.Wrapf(err, "writing %q", key)
}

func (s *SQLiteStore) setTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(
		`INSERT INTO local_store (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return errors.Wrapf(err, "writing %q", key)
}
