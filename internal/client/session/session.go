// Package session persists the CLI login between runs. A saved session is
// discarded once its token has expired.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/postboard/internal/filex"
)

const fileName = "session.json"

// ErrNoSession is returned by Load when nothing usable is stored.
var ErrNoSession = errors.New("no active session")

// Session is a logged-in identity.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Remaining is the time left before expiry, never negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Store reads and writes the session file inside dir, which is resolved
// relative to the working directory and created on first use.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (st *Store) path() (string, error) {
	dir, err := filex.EnsureSubdDir(st.dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Save writes s with owner-only permissions.
func (st *Store) Save(s *Session) error {
	p, err := st.path()
	if err != nil {
		return err
	}

	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, p)
}

// Load returns the stored session. An expired or unreadable session is
// removed and reported as ErrNoSession.
func (st *Store) Load() (*Session, error) {
	p, err := st.path()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil || s.Token == "" || s.Expired(st.now()) {
		_ = os.Remove(p)
		return nil, ErrNoSession
	}
	return &s, nil
}

// Clear removes the stored session; a missing file is not an error.
func (st *Store) Clear() error {
	p, err := st.path()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
