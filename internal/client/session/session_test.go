package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	st := NewStore(".postboard")
	st.now = func() time.Time { return now }
	return st
}

func TestStore_SaveLoad(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := newTestStore(t, now)

	in := &Session{Token: "tok", AccountID: "u1", Email: "a@b.c", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, st.Save(in))

	fi, err := os.Stat(filepath.Join(".postboard", fileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	got, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, in.Token, got.Token)
	assert.Equal(t, in.Email, got.Email)
	assert.True(t, in.ExpiresAt.Equal(got.ExpiresAt))
}

func TestStore_LoadMissing(t *testing.T) {
	st := newTestStore(t, time.Now())

	_, err := st.Load()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStore_LoadExpiredRemovesFile(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := newTestStore(t, now)

	require.NoError(t, st.Save(&Session{Token: "tok", ExpiresAt: now}))

	_, err := st.Load()
	require.ErrorIs(t, err, ErrNoSession)

	_, err = os.Stat(filepath.Join(".postboard", fileName))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_LoadCorrupt(t *testing.T) {
	st := newTestStore(t, time.Now())

	require.NoError(t, os.MkdirAll(".postboard", 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(".postboard", fileName), []byte("{"), 0o600))

	_, err := st.Load()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStore_Clear(t *testing.T) {
	now := time.Now()
	st := newTestStore(t, now)

	require.NoError(t, st.Clear(), "clearing nothing is fine")
	require.NoError(t, st.Save(&Session{Token: "tok", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, st.Clear())

	_, err := st.Load()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSession_Remaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(90 * time.Second)}

	assert.Equal(t, 90*time.Second, s.Remaining(now))
	assert.Equal(t, time.Duration(0), s.Remaining(now.Add(time.Hour)))
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(90*time.Second)))
}
