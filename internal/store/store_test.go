package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutAndGet(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	e, err := s.Put("greeting", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Revision)
	assert.False(t, e.UpdatedAt.IsZero())

	got, ok := s.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), got.Value)
	assert.Equal(t, e.Revision, got.Revision)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_PutBumpsRevision(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	first, err := s.Put("k", []byte("a"))
	require.NoError(t, err)
	second, err := s.Put("k", []byte("b"))
	require.NoError(t, err)

	assert.Greater(t, second.Revision, first.Revision)
	assert.Equal(t, second.Revision, s.Revision())
}

func TestStore_Delete(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	_, err = s.Put("k", []byte("v"))
	require.NoError(t, err)

	rev, existed, err := s.Delete("k")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, int64(2), rev)

	_, ok := s.Get("k")
	assert.False(t, ok)

	_, existed, err = s.Delete("k")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestStore_KeysSortedAndLen(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	for _, k := range []string{"cherry", "apple", "banana"} {
		_, err := s.Put(k, []byte("x"))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"apple", "banana", "cherry"}, s.Keys())
	assert.Equal(t, 3, s.Len())
}

func TestStore_SyncWithoutJournal(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	assert.NoError(t, s.Sync())
	assert.NoError(t, s.Close())
}

func TestStore_JournalReplayRestoresState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keva.journal")

	j, err := Open(path)
	require.NoError(t, err)
	s, err := New(j)
	require.NoError(t, err)

	_, err = s.Put("alpha", []byte("1"))
	require.NoError(t, err)
	_, err = s.Put("beta", []byte("2"))
	require.NoError(t, err)
	_, err = s.Put("alpha", []byte("updated"))
	require.NoError(t, err)
	_, _, err = s.Delete("beta")
	require.NoError(t, err)
	require.NoError(t, s.Sync())
	require.NoError(t, s.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	restored, err := New(j2)
	require.NoError(t, err)
	defer func() { _ = restored.Close() }()

	alpha, ok := restored.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, []byte("updated"), alpha.Value)

	_, ok = restored.Get("beta")
	assert.False(t, ok)

	// Replay must resume the revision counter, not restart it.
	assert.Equal(t, int64(4), restored.Revision())
	next, err := restored.Put("gamma", []byte("3"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), next.Revision)
}

func TestJournal_ReplayEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keva.journal")

	j, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	count := 0
	require.NoError(t, j.Replay(func(Record) { count++ }))
	assert.Zero(t, count)
}
