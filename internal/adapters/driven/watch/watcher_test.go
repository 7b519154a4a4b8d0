package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForChange(t *testing.T, w *FSWatcher) bool {
	t.Helper()
	select {
	case _, ok := <-w.Changes():
		return ok
	case <-time.After(2 * time.Second):
		return false
	}
}

func TestFSWatcher_SignalsOnDatabaseWrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "session.db")

	w, err := NewFSWatcher(dbPath)
	require.NoError(t, err)
	defer w.Close()

	for _, name := range []string{"session.db", "session.db-wal", "session.db-journal"} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
			assert.True(t, waitForChange(t, w))
		})
	}
}

func TestFSWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFSWatcher(filepath.Join(dir, "session.db"))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("x"), 0600))

	select {
	case <-w.Changes():
		t.Fatal("unexpected change signal")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFSWatcher_CoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "session.db")
	w, err := NewFSWatcher(dbPath)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 20; i++ {
		require.NoError(t, os.WriteFile(dbPath, []byte{byte(i)}, 0600))
	}
	time.Sleep(200 * time.Millisecond)

	assert.LessOrEqual(t, len(w.changes), 1)
}

func TestFSWatcher_CloseClosesChanges(t *testing.T) {
	w, err := NewFSWatcher(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close(), "second close is a no-op")

	_, ok := <-w.Changes()
	assert.False(t, ok)
}

func TestNewFSWatcher_MissingDirectory(t *testing.T) {
	_, err := NewFSWatcher(filepath.Join(t.TempDir(), "missing", "session.db"))
	assert.Error(t, err)
}
