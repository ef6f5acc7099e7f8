package device

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("alexa: []\n"), 0o600))

	r := NewRegistry()
	_, err := r.Reload(path)
	require.NoError(t, err)

	var reloads atomic.Int32
	w := NewWatcher(r, path, 50*time.Millisecond)
	w.SetOnReload(func(_ *Snapshot, err error) {
		if err == nil {
			reloads.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o600))

	assert.Eventually(t, func() bool { return r.Len() == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))

	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("alexa: []\n"), 0o600))

	r := NewRegistry()
	var reloads atomic.Int32
	w := NewWatcher(r, path, 300*time.Millisecond)
	w.SetOnReload(func(*Snapshot, error) { reloads.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	for n := 0; n < 5; n++ {
		require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o600))
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return reloads.Load() == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("alexa: []\n"), 0o600))

	r := NewRegistry()
	var reloads atomic.Int32
	w := NewWatcher(r, path, 50*time.Millisecond)
	w.SetOnReload(func(*Snapshot, error) { reloads.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x"), 0o600))
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, int32(0), reloads.Load())
}

func TestWatcher_BadReloadKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o600))

	r := NewRegistry()
	_, err := r.Reload(path)
	require.NoError(t, err)

	failed := make(chan error, 4)
	w := NewWatcher(r, path, 50*time.Millisecond)
	w.SetOnReload(func(_ *Snapshot, err error) {
		if err != nil {
			failed <- err
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(path, []byte("not: [valid\n"), 0o600))

	select {
	case err := <-failed:
		assert.ErrorIs(t, err, ErrInvalidDocument)
	case <-time.After(5 * time.Second):
		t.Fatal("no failed reload reported")
	}
	assert.Equal(t, 2, r.Len())
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w := NewWatcher(NewRegistry(), filepath.Join(t.TempDir(), "absent", "config.yml"), 0)
	assert.Error(t, w.Start(context.Background()))
}
