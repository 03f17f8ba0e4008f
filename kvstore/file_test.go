package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "nested", "settings"))
	require.NoError(t, err)
	runAcceptance(t, f)
}

func TestFile_Layout(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.Set("ai_config", `{"a":1}`))
	b, err := os.ReadFile(filepath.Join(dir, "ai_config.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFile_InvalidKey(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", "with space"} {
		require.Error(t, f.Set(key, "x"), key)
		_, _, err := f.Get(key)
		require.Error(t, err, key)
	}
}

func TestFile_Watch(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	f.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- f.Watch(ctx, "ai_config", func() { changed <- struct{}{} })
	}()

	// give the watcher time to register before writing
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, f.Set("other", "ignored"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ai_config.json"), []byte(`{"provider":"kimi"}`), 0o600))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
