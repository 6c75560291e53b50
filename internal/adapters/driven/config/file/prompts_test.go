package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

func testDefaults() map[string]string {
	return map[string]string{
		driven.PromptInterests:     "interests default",
		driven.PromptScriptOpening: "opening default",
	}
}

// TestNewPromptStore_DefaultDir tests the home directory fallback
func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("", nil)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".briefcast", "prompts"), store.Dir())
}

// TestPromptStore_Load_CreatesDefaultFiles tests lazy initialisation
func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	got, err := store.Load(driven.PromptInterests)
	require.NoError(t, err)
	assert.Equal(t, "interests default", got)

	for _, f := range []string{"interests.tmpl", "script_opening.tmpl", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

// TestPromptStore_Load_UserFile tests that edits win over defaults
func TestPromptStore_Load_UserFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interests.tmpl"), []byte("  custom  \n"), 0o600))
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	got, err := store.Load(driven.PromptInterests)
	require.NoError(t, err)
	assert.Equal(t, "custom", got)

	data, err := os.ReadFile(filepath.Join(dir, "interests.tmpl"))
	require.NoError(t, err)
	assert.Equal(t, "  custom  \n", string(data), "existing files are not overwritten")
}

// TestPromptStore_Load_EmptyFile tests the fallback for blank files
func TestPromptStore_Load_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script_opening.tmpl"), []byte("\n"), 0o600))
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	got, err := store.Load(driven.PromptScriptOpening)
	require.NoError(t, err)
	assert.Equal(t, "opening default", got)
}

// TestPromptStore_Load_Unknown tests an unknown name without a file
func TestPromptStore_Load_Unknown(t *testing.T) {
	store, err := NewPromptStore(t.TempDir(), testDefaults())
	require.NoError(t, err)

	_, err = store.Load("nope")
	assert.Error(t, err)
}

// TestPromptStore_Reload tests cache invalidation
func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	_, err = store.Load(driven.PromptInterests)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interests.tmpl"), []byte("v2"), 0o600))

	got, _ := store.Load(driven.PromptInterests)
	assert.Equal(t, "interests default", got, "cached until reload")

	store.Reload()
	got, _ = store.Load(driven.PromptInterests)
	assert.Equal(t, "v2", got)
}

// TestPromptStore_ConcurrentLoad tests concurrent access
func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir(), testDefaults())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Load(driven.PromptInterests)
			assert.NoError(t, err)
			assert.Equal(t, "interests default", got)
			if i%5 == 0 {
				store.Reload()
			}
		}()
	}
	wg.Wait()
}

// TestPromptStore_HandleFsEvent tests which events invalidate the cache
func TestPromptStore_HandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want string
		ok   bool
	}{
		{"write template", "interests.tmpl", fsnotify.Write, "interests", true},
		{"create template", "script_topic.tmpl", fsnotify.Create, "script_topic", true},
		{"remove template", "interests.tmpl", fsnotify.Remove, "interests", true},
		{"chmod ignored", "interests.tmpl", fsnotify.Chmod, "", false},
		{"readme ignored", "README.md", fsnotify.Write, "", false},
		{"editor swap ignored", ".interests.tmpl.swp", fsnotify.Write, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewPromptStore(dir, testDefaults())
			require.NoError(t, err)

			name, ok := store.handleFsEvent(fsnotify.Event{Name: filepath.Join(dir, tt.path), Op: tt.op})
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, name)
		})
	}
}

// TestPromptStore_Watch tests that file edits reach Load without Reload
func TestPromptStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed, err := store.Watch(ctx)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptInterests)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interests.tmpl"), []byte("edited"), 0o600))

	select {
	case name := <-changed:
		assert.Equal(t, driven.PromptInterests, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	assert.Eventually(t, func() bool {
		got, _ := store.Load(driven.PromptInterests)
		return got == "edited"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-changed
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}
