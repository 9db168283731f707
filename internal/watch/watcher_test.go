package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileWatcher_Validation(t *testing.T) {
	_, err := NewFileWatcher("", func([]byte) {}, nil)
	assert.Error(t, err)

	_, err = NewFileWatcher("/tmp/x", nil, nil)
	assert.Error(t, err)
}

func TestFileWatcher_DeliversContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	var mu sync.Mutex
	var got []string
	fw, err := NewFileWatcher(path, func(data []byte) {
		mu.Lock()
		got = append(got, string(data))
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	defer func() { _ = fw.Stop() }()

	// Unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("noise"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("second"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range got {
			if s == "second" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, s := range got {
		assert.NotEqual(t, "noise", s)
	}
}

func TestFileWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.txt")
	fw, err := NewFileWatcher(path, func([]byte) {}, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	require.NoError(t, fw.Start())

	assert.NoError(t, fw.Stop())
	assert.NotPanics(t, func() { _ = fw.Stop() })
}
