package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte("[fade]\nduration = \"120ms\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 120*time.Millisecond, cfg.Fade.Duration.Duration())

	_, err = Parse([]byte("[display]\nposition = \"nowhere\"\n"))
	assert.Error(t, err)
}

func TestWatcher_ApplyKeepsLastValid(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "config.toml"), nil, nil)
	require.NoError(t, err)

	var reloaded *Config
	var failures int
	w.SetReloadCallback(func(cfg *Config) { reloaded = cfg })
	w.SetErrorCallback(func(error) { failures++ })

	w.apply([]byte("[fade]\nduration = \"900ms\"\n"))
	require.NotNil(t, reloaded)
	assert.Equal(t, 900*time.Millisecond, w.Current().Fade.Duration.Duration())

	w.apply([]byte("[events]\nformat = \"csv\"\n"))
	assert.Equal(t, 1, failures)
	assert.Equal(t, 900*time.Millisecond, w.Current().Fade.Duration.Duration())
}

func TestWatcher_ReloadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[fade]\nduration = \"300ms\"\n"), 0644))

	w, err := NewWatcher(path, DefaultConfig(), nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var last time.Duration
	w.SetReloadCallback(func(cfg *Config) {
		mu.Lock()
		last = cfg.Fade.Duration.Duration()
		mu.Unlock()
	})
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("[fade]\nduration = \"2s\"\n"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last == 2*time.Second
	}, 5*time.Second, 20*time.Millisecond)
}
