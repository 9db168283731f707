package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/monolog/internal/config"
)

type fakeSounder struct {
	played      []string
	invalidated []string
	volume      float64
	closed      bool
	err         error
}

func (f *fakeSounder) Play(path string) error {
	f.played = append(f.played, path)
	return f.err
}
func (f *fakeSounder) Preload(string) error     { return nil }
func (f *fakeSounder) SetVolume(volume float64) { f.volume = volume }
func (f *fakeSounder) Invalidate(path string)   { f.invalidated = append(f.invalidated, path) }
func (f *fakeSounder) Close()                   { f.closed = true }

func TestChime_DisabledByDefault(t *testing.T) {
	s := &fakeSounder{}
	c := NewChime(s, config.DefaultConfig(), nil)

	assert.False(t, c.Enabled())
	require.NoError(t, c.Ring())
	assert.Empty(t, s.played)
	assert.InDelta(t, 0.8, s.volume, 0.001)
}

func TestChime_Rings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sound = "/tmp/chime.wav"
	cfg.Audio.Volume = 50

	s := &fakeSounder{}
	c := NewChime(s, cfg, nil)

	require.NoError(t, c.Ring())
	assert.Equal(t, []string{"/tmp/chime.wav"}, s.played)
	assert.InDelta(t, 0.5, s.volume, 0.001)
}

func TestChime_EnabledWithoutSound(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true

	c := NewChime(&fakeSounder{}, cfg, nil)
	assert.False(t, c.Enabled())
}

func TestChime_RingError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sound = "/tmp/chime.wav"

	c := NewChime(&fakeSounder{err: errors.New("no speaker")}, cfg, nil)
	assert.Error(t, c.Ring())
}

func TestChime_UpdateConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sound = "/tmp/a.wav"

	s := &fakeSounder{}
	c := NewChime(s, cfg, nil)

	next := config.DefaultConfig()
	next.Audio.Enabled = true
	next.Audio.Sound = "/tmp/b.wav"
	c.UpdateConfig(next)

	require.NoError(t, c.Ring())
	assert.Equal(t, []string{"/tmp/b.wav"}, s.played)
	assert.Equal(t, []string{"/tmp/a.wav"}, s.invalidated)
}

func TestChime_UpdateConfigFollowsSound(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")

	audioConfig := func(enabled bool, sound string) *config.Config {
		cfg := config.DefaultConfig()
		cfg.Audio.Enabled = enabled
		cfg.Audio.Sound = sound
		return cfg
	}

	tests := []struct {
		name        string
		start       *config.Config
		next        *config.Config
		notStarted  bool
		wantInitial string
		wantWatched string
	}{
		{
			name:        "sound path changed",
			start:       audioConfig(true, a),
			next:        audioConfig(true, b),
			wantInitial: a,
			wantWatched: b,
		},
		{
			name:        "enabled by reload",
			start:       audioConfig(false, ""),
			next:        audioConfig(true, a),
			wantInitial: "",
			wantWatched: a,
		},
		{
			name:        "disabled by reload",
			start:       audioConfig(true, a),
			next:        audioConfig(false, a),
			wantInitial: a,
			wantWatched: "",
		},
		{
			name:        "unchanged",
			start:       audioConfig(true, a),
			next:        audioConfig(true, a),
			wantInitial: a,
			wantWatched: a,
		},
		{
			name:        "not started",
			start:       audioConfig(false, ""),
			next:        audioConfig(true, a),
			notStarted:  true,
			wantInitial: "",
			wantWatched: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChime(&fakeSounder{}, tt.start, nil)
			defer c.Stop()
			if !tt.notStarted {
				require.NoError(t, c.Start())
			}
			assert.Equal(t, tt.wantInitial, c.watchedPath())

			c.UpdateConfig(tt.next)
			assert.Equal(t, tt.wantWatched, c.watchedPath())
		})
	}
}

func TestChime_StopClosesPlayer(t *testing.T) {
	s := &fakeSounder{}
	c := NewChime(s, nil, nil)
	require.NoError(t, c.Start())

	c.Stop()
	assert.True(t, s.closed)
}

func TestVolumeExponent(t *testing.T) {
	assert.InDelta(t, 0, volumeExponent(1), 0.0001)
	assert.InDelta(t, -1, volumeExponent(0.5), 0.0001)
	assert.InDelta(t, -2, volumeExponent(0.25), 0.0001)
	assert.Equal(t, -100.0, volumeExponent(0))
}

func TestPlayer_SetVolumeClamps(t *testing.T) {
	p := NewPlayer(nil)
	p.SetVolume(2)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())
}

func TestPlayer_EmptyPathIsNoop(t *testing.T) {
	p := NewPlayer(nil)
	assert.NoError(t, p.Play(""))
	assert.NoError(t, p.Preload(""))
}

func TestPlayer_UnsupportedFormat(t *testing.T) {
	path := t.TempDir() + "/sound.flac"
	require.NoError(t, writeFile(path))

	p := NewPlayer(nil)
	err := p.Play(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("not audio"), 0644)
}
