// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultFadeDuration = 300 * time.Millisecond
	DefaultLinger       = 5 * time.Second
	DefaultWidth        = 40
	DefaultPixelWidth   = 350
	DefaultOffset       = 10
	DefaultVolume       = 80
	DefaultEventFormat  = "plain"
	DefaultTheme        = "default"
)

// Config represents the monolog configuration.
// Loaded from ~/.config/monolog/config.toml
type Config struct {
	Fade    FadeConfig    `toml:"fade"`
	Widget  WidgetConfig  `toml:"widget"`
	Display DisplayConfig `toml:"display"`
	Audio   AudioConfig   `toml:"audio"`
	Events  EventsConfig  `toml:"events"`
}

// FadeConfig holds transition timing.
type FadeConfig struct {
	Duration Duration `toml:"duration"` // e.g. "300ms", "1s"
}

// WidgetConfig holds the defaults used to construct a widget.
type WidgetConfig struct {
	Content string `toml:"content"`
	Loader  bool   `toml:"loader"`
	Close   bool   `toml:"close"` // Attach the dismiss control
}

// DisplayConfig contains placement settings for hosts.
type DisplayConfig struct {
	Position   string   `toml:"position"`    // "top-right", "top-left", etc.
	OffsetX    int      `toml:"offset_x"`    // Cells (TUI) or pixels (GTK) from the edge
	OffsetY    int      `toml:"offset_y"`    // Cells (TUI) or pixels (GTK) from the edge
	Width      int      `toml:"width"`       // Panel width in cells
	PixelWidth int      `toml:"pixel_width"` // Panel width in pixels
	Linger     Duration `toml:"linger"`      // How long a notice stays before closing, 0 = until dismissed
	Theme      string   `toml:"theme"`       // Bundled theme name or path to a .css file (GTK)
}

// AudioConfig contains the opening chime settings.
type AudioConfig struct {
	Enabled bool   `toml:"enabled"`
	Volume  int    `toml:"volume"` // 0-100
	Sound   string `toml:"sound"`  // WAV, OGG or MP3 path
}

// EventsConfig controls the lifecycle event log.
type EventsConfig struct {
	Format  string `toml:"format"`  // plain, json, yaml
	Journal bool   `toml:"journal"` // monologd appends events to the journal file
}

// Position represents a panel position on the host surface.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomCenter Position = "bottom-center"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopRight,
		PositionTopCenter,
		PositionBottomLeft,
		PositionBottomRight,
		PositionBottomCenter,
	}
}

// ValidEventFormats returns all valid event log formats.
func ValidEventFormats() []string {
	return []string{"plain", "json", "yaml"}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Fade: FadeConfig{
			Duration: Duration(DefaultFadeDuration),
		},
		Widget: WidgetConfig{
			Content: "",
			Loader:  false,
			Close:   true,
		},
		Display: DisplayConfig{
			Position:   string(PositionTopRight),
			OffsetX:    DefaultOffset,
			OffsetY:    DefaultOffset,
			Width:      DefaultWidth,
			PixelWidth: DefaultPixelWidth,
			Linger:     Duration(DefaultLinger),
			Theme:      DefaultTheme,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  DefaultVolume,
		},
		Events: EventsConfig{
			Format:  DefaultEventFormat,
			Journal: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "monolog", "config.toml")
}

// DataPath returns the monolog data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "monolog")
}

// JournalPath returns the path to the daemon's event journal.
func JournalPath() string {
	return filepath.Join(DataPath(), "events.jsonl")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed and writes atomically via a temp file.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Marshal encodes the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Fade.Duration < 0 {
		return fmt.Errorf("fade duration must not be negative, got %s", c.Fade.Duration.Duration())
	}
	if c.Display.Linger < 0 {
		return fmt.Errorf("linger must not be negative, got %s", c.Display.Linger.Duration())
	}

	validPos := false
	for _, p := range ValidPositions() {
		if c.Display.Position == string(p) {
			validPos = true
			break
		}
	}
	if !validPos {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Display.Position, ValidPositions())
	}

	if c.Display.Width < 10 || c.Display.Width > 200 {
		return fmt.Errorf("width must be between 10 and 200, got %d", c.Display.Width)
	}
	if c.Display.PixelWidth < 100 || c.Display.PixelWidth > 1000 {
		return fmt.Errorf("pixel_width must be between 100 and 1000, got %d", c.Display.PixelWidth)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	validFormat := false
	for _, f := range ValidEventFormats() {
		if c.Events.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid event format %q, must be one of: %v", c.Events.Format, ValidEventFormats())
	}

	return nil
}

// SoundPath returns the chime path with ~ expanded.
func (c *Config) SoundPath() string {
	return expandPath(c.Audio.Sound)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
