package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Library   LibraryConfig  `yaml:"library"`
	Playlists PlaylistConfig `yaml:"playlists"`
	Control   ControlConfig  `yaml:"control"`
	Playback  PlaybackConfig `yaml:"playback"`
	Artwork   ArtworkConfig  `yaml:"artwork"`
}

// LibraryConfig points at the music directory and tunes the watcher.
type LibraryConfig struct {
	Directory       string `yaml:"directory"`
	Watch           bool   `yaml:"watch"`
	DebounceSeconds int    `yaml:"debounce_seconds,omitempty"`
}

// PlaylistConfig locates the stored playlist directory.
type PlaylistConfig struct {
	Directory string `yaml:"directory"`
}

// ControlConfig configures the TCP control surface.
type ControlConfig struct {
	Addr string `yaml:"addr"`
}

// PlaybackConfig holds playback defaults.
type PlaybackConfig struct {
	Volume float64 `yaml:"volume"`
}

// ArtworkConfig tunes the cover art cache.
type ArtworkConfig struct {
	Directory string `yaml:"directory"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Library: LibraryConfig{
			Directory:       filepath.Join(home, "Music"),
			Watch:           true,
			DebounceSeconds: 2,
		},
		Playlists: PlaylistConfig{
			Directory: filepath.Join(home, ".local", "share", "chime", "playlists"),
		},
		Control: ControlConfig{
			Addr: "127.0.0.1:6601",
		},
		Playback: PlaybackConfig{
			Volume: 0.6,
		},
		Artwork: ArtworkConfig{
			Directory: filepath.Join(home, ".cache", "chime", "artwork"),
			MaxSizeMB: 64,
		},
	}
}

// LoadConfig reads a config file, falling back to defaults when the
// file does not exist. Loaded values are normalized.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.normalize()

	return cfg, nil
}

// SaveConfig writes the configuration as YAML.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultPath returns the first config file that exists, probing the
// working directory, the user config directory, then /etc. When none
// exists it returns the user config path so a save lands there.
func DefaultPath() string {
	candidates := []string{"chime.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "chime", "config.yaml"))
	}
	candidates = append(candidates, "/etc/chime/config.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "chime", "config.yaml")
	}
	return "chime.yaml"
}

// normalize clamps values a hand-edited file may have put out of range.
func (c *Config) normalize() {
	if c.Playback.Volume < 0 {
		c.Playback.Volume = 0
	}
	if c.Playback.Volume > 1 {
		c.Playback.Volume = 1
	}
	if c.Library.DebounceSeconds <= 0 {
		c.Library.DebounceSeconds = 2
	}
	if c.Artwork.MaxSizeMB <= 0 {
		c.Artwork.MaxSizeMB = 64
	}
}
