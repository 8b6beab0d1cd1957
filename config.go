package vk3d

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config controls window, renderer and asset settings. Zero or missing
// fields fall back to the defaults from DefaultConfig.
type Config struct {
	Window WindowConfig `toml:"window"`
	Paths  PathsConfig  `toml:"paths"`
}

// WindowConfig controls the window and presentation.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Vsync  bool   `toml:"vsync"`
}

// PathsConfig locates on-disk resources.
type PathsConfig struct {
	// Shaders is the directory holding the compiled SPIR-V binaries.
	Shaders string `toml:"shaders"`
	// SkyboxCatalog is the environment list; empty disables the skybox.
	SkyboxCatalog string `toml:"skybox_catalog"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:  "vk3d",
			Width:  1280,
			Height: 720,
			Vsync:  true,
		},
		Paths: PathsConfig{
			Shaders: "shaders",
		},
	}
}

// LoadConfig reads a TOML file over the defaults. A missing file is not
// an error; the defaults are returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("vk3d: loading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		Logger().Warn("unknown config keys", "path", path, "keys", fmt.Sprint(undecoded))
	}
	return cfg.withDefaults(), nil
}

// withDefaults backfills zero values so partial files stay usable.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Window.Title == "" {
		c.Window.Title = def.Window.Title
	}
	if c.Window.Width <= 0 {
		c.Window.Width = def.Window.Width
	}
	if c.Window.Height <= 0 {
		c.Window.Height = def.Window.Height
	}
	if c.Paths.Shaders == "" {
		c.Paths.Shaders = def.Paths.Shaders
	}
	return c
}
