package vk3d

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Fatalf("default window = %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Vsync {
		t.Fatal("vsync should default on")
	}
	if cfg.Paths.Shaders == "" {
		t.Fatal("shader dir should have a default")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vk3d.toml")
	content := `
[window]
title = "demo"
width = 800
height = 600
vsync = false

[paths]
shaders = "out/spv"
skybox_catalog = "env/catalog.txt"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "demo" || cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Fatalf("window = %+v", cfg.Window)
	}
	if cfg.Window.Vsync {
		t.Fatal("vsync should be off")
	}
	if cfg.Paths.Shaders != "out/spv" || cfg.Paths.SkyboxCatalog != "env/catalog.txt" {
		t.Fatalf("paths = %+v", cfg.Paths)
	}
}

func TestLoadConfigPartialBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vk3d.toml")
	if err := os.WriteFile(path, []byte("[window]\nwidth = 640\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != 640 {
		t.Fatalf("width = %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 || cfg.Window.Title == "" || cfg.Paths.Shaders == "" {
		t.Fatalf("defaults not backfilled: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vk3d.toml")
	if err := os.WriteFile(path, []byte("[window\nbroken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed TOML should fail")
	}
}
