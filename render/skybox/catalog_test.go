package skybox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "environments.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, `
# environments
default = dusk

meadow = hdr/meadow.hdr ; size=1024
dusk   = hdr/dusk.hdr
studio = /abs/studio.hdr ; size=256
`)
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	names := c.Names()
	if len(names) != 3 || names[0] != "meadow" || names[1] != "dusk" || names[2] != "studio" {
		t.Fatalf("names = %v", names)
	}

	meadow, ok := c.Get("meadow")
	if !ok || meadow.Size != 1024 {
		t.Fatalf("meadow = %+v, %v", meadow, ok)
	}
	if meadow.Path != filepath.Join(filepath.Dir(path), "hdr/meadow.hdr") {
		t.Fatalf("relative path not resolved: %s", meadow.Path)
	}

	dusk, _ := c.Get("dusk")
	if dusk.Size != defaultFaceSize {
		t.Fatalf("dusk size = %d", dusk.Size)
	}
	studio, _ := c.Get("studio")
	if studio.Path != "/abs/studio.hdr" {
		t.Fatalf("absolute path rewritten: %s", studio.Path)
	}

	if c.Default().Name != "dusk" {
		t.Fatalf("default = %s", c.Default().Name)
	}
	if _, ok := c.Get("nope"); ok {
		t.Fatal("unknown name should miss")
	}
}

func TestCatalogDefaultFallsBackToFirst(t *testing.T) {
	path := writeCatalog(t, `
default = missing
meadow = meadow.hdr
dusk = dusk.hdr
`)
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Default().Name != "meadow" {
		t.Fatalf("default = %s", c.Default().Name)
	}

	path = writeCatalog(t, "meadow = meadow.hdr\n")
	c, err = LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Default().Name != "meadow" {
		t.Fatalf("no default line: %s", c.Default().Name)
	}
}

func TestCatalogErrors(t *testing.T) {
	path := writeCatalog(t, "# nothing but comments\n")
	if _, err := LoadCatalog(path); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("empty: %v", err)
	}

	path = writeCatalog(t, "broken line without equals\n")
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("missing '=' should fail")
	}

	path = writeCatalog(t, "meadow = meadow.hdr ; size=banana\n")
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("bad size should fail")
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("missing file should fail")
	}
}
