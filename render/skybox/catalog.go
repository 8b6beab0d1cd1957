package skybox

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultFaceSize = 512

// Entry describes one environment in the catalog.
type Entry struct {
	Name string
	Path string
	// Size is the cubemap face edge length in pixels.
	Size int
}

// Catalog is the list of environments available to the skybox, loaded
// from a small text file. Each line reads
//
//	name = path/to/panorama.hdr ; size=512
//
// with '#' starting a comment and an optional "default=name" line naming
// the environment selected at startup.
type Catalog struct {
	entries []Entry
	byName  map[string]int
	def     string
}

// LoadCatalog reads a catalog file. Relative panorama paths resolve
// against the catalog's directory.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("skybox: opening catalog %s: %w", path, err)
	}
	defer f.Close()

	c := &Catalog{byName: make(map[string]int)}
	dir := filepath.Dir(path)

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			return nil, fmt.Errorf("skybox: catalog %s line %d: missing '='", path, lineNo)
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		if key == "default" {
			c.def = value
			continue
		}

		entry := Entry{Name: key, Size: defaultFaceSize}
		parts := strings.Split(value, ";")
		entry.Path = strings.TrimSpace(parts[0])
		if !filepath.IsAbs(entry.Path) {
			entry.Path = filepath.Join(dir, entry.Path)
		}
		for _, part := range parts[1:] {
			part = strings.TrimSpace(part)
			if after, ok := strings.CutPrefix(part, "size="); ok {
				size, err := strconv.Atoi(strings.TrimSpace(after))
				if err != nil || size <= 0 {
					return nil, fmt.Errorf("skybox: catalog %s line %d: bad size %q", path, lineNo, after)
				}
				entry.Size = size
			}
		}
		c.byName[entry.Name] = len(c.entries)
		c.entries = append(c.entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("skybox: reading catalog %s: %w", path, err)
	}
	if len(c.entries) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

// Names returns the environment names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Get looks an environment up by name.
func (c *Catalog) Get(name string) (Entry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Default returns the entry named by the default line, falling back to
// the first entry when the line is absent or names a missing entry.
func (c *Catalog) Default() Entry {
	if i, ok := c.byName[c.def]; ok {
		return c.entries[i]
	}
	return c.entries[0]
}
