// Package config loads the campus catalog: the floor-plan image, the pin
// thumbnail table and the category colors.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed campus.yaml
var defaultCatalog []byte

// Catalog describes one campus map.
type Catalog struct {
	MapImage        string            `yaml:"map_image"`
	IconPlaceholder string            `yaml:"icon_placeholder"`
	Thumbnails      map[string]string `yaml:"thumbnails"`
	Colors          map[string]string `yaml:"colors"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(defaultCatalog, &c); err != nil {
		return nil, fmt.Errorf("parsing embedded catalog: %w", err)
	}
	c.normalize()
	return &c, nil
}

// Load reads a catalog file and layers it over the embedded default. An empty
// path returns the default.
func Load(path string) (*Catalog, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	override.normalize()

	if override.MapImage != "" {
		base.MapImage = override.MapImage
	}
	if override.IconPlaceholder != "" {
		base.IconPlaceholder = override.IconPlaceholder
	}
	for k, v := range override.Thumbnails {
		base.Thumbnails[k] = v
	}
	for k, v := range override.Colors {
		base.Colors[k] = v
	}
	return base, nil
}

// normalize lowercases thumbnail keys so lookups are case-insensitive.
func (c *Catalog) normalize() {
	thumbs := make(map[string]string, len(c.Thumbnails))
	for k, v := range c.Thumbnails {
		thumbs[strings.ToLower(strings.TrimSpace(k))] = v
	}
	c.Thumbnails = thumbs
	if c.Colors == nil {
		c.Colors = map[string]string{}
	}
}
