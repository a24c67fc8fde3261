// Package config loads the layer manifest preloaded at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-layers/internal/loader"
)

// Manifest lists layers to ingest when the server starts.
type Manifest struct {
	// TargetCRS overrides the server's target CRS when set.
	TargetCRS string          `yaml:"target_crs"`
	Layers    []ManifestLayer `yaml:"layers"`
}

// ManifestLayer is one entry of a manifest. Exactly one of Path or URL is
// set. Relative paths are resolved against the manifest's directory.
type ManifestLayer struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
	CRS  string `yaml:"crs"`
}

// DefaultSourceCRS applies to manifest entries without a crs.
const DefaultSourceCRS = "EPSG:4326"

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}

	base := filepath.Dir(path)
	for i := range m.Layers {
		l := &m.Layers[i]
		if (l.Path == "") == (l.URL == "") {
			return Manifest{}, fmt.Errorf("manifest layer %d: exactly one of path or url is required", i)
		}
		if l.Path != "" && !filepath.IsAbs(l.Path) {
			l.Path = filepath.Join(base, l.Path)
		}
		if l.CRS == "" {
			l.CRS = DefaultSourceCRS
		}
	}
	return m, nil
}

// Sources converts the manifest entries to loader sources.
func (m Manifest) Sources() []loader.Source {
	out := make([]loader.Source, 0, len(m.Layers))
	for _, l := range m.Layers {
		out = append(out, loader.Source{Name: l.Name, Path: l.Path, URL: l.URL, CRS: l.CRS})
	}
	return out
}
