package loader

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-layers/internal/layer"
)

// Source names one GeoJSON document to load. Exactly one of Path, URL or
// Data is set. CRS is the source coordinate system of the document; Target,
// when set, overrides the target the caller loads with.
type Source struct {
	Name   string
	Path   string
	URL    string
	Data   []byte
	CRS    string
	Target string
}

// Label returns a human-readable name for the source.
func (s Source) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Path != "":
		return filepath.Base(s.Path)
	case s.URL != "":
		return s.URL
	}
	return "bytes"
}

// Load stages the source, reprojecting to target unless s.Target is set.
func (l *Loader) Load(ctx context.Context, s Source, target string) ([]*layer.UnassignedLayer, error) {
	if s.Target != "" {
		target = s.Target
	}
	switch {
	case s.Path != "":
		staged, err := l.FromPath(ctx, s.Path, s.CRS, target)
		if err == nil && s.Name != "" {
			for _, u := range staged {
				u.Name = s.Name
			}
		}
		return staged, err
	case s.URL != "":
		return l.FromNetwork(ctx, s.Label(), s.URL, s.CRS, target)
	case s.Data != nil:
		return l.FromBytes(ctx, s.Label(), s.Data, s.CRS, target)
	}
	return nil, fmt.Errorf("%w: source has no path, url or data", ErrIO)
}

// Result is the outcome of loading one Source.
type Result struct {
	Source Source
	Layers []*layer.UnassignedLayer
	Err    error
}

// maxParallel bounds concurrent loads in LoadAll.
const maxParallel = 4

// LoadAll loads every source concurrently. A failing source does not stop
// the others; results are returned in input order.
func (l *Loader) LoadAll(ctx context.Context, sources []Source, target string) []Result {
	results := make([]Result, len(sources))
	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, s := range sources {
		g.Go(func() error {
			staged, err := l.Load(ctx, s, target)
			if err != nil {
				l.logger.Warn("failed to load source", "source", s.Label(), "error", err)
			}
			results[i] = Result{Source: s, Layers: staged, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
