package layer

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-layers/internal/crs"
)

// FromGeometry stages a geometry for insertion: it derives the unprojected
// bound, reprojects a copy from source to target, recomputes the bound from
// the projected coordinates and allocates a color.
func FromGeometry(g orb.Geometry, name string, metadata Metadata, source, target string, palette *ColorAllocator) (*UnassignedLayer, error) {
	unprojectedBound, err := BoundingRect(g)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", name, err)
	}

	projected, err := crs.Reproject(g, source, target)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", name, err)
	}

	projectedBound, err := BoundingRect(projected)
	if err != nil {
		return nil, fmt.Errorf("layer %q projected: %w", name, err)
	}

	if metadata == nil {
		metadata = Metadata{}
	}
	return &UnassignedLayer{
		Name:                name,
		UnprojectedGeometry: g,
		UnprojectedBound:    unprojectedBound,
		ProjectedGeometry:   projected,
		ProjectedBound:      projectedBound,
		Color:               palette.Next(),
		Metadata:            metadata,
		Visible:             true,
	}, nil
}

// BoundingRect returns the smallest axis-aligned bound of g. It fails with
// ErrGeometry when g has no coordinates or a non-finite one.
func BoundingRect(g orb.Geometry) (orb.Bound, error) {
	if g == nil {
		return orb.Bound{}, fmt.Errorf("%w: nil geometry", ErrGeometry)
	}
	n, ok := countPoints(g)
	if n == 0 {
		return orb.Bound{}, fmt.Errorf("%w: %s has no coordinates", ErrGeometry, g.GeoJSONType())
	}
	if !ok {
		return orb.Bound{}, fmt.Errorf("%w: non-finite coordinate", ErrGeometry)
	}

	var b orb.Bound
	first := true
	walkPoints(g, func(p orb.Point) {
		if first {
			b = orb.Bound{Min: p, Max: p}
			first = false
			return
		}
		b = b.Extend(p)
	})
	return b, nil
}

// countPoints counts g's coordinates and reports whether all are finite.
func countPoints(g orb.Geometry) (int, bool) {
	n, ok := 0, true
	walkPoints(g, func(p orb.Point) {
		n++
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			ok = false
		}
	})
	return n, ok
}

func walkPoints(g orb.Geometry, fn func(orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			fn(p)
		}
	case orb.LineString:
		for _, p := range g {
			fn(p)
		}
	case orb.Ring:
		for _, p := range g {
			fn(p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			walkPoints(ls, fn)
		}
	case orb.Polygon:
		for _, r := range g {
			walkPoints(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			walkPoints(p, fn)
		}
	case orb.Collection:
		for _, c := range g {
			walkPoints(c, fn)
		}
	case orb.Bound:
		fn(g.Min)
		fn(g.Max)
	}
}
