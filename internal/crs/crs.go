// Package crs reprojects orb geometries between coordinate reference systems.
//
// Every supported system is expressed as a pair of projections to and from
// WGS84 longitude/latitude, so any source/target pair is composed as
// source → WGS84 → target. Transforms are delegated to paulmach/orb/project.
package crs

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

var (
	// ErrProjection is returned when a transform is unknown or undefined.
	ErrProjection = errors.New("projection error")
	// ErrUnknownCRS is wrapped by ErrProjection for unrecognised identifiers.
	ErrUnknownCRS = errors.New("unknown coordinate reference system")
)

const (
	// WGS84 is geographic longitude/latitude in degrees.
	WGS84 = "EPSG:4326"
	// WebMercator is spherical mercator in metres.
	WebMercator = "EPSG:3857"
)

// System is a coordinate reference system known to the registry.
type System struct {
	Code string
	Name string

	toWGS84   orb.Projection
	fromWGS84 orb.Projection
	// geographic reports whether coordinates are lon/lat degrees.
	geographic bool
}

func identity(p orb.Point) orb.Point { return p }

var systems = map[string]System{
	WGS84: {
		Code:       WGS84,
		Name:       "WGS 84",
		toWGS84:    identity,
		fromWGS84:  identity,
		geographic: true,
	},
	WebMercator: {
		Code:      WebMercator,
		Name:      "WGS 84 / Pseudo-Mercator",
		toWGS84:   project.Mercator.ToWGS84,
		fromWGS84: project.WGS84.ToMercator,
	},
}

var aliases = map[string]string{
	"EPSG:4326":                     WGS84,
	"WGS84":                         WGS84,
	"CRS:84":                        WGS84,
	"OGC:CRS84":                     WGS84,
	"URN:OGC:DEF:CRS:OGC:1.3:CRS84": WGS84,
	"URN:OGC:DEF:CRS:EPSG::4326":    WGS84,
	"EPSG:3857":                     WebMercator,
	"EPSG:900913":                   WebMercator,
	"EPSG:3785":                     WebMercator,
	"EPSG:102100":                   WebMercator,
	"URN:OGC:DEF:CRS:EPSG::3857":    WebMercator,
}

// Lookup resolves a CRS identifier (case-insensitive, aliases allowed).
func Lookup(code string) (System, error) {
	canonical, ok := aliases[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return System{}, fmt.Errorf("%w: %w %q", ErrProjection, ErrUnknownCRS, code)
	}
	return systems[canonical], nil
}

// Supported returns the canonical codes of all registered systems.
func Supported() []string {
	return []string{WGS84, WebMercator}
}

// Same reports whether two identifiers name the same system.
func Same(a, b string) bool {
	sa, err := Lookup(a)
	if err != nil {
		return false
	}
	sb, err := Lookup(b)
	if err != nil {
		return false
	}
	return sa.Code == sb.Code
}

// Reproject returns a copy of g with every coordinate transformed from source
// to target. Point count, ring order and nesting are preserved. The input is
// never modified.
func Reproject(g orb.Geometry, source, target string) (orb.Geometry, error) {
	from, err := Lookup(source)
	if err != nil {
		return nil, err
	}
	to, err := Lookup(target)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: nil geometry", ErrProjection)
	}

	clone := orb.Clone(g)
	if Same(source, target) {
		return clone, nil
	}

	var bad *orb.Point
	transform := func(p orb.Point) orb.Point {
		if bad != nil {
			return p
		}
		ll := from.toWGS84(p)
		if !validLonLat(ll, to) {
			q := p
			bad = &q
			return p
		}
		out := to.fromWGS84(ll)
		if !finite(out) {
			q := p
			bad = &q
			return p
		}
		return out
	}

	projected := project.Geometry(clone, transform)
	if bad != nil {
		return nil, fmt.Errorf("%w: %s -> %s undefined at (%g, %g)", ErrProjection, from.Code, to.Code, bad[0], bad[1])
	}
	return projected, nil
}

// validLonLat checks that ll lies inside the domain of the target's forward
// projection.
func validLonLat(ll orb.Point, to System) bool {
	if !finite(ll) {
		return false
	}
	if ll[1] < -90 || ll[1] > 90 || ll[0] < -180 || ll[0] > 180 {
		return false
	}
	if !to.geographic && math.Abs(ll[1]) >= 90 {
		return false
	}
	return true
}

func finite(p orb.Point) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
