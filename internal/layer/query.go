package layer

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// lineTolerance is how far a point may sit from a segment and still be on it.
const lineTolerance = 1e-9

// ContainingCoord returns the layers whose projected geometry contains p, in
// store order. p must already be in the projected CRS.
func (ls *Layers) ContainingCoord(p orb.Point) []*Layer {
	var out []*Layer
	for _, l := range ls.data {
		if l.ContainsCoord(p) {
			out = append(out, l)
		}
	}
	return out
}

// SetSelectedFromMousePress selects the first layer containing p, or clears
// the selection if none does. It reports whether the selection changed.
func (ls *Layers) SetSelectedFromMousePress(p orb.Point) bool {
	hits := ls.ContainingCoord(p)
	if len(hits) > 0 {
		ls.logger.Info("geometry clicked", "layer", hits[0].ID, "metadata", hits[0].Metadata)
	}
	if len(hits) > 1 {
		ls.logger.Warn("multiple layers clicked, choosing the first", "count", len(hits))
	}

	prev := ls.selectedID
	ls.selectedID = 0
	if len(hits) > 0 {
		ls.selectedID = hits[0].ID
	}
	return prev != ls.selectedID
}

// Contains reports whether g contains p: inside or on the boundary for
// areal geometries, on a segment for lines, equal for points.
func Contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Point:
		return g.Equal(p)
	case orb.MultiPoint:
		for _, q := range g {
			if q.Equal(p) {
				return true
			}
		}
	case orb.LineString:
		return onLine(g, p)
	case orb.MultiLineString:
		for _, ls := range g {
			if onLine(ls, p) {
				return true
			}
		}
	case orb.Ring:
		return planar.RingContains(g, p)
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	case orb.Bound:
		return g.Contains(p)
	case orb.Collection:
		for _, child := range g {
			if Contains(child, p) {
				return true
			}
		}
	}
	return false
}

func onLine(ls orb.LineString, p orb.Point) bool {
	if len(ls) == 1 {
		return ls[0].Equal(p)
	}
	for i := 1; i < len(ls); i++ {
		if planar.DistanceFromSegment(ls[i-1], ls[i], p) <= lineTolerance {
			return true
		}
	}
	return false
}
