// Package layer holds the in-memory registry of geospatial layers.
//
// A layer is staged as an UnassignedLayer by the ingest pipeline and becomes
// a resident Layer once Layers.Add assigns it an ID.
package layer

import (
	"sort"
	"strconv"

	"github.com/paulmach/orb"
)

// ID identifies a layer. IDs are positive, strictly increasing in creation
// order and never reused.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Metadata holds feature properties keyed by name.
type Metadata map[string]any

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of m.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UnassignedLayer is a layer that has been ingested but not yet added to a
// store.
type UnassignedLayer struct {
	Name                string
	UnprojectedGeometry orb.Geometry
	UnprojectedBound    orb.Bound
	ProjectedGeometry   orb.Geometry
	ProjectedBound      orb.Bound
	Color               Color
	Metadata            Metadata
	Visible             bool
}

// Layer is a resident entry of a Layers store.
type Layer struct {
	ID                  ID
	Name                string
	UnprojectedGeometry orb.Geometry
	UnprojectedBound    orb.Bound
	ProjectedGeometry   orb.Geometry
	ProjectedBound      orb.Bound
	Color               Color
	Metadata            Metadata
	Visible             bool

	// ZIndex is the draw order; higher is drawn on top.
	ZIndex int
}

// ContainsCoord reports whether p, expressed in the projected CRS, falls
// inside the layer's projected geometry. The bound is checked first and the
// exact test only runs on a bound hit.
func (l *Layer) ContainsCoord(p orb.Point) bool {
	return l.ProjectedBound.Contains(p) && Contains(l.ProjectedGeometry, p)
}
