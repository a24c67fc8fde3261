package loader

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-layers/internal/layer"
)

// Document is a decoded GeoJSON document flattened to one collection.
type Document struct {
	Type     string
	Geometry orb.Collection
	Metadata layer.Metadata
}

// Decode parses a GeoJSON FeatureCollection, Feature or geometry object.
// Null feature geometries are skipped. When the document holds exactly one
// feature its properties become the document metadata.
func Decode(data []byte) (*Document, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	doc := &Document{Type: head.Type, Geometry: orb.Collection{}}
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		for _, f := range fc.Features {
			if f.Geometry != nil {
				doc.Geometry = append(doc.Geometry, f.Geometry)
			}
		}
		if len(fc.Features) == 1 {
			doc.Metadata = layer.Metadata(fc.Features[0].Properties.Clone())
		}

	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if f.Geometry != nil {
			doc.Geometry = append(doc.Geometry, f.Geometry)
		}
		doc.Metadata = layer.Metadata(f.Properties.Clone())

	case "Point", "MultiPoint", "LineString", "MultiLineString", "Polygon", "MultiPolygon", "GeometryCollection":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if c, ok := g.Geometry().(orb.Collection); ok {
			doc.Geometry = append(doc.Geometry, c...)
		} else if g.Geometry() != nil {
			doc.Geometry = append(doc.Geometry, g.Geometry())
		}

	case "":
		return nil, fmt.Errorf("%w: missing \"type\" member", ErrDecode)
	default:
		return nil, fmt.Errorf("%w: unsupported GeoJSON type %q", ErrDecode, head.Type)
	}

	if doc.Metadata == nil {
		doc.Metadata = layer.Metadata{}
	}
	return doc, nil
}
