package service

import (
	"errors"

	"github.com/joeblew999/plat-layers/internal/camera"
	"github.com/joeblew999/plat-layers/internal/crs"
	"github.com/joeblew999/plat-layers/internal/layer"
	"github.com/joeblew999/plat-layers/internal/loader"
)

// Kind names what a notification reports.
type Kind string

const (
	LayerLoaded       Kind = "layer-loaded"
	LoadFailed        Kind = "load-failed"
	VisibilityChanged Kind = "visibility-changed"
	ColorUpdated      Kind = "color-updated"
	LayerDeleted      Kind = "layer-deleted"
	ZIndexUpdated     Kind = "z-index-updated"
	SelectionChanged  Kind = "selection-changed"
	CameraChanged     Kind = "camera-changed"
)

// Notification reports one state change produced by applying a request.
// LayerID is zero for camera changes, failed loads and cleared selections.
type Notification struct {
	Kind    Kind
	LayerID layer.ID
	Name    string
	Visible bool
	Err     error
}

// ErrInvariantViolation is re-exported for callers of Processor.Apply.
var ErrInvariantViolation = layer.ErrInvariantViolation

// KindOf classifies err into the ingest/protocol error taxonomy.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, loader.ErrIO):
		return "IoError"
	case errors.Is(err, loader.ErrDecode):
		return "DecodeError"
	case errors.Is(err, layer.ErrGeometry):
		return "GeometryError"
	case errors.Is(err, crs.ErrProjection):
		return "ProjectionError"
	case errors.Is(err, layer.ErrInvariantViolation):
		return "InvariantViolation"
	case errors.Is(err, camera.ErrInvalidZoom):
		return "InvalidRequest"
	}
	return "Error"
}
