package service

import (
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-layers/internal/camera"
	"github.com/joeblew999/plat-layers/internal/layer"
	"github.com/joeblew999/plat-layers/internal/loader"
)

// Request is a mutation or query submitted to a Processor.
type Request interface {
	requestName() string
}

// ToggleVisibility flips a layer between visible and hidden.
type ToggleVisibility struct{ ID layer.ID }

// UpdateColor replaces a layer's color.
type UpdateColor struct {
	ID    layer.ID
	Color layer.Color
}

// DeleteLayer removes a layer from the store.
type DeleteLayer struct{ ID layer.ID }

// MoveLayer moves a layer one step up or down the draw order.
type MoveLayer struct {
	ID        layer.ID
	Direction layer.Direction
}

// SelectAt selects the first layer containing a projected point.
type SelectAt struct{ Point orb.Point }

// SelectAtScreen is SelectAt for a screen position; it is converted with the
// current camera before querying.
type SelectAtScreen struct{ X, Y float64 }

// PanCamera moves the camera by screen units. Positive X is right, positive
// Y is up.
type PanCamera struct{ X, Y float64 }

// ZoomCamera scales the camera: above 1 zooms in, below 1 zooms out.
type ZoomCamera struct{ Amount float64 }

// CenterCamera fits the camera to a layer's projected bound.
type CenterCamera struct{ ID layer.ID }

// LoadFile ingests a GeoJSON source. The fetch and decode run before the
// store is locked.
type LoadFile struct{ Source loader.Source }

func (ToggleVisibility) requestName() string { return "toggle-visibility" }
func (UpdateColor) requestName() string      { return "update-color" }
func (DeleteLayer) requestName() string      { return "delete-layer" }
func (MoveLayer) requestName() string        { return "move-layer" }
func (SelectAt) requestName() string         { return "select" }
func (SelectAtScreen) requestName() string   { return "select-screen" }
func (PanCamera) requestName() string        { return "pan-camera" }
func (ZoomCamera) requestName() string       { return "zoom-camera" }
func (CenterCamera) requestName() string     { return "center-camera" }
func (LoadFile) requestName() string         { return "load-file" }

// PanUp pans the camera up by amount.
func PanUp(amount float64) PanCamera { return PanCamera{Y: amount} }

// PanDown pans the camera down by amount.
func PanDown(amount float64) PanCamera { return PanCamera{Y: -amount} }

// PanLeft pans the camera left by amount.
func PanLeft(amount float64) PanCamera { return PanCamera{X: -amount} }

// PanRight pans the camera right by amount.
func PanRight(amount float64) PanCamera { return PanCamera{X: amount} }

// ZoomIn zooms in by one step.
func ZoomIn() ZoomCamera { return ZoomCamera{Amount: camera.ZoomStep} }

// ZoomOut zooms out by one step.
func ZoomOut() ZoomCamera { return ZoomCamera{Amount: 1 / camera.ZoomStep} }

// LoadFromPath loads a file from disk in the given source CRS.
func LoadFromPath(path, crs string) LoadFile {
	return LoadFile{Source: loader.Source{Path: path, CRS: crs}}
}

// LoadFromNetwork loads a document over HTTP.
func LoadFromNetwork(name, url, crs string) LoadFile {
	return LoadFile{Source: loader.Source{Name: name, URL: url, CRS: crs}}
}

// LoadFromBytes loads an in-memory document.
func LoadFromBytes(fileName string, data []byte, crs string) LoadFile {
	return LoadFile{Source: loader.Source{Name: fileName, Data: data, CRS: crs}}
}
