// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-layers/internal/camera"
	"github.com/joeblew999/plat-layers/internal/layer"
	"github.com/joeblew999/plat-layers/internal/loader"
	"github.com/joeblew999/plat-layers/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Processor *service.Processor
	Bus       *service.EventBus
	// DataDir is the only directory server-side path loads may read from.
	DataDir string
}

// Types

type IDInput struct {
	ID uint64 `path:"id" minimum:"1" doc:"Layer ID" example:"1"`
}

type LayerBody struct {
	ID               uint64         `json:"id" doc:"Layer ID"`
	Name             string         `json:"name" doc:"Display name" example:"parks.geojson"`
	Color            string         `json:"color" doc:"Fill color" example:"#1f77b4"`
	Visible          bool           `json:"visible" doc:"Whether the layer is drawn"`
	ZIndex           int            `json:"zIndex" doc:"Draw order, higher is on top"`
	Selected         bool           `json:"selected" doc:"Whether the layer is selected"`
	ProjectedBound   [4]float64     `json:"projectedBound" doc:"minX, minY, maxX, maxY in the target CRS"`
	UnprojectedBound [4]float64     `json:"unprojectedBound" doc:"minX, minY, maxX, maxY in the source CRS"`
	Metadata         map[string]any `json:"metadata" doc:"Feature properties"`
}

type LayerDetailBody struct {
	LayerBody
	Geometry any `json:"geometry" doc:"GeoJSON geometry"`
}

type LayerOutput struct {
	Body LayerBody
}

type LayersOutput struct {
	Body []LayerBody
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type LoadLayerBody struct {
	Name      string         `json:"name,omitempty" doc:"Layer name; defaults to the file name or URL"`
	URL       string         `json:"url,omitempty" format:"uri" doc:"Fetch GeoJSON from this URL"`
	File      string         `json:"file,omitempty" doc:"GeoJSON file inside the server data directory" example:"parks.geojson"`
	GeoJSON   map[string]any `json:"geojson,omitempty" doc:"Inline GeoJSON document"`
	CRS       string         `json:"crs,omitempty" default:"EPSG:4326" doc:"Source CRS of the document"`
	TargetCRS string         `json:"targetCrs,omitempty" doc:"Target CRS; defaults to the server's"`
}

type LoadedBody struct {
	Layers  []LayerBody `json:"layers" doc:"Layers added"`
	Message string      `json:"message" doc:"Result message"`
}

type ColorBody struct {
	Color string `json:"color" required:"true" doc:"CSS color" example:"#ff7f0e"`
}

type MoveBody struct {
	Direction string `json:"direction" required:"true" enum:"up,down" doc:"Move direction"`
}

type SelectBody struct {
	X      float64 `json:"x" doc:"X coordinate"`
	Y      float64 `json:"y" doc:"Y coordinate"`
	Screen bool   `json:"screen,omitempty" doc:"Coordinates are screen units, converted with the camera"`
}

type SelectionBody struct {
	Changed    bool       `json:"changed" doc:"Whether the selection changed"`
	SelectedID uint64     `json:"selectedId" doc:"Selected layer ID, 0 for none"`
	Layer      *LayerBody `json:"layer,omitempty" doc:"Selected layer"`
}

type PanBody struct {
	X float64 `json:"x" doc:"Screen units, positive is right"`
	Y float64 `json:"y" doc:"Screen units, positive is up"`
}

type ZoomBody struct {
	Amount float64 `json:"amount" exclusiveMinimum:"0" doc:">1 zooms in, <1 zooms out" example:"1.15"`
}

type CameraBody struct {
	Center   [2]float64  `json:"center" doc:"Projected point at the viewport centre"`
	Scale    float64     `json:"scale" doc:"Screen units per projected unit"`
	Viewport camera.Size `json:"viewport" doc:"Viewport size"`
}

type CameraOutput struct {
	Body CameraBody
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterLayers registers layer routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers", h.LoadLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{id}", h.DeleteLayer, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{id}/toggle", h.ToggleLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{id}/color", h.PutColor, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{id}/move", h.MoveLayer, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{id}/center", h.CenterLayer, huma.OperationTags("camera"))
}

// RegisterSelection registers selection routes.
func (h *APIHandler) RegisterSelection(api huma.API) {
	huma.Get(api, "/api/v1/selection", h.GetSelection, huma.OperationTags("selection"))
	huma.Post(api, "/api/v1/selection", h.Select, huma.OperationTags("selection"))
}

// RegisterCamera registers camera routes.
func (h *APIHandler) RegisterCamera(api huma.API) {
	huma.Get(api, "/api/v1/camera", h.GetCamera, huma.OperationTags("camera"))
	huma.Post(api, "/api/v1/camera/pan", h.Pan, huma.OperationTags("camera"))
	huma.Post(api, "/api/v1/camera/zoom", h.Zoom, huma.OperationTags("camera"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	out := &LayersOutput{Body: []LayerBody{}}
	h.svc.Processor.View(func(ls *layer.Layers, _ camera.Camera) {
		for _, l := range ls.All() {
			out.Body = append(out.Body, toLayerBody(l, ls.SelectedID()))
		}
	})
	return out, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *struct {
	IDInput
	Projected bool `query:"projected" default:"true" doc:"Return the projected geometry instead of the source geometry"`
}) (*struct{ Body LayerDetailBody }, error) {
	var (
		body  LayerDetailBody
		found bool
	)
	h.svc.Processor.View(func(ls *layer.Layers, _ camera.Camera) {
		l, ok := ls.Get(layer.ID(input.ID))
		if !ok {
			return
		}
		found = true
		g := l.UnprojectedGeometry
		if input.Projected {
			g = l.ProjectedGeometry
		}
		body = LayerDetailBody{LayerBody: toLayerBody(l, ls.SelectedID()), Geometry: geojson.NewGeometry(g)}
	})
	if !found {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &struct{ Body LayerDetailBody }{Body: body}, nil
}

func (h *APIHandler) LoadLayer(ctx context.Context, input *struct{ Body LoadLayerBody }) (*struct{ Body LoadedBody }, error) {
	src, err := h.source(input.Body)
	if err != nil {
		return nil, err
	}

	ns, err := h.svc.Processor.Apply(ctx, service.LoadFile{Source: src})
	if err != nil {
		return nil, toHTTPError(err)
	}

	body := LoadedBody{Layers: []LayerBody{}}
	var ids []layer.ID
	for _, n := range ns {
		switch n.Kind {
		case service.LoadFailed:
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("%s: %v", service.KindOf(n.Err), n.Err))
		case service.LayerLoaded:
			ids = append(ids, n.LayerID)
		}
	}
	h.svc.Processor.View(func(ls *layer.Layers, _ camera.Camera) {
		for _, id := range ids {
			if l, ok := ls.Get(id); ok {
				body.Layers = append(body.Layers, toLayerBody(l, ls.SelectedID()))
			}
		}
	})
	body.Message = fmt.Sprintf("%d layer(s) loaded", len(body.Layers))
	return &struct{ Body LoadedBody }{Body: body}, nil
}

// source validates a load request and turns it into a loader source.
func (h *APIHandler) source(b LoadLayerBody) (loader.Source, error) {
	src := loader.Source{Name: b.Name, CRS: b.CRS, Target: b.TargetCRS}
	if src.CRS == "" {
		src.CRS = "EPSG:4326"
	}

	set := 0
	if b.URL != "" {
		set++
		src.URL = b.URL
	}
	if b.File != "" {
		set++
		if err := validateFileName(b.File); err != nil {
			return src, huma.Error400BadRequest(err.Error())
		}
		src.Path = filepath.Join(h.svc.DataDir, b.File)
	}
	if b.GeoJSON != nil {
		set++
		data, err := json.Marshal(b.GeoJSON)
		if err != nil {
			return src, huma.Error400BadRequest("invalid geojson", err)
		}
		src.Data = data
		if src.Name == "" {
			src.Name = "inline.geojson"
		}
	}
	if set != 1 {
		return src, huma.Error400BadRequest("exactly one of url, file or geojson is required")
	}
	return src, nil
}

// validateFileName rejects names that escape the data directory.
func validateFileName(name string) error {
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid filename")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".geojson" && ext != ".json" {
		return fmt.Errorf("unsupported file type: %s", ext)
	}
	return nil
}

func (h *APIHandler) DeleteLayer(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if _, err := h.svc.Processor.Apply(ctx, service.DeleteLayer{ID: layer.ID(input.ID)}); err != nil {
		return nil, toHTTPError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer deleted"}}, nil
}

func (h *APIHandler) ToggleLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	return h.mutate(ctx, layer.ID(input.ID), service.ToggleVisibility{ID: layer.ID(input.ID)})
}

func (h *APIHandler) PutColor(ctx context.Context, input *struct {
	IDInput
	Body ColorBody
}) (*LayerOutput, error) {
	c, err := layer.ParseColor(input.Body.Color)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return h.mutate(ctx, layer.ID(input.ID), service.UpdateColor{ID: layer.ID(input.ID), Color: c})
}

func (h *APIHandler) MoveLayer(ctx context.Context, input *struct {
	IDInput
	Body MoveBody
}) (*LayerOutput, error) {
	dir, err := layer.ParseDirection(input.Body.Direction)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return h.mutate(ctx, layer.ID(input.ID), service.MoveLayer{ID: layer.ID(input.ID), Direction: dir})
}

func (h *APIHandler) CenterLayer(ctx context.Context, input *IDInput) (*CameraOutput, error) {
	if _, err := h.svc.Processor.Apply(ctx, service.CenterCamera{ID: layer.ID(input.ID)}); err != nil {
		return nil, toHTTPError(err)
	}
	return h.GetCamera(ctx, nil)
}

// mutate applies r and returns the resulting state of layer id.
func (h *APIHandler) mutate(ctx context.Context, id layer.ID, r service.Request) (*LayerOutput, error) {
	if _, err := h.svc.Processor.Apply(ctx, r); err != nil {
		return nil, toHTTPError(err)
	}
	var (
		out   LayerOutput
		found bool
	)
	h.svc.Processor.View(func(ls *layer.Layers, _ camera.Camera) {
		if l, ok := ls.Get(id); ok {
			out.Body, found = toLayerBody(l, ls.SelectedID()), true
		}
	})
	if !found {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &out, nil
}

func (h *APIHandler) GetSelection(ctx context.Context, input *struct{}) (*struct{ Body SelectionBody }, error) {
	return &struct{ Body SelectionBody }{Body: h.selection(false)}, nil
}

func (h *APIHandler) Select(ctx context.Context, input *struct{ Body SelectBody }) (*struct{ Body SelectionBody }, error) {
	var r service.Request = service.SelectAt{Point: orb.Point{input.Body.X, input.Body.Y}}
	if input.Body.Screen {
		r = service.SelectAtScreen{X: input.Body.X, Y: input.Body.Y}
	}
	ns, err := h.svc.Processor.Apply(ctx, r)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &struct{ Body SelectionBody }{Body: h.selection(len(ns) > 0)}, nil
}

func (h *APIHandler) selection(changed bool) SelectionBody {
	body := SelectionBody{Changed: changed}
	h.svc.Processor.View(func(ls *layer.Layers, _ camera.Camera) {
		if l, ok := ls.Selected(); ok {
			lb := toLayerBody(l, ls.SelectedID())
			body.SelectedID = uint64(l.ID)
			body.Layer = &lb
		}
	})
	return body
}

func (h *APIHandler) GetCamera(ctx context.Context, input *struct{}) (*CameraOutput, error) {
	var out CameraOutput
	h.svc.Processor.View(func(_ *layer.Layers, cam camera.Camera) {
		out.Body = CameraBody{
			Center:   [2]float64{cam.Center[0], cam.Center[1]},
			Scale:    cam.Scale,
			Viewport: cam.Viewport,
		}
	})
	return &out, nil
}

func (h *APIHandler) Pan(ctx context.Context, input *struct{ Body PanBody }) (*CameraOutput, error) {
	if _, err := h.svc.Processor.Apply(ctx, service.PanCamera{X: input.Body.X, Y: input.Body.Y}); err != nil {
		return nil, toHTTPError(err)
	}
	return h.GetCamera(ctx, nil)
}

func (h *APIHandler) Zoom(ctx context.Context, input *struct{ Body ZoomBody }) (*CameraOutput, error) {
	if _, err := h.svc.Processor.Apply(ctx, service.ZoomCamera{Amount: input.Body.Amount}); err != nil {
		return nil, toHTTPError(err)
	}
	return h.GetCamera(ctx, nil)
}

func toLayerBody(l *layer.Layer, selected layer.ID) LayerBody {
	metadata := make(map[string]any, len(l.Metadata))
	for _, k := range l.Metadata.Keys() {
		metadata[k] = l.Metadata[k]
	}
	return LayerBody{
		ID:               uint64(l.ID),
		Name:             l.Name,
		Color:            l.Color.Hex(),
		Visible:          l.Visible,
		ZIndex:           l.ZIndex,
		Selected:         l.ID == selected,
		ProjectedBound:   boundArray(l.ProjectedBound),
		UnprojectedBound: boundArray(l.UnprojectedBound),
		Metadata:         metadata,
	}
}

func boundArray(b orb.Bound) [4]float64 {
	return [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

// toHTTPError maps a failed processing cycle to an API error. At this
// boundary a request for a missing layer is a client error, not a crash.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, layer.ErrInvariantViolation):
		return huma.Error404NotFound("layer not found", err)
	case errors.Is(err, camera.ErrInvalidZoom):
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError("request failed", err)
}
