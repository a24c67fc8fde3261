package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-layers/internal/camera"
	"github.com/joeblew999/plat-layers/internal/crs"
	"github.com/joeblew999/plat-layers/internal/layer"
	"github.com/joeblew999/plat-layers/internal/loader"
	"github.com/joeblew999/plat-layers/internal/service"
)

const squareFC = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"sq"},
  "geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}]}`

const farSquare = `{"type":"Polygon","coordinates":[[[20,20],[30,20],[30,30],[20,30],[20,20]]]}`

func newProcessor(t *testing.T, bus *service.EventBus) *service.Processor {
	t.Helper()
	ld := loader.New(layer.NewColorAllocator(), nil, nil)
	p, err := service.NewProcessor(service.Config{
		TargetCRS: crs.WGS84,
		Viewport:  camera.Size{Width: 800, Height: 800},
	}, ld, bus, nil)
	require.NoError(t, err)
	return p
}

func load(t *testing.T, p *service.Processor, name, doc string) layer.ID {
	t.Helper()
	ns, err := p.Apply(context.Background(), service.LoadFromBytes(name, []byte(doc), crs.WGS84))
	require.NoError(t, err)
	require.Len(t, ns, 1)
	require.Equal(t, service.LayerLoaded, ns[0].Kind)
	return ns[0].LayerID
}

func kinds(ns []service.Notification) []service.Kind {
	var out []service.Kind
	for _, n := range ns {
		out = append(out, n.Kind)
	}
	return out
}

func TestNewProcessorRejectsUnknownTarget(t *testing.T) {
	_, err := service.NewProcessor(service.Config{TargetCRS: "EPSG:1"}, loader.New(layer.NewColorAllocator(), nil, nil), nil, nil)
	require.ErrorIs(t, err, crs.ErrProjection)
}

func TestToggleVisibilityTwice(t *testing.T) {
	p := newProcessor(t, nil)
	id := load(t, p, "square", squareFC)

	ns, err := p.Apply(context.Background(), service.ToggleVisibility{ID: id})
	require.NoError(t, err)
	require.Equal(t, []service.Notification{{Kind: service.VisibilityChanged, LayerID: id, Visible: false}}, ns)
	p.View(func(ls *layer.Layers, _ camera.Camera) {
		l, _ := ls.Get(id)
		require.False(t, l.Visible)
	})

	ns, err = p.Apply(context.Background(), service.ToggleVisibility{ID: id})
	require.NoError(t, err)
	require.True(t, ns[0].Visible)
}

func TestMalformedLoadLeavesStoreUnchanged(t *testing.T) {
	p := newProcessor(t, nil)
	ns, err := p.Apply(context.Background(), service.LoadFromBytes("bad.geojson", []byte(`{"type":`), crs.WGS84))
	require.NoError(t, err)
	require.Len(t, ns, 1)
	require.Equal(t, service.LoadFailed, ns[0].Kind)
	require.ErrorIs(t, ns[0].Err, loader.ErrDecode)
	require.Equal(t, "DecodeError", service.KindOf(ns[0].Err))

	p.View(func(ls *layer.Layers, _ camera.Camera) {
		require.Zero(t, ls.Len())
	})
}

func TestBatchAppliesInOrder(t *testing.T) {
	p := newProcessor(t, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "far.geojson")
	require.NoError(t, os.WriteFile(path, []byte(farSquare), 0o644))

	ns, err := p.Apply(context.Background(),
		service.LoadFromBytes("a", []byte(squareFC), crs.WGS84),
		service.LoadFromBytes("broken", []byte(`nope`), crs.WGS84),
		service.LoadFromPath(path, crs.WGS84),
		service.ToggleVisibility{ID: 1},
		service.SelectAt{Point: orb.Point{25, 25}},
		service.MoveLayer{ID: 1, Direction: layer.Up},
		service.UpdateColor{ID: 2, Color: layer.Color{R: 1, G: 2, B: 3}},
	)
	require.NoError(t, err)
	require.Equal(t, []service.Kind{
		service.LayerLoaded,
		service.LoadFailed,
		service.LayerLoaded,
		service.VisibilityChanged,
		service.SelectionChanged,
		service.ZIndexUpdated, service.ZIndexUpdated,
		service.ColorUpdated,
	}, kinds(ns))
	require.Equal(t, "far.geojson", ns[2].Name)

	p.View(func(ls *layer.Layers, _ camera.Camera) {
		require.Equal(t, layer.ID(2), ls.SelectedID())
		l, _ := ls.Get(2)
		require.Equal(t, layer.Color{R: 1, G: 2, B: 3}, l.Color)
		order := ls.ByZIndex()
		require.Equal(t, layer.ID(2), order[0].ID)
	})
}

func TestMissingIDStopsCycle(t *testing.T) {
	p := newProcessor(t, nil)
	id := load(t, p, "square", squareFC)

	ns, err := p.Apply(context.Background(),
		service.ToggleVisibility{ID: id},
		service.DeleteLayer{ID: id},
		service.ToggleVisibility{ID: id},
		service.PanCamera{X: 5},
	)
	require.ErrorIs(t, err, service.ErrInvariantViolation)
	require.Equal(t, "InvariantViolation", service.KindOf(err))
	require.Equal(t, []service.Kind{service.VisibilityChanged, service.LayerDeleted}, kinds(ns))

	p.View(func(ls *layer.Layers, cam camera.Camera) {
		require.Zero(t, ls.Len())
		require.Equal(t, orb.Point{0, 0}, cam.Center)
	})
}

func TestDeleteSelectedEmitsSelectionChanged(t *testing.T) {
	p := newProcessor(t, nil)
	id := load(t, p, "square", squareFC)

	ns, err := p.Apply(context.Background(), service.SelectAt{Point: orb.Point{5, 5}})
	require.NoError(t, err)
	require.Equal(t, []service.Notification{{Kind: service.SelectionChanged, LayerID: id}}, ns)

	ns, err = p.Apply(context.Background(), service.SelectAt{Point: orb.Point{5, 5}})
	require.NoError(t, err)
	require.Empty(t, ns)

	ns, err = p.Apply(context.Background(), service.DeleteLayer{ID: id})
	require.NoError(t, err)
	require.Equal(t, []service.Kind{service.LayerDeleted, service.SelectionChanged}, kinds(ns))
}

func TestCameraRequests(t *testing.T) {
	p := newProcessor(t, nil)
	id := load(t, p, "square", squareFC)

	ns, err := p.Apply(context.Background(),
		service.CenterCamera{ID: id},
		service.ZoomCamera{Amount: 1},
		service.ZoomIn(),
		service.ZoomOut(),
		service.PanRight(80),
	)
	require.NoError(t, err)
	require.Equal(t, []service.Kind{service.CameraChanged, service.CameraChanged, service.CameraChanged, service.CameraChanged}, kinds(ns))

	p.View(func(_ *layer.Layers, cam camera.Camera) {
		require.InDelta(t, 80, cam.Scale, 1e-9)
		require.InDelta(t, 6, cam.Center[0], 1e-9)
		require.InDelta(t, 5, cam.Center[1], 1e-9)
	})

	_, err = p.Apply(context.Background(), service.ZoomCamera{Amount: -2})
	require.ErrorIs(t, err, camera.ErrInvalidZoom)
}

func TestSelectAtScreen(t *testing.T) {
	p := newProcessor(t, nil)
	id := load(t, p, "square", squareFC)
	_, err := p.Apply(context.Background(), service.CenterCamera{ID: id})
	require.NoError(t, err)

	// viewport centre maps to the square's centre
	ns, err := p.Apply(context.Background(), service.SelectAtScreen{X: 400, Y: 400})
	require.NoError(t, err)
	require.Equal(t, []service.Notification{{Kind: service.SelectionChanged, LayerID: id}}, ns)
}

func TestCancelledContextLeavesStoreUnchanged(t *testing.T) {
	p := newProcessor(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Apply(ctx, service.LoadFromBytes("a", []byte(squareFC), crs.WGS84))
	require.ErrorIs(t, err, context.Canceled)
	p.View(func(ls *layer.Layers, _ camera.Camera) {
		require.Zero(t, ls.Len())
	})
}

func TestNotificationsArePublished(t *testing.T) {
	bus := service.NewEventBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	p := newProcessor(t, bus)
	id := load(t, p, "square", squareFC)

	n := <-ch
	require.Equal(t, service.LayerLoaded, n.Kind)
	require.Equal(t, id, n.LayerID)
}
