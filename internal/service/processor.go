// Package service applies layer mutation requests and publishes the
// resulting notifications.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joeblew999/plat-layers/internal/camera"
	"github.com/joeblew999/plat-layers/internal/crs"
	"github.com/joeblew999/plat-layers/internal/layer"
	"github.com/joeblew999/plat-layers/internal/loader"
)

// Config holds Processor settings.
type Config struct {
	// TargetCRS is the projected CRS layers are stored and queried in.
	TargetCRS string
	Viewport  camera.Size
}

// Processor owns the layer store and camera. Requests are applied in
// batches under an exclusive lock; readers use View.
type Processor struct {
	mu     sync.RWMutex
	layers *layer.Layers
	camera camera.Camera

	targetCRS string
	loader    *loader.Loader
	bus       *EventBus
	logger    *slog.Logger
}

// NewProcessor creates a processor with an empty store. bus may be nil.
func NewProcessor(cfg Config, ld *loader.Loader, bus *EventBus, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TargetCRS == "" {
		cfg.TargetCRS = crs.WebMercator
	}
	sys, err := crs.Lookup(cfg.TargetCRS)
	if err != nil {
		return nil, fmt.Errorf("target crs: %w", err)
	}
	return &Processor{
		layers:    layer.New(logger),
		camera:    camera.New(cfg.Viewport),
		targetCRS: sys.Code,
		loader:    ld,
		bus:       bus,
		logger:    logger,
	}, nil
}

// TargetCRS returns the canonical code of the projected CRS.
func (p *Processor) TargetCRS() string { return p.targetCRS }

// View calls fn with the store and camera under a shared lock. fn must not
// retain or mutate either.
func (p *Processor) View(fn func(ls *layer.Layers, cam camera.Camera)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn(p.layers, p.camera)
}

type loadOutcome struct {
	staged []*layer.UnassignedLayer
	err    error
}

// Apply runs one processing cycle: sources named by LoadFile requests are
// fetched and staged first without holding the lock, then every request is
// applied in submission order. Failed loads are reported as LoadFailed
// notifications and do not stop the cycle. Any other error stops the cycle;
// the notifications of the requests applied before it are still returned
// and published.
func (p *Processor) Apply(ctx context.Context, reqs ...Request) ([]Notification, error) {
	loads := p.prepareLoads(ctx, reqs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := p.applyLocked(reqs, loads)

	if p.bus != nil {
		for _, n := range out {
			p.bus.Publish(n)
		}
	}
	return out, err
}

func (p *Processor) prepareLoads(ctx context.Context, reqs []Request) map[int]loadOutcome {
	var (
		sources []loader.Source
		index   []int
	)
	for i, r := range reqs {
		if lf, ok := r.(LoadFile); ok {
			sources = append(sources, lf.Source)
			index = append(index, i)
		}
	}
	if len(sources) == 0 {
		return nil
	}

	loads := make(map[int]loadOutcome, len(sources))
	for j, res := range p.loader.LoadAll(ctx, sources, p.targetCRS) {
		loads[index[j]] = loadOutcome{staged: res.Layers, err: res.Err}
	}
	return loads
}

func (p *Processor) applyLocked(reqs []Request, loads map[int]loadOutcome) ([]Notification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Notification
	for i, r := range reqs {
		var (
			ns  []Notification
			err error
		)
		if lf, ok := r.(LoadFile); ok {
			ns = p.addLoaded(lf, loads[i])
		} else {
			ns, err = p.apply(r)
		}
		out = append(out, ns...)
		if err != nil {
			p.logger.Error("request failed, cycle stopped", "request", r.requestName(), "index", i, "error", err)
			return out, fmt.Errorf("%s: %w", r.requestName(), err)
		}
		p.logger.Debug("applied request", "request", r.requestName(), "notifications", len(ns))
	}
	return out, nil
}

func (p *Processor) addLoaded(lf LoadFile, res loadOutcome) []Notification {
	if res.err != nil {
		return []Notification{{Kind: LoadFailed, Name: lf.Source.Label(), Err: res.err}}
	}
	var out []Notification
	for _, staged := range res.staged {
		name := staged.Name
		id := p.layers.Add(staged)
		p.logger.Info("layer loaded", "id", id, "name", name)
		out = append(out, Notification{Kind: LayerLoaded, LayerID: id, Name: name})
	}
	return out
}

func (p *Processor) apply(r Request) ([]Notification, error) {
	switch r := r.(type) {
	case ToggleVisibility:
		visible, err := p.layers.ToggleVisibility(r.ID)
		if err != nil {
			return nil, err
		}
		return []Notification{{Kind: VisibilityChanged, LayerID: r.ID, Visible: visible}}, nil

	case UpdateColor:
		if err := p.layers.SetColor(r.ID, r.Color); err != nil {
			return nil, err
		}
		return []Notification{{Kind: ColorUpdated, LayerID: r.ID}}, nil

	case DeleteLayer:
		cleared, err := p.layers.Delete(r.ID)
		if err != nil {
			return nil, err
		}
		out := []Notification{{Kind: LayerDeleted, LayerID: r.ID}}
		if cleared {
			out = append(out, Notification{Kind: SelectionChanged})
		}
		return out, nil

	case MoveLayer:
		changed, err := p.layers.Move(r.ID, r.Direction)
		if err != nil {
			return nil, err
		}
		var out []Notification
		for _, id := range changed {
			out = append(out, Notification{Kind: ZIndexUpdated, LayerID: id})
		}
		return out, nil

	case SelectAt:
		return p.selectAt(r), nil

	case SelectAtScreen:
		return p.selectAt(SelectAt{Point: p.camera.ScreenToWorld(r.X, r.Y)}), nil

	case PanCamera:
		if !p.camera.Pan(r.X, r.Y) {
			return nil, nil
		}
		return []Notification{{Kind: CameraChanged}}, nil

	case ZoomCamera:
		changed, err := p.camera.Zoom(r.Amount)
		if err != nil || !changed {
			return nil, err
		}
		return []Notification{{Kind: CameraChanged}}, nil

	case CenterCamera:
		l, err := p.layers.MustGet(r.ID)
		if err != nil {
			return nil, err
		}
		p.camera.CenterOn(l.ProjectedBound)
		return []Notification{{Kind: CameraChanged, LayerID: r.ID}}, nil
	}
	return nil, fmt.Errorf("unsupported request %T", r)
}

func (p *Processor) selectAt(r SelectAt) []Notification {
	if !p.layers.SetSelectedFromMousePress(r.Point) {
		return nil
	}
	return []Notification{{Kind: SelectionChanged, LayerID: p.layers.SelectedID()}}
}
