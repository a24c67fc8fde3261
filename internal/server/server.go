package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-layers/internal/api"
	"github.com/joeblew999/plat-layers/internal/camera"
	"github.com/joeblew999/plat-layers/internal/layer"
	"github.com/joeblew999/plat-layers/internal/loader"
	"github.com/joeblew999/plat-layers/internal/logger"
	"github.com/joeblew999/plat-layers/internal/service"
)

// Config holds the server configuration.
type Config struct {
	Host      string
	Port      string
	DataDir   string
	TargetCRS string
	Viewport  camera.Size
	Logger    *slog.Logger

	// MaxLoadBytes caps a single GeoJSON document; zero keeps the loader default.
	MaxLoadBytes int64
}

// Server is the layer HTTP server.
type Server struct {
	config    Config
	handler   http.Handler
	humaAPI   huma.API
	processor *service.Processor
	bus       *service.EventBus
	logger    *slog.Logger
}

// New creates a new layer server with an empty store.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-layers API", "1.0.0")
	humaConfig.Info.Description = "Layer store for a geographic data viewer: ingest GeoJSON, reproject, select and restyle layers."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	bus := service.NewEventBus()
	colors := layer.NewColorAllocator()
	proc, err := service.NewProcessor(service.Config{
		TargetCRS: cfg.TargetCRS,
		Viewport:  cfg.Viewport,
	}, loader.New(colors, nil, cfg.Logger, loader.WithMaxBytes(cfg.MaxLoadBytes)), bus, cfg.Logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		handler:   logger.AccessMiddleware(cfg.Logger)(mux),
		humaAPI:   humaAPI,
		processor: proc,
		bus:       bus,
		logger:    cfg.Logger,
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Processor returns the request processor backing the API.
func (s *Server) Processor() *service.Processor {
	return s.processor
}

// Preload ingests sources before serving. Failed sources are logged and
// skipped; the number of layers added is returned.
func (s *Server) Preload(ctx context.Context, sources []loader.Source) (int, error) {
	reqs := make([]service.Request, 0, len(sources))
	for _, src := range sources {
		reqs = append(reqs, service.LoadFile{Source: src})
	}
	ns, err := s.processor.Apply(ctx, reqs...)
	added := 0
	for _, n := range ns {
		switch n.Kind {
		case service.LayerLoaded:
			added++
		case service.LoadFailed:
			s.logger.Warn("preload failed", "source", n.Name, "kind", service.KindOf(n.Err), "error", n.Err)
		}
	}
	return added, err
}

func (s *Server) routes() {
	services := &api.Services{
		Processor: s.processor,
		Bus:       s.bus,
		DataDir:   s.config.DataDir,
	}
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(services))
	api.NewInfoHandler(s.config.DataDir, s.processor).RegisterRoutes(s.humaAPI)
}
