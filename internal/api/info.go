package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-layers/internal/camera"
	"github.com/joeblew999/plat-layers/internal/crs"
	"github.com/joeblew999/plat-layers/internal/layer"
	"github.com/joeblew999/plat-layers/internal/service"
)

type InfoHandler struct {
	dataDir   string
	processor *service.Processor
}

func NewInfoHandler(dataDir string, processor *service.Processor) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, processor: processor}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name         string   `json:"name" doc:"Service name"`
	Version      string   `json:"version" doc:"Service version"`
	DataDir      string   `json:"data_dir" doc:"Data directory path"`
	TargetCRS    string   `json:"target_crs" doc:"CRS layers are projected into"`
	SupportedCRS []string `json:"supported_crs" doc:"Known coordinate reference systems"`
	Layers       int      `json:"layers" doc:"Number of loaded layers"`
	Features     []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	count := 0
	h.processor.View(func(ls *layer.Layers, _ camera.Camera) { count = ls.Len() })
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:         "plat-layers",
		Version:      "0.1.0",
		DataDir:      h.dataDir,
		TargetCRS:    h.processor.TargetCRS(),
		SupportedCRS: crs.Supported(),
		Layers:       count,
		Features:     []string{"geojson", "reprojection", "selection", "sse"},
	}}, nil
}
