package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-layers/internal/service"
)

// NotificationBody is the wire form of a service.Notification.
type NotificationBody struct {
	Kind    string `json:"kind"`
	LayerID uint64 `json:"layerId,omitempty"`
	Name    string `json:"name,omitempty"`
	Visible bool   `json:"visible,omitempty"`
	Error   string `json:"error,omitempty"`
	ErrKind string `json:"errorKind,omitempty"`
}

func toNotificationBody(n service.Notification) NotificationBody {
	body := NotificationBody{
		Kind:    string(n.Kind),
		LayerID: uint64(n.LayerID),
		Name:    n.Name,
		Visible: n.Visible,
	}
	if n.Err != nil {
		body.Error = n.Err.Error()
		body.ErrKind = service.KindOf(n.Err)
	}
	return body
}

// RegisterEvents registers the notification stream.
func (h *APIHandler) RegisterEvents(api huma.API) {
	huma.Get(api, "/api/v1/events", h.Events, huma.OperationTags("events"))
}

// Events streams layer notifications to renderers as Datastar signal patches.
func (h *APIHandler) Events(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	if h.svc.Bus == nil {
		return nil, huma.Error503ServiceUnavailable("event bus not available")
	}
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			// Subscribe before the stream opens so nothing published after
			// the client sees the response is missed.
			ch := h.svc.Bus.Subscribe()
			defer h.svc.Bus.Unsubscribe(ch)

			r, w := humago.Unwrap(humaCtx)
			sse := datastar.NewSSE(w, r)

			for {
				select {
				case <-ctx.Done():
					return
				case n := <-ch:
					if err := sse.MarshalAndPatchSignals(map[string]any{
						"notification": toNotificationBody(n),
					}); err != nil {
						return
					}
				}
			}
		},
	}, nil
}
