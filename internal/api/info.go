package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// InfoConfig is what /api/v1/info reports about the running service.
type InfoConfig struct {
	APIURL   string
	MediaURL string
	MapImage string
}

type InfoHandler struct {
	cfg InfoConfig
}

func NewInfoHandler(cfg InfoConfig) *InfoHandler {
	return &InfoHandler{cfg: cfg}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-info", Method: http.MethodGet, Path: "/api/v1/info",
		Summary: "Service information", Tags: []string{TagHealth},
	}, h.GetInfo)
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	APIURL   string   `json:"api_url" doc:"Upstream campus API"`
	MediaURL string   `json:"media_url" doc:"Host serving comment images"`
	MapImage string   `json:"map_image" doc:"Floor-plan image URL"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-campus",
		Version:  Version,
		APIURL:   h.cfg.APIURL,
		MediaURL: h.cfg.MediaURL,
		MapImage: h.cfg.MapImage,
		Features: []string{"floor-plan", "pins", "comments", "accessibility-icons"},
	}}, nil
}
