// Package api defines the Huma JSON routes: health, service info, the
// location collection and the map geometry endpoints the page calls while
// drawing the floor plan.
package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/api/mapui"
	"github.com/joeblew999/plat-campus/internal/campus"
	"github.com/joeblew999/plat-campus/internal/floorplan"
	"github.com/joeblew999/plat-campus/internal/humastar"
	"github.com/joeblew999/plat-campus/internal/pins"
	"github.com/joeblew999/plat-campus/internal/templates"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Operation tags. TagMap operations are called by the page script.
const (
	TagHealth    = "health"
	TagLocations = "locations"
	TagMap       = "map"
)

// Deps are the collaborators of the JSON endpoints.
type Deps struct {
	Locations campus.LocationSource
	Pins      *pins.Renderer
	Renderer  *templates.Renderer
	Logger    *zap.Logger
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Location ID" example:"12"`
}

type PageInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Page size"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

// LocationBody is a location as exposed by the JSON API.
type LocationBody struct {
	ID          string  `json:"id" doc:"Location ID"`
	Name        string  `json:"name" doc:"Display name"`
	Description string  `json:"description,omitempty" doc:"Free text description"`
	Top         float64 `json:"top" doc:"Vertical position, percent of the image height"`
	Left        float64 `json:"left" doc:"Horizontal position, percent of the image width"`
	Category    string  `json:"category" doc:"Pin category derived from the name"`
}

var locationActions = []humastar.ActionDef{
	{Rel: "open", Pattern: mapui.OpenPath, Method: http.MethodGet, Title: "Abrir detalhes"},
}

// Actions links a location to its detail modal.
func (b LocationBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, locationActions)
}

// APIHandler holds the REST handlers.
type APIHandler struct {
	deps Deps
}

func NewAPIHandler(deps Deps) *APIHandler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &APIHandler{deps: deps}
}

// RegisterRoutes registers every JSON route.
func (h *APIHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health", Method: http.MethodGet, Path: "/health",
		Summary: "Health check", Tags: []string{TagHealth},
	}, h.GetHealth)
	huma.Register(api, huma.Operation{
		OperationID: "list-locations", Method: http.MethodGet, Path: "/api/v1/locations",
		Summary: "List locations", Tags: []string{TagLocations},
	}, h.ListLocations)
	huma.Register(api, huma.Operation{
		OperationID: "get-location", Method: http.MethodGet, Path: "/api/v1/locations/{id}",
		Summary: "Get a location", Tags: []string{TagLocations},
	}, h.GetLocation)
	h.registerMap(api)
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) ListLocations(ctx context.Context, input *PageInput) (*struct {
	Body humastar.PageBody[LocationBody]
}, error) {
	locs, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	bodies := make([]LocationBody, 0, len(locs))
	for _, loc := range locs {
		bodies = append(bodies, h.body(loc))
	}
	return &struct {
		Body humastar.PageBody[LocationBody]
	}{Body: humastar.Paginate(bodies, input.Offset, input.Limit)}, nil
}

func (h *APIHandler) GetLocation(ctx context.Context, input *IDInput) (*struct{ Body LocationBody }, error) {
	locs, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	for _, loc := range locs {
		if loc.ID.String() == input.ID {
			return &struct{ Body LocationBody }{Body: h.body(loc)}, nil
		}
	}
	return nil, huma.Error404NotFound("location not found")
}

func (h *APIHandler) fetch(ctx context.Context) ([]campus.Location, error) {
	if h.deps.Locations == nil {
		return nil, huma.Error503ServiceUnavailable("location source not configured")
	}
	locs, err := h.deps.Locations.All(ctx)
	if err != nil {
		h.deps.Logger.Warn("loading locations failed", zap.Error(err))
		return nil, huma.Error502BadGateway("loading locations failed", err)
	}
	return locs, nil
}

func (h *APIHandler) body(loc campus.Location) LocationBody {
	return LocationBody{
		ID:          loc.ID.String(),
		Name:        loc.Name,
		Description: loc.Description,
		Top:         float64(loc.Top),
		Left:        float64(loc.Left),
		Category:    string(h.deps.Pins.Place(loc, floorplan.Size{}).Category),
	}
}
