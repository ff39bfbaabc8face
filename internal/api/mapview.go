package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/api/mapui"
	"github.com/joeblew999/plat-campus/internal/floorplan"
	"github.com/joeblew999/plat-campus/internal/humastar"
	"github.com/joeblew999/plat-campus/internal/session"
)

// MapPrefix is the path prefix of the map geometry operations.
const MapPrefix = "/api/v1/map"

type ViewportInput struct {
	Body struct {
		ViewportWidth  float64 `json:"viewportWidth" exclusiveMinimum:"0" doc:"Map container width in pixels"`
		ViewportHeight float64 `json:"viewportHeight" exclusiveMinimum:"0" doc:"Map container height in pixels"`
		ImageWidth     float64 `json:"imageWidth" exclusiveMinimum:"0" doc:"Floor-plan natural width in pixels"`
		ImageHeight    float64 `json:"imageHeight" exclusiveMinimum:"0" doc:"Floor-plan natural height in pixels"`
	}
}

// ViewportBody carries the zoom levels and the pin scale bounds, so the page
// can apply 2^(zoom-baseZoom) clamped to [minPinScale, maxPinScale] on every
// zoom event without a round-trip.
type ViewportBody struct {
	BaseZoom    float64       `json:"baseZoom" doc:"Zoom at which the image fills the viewport"`
	MinZoom     float64       `json:"minZoom" doc:"Lowest allowed zoom"`
	MaxZoom     float64       `json:"maxZoom" doc:"Highest allowed zoom"`
	ZoomSnap    float64       `json:"zoomSnap" doc:"Zoom granularity"`
	MinPinScale float64       `json:"minPinScale" doc:"Lower clamp of the pin scale"`
	MaxPinScale float64       `json:"maxPinScale" doc:"Upper clamp of the pin scale"`
	Bounds      [2][2]float64 `json:"bounds" doc:"Image bounds as [[minY, minX], [maxY, maxX]]"`
}

type PinsInput struct {
	Width  float64 `query:"width" required:"true" exclusiveMinimum:"0" doc:"Floor-plan width in pixels"`
	Height float64 `query:"height" required:"true" exclusiveMinimum:"0" doc:"Floor-plan height in pixels"`
}

type ScaleInput struct {
	Zoom float64 `query:"zoom" required:"true" doc:"Current map zoom"`
}

type ScaleBody struct {
	Scale float64 `json:"scale" doc:"Shared pin scale factor"`
}

func (h *APIHandler) registerMap(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "map-viewport", Method: http.MethodPost, Path: MapPrefix + "/viewport",
		Summary: "Record the map viewport and derive zoom levels", Tags: []string{TagMap},
	}, h.PostViewport)
	huma.Register(api, huma.Operation{
		OperationID: "map-pins", Method: http.MethodGet, Path: MapPrefix + "/pins",
		Summary: "Pins of every location as GeoJSON in image pixels", Tags: []string{TagMap},
	}, h.GetPins)
	huma.Register(api, huma.Operation{
		OperationID: "map-scale", Method: http.MethodGet, Path: MapPrefix + "/scale",
		Summary: "Pin scale for a zoom level", Tags: []string{TagMap},
	}, h.GetScale)
}

func (h *APIHandler) PostViewport(ctx context.Context, input *ViewportInput) (*struct{ Body ViewportBody }, error) {
	b := input.Body
	image := floorplan.Size{Width: b.ImageWidth, Height: b.ImageHeight}
	base := floorplan.FillZoom(floorplan.Size{Width: b.ViewportWidth, Height: b.ViewportHeight}, image)
	minZoom, maxZoom := floorplan.ZoomRange(base)
	bound := floorplan.Bounds(image)

	if sess, ok := session.FromContext(ctx); ok {
		sess.SetViewport(session.Viewport{Size: image, BaseZoom: base})
	}
	return &struct{ Body ViewportBody }{Body: ViewportBody{
		BaseZoom:    base,
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		ZoomSnap:    floorplan.ZoomSnap,
		MinPinScale: floorplan.MinPinScale,
		MaxPinScale: floorplan.MaxPinScale,
		Bounds: [2][2]float64{
			{bound.Min.Y(), bound.Min.X()},
			{bound.Max.Y(), bound.Max.X()},
		},
	}}, nil
}

func (h *APIHandler) GetPins(ctx context.Context, input *PinsInput) (*struct {
	Body *geojson.FeatureCollection
}, error) {
	locs, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	layer := h.deps.Pins.Layer(locs, floorplan.Size{Width: input.Width, Height: input.Height})
	if sess, ok := session.FromContext(ctx); ok {
		sess.SetLayer(layer)
	}

	fc := layer.FeatureCollection()
	for i, p := range layer.Pins {
		f := fc.Features[i]
		html, err := h.deps.Renderer.Render("pin-icon", map[string]string{
			"ID":        p.Location.ID.String(),
			"Label":     p.Location.Name,
			"Color":     p.Color,
			"Thumbnail": p.Thumbnail,
		})
		if err != nil {
			h.deps.Logger.Error("rendering pin", zap.String("location", p.Location.ID.String()), zap.Error(err))
			return nil, huma.Error500InternalServerError("rendering pins failed")
		}
		f.Properties["iconHtml"] = html
		f.Properties["detailUrl"] = humastar.FillPath(mapui.OpenPath, p.Location.ID.String())
	}
	return &struct {
		Body *geojson.FeatureCollection
	}{Body: fc}, nil
}

func (h *APIHandler) GetScale(ctx context.Context, input *ScaleInput) (*struct{ Body ScaleBody }, error) {
	scale := 1.0
	if sess, ok := session.FromContext(ctx); ok {
		if v := sess.Viewport(); v.Size.Valid() {
			scale = floorplan.PinScale(input.Zoom, v.BaseZoom)
		}
	}
	return &struct{ Body ScaleBody }{Body: ScaleBody{Scale: scale}}, nil
}
