// Package floorplan maps percentage-based location positions onto the pixel
// space of the campus floor-plan image and derives the zoom levels the map
// engine uses.
//
// The map runs in a simple (non-geographic) CRS whose units are image
// pixels, so orb points carry (x, y) pixel coordinates here, not lon/lat.
package floorplan

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-campus/internal/campus"
)

const (
	// MinPinScale and MaxPinScale bound the shared pin scale.
	MinPinScale = 0.4
	MaxPinScale = 1.6

	// ZoomSnap is the zoom granularity of the map engine.
	ZoomSnap = 0.25
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width" doc:"Width in pixels"`
	Height float64 `json:"height" doc:"Height in pixels"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// ToPixel converts a (top, left) percentage pair to a pixel point:
// x = left/100*W, y = top/100*H.
func ToPixel(top, left campus.Coord, size Size) orb.Point {
	x := float64(left) / 100 * size.Width
	y := float64(top) / 100 * size.Height
	return orb.Point{finite(x), finite(y)}
}

// Place maps a location onto the image.
func Place(loc campus.Location, size Size) orb.Point {
	return ToPixel(loc.Top, loc.Left, size)
}

// Bounds returns the image overlay bounds.
func Bounds(size Size) orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{size.Width, size.Height}}
}

// FillZoom returns the zoom at which the image fills the viewport on both
// axes, max(log2(vh/H), log2(vw/W)).
func FillZoom(viewport, image Size) float64 {
	if !viewport.Valid() || !image.Valid() {
		return 0
	}
	zoomH := math.Log2(viewport.Height / image.Height)
	zoomW := math.Log2(viewport.Width / image.Width)
	return math.Max(zoomH, zoomW)
}

// ZoomRange returns the allowed zoom range around the base zoom.
func ZoomRange(base float64) (min, max float64) {
	return base - 2, base + 1
}

// PinScale returns 2^(zoom-base) clamped to [MinPinScale, MaxPinScale].
func PinScale(zoom, base float64) float64 {
	scale := math.Pow(2, zoom-base)
	if math.IsNaN(scale) {
		return 1
	}
	return math.Max(MinPinScale, math.Min(scale, MaxPinScale))
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
