package pins

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-campus/internal/campus"
	"github.com/joeblew999/plat-campus/internal/config"
	"github.com/joeblew999/plat-campus/internal/floorplan"
)

// Pin is the marker of one location on the floor plan.
type Pin struct {
	Location  campus.Location
	Category  Category
	Color     string
	Thumbnail string // empty: color circle only
	Point     orb.Point
}

// ClassName returns the marker CSS classes.
func (p Pin) ClassName() string {
	return "pin-marker " + p.Category.ClassName()
}

// Renderer builds pins for locations.
type Renderer struct {
	classifier *Classifier
	thumbs     *Thumbnails
}

// NewRenderer creates a pin renderer from the campus catalog.
func NewRenderer(c *config.Catalog) *Renderer {
	return &Renderer{
		classifier: NewClassifier(c.Colors),
		thumbs:     NewThumbnails(c.Thumbnails),
	}
}

// Place builds the pin of one location against the image size.
func (r *Renderer) Place(loc campus.Location, size floorplan.Size) Pin {
	cat := r.classifier.Category(loc.Name)
	thumb, _ := r.thumbs.Lookup(loc.Name)
	return Pin{
		Location:  loc,
		Category:  cat,
		Color:     r.classifier.Color(cat),
		Thumbnail: thumb,
		Point:     floorplan.Place(loc, size),
	}
}

// Layer builds the pins of one render pass.
func (r *Renderer) Layer(locs []campus.Location, size floorplan.Size) *Layer {
	l := &Layer{
		Size: size,
		Pins: make([]Pin, 0, len(locs)),
		byID: make(map[campus.ID]int, len(locs)),
	}
	for _, loc := range locs {
		if _, dup := l.byID[loc.ID]; dup && loc.ID != "" {
			continue
		}
		l.byID[loc.ID] = len(l.Pins)
		l.Pins = append(l.Pins, r.Place(loc, size))
	}
	return l
}

// Layer is every pin of one render pass. It is immutable once built.
type Layer struct {
	Size floorplan.Size
	Pins []Pin
	byID map[campus.ID]int
}

// Find returns the already-fetched location behind a pin.
func (l *Layer) Find(id campus.ID) (campus.Location, bool) {
	if l == nil {
		return campus.Location{}, false
	}
	i, ok := l.byID[id]
	if !ok {
		return campus.Location{}, false
	}
	return l.Pins[i].Location, true
}

// FeatureCollection returns the pins as GeoJSON points in pixel space.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if l == nil {
		return fc
	}
	for _, p := range l.Pins {
		f := geojson.NewFeature(p.Point)
		f.ID = p.Location.ID.String()
		f.Properties["id"] = p.Location.ID.String()
		f.Properties["name"] = p.Location.Name
		f.Properties["category"] = string(p.Category)
		f.Properties["color"] = p.Color
		f.Properties["className"] = p.ClassName()
		if p.Thumbnail != "" {
			f.Properties["thumbnail"] = p.Thumbnail
		}
		fc.Append(f)
	}
	return fc
}
