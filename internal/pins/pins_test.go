package pins

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-campus/internal/campus"
	"github.com/joeblew999/plat-campus/internal/config"
	"github.com/joeblew999/plat-campus/internal/floorplan"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	c, err := config.Default()
	require.NoError(t, err)
	return NewRenderer(c)
}

func TestClassify(t *testing.T) {
	c := NewClassifier(nil)
	tests := []struct {
		name string
		want Category
	}{
		{"Quadra de Areia", CategorySandCourt},
		{"Quadra poliesportiva", CategoryCourt},
		{"Bloco 5", CategoryBlock},
		{"BIBLIOTECA CENTRAL", CategoryLibrary},
		{"Auditório", CategoryAuditorium},
		{"Estacionamento dos servidores", CategoryParking},
		{"Campo de futebol", CategoryField},
		{"Entrada principal", CategoryEntrance},
		{"Sala 3", CategoryDefault},
		{"", CategoryDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Category(tt.name), "name %q", tt.name)
	}
}

func TestColorFallback(t *testing.T) {
	c := NewClassifier(map[string]string{"bloco": "#111111", "default": "#222222"})
	assert.Equal(t, "#111111", c.Color(CategoryBlock))
	assert.Equal(t, "#222222", c.Color(CategoryLibrary))
	assert.Equal(t, fallbackColor, NewClassifier(nil).Color(CategoryBlock))
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "pin-quadra-areia", CategorySandCourt.ClassName())
}

func TestThumbnailLookup(t *testing.T) {
	c, err := config.Default()
	require.NoError(t, err)
	thumbs := NewThumbnails(c.Thumbnails)

	tests := []struct {
		name string
		want string
	}{
		{"Bloco 5", "/assets/img/map/Bloco-5.svg"},
		{"  BLOCO 9 ", "/assets/img/map/Bloco-9.svg"},
		{"Bloco 16 - Laboratórios", "/assets/img/map/Bloco-16.svg"},
		{"Bloco 6A", "/assets/img/map/Bloco-6.svg"},
		{"Quadra de areia nova", "/assets/img/map/Quadra de areia.svg"},
		{"Vôlei de areia", "/assets/img/map/Quadra de areia.svg"},
		{"Quadra coberta", "/assets/img/map/Quadra.svg"},
		{"Campo society", "/assets/img/map/Quadra.svg"},
		{"Auditorio principal", "/assets/img/map/Auditório.svg"},
		{"Entrada", "/assets/img/map/entrada.svg"},
	}
	for _, tt := range tests {
		got, ok := thumbs.Lookup(tt.name)
		assert.True(t, ok, "name %q", tt.name)
		assert.Equal(t, tt.want, got, "name %q", tt.name)
	}

	_, ok := thumbs.Lookup("Bloco 42")
	assert.False(t, ok)
	_, ok = thumbs.Lookup("Sala dos professores")
	assert.False(t, ok)
}

func TestPlace(t *testing.T) {
	r := testRenderer(t)
	pin := r.Place(campus.Location{ID: "1", Name: "Biblioteca", Top: 50, Left: 25},
		floorplan.Size{Width: 400, Height: 200})

	assert.Equal(t, CategoryLibrary, pin.Category)
	assert.Equal(t, "/assets/img/map/Biblioteca.svg", pin.Thumbnail)
	assert.Equal(t, orb.Point{100, 100}, pin.Point)
	assert.Equal(t, "pin-marker pin-biblioteca", pin.ClassName())
}

func TestPlaceWithoutThumbnail(t *testing.T) {
	r := testRenderer(t)
	pin := r.Place(campus.Location{ID: "2", Name: "Sala 12"}, floorplan.Size{Width: 10, Height: 10})
	assert.Equal(t, CategoryDefault, pin.Category)
	assert.Empty(t, pin.Thumbnail)
}

func TestLayerFindAndGeoJSON(t *testing.T) {
	r := testRenderer(t)
	layer := r.Layer([]campus.Location{
		{ID: "1", Name: "Cantina", Top: 10, Left: 20},
		{ID: "2", Name: "Sala", Top: 0, Left: 0},
		{ID: "1", Name: "Cantina duplicada"},
	}, floorplan.Size{Width: 100, Height: 100})

	require.Len(t, layer.Pins, 2)
	loc, ok := layer.Find("1")
	require.True(t, ok)
	assert.Equal(t, "Cantina", loc.Name)
	_, ok = layer.Find("404")
	assert.False(t, ok)

	fc := layer.FeatureCollection()
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "cantina", fc.Features[0].Properties["category"])
	assert.Equal(t, orb.Point{20, 10}, fc.Features[0].Geometry)
	_, hasThumb := fc.Features[1].Properties["thumbnail"]
	assert.False(t, hasThumb)
}

func TestNilLayer(t *testing.T) {
	var l *Layer
	_, ok := l.Find("1")
	assert.False(t, ok)
	assert.Empty(t, l.FeatureCollection().Features)
}
