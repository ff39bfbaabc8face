// Package session holds the per-visitor state of one map page: the pin
// layer, the open location, the carousel widget, the composer and the modal
// coordinator. A session is created on every page load and looked up by
// cookie on the requests that page makes.
package session

import (
	"sync"
	"time"

	"github.com/joeblew999/plat-campus/internal/campus"
	"github.com/joeblew999/plat-campus/internal/carousel"
	"github.com/joeblew999/plat-campus/internal/composer"
	"github.com/joeblew999/plat-campus/internal/detail"
	"github.com/joeblew999/plat-campus/internal/floorplan"
	"github.com/joeblew999/plat-campus/internal/modal"
	"github.com/joeblew999/plat-campus/internal/pins"
)

// Deps are the collaborators every session is built from.
type Deps struct {
	Comments        campus.CommentSource
	Resolver        campus.ImageResolver
	IconPlaceholder string
}

// Viewport is the map geometry reported by the page.
type Viewport struct {
	Size     floorplan.Size
	BaseZoom float64
}

// Session is one page's state.
type Session struct {
	ID string

	Guard    *detail.Guard
	Carousel *carousel.Adapter
	Composer *composer.Composer
	Modal    *modal.Coordinator

	mu       sync.Mutex
	layer    *pins.Layer
	viewport Viewport
	seen     time.Time
}

// New creates an empty session.
func New(id string, deps Deps) *Session {
	return &Session{
		ID:       id,
		Guard:    &detail.Guard{},
		Carousel: carousel.New(deps.Resolver),
		Composer: composer.New(deps.Comments, deps.IconPlaceholder),
		Modal:    modal.New(),
		seen:     time.Now(),
	}
}

// SetLayer stores the pins rendered on the page.
func (s *Session) SetLayer(l *pins.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layer = l
}

// Layer returns the rendered pins, nil before the first render.
func (s *Session) Layer() *pins.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layer
}

// Location looks up a rendered location by id.
func (s *Session) Location(id campus.ID) (campus.Location, bool) {
	return s.Layer().Find(id)
}

// SetViewport records the map geometry.
func (s *Session) SetViewport(v Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
}

// Viewport returns the last recorded map geometry.
func (s *Session) Viewport() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// OpenLocation starts a detail cycle for id.
func (s *Session) OpenLocation(id campus.ID) (detail.Ticket, modal.Transition) {
	return s.Guard.Begin(id), s.Modal.OpenDetail()
}

// CurrentLocation returns the location whose detail modal is open.
func (s *Session) CurrentLocation() (campus.Location, bool) {
	id, open := s.Guard.Location()
	if !open {
		return campus.Location{}, false
	}
	loc, ok := s.Location(id)
	if !ok {
		return campus.Location{ID: id}, true
	}
	return loc, true
}

// EndFlow is called once the modal flow is closed: outstanding detail loads
// become stale and the draft comment is discarded.
func (s *Session) EndFlow() {
	s.Guard.End()
	s.Composer.Reset()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.seen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.seen)
}
