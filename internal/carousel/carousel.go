// Package carousel turns comment image references into slides for the
// page's carousel widget and decides whether the widget must be built or
// only refreshed.
package carousel

import (
	"fmt"
	"sync"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// EmptyMessage is shown on the single slide of an image-less location.
const EmptyMessage = "Sem imagens disponíveis"

// Slide is one carousel entry.
type Slide struct {
	URL string
}

// Render is the carousel content for one location.
type Render struct {
	Slides    []Slide
	Empty     bool
	Loading   bool
	Loop      bool
	Construct bool
}

// Adapter owns the widget lifecycle for one page. The widget is constructed
// on the first render and only refreshed afterwards.
type Adapter struct {
	resolver campus.ImageResolver

	mu          sync.Mutex
	constructed bool
}

// New creates an adapter for one page lifetime.
func New(resolver campus.ImageResolver) *Adapter {
	return &Adapter{resolver: resolver}
}

// Loading returns the placeholder shown while comments are being fetched.
func (a *Adapter) Loading() Render {
	return Render{Loading: true}
}

// Render resolves refs into slides, skipping unresolvable ones, and marks
// whether this call constructs the widget.
func (a *Adapter) Render(refs []campus.ImageRef) Render {
	var r Render
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		url := a.resolver.Resolve(ref)
		if url == "" {
			continue
		}
		r.Slides = append(r.Slides, Slide{URL: url})
	}
	r.Empty = len(r.Slides) == 0
	r.Loop = len(r.Slides) > 1

	a.mu.Lock()
	r.Construct = !a.constructed
	a.constructed = true
	a.mu.Unlock()
	return r
}

// Constructed reports whether the widget has been built on this page.
func (a *Adapter) Constructed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.constructed
}

// Script returns the page script that applies the render to the widget:
// build it once, otherwise recompute slides and jump back to the first one.
// Swiper only switches loop mode through loopDestroy/loopCreate, so the
// loop is torn down before the update and rebuilt after it when wanted.
func (r Render) Script() string {
	if r.Construct {
		return fmt.Sprintf(`window.campusCarousel = new Swiper('.swiper', {
  loop: %t,
  navigation: { nextEl: '.swiper-button-next', prevEl: '.swiper-button-prev' },
  pagination: { el: '.swiper-pagination', clickable: true },
});`, r.Loop)
	}
	return fmt.Sprintf(`if (window.campusCarousel) {
  const carousel = window.campusCarousel;
  if (carousel.params.loop) carousel.loopDestroy();
  carousel.params.loop = %t;
  carousel.update();
  if (carousel.params.loop) {
    carousel.loopCreate(0);
    carousel.slideToLoop(0, 0);
  } else {
    carousel.slideTo(0, 0);
  }
}`, r.Loop)
}
