package detail

import (
	"sync"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// Ticket identifies one modal-open cycle.
type Ticket struct {
	gen      uint64
	Location campus.ID
}

// Guard keeps a slow response for a previously opened location from
// overwriting the content of the one open now.
type Guard struct {
	mu      sync.Mutex
	gen     uint64
	current campus.ID
	open    bool
}

// Begin starts a new open cycle for a location and invalidates older tickets.
func (g *Guard) Begin(id campus.ID) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.current = id
	g.open = true
	return Ticket{gen: g.gen, Location: id}
}

// End marks the modal closed; every outstanding ticket becomes stale.
func (g *Guard) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.open = false
}

// Current reports whether the ticket still belongs to the open location.
func (g *Guard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open && t.gen == g.gen && t.Location == g.current
}

// Location returns the currently open location, if any.
func (g *Guard) Location() (campus.ID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current, g.open
}

// Ticket returns the ticket of the open cycle without starting a new one.
func (g *Guard) Ticket() (Ticket, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Ticket{gen: g.gen, Location: g.current}, g.open
}
