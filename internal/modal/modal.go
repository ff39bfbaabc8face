// Package modal coordinates the detail and compose overlays and their
// interaction with browser history.
//
// Exactly one of Closed, DetailOpen or ComposeOpen holds at any time. Every
// transition returns the side effects the page must perform, so the
// coordinator itself never touches the browser.
package modal

import (
	"errors"
	"fmt"
	"sync"
)

// State is the visible overlay.
type State string

const (
	Closed      State = "closed"
	DetailOpen  State = "detail"
	ComposeOpen State = "compose"
)

// Effect is a browser action requested by a transition.
type Effect string

const (
	// PushHistory registers a synthetic history entry for the open modal.
	PushHistory Effect = "push-history"
	// HistoryBack consumes the synthetic entry.
	HistoryBack Effect = "history-back"
	// ScrollToDetail scrolls the detail modal back to its tab bar.
	ScrollToDetail Effect = "scroll-to-detail"
)

// Tab is a detail modal tab.
type Tab string

const (
	TabInfo        Tab = "info"
	TabDescription Tab = "description"
	TabReview      Tab = "review"
)

// Tabs lists the detail tabs in display order.
var Tabs = []Tab{TabInfo, TabDescription, TabReview}

var (
	ErrNotOpen    = errors.New("detail modal is not open")
	ErrUnknownTab = errors.New("unknown tab")
)

// Transition describes one state change.
type Transition struct {
	From    State
	To      State
	Tab     Tab
	Effects []Effect
}

// Changed reports whether the visible overlay changed.
func (t Transition) Changed() bool { return t.From != t.To }

// Has reports whether the transition requests e.
func (t Transition) Has(e Effect) bool {
	for _, v := range t.Effects {
		if v == e {
			return true
		}
	}
	return false
}

// Coordinator is the modal state machine for one page.
type Coordinator struct {
	mu            sync.Mutex
	state         State
	tab           Tab
	inModal       bool
	historyPushed bool
}

// New returns a closed coordinator.
func New() *Coordinator {
	return &Coordinator{state: Closed, tab: TabInfo}
}

func (c *Coordinator) move(to State, effects ...Effect) Transition {
	t := Transition{From: c.state, To: to, Effects: effects}
	c.state = to
	if to == Closed {
		c.inModal = false
	}
	t.Tab = c.tab
	return t
}

// OpenDetail shows the detail modal with its first tab active. The first
// open of a modal flow pushes one history entry.
func (c *Coordinator) OpenDetail() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tab = Tabs[0]
	c.inModal = true
	if c.historyPushed {
		return c.move(DetailOpen)
	}
	c.historyPushed = true
	return c.move(DetailOpen, PushHistory)
}

// OpenCompose hides the detail modal and shows the composer.
func (c *Coordinator) OpenCompose() (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != DetailOpen {
		return Transition{From: c.state, To: c.state, Tab: c.tab}, fmt.Errorf("open compose from %s: %w", c.state, ErrNotOpen)
	}
	return c.move(ComposeOpen), nil
}

// CancelCompose returns to the detail modal as it was left.
func (c *Coordinator) CancelCompose() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ComposeOpen {
		return c.move(c.state)
	}
	return c.move(DetailOpen)
}

// ComposeSubmitted returns to the detail modal on the reviews tab.
func (c *Coordinator) ComposeSubmitted() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ComposeOpen {
		return c.move(c.state)
	}
	c.tab = TabReview
	return c.move(DetailOpen, ScrollToDetail)
}

// Back handles the in-page back control: compose returns to detail, detail
// closes and consumes the history entry it pushed.
func (c *Coordinator) Back() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case ComposeOpen:
		return c.move(DetailOpen)
	case DetailOpen:
		return c.closeLocked()
	default:
		return c.move(Closed)
	}
}

// PopState handles a browser back-navigation. Outside a modal flow it does
// nothing and the page navigates normally. Inside one it closes exactly one
// layer; stepping back from compose to detail re-registers the entry so the
// next back closes the detail modal.
func (c *Coordinator) PopState() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inModal {
		return c.move(c.state)
	}
	c.historyPushed = false
	switch c.state {
	case ComposeOpen:
		c.historyPushed = true
		return c.move(DetailOpen, PushHistory)
	case DetailOpen:
		return c.move(Closed)
	default:
		c.inModal = false
		return c.move(c.state)
	}
}

// Close dismisses whatever is open.
func (c *Coordinator) Close() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Coordinator) closeLocked() Transition {
	if c.historyPushed {
		c.historyPushed = false
		return c.move(Closed, HistoryBack)
	}
	return c.move(Closed)
}

// SelectTab activates a detail tab.
func (c *Coordinator) SelectTab(tab Tab) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !validTab(tab) {
		return Transition{From: c.state, To: c.state, Tab: c.tab}, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	if c.state != DetailOpen {
		return Transition{From: c.state, To: c.state, Tab: c.tab}, fmt.Errorf("select tab: %w", ErrNotOpen)
	}
	c.tab = tab
	return c.move(DetailOpen), nil
}

func validTab(tab Tab) bool {
	for _, t := range Tabs {
		if t == tab {
			return true
		}
	}
	return false
}

// State returns the visible overlay.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tab returns the active detail tab.
func (c *Coordinator) Tab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// CanCompose reports whether the add-comment control is enabled.
func (c *Coordinator) CanCompose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == DetailOpen && c.tab == TabReview
}

// Visible reports which overlays are shown.
func (c *Coordinator) Visible() (detail, compose bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == DetailOpen, c.state == ComposeOpen
}
