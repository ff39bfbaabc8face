package composer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// PanelState is the icon picker's lifecycle.
type PanelState string

const (
	PanelHidden  PanelState = "hidden"
	PanelLoading PanelState = "loading"
	PanelReady   PanelState = "ready"
	PanelEmpty   PanelState = "empty"
	PanelFailed  PanelState = "failed"
)

// Panel texts.
const (
	IconsLoadingMessage = "Carregando pins de acessibilidade..."
	IconsEmptyMessage   = "Nenhum pin de acessibilidade disponível."
	IconsFailedMessage  = "Erro ao carregar os pins."
)

// GridItem is one selectable catalog entry.
type GridItem struct {
	ID       string
	Label    string
	Src      string
	Selected bool
}

// Chip is one selected icon shown under the form.
type Chip struct {
	ID   string
	Name string
	Src  string
}

// Selection is a consistent view of the icon picker. Grid, Chips and IDs
// are all derived from the same id list.
type Selection struct {
	Panel   PanelState
	Message string
	Grid    []GridItem
	Chips   []Chip
	IDs     string
}

// catalogKey is the singleflight key; one composer only ever loads one
// catalog.
const catalogKey = "icons"

// OpenIcons shows the icon panel. A cached catalog is shown right away;
// otherwise the panel enters the loading state and the caller follows up
// with LoadIcons.
func (c *Composer) OpenIcons() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		c.panel = panelFor(c.catalog)
	} else {
		c.panel = PanelLoading
	}
	return c.selectionLocked()
}

// LoadIcons fetches the catalog once per composer session. Concurrent calls
// share one upstream request. A failed fetch is not cached.
func (c *Composer) LoadIcons(ctx context.Context) (Selection, error) {
	c.mu.Lock()
	if c.loaded {
		c.panel = panelFor(c.catalog)
		sel := c.selectionLocked()
		c.mu.Unlock()
		return sel, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(catalogKey, func() (any, error) {
		return c.source.Icons(ctx)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.panel != PanelHidden {
			c.panel = PanelFailed
		}
		return c.selectionLocked(), fmt.Errorf("loading icon catalog: %w", err)
	}
	c.catalog, _ = v.([]campus.AccessibilityIcon)
	c.loaded = true
	if c.panel != PanelHidden {
		c.panel = panelFor(c.catalog)
	}
	return c.selectionLocked(), nil
}

// CloseIcons hides the panel, keeping the selection.
func (c *Composer) CloseIcons() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel = PanelHidden
	return c.selectionLocked()
}

// ToggleIcon adds or removes a catalog id from the selection. Ids that are
// not in the loaded catalog are ignored.
func (c *Composer) ToggleIcon(id string) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.knownLocked(id) {
		return c.selectionLocked()
	}
	if i := indexOf(c.iconIDs, id); i >= 0 {
		c.iconIDs = append(c.iconIDs[:i], c.iconIDs[i+1:]...)
	} else {
		c.iconIDs = append(c.iconIDs, id)
	}
	return c.selectionLocked()
}

// RemoveIcon drops id from the selection.
func (c *Composer) RemoveIcon(id string) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.iconIDs, id); i >= 0 {
		c.iconIDs = append(c.iconIDs[:i], c.iconIDs[i+1:]...)
	}
	return c.selectionLocked()
}

// Selection returns the current picker snapshot.
func (c *Composer) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionLocked()
}

func (c *Composer) selectionLocked() Selection {
	sel := Selection{
		Panel: c.panel,
		IDs:   strings.Join(c.iconIDs, ","),
	}
	switch c.panel {
	case PanelLoading:
		sel.Message = IconsLoadingMessage
	case PanelEmpty:
		sel.Message = IconsEmptyMessage
	case PanelFailed:
		sel.Message = IconsFailedMessage
	}

	selected := make(map[string]bool, len(c.iconIDs))
	for _, id := range c.iconIDs {
		selected[id] = true
	}
	byID := make(map[string]campus.AccessibilityIcon, len(c.catalog))
	for i, icon := range c.catalog {
		id := catalogID(icon, i)
		byID[id] = icon
		label := icon.Description
		if label == "" {
			label = icon.Name
		}
		if label == "" {
			label = fmt.Sprintf("Ícone %d", i+1)
		}
		sel.Grid = append(sel.Grid, GridItem{
			ID:       id,
			Label:    label,
			Src:      icon.ImageSource(c.placeholder),
			Selected: selected[id],
		})
	}
	for _, id := range c.iconIDs {
		icon := byID[id]
		name := icon.DisplayName()
		if name == "" {
			name = "Ícone " + id
		}
		sel.Chips = append(sel.Chips, Chip{ID: id, Name: name, Src: icon.ImageSource(c.placeholder)})
	}
	return sel
}

func (c *Composer) knownLocked(id string) bool {
	for i, icon := range c.catalog {
		if catalogID(icon, i) == id {
			return true
		}
	}
	return false
}

// catalogID is the entry's id, or item-<index> when it has none.
func catalogID(icon campus.AccessibilityIcon, i int) string {
	if icon.ID != "" {
		return string(icon.ID)
	}
	return "item-" + strconv.Itoa(i)
}

func panelFor(catalog []campus.AccessibilityIcon) PanelState {
	if len(catalog) == 0 {
		return PanelEmpty
	}
	return PanelReady
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// NumericIDs keeps the ids that are plain integers, in order. Synthetic
// item-<index> ids never reach the upstream API.
func NumericIDs(ids []string) []int {
	var out []int
	for _, id := range ids {
		if strings.HasPrefix(id, "item-") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
