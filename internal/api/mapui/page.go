package mapui

import (
	"github.com/joeblew999/plat-campus/internal/campus"
	"github.com/joeblew999/plat-campus/internal/humastar"
	"github.com/joeblew999/plat-campus/internal/modal"
	"github.com/joeblew999/plat-campus/internal/session"
)

// PageTitle is the document and navbar title.
const PageTitle = "Mapa do Campus"

// PageView renders the "page" template.
type PageView struct {
	humastar.PageData
	Title     string
	MapImage  string
	SessionID string // sent back in the session header by every page request
	Detail    DetailData
	Stars     StarsData
	Chips     ChipsData
}

// InitialSignals are the page's data-signals before any interaction.
func InitialSignals() map[string]any {
	return map[string]any{
		"modal":       string(modal.Closed),
		"tab":         string(modal.TabInfo),
		"cancompose":  false,
		"username":    "",
		"commenttext": "",
	}
}

// PageView builds the page for a fresh session: both modals closed and an
// empty detail shell.
func (h *Handler) PageView(pd humastar.PageData, mapImage string, sess *session.Session) PageView {
	return PageView{
		PageData:  pd,
		Title:     PageTitle,
		MapImage:  mapImage,
		SessionID: sess.ID,
		Detail: DetailData{
			View:     h.loader.Shell(campus.Location{}),
			Carousel: sess.Carousel.Loading(),
			Routes:   detailRoutes(),
		},
		Stars: starsData(sess.Composer.Stars()),
		Chips: chipsData(sess.Composer.Selection()),
	}
}
