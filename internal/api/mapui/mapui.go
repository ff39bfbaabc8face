// Package mapui contains the Datastar SSE handlers that drive the location
// detail modal and the comment composer of the map page.
//
// Every handler reads the visitor's session from the request context,
// performs one state transition and streams back the fragments, signals and
// scripts that bring the page in line with the new state.
package mapui

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/carousel"
	"github.com/joeblew999/plat-campus/internal/composer"
	"github.com/joeblew999/plat-campus/internal/detail"
	"github.com/joeblew999/plat-campus/internal/humastar"
	"github.com/joeblew999/plat-campus/internal/modal"
	"github.com/joeblew999/plat-campus/internal/session"
	"github.com/joeblew999/plat-campus/internal/templates"
)

// Tag marks every operation of this package.
const Tag = "map-ui"

// Prefix is the path prefix of every operation of this package.
const Prefix = "/api/v1/ui"

const (
	OpenPath          = Prefix + "/locations/{id}/open"
	TabPath           = Prefix + "/tabs/{tab}"
	ComposeOpenPath   = Prefix + "/compose/open"
	ComposeCancelPath = Prefix + "/compose/cancel"
	RatePath          = Prefix + "/compose/rating/{value}"
	ImagesPath        = Prefix + "/compose/images"
	ImagePath         = Prefix + "/compose/images/{index}"
	IconsPath         = Prefix + "/compose/icons"
	IconTogglePath    = Prefix + "/compose/icons/{id}/toggle"
	IconPath          = Prefix + "/compose/icons/{id}"
	SubmitPath        = Prefix + "/compose/submit"
	BackPath          = Prefix + "/modal/back"
	PopStatePath      = Prefix + "/modal/popstate"
	ClosePath         = Prefix + "/modal/close"
)

// maxUploadBytes bounds one image upload request; each file is checked
// against composer.MaxImageBytes separately.
const maxUploadBytes = 64 << 20

// Page element selectors.
const (
	selTitle        = "#location-title"
	selStars        = "#location-stars"
	selCarousel     = "#carousel-wrapper"
	selDescription  = "#location-description-text"
	selIcons        = "#info-content"
	selComments     = "#comments-list"
	selComposeStars = "#compose-stars"
	selFiles        = "#file-list"
	selIconPanel    = "#accessibility-pins-selection-area"
	selChips        = "#selected-icons-area"
)

// Handler serves the modal and composer endpoints.
type Handler struct {
	humastar.Handler
	loader      *detail.Loader
	placeholder string
	logger      *zap.Logger
}

// NewHandler creates the SSE handlers. placeholder is the icon image shown
// when an icon has none or fails to load.
func NewHandler(r *templates.Renderer, loader *detail.Loader, placeholder string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Handler:     humastar.Handler{Renderer: r, Logger: logger},
		loader:      loader,
		placeholder: placeholder,
		logger:      logger,
	}
}

// RegisterRoutes registers the modal and composer routes.
func (h *Handler) RegisterRoutes(api huma.API) {
	op := func(id, method, path, summary string) huma.Operation {
		return huma.Operation{
			OperationID: id, Method: method, Path: path,
			Summary: summary, Tags: []string{Tag},
		}
	}

	huma.Register(api, op("modal-open", http.MethodGet, OpenPath, "Open the detail modal of a location"), h.Open)
	huma.Register(api, op("modal-tab", http.MethodPost, TabPath, "Activate a detail tab"), h.SelectTab)
	huma.Register(api, op("modal-back", http.MethodPost, BackPath, "In-page back control"), h.Back)
	huma.Register(api, op("modal-popstate", http.MethodPost, PopStatePath, "Browser back navigation"), h.PopState)
	huma.Register(api, op("modal-close", http.MethodPost, ClosePath, "Close the modal flow"), h.Close)

	huma.Register(api, op("compose-open", http.MethodPost, ComposeOpenPath, "Open the comment composer"), h.OpenCompose)
	huma.Register(api, op("compose-cancel", http.MethodPost, ComposeCancelPath, "Return to the detail modal"), h.CancelCompose)
	huma.Register(api, op("compose-rate", http.MethodPost, RatePath, "Set the star rating"), h.Rate)

	upload := op("compose-images", http.MethodPost, ImagesPath, "Attach images")
	upload.MaxBodyBytes = maxUploadBytes
	huma.Register(api, upload, h.AttachImages)
	huma.Register(api, op("compose-image-remove", http.MethodDelete, ImagePath, "Remove an attached image"), h.RemoveImage)

	huma.Register(api, op("compose-icons", http.MethodGet, IconsPath, "Show or hide the accessibility icon picker"), h.ToggleIconPanel)
	huma.Register(api, op("compose-icon-toggle", http.MethodPost, IconTogglePath, "Select or deselect an icon"), h.ToggleIcon)
	huma.Register(api, op("compose-icon-remove", http.MethodDelete, IconPath, "Remove a selected icon"), h.RemoveIcon)
	huma.Register(api, op("compose-submit", http.MethodPost, SubmitPath, "Submit the comment"), h.Submit)
}

func (h *Handler) session(ctx context.Context) (*session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, huma.Error400BadRequest("no session; reload the page")
	}
	return sess, nil
}

// applyModal sends the modal signals of t and runs its browser effects.
func (h *Handler) applyModal(sse humastar.SSE, sess *session.Session, t modal.Transition) {
	signals := map[string]any{
		"modal":      string(t.To),
		"tab":        string(t.Tab),
		"cancompose": sess.Modal.CanCompose(),
	}
	if t.To == modal.Closed && t.Changed() {
		signals["username"] = ""
		signals["commenttext"] = ""
	}
	sse.Signals(signals)
	for _, e := range t.Effects {
		sse.Script(effectScript(e))
	}
}

func effectScript(e modal.Effect) string {
	switch e {
	case modal.PushHistory:
		return `history.pushState({campusModal: true}, '')`
	case modal.HistoryBack:
		return `history.back()`
	case modal.ScrollToDetail:
		return `document.getElementById('infoModal').scrollIntoView({behavior: 'smooth', block: 'center'})`
	}
	return ""
}

// Fragment data.

// DetailRoutes are the endpoints the detail modal markup calls.
type DetailRoutes struct {
	Close          string
	TabInfo        string
	TabDescription string
	TabReview      string
	Compose        string
}

// DetailData renders the "detail-modal" fragment.
type DetailData struct {
	View     detail.View
	Carousel carousel.Render
	Routes   DetailRoutes
}

func detailRoutes() DetailRoutes {
	return DetailRoutes{
		Close:          ClosePath,
		TabInfo:        humastar.FillPath(TabPath, string(modal.TabInfo)),
		TabDescription: humastar.FillPath(TabPath, string(modal.TabDescription)),
		TabReview:      humastar.FillPath(TabPath, string(modal.TabReview)),
		Compose:        ComposeOpenPath,
	}
}

// StarsData renders the "compose-stars" fragment.
type StarsData struct {
	Stars    []bool
	RateURLs []string
}

func starsData(stars []bool) StarsData {
	d := StarsData{Stars: stars, RateURLs: make([]string, len(stars))}
	for i := range stars {
		d.RateURLs[i] = humastar.FillPath(RatePath, strconv.Itoa(i+1))
	}
	return d
}

// FilesData renders the "file-list" fragment.
type FilesData struct {
	Images     []composer.Image
	RemoveURLs []string
}

func filesData(images []composer.Image) FilesData {
	d := FilesData{Images: images, RemoveURLs: make([]string, len(images))}
	for i := range images {
		d.RemoveURLs[i] = humastar.FillPath(ImagePath, strconv.Itoa(i))
	}
	return d
}

// PanelData renders the "icon-panel" fragment.
type PanelData struct {
	Selection   composer.Selection
	ToggleURLs  map[string]string
	Placeholder string
}

// ChipsData renders the "icon-chips" fragment.
type ChipsData struct {
	Selection  composer.Selection
	RemoveURLs map[string]string
}

func (h *Handler) panelData(sel composer.Selection) PanelData {
	urls := make(map[string]string, len(sel.Grid))
	for _, item := range sel.Grid {
		urls[item.ID] = humastar.FillPath(IconTogglePath, item.ID)
	}
	return PanelData{Selection: sel, ToggleURLs: urls, Placeholder: h.placeholder}
}

func chipsData(sel composer.Selection) ChipsData {
	urls := make(map[string]string, len(sel.Chips))
	for _, c := range sel.Chips {
		urls[c.ID] = humastar.FillPath(IconPath, c.ID)
	}
	return ChipsData{Selection: sel, RemoveURLs: urls}
}

// patchSelection refreshes the icon picker and the chips from one snapshot.
func (h *Handler) patchSelection(sse humastar.SSE, sel composer.Selection) {
	sse.Patch(h.Render("icon-panel", h.panelData(sel)), selIconPanel)
	sse.Patch(h.Render("icon-chips", chipsData(sel)), selChips)
}

// patchComposer refreshes every composer section.
func (h *Handler) patchComposer(sse humastar.SSE, c *composer.Composer) {
	sse.Patch(h.Render("compose-stars", starsData(c.Stars())), selComposeStars)
	sse.Patch(h.Render("file-list", filesData(c.Images())), selFiles)
	h.patchSelection(sse, c.Selection())
}
