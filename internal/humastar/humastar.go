// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// It provides:
//   - SSE: Huma streaming → Datastar SSE protocol via [SSE] and [NewSSE]
//   - Signals: Datastar signal parsing via [Signals] and [SignalsInput]
//   - Handler: Embeddable base for SSE handlers via [Handler]
//
// Usage:
//
//	type ModalHandler struct {
//	    humastar.Handler
//	    loader *detail.Loader
//	}
//
//	func (h *ModalHandler) Open(ctx context.Context, input *OpenInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Patch(h.Render("detail-modal", data), "#infoModal")
//	    }), nil
//	}
package humastar

import (
	"bytes"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/campus"
	"github.com/joeblew999/plat-campus/internal/templates"
)

// AlertSelector is the page element alerts are patched into.
const AlertSelector = "#alert-area"

// ---------------------------------------------------------------------------
// Handler: embeddable base for Datastar SSE handlers
// ---------------------------------------------------------------------------

// Handler is an embeddable base for Huma handlers that produce Datastar SSE
// responses.
type Handler struct {
	Renderer *templates.Renderer
	Logger   *zap.Logger
}

// RenderFailed is patched in place of a fragment that could not be
// rendered, so the section still ends in a visible state.
const RenderFailed = `<p class="section-error">Não foi possível exibir este conteúdo.</p>`

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx, h.Renderer))
		},
	}
}

// Render renders a fragment. A template error is logged and yields
// [RenderFailed].
func (h *Handler) Render(name string, data any) string {
	s, err := h.Renderer.Render(name, data)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("rendering fragment", zap.String("template", name), zap.Error(err))
		}
		return RenderFailed
	}
	return s
}

// ---------------------------------------------------------------------------
// SSE: Huma ↔ Datastar bridge
// ---------------------------------------------------------------------------

// SSE wraps a Datastar SSE generator with the patterns the map page uses:
// inner/outer patches, signals, alerts and page scripts.
type SSE struct {
	*datastar.ServerSentEventGenerator
	renderer *templates.Renderer
}

var _ campus.Notifier = SSE{}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context, r *templates.Renderer) SSE {
	req, w := humago.Unwrap(ctx)
	return SSE{ServerSentEventGenerator: datastar.NewSSE(w, req), renderer: r}
}

// Patch sends HTML to replace inner content at a CSS selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Signals sends arbitrary signals to the UI.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Script runs js on the page. Empty scripts are skipped.
func (s SSE) Script(js string) {
	if js == "" {
		return
	}
	s.ExecuteScript(js)
}

// Alert shows a dismissable dialog. kind is "error" or "success".
func (s SSE) Alert(kind, title, message string) {
	if s.renderer == nil {
		s.Signals(map[string]any{kind: message})
		return
	}
	html, err := s.renderer.Render("alert", map[string]string{
		"Kind": kind, "Title": title, "Message": message,
	})
	if err != nil {
		s.Signals(map[string]any{kind: message})
		return
	}
	s.Patch(html, AlertSelector)
}

// Notify shows message under title. Titles other than "Sucesso" are shown
// as errors.
func (s SSE) Notify(message, title string) {
	kind := "error"
	if title == "Sucesso" {
		kind = "success"
	}
	s.Alert(kind, title, message)
}

// ---------------------------------------------------------------------------
// Signals: Datastar signal parsing
// ---------------------------------------------------------------------------

// Signals provides type-safe access to Datastar signal values.
// Datastar sends all signals as a flat JSON object in the request body.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body. An empty body
// yields no signals.
func ParseSignals(body []byte) (Signals, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Signals{}, nil
	}
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a string signal value, or empty string if not found.
func (s Signals) String(key string) string {
	if str, ok := s[key].(string); ok {
		return str
	}
	return ""
}

// ---------------------------------------------------------------------------
// Input types
// ---------------------------------------------------------------------------

// EmptyInput is a shared input struct for handlers with no parameters.
type EmptyInput struct{}

// SignalsInput is an input struct for handlers that receive Datastar signals.
type SignalsInput struct {
	RawBody []byte
}

// MustParse parses signals or returns a Huma 400 error.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
