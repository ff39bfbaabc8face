package mapui

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/campus"
	"github.com/joeblew999/plat-campus/internal/detail"
	"github.com/joeblew999/plat-campus/internal/humastar"
	"github.com/joeblew999/plat-campus/internal/modal"
	"github.com/joeblew999/plat-campus/internal/session"
)

type OpenInput struct {
	ID string `path:"id" doc:"Location ID" example:"12"`
}

type TabInput struct {
	Tab string `path:"tab" enum:"info,description,review" doc:"Detail tab"`
}

// Open shows the detail modal of a pinned location. The shell (name,
// description, loading sections) is patched at once; the sections fed by the
// comments fetch follow, unless another open or a close superseded this one.
func (h *Handler) Open(ctx context.Context, input *OpenInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	loc, ok := sess.Location(campus.ID(input.ID))
	if !ok {
		return nil, huma.Error404NotFound("location is not on the map")
	}
	ticket, t := sess.OpenLocation(loc.ID)

	return h.Stream(func(sse humastar.SSE) {
		h.patchSections(sse, h.loader.Shell(loc))
		sse.Patch(h.Render("carousel-slides", sess.Carousel.Loading()), selCarousel)
		h.applyModal(sse, sess, t)

		v := h.loader.Load(ctx, loc)
		if !sess.Guard.Current(ticket) {
			h.logger.Debug("dropping stale detail response", zap.String("location", loc.ID.String()))
			return
		}
		h.patchSections(sse, v)
		slides := sess.Carousel.Render(v.Images)
		sse.Patch(h.Render("carousel-slides", slides), selCarousel)
		sse.Script(slides.Script())
	}), nil
}

func (h *Handler) patchSections(sse humastar.SSE, v detail.View) {
	sse.Patch(h.Render("detail-title", v), selTitle)
	sse.Patch(h.Render("detail-description", v), selDescription)
	sse.Patch(h.Render("detail-stars", v), selStars)
	sse.Patch(h.Render("detail-icons", v), selIcons)
	sse.Patch(h.Render("detail-comments", v), selComments)
}

// SelectTab activates a detail tab, which also decides whether the
// add-comment control is enabled.
func (h *Handler) SelectTab(ctx context.Context, input *TabInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	t, err := sess.Modal.SelectTab(modal.Tab(input.Tab))
	switch {
	case errors.Is(err, modal.ErrUnknownTab):
		return nil, huma.Error400BadRequest(err.Error())
	case err != nil:
		return nil, huma.Error409Conflict(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		h.applyModal(sse, sess, t)
	}), nil
}

// Back handles the page's back control.
func (h *Handler) Back(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.transition(ctx, (*modal.Coordinator).Back)
}

// PopState handles a browser back-navigation while the page is shown.
func (h *Handler) PopState(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.transition(ctx, (*modal.Coordinator).PopState)
}

// Close dismisses the modal flow.
func (h *Handler) Close(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.transition(ctx, (*modal.Coordinator).Close)
}

// transition applies a navigation step. Leaving the modal flow ends the
// detail cycle and discards the draft comment.
func (h *Handler) transition(ctx context.Context, step func(*modal.Coordinator) modal.Transition) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	t := step(sess.Modal)
	if t.To == modal.Closed && t.Changed() {
		sess.EndFlow()
	}
	return h.Stream(func(sse humastar.SSE) {
		h.applyModal(sse, sess, t)
		if t.To == modal.Closed && t.Changed() {
			h.patchComposer(sse, sess.Composer)
		}
	}), nil
}

// reloadReviews refreshes the comment list and rating from the approved
// comments of loc, if loc is still the open location.
func (h *Handler) reloadReviews(ctx context.Context, sse humastar.SSE, sess *session.Session, loc campus.Location) {
	ticket, open := sess.Guard.Ticket()
	if !open || ticket.Location != loc.ID {
		return
	}
	v := h.loader.Reviews(ctx, loc)
	if !sess.Guard.Current(ticket) {
		return
	}
	sse.Patch(h.Render("detail-stars", v), selStars)
	sse.Patch(h.Render("detail-comments", v), selComments)
}
