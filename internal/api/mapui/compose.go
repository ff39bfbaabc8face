package mapui

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/composer"
	"github.com/joeblew999/plat-campus/internal/humastar"
)

type RateInput struct {
	Value int `path:"value" minimum:"1" maximum:"5" doc:"Star rating"`
}

type ImagesInput struct {
	RawBody multipart.Form
}

type ImageIndexInput struct {
	Index int `path:"index" minimum:"0" doc:"Position in the attachment list"`
}

type IconInput struct {
	ID string `path:"id" doc:"Accessibility icon ID"`
}

// OpenCompose swaps the detail modal for the composer. It is only allowed
// from the reviews tab.
func (h *Handler) OpenCompose(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.Modal.CanCompose() {
		return nil, huma.Error409Conflict("comments can only be added from the reviews tab")
	}
	t, err := sess.Modal.OpenCompose()
	if err != nil {
		return nil, huma.Error409Conflict(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		h.patchComposer(sse, sess.Composer)
		h.applyModal(sse, sess, t)
	}), nil
}

// CancelCompose returns to the detail modal, keeping the draft.
func (h *Handler) CancelCompose(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	t := sess.Modal.CancelCompose()
	return h.Stream(func(sse humastar.SSE) {
		h.applyModal(sse, sess, t)
	}), nil
}

// Rate sets the star rating.
func (h *Handler) Rate(ctx context.Context, input *RateInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	stars, err := sess.Composer.Rate(input.Value)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.Render("compose-stars", starsData(stars)), selComposeStars)
	}), nil
}

// AttachImages validates and attaches the uploaded images. The messages of
// every rejected file are joined into one alert; accepted files are kept
// either way.
func (h *Handler) AttachImages(ctx context.Context, input *ImagesInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	var uploads []composer.Upload
	for _, fh := range input.RawBody.File["images"] {
		uploads = append(uploads, composer.FromFileHeader(fh))
	}
	images, errs := sess.Composer.Attach(uploads)
	return h.Stream(func(sse humastar.SSE) {
		if len(errs) > 0 {
			msgs := make([]string, 0, len(errs))
			for _, err := range errs {
				h.logger.Debug("image rejected", zap.Error(err))
				msgs = append(msgs, composer.UserMessage(err))
			}
			sse.Notify(strings.Join(msgs, "\n\n"), composer.TitleError)
		}
		sse.Patch(h.Render("file-list", filesData(images)), selFiles)
	}), nil
}

// RemoveImage drops an attachment by position.
func (h *Handler) RemoveImage(ctx context.Context, input *ImageIndexInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	images, err := sess.Composer.RemoveImage(input.Index)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.Render("file-list", filesData(images)), selFiles)
	}), nil
}

// ToggleIconPanel shows the icon picker, loading the catalog on first use,
// or hides it when it is already shown.
func (h *Handler) ToggleIconPanel(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	c := sess.Composer
	if c.Selection().Panel != composer.PanelHidden {
		sel := c.CloseIcons()
		return h.Stream(func(sse humastar.SSE) {
			h.patchSelection(sse, sel)
		}), nil
	}
	sel := c.OpenIcons()
	return h.Stream(func(sse humastar.SSE) {
		h.patchSelection(sse, sel)
		if sel.Panel != composer.PanelLoading {
			return
		}
		loaded, err := c.LoadIcons(ctx)
		if err != nil {
			h.logger.Warn("loading icon catalog failed", zap.Error(err))
		}
		h.patchSelection(sse, loaded)
	}), nil
}

// ToggleIcon selects or deselects a catalog icon.
func (h *Handler) ToggleIcon(ctx context.Context, input *IconInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	sel := sess.Composer.ToggleIcon(input.ID)
	return h.Stream(func(sse humastar.SSE) {
		h.patchSelection(sse, sel)
	}), nil
}

// RemoveIcon drops an icon from the selection.
func (h *Handler) RemoveIcon(ctx context.Context, input *IconInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	sel := sess.Composer.RemoveIcon(input.ID)
	return h.Stream(func(sse humastar.SSE) {
		h.patchSelection(sse, sel)
	}), nil
}

// Submit validates and sends the comment. Validation and upstream failures
// raise an alert and keep the draft. On success the composer is cleared, the
// detail modal comes back on the reviews tab and the reviews are reloaded.
func (h *Handler) Submit(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	form := composer.Form{
		Name:    signals.String("username"),
		Comment: signals.String("commenttext"),
	}
	loc, _ := sess.CurrentLocation()

	return h.Stream(func(sse humastar.SSE) {
		if _, err := sess.Composer.Submit(ctx, loc.ID, form); err != nil {
			h.logger.Info("comment not submitted", zap.String("location", loc.ID.String()), zap.Error(err))
			sse.Notify(composer.UserMessage(err), composer.TitleError)
			return
		}
		sse.Notify(composer.SubmittedMessage, composer.TitleSuccess)
		sse.Signals(map[string]any{"username": "", "commenttext": ""})
		h.patchComposer(sse, sess.Composer)

		h.applyModal(sse, sess, sess.Modal.ComposeSubmitted())
		h.reloadReviews(ctx, sse, sess, loc)
	}), nil
}
