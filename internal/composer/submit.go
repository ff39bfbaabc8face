package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// Form is the free-text part of a submission.
type Form struct {
	Name    string
	Comment string
}

// payloadLocked validates the form against the current state and builds the
// upstream payload. Validation stops at the first failure: name, then
// comment text, then rating.
func (c *Composer) payloadLocked(location campus.ID, form Form) (campus.CommentPayload, error) {
	switch {
	case strings.TrimSpace(form.Name) == "":
		return campus.CommentPayload{}, ErrNameRequired
	case strings.TrimSpace(form.Comment) == "":
		return campus.CommentPayload{}, ErrCommentRequired
	case c.rating == 0:
		return campus.CommentPayload{}, ErrRatingRequired
	case location == "":
		return campus.CommentPayload{}, ErrNoLocation
	}

	images := make([]campus.Attachment, len(c.images))
	for i, img := range c.images {
		images[i] = img.Attachment
	}
	return campus.CommentPayload{
		UserName:   form.Name,
		Rating:     c.rating,
		Comment:    form.Comment,
		CreatedAt:  c.now().UTC(),
		LocationID: location,
		Status:     campus.StatusPending,
		Images:     images,
		IconIDs:    NumericIDs(c.iconIDs),
	}, nil
}

// Submit validates and sends the comment. On success the composer is reset;
// on failure every field is kept so the visitor can retry.
func (c *Composer) Submit(ctx context.Context, location campus.ID, form Form) (campus.CommentPayload, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return campus.CommentPayload{}, ErrSubmitting
	}
	payload, err := c.payloadLocked(location, form)
	if err != nil {
		c.mu.Unlock()
		return campus.CommentPayload{}, err
	}
	c.submitting = true
	c.mu.Unlock()

	ok, err := c.source.Create(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		return payload, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	if !ok {
		return payload, ErrSubmitFailed
	}
	c.resetLocked()
	return payload, nil
}
