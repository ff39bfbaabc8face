package campus

import "context"

// LocationSource lists every location on the map.
type LocationSource interface {
	All(ctx context.Context) ([]Location, error)
}

// CommentSource reads and creates comments and the accessibility icon catalog.
type CommentSource interface {
	// ByLocation returns every comment of a location in source order.
	ByLocation(ctx context.Context, id ID) ([]Comment, error)
	// ApprovedByLocation returns the moderated comments of a location.
	ApprovedByLocation(ctx context.Context, id ID) ([]Comment, error)
	// Icons returns the accessibility icon catalog.
	Icons(ctx context.Context) ([]AccessibilityIcon, error)
	// Create submits a comment for moderation. A false result with a nil
	// error means upstream refused it.
	Create(ctx context.Context, p CommentPayload) (bool, error)
}

// ImageResolver turns a raw image reference into an absolute URL. It returns
// "" when the reference cannot be resolved.
type ImageResolver interface {
	Resolve(ref ImageRef) string
}

// Notifier shows a message to the visitor. Fire and forget.
type Notifier interface {
	Notify(message, title string)
}
