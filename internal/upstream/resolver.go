package upstream

import (
	"net/url"
	"strings"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// Resolver turns comment image references into URLs served by the media
// host.
type Resolver struct {
	mediaURL string
}

var _ campus.ImageResolver = Resolver{}

// NewResolver creates a resolver rooted at mediaURL.
func NewResolver(mediaURL string) Resolver {
	return Resolver{mediaURL: strings.TrimRight(strings.TrimSpace(mediaURL), "/")}
}

// Resolve keeps absolute and data URLs, joins rooted paths to the media
// host and maps bare ids to {media}/images/{id}.
func (r Resolver) Resolve(ref campus.ImageRef) string {
	v := strings.TrimSpace(ref.Value)
	switch {
	case v == "":
		return ""
	case strings.HasPrefix(v, "data:"):
		return v
	case strings.HasPrefix(v, "http://"), strings.HasPrefix(v, "https://"):
		if _, err := url.Parse(v); err != nil {
			return ""
		}
		return v
	case strings.HasPrefix(v, "//"):
		return "https:" + v
	case strings.HasPrefix(v, "/"):
		return r.mediaURL + v
	default:
		return r.mediaURL + "/images/" + url.PathEscape(v)
	}
}
