// Package detail loads everything the location detail modal shows: the
// comment list, the aggregate rating, the images for the carousel and the
// accessibility icons embedded in comments.
//
// One comments fetch feeds every section. A failed fetch never escapes the
// loader; it becomes a terminal error state on the affected sections.
package detail

import (
	"context"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// State is the lifecycle of one modal section.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Visitor-facing texts.
const (
	UntitledLocation   = "Sem nome"
	NoDescription      = "Sem descrição disponível"
	NoComments         = "Este local ainda não possui comentários."
	CommentsFailed     = "Erro ao carregar comentários."
	NoAccessibility    = "Nenhum item de acessibilidade informado"
	AccessibilityError = "Não foi possível carregar os itens de acessibilidade."
)

// CommentCard is one rendered comment.
type CommentCard struct {
	UserName    string
	Date        string
	Stars       []bool
	Description template.HTML
	Text        template.HTML
}

// IconTile is one entry of the accessibility grid. Placeholder is also used
// by the page when Src fails to load.
type IconTile struct {
	ID          string
	Name        string
	Src         string
	Placeholder string
}

// View is the state of the detail modal for one location.
type View struct {
	LocationID      campus.ID
	Title           string
	Description     string
	DescriptionText string

	Comments      State
	CommentCards  []CommentCard
	CommentsError string
	Average       float64
	Stars         []bool

	Images []campus.ImageRef

	Icons      State
	IconTiles  []IconTile
	IconsError string
}

// Loader builds detail views from the comment source.
type Loader struct {
	comments    campus.CommentSource
	placeholder string
	policy      *bluemonday.Policy
	log         *zap.Logger
}

// NewLoader creates a loader. placeholder is the icon image used when an
// icon has no image of its own.
func NewLoader(comments campus.CommentSource, placeholder string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		comments:    comments,
		placeholder: placeholder,
		policy:      bluemonday.UGCPolicy(),
		log:         log,
	}
}

// Shell returns the view shown immediately on open: name and description are
// known, every fetched section is loading.
func (l *Loader) Shell(loc campus.Location) View {
	title := loc.Name
	if strings.TrimSpace(title) == "" {
		title = UntitledLocation
	}
	descText := loc.Description
	if strings.TrimSpace(descText) == "" {
		descText = NoDescription
	}
	return View{
		LocationID:      loc.ID,
		Title:           title,
		Description:     loc.Description,
		DescriptionText: descText,
		Comments:        StateLoading,
		Stars:           StarStrip(0),
		Icons:           StateLoading,
	}
}

// Load fetches the comments of a location once and fills every section.
func (l *Loader) Load(ctx context.Context, loc campus.Location) View {
	v := l.Shell(loc)

	comments, err := l.comments.ByLocation(ctx, loc.ID)
	if err != nil {
		l.log.Warn("loading comments failed",
			zap.String("location", loc.ID.String()), zap.Error(err))
		v.Comments = StateFailed
		v.CommentsError = CommentsFailed
		v.Icons = StateFailed
		v.IconsError = AccessibilityError
		return v
	}

	l.fillComments(&v, comments)

	v.Images = CollectImages(comments)

	v.Icons = StateReady
	for _, icon := range CollectIcons(comments) {
		v.IconTiles = append(v.IconTiles, IconTile{
			ID:          icon.ID.String(),
			Name:        icon.Name,
			Src:         icon.ImageSource(l.placeholder),
			Placeholder: l.placeholder,
		})
	}
	return v
}

// Reviews reloads the approved comments of a location. Only the comment list
// and the rating are filled; the other sections stay as the caller has them.
func (l *Loader) Reviews(ctx context.Context, loc campus.Location) View {
	v := l.Shell(loc)
	comments, err := l.comments.ApprovedByLocation(ctx, loc.ID)
	if err != nil {
		l.log.Warn("loading approved comments failed",
			zap.String("location", loc.ID.String()), zap.Error(err))
		v.Comments = StateFailed
		v.CommentsError = CommentsFailed
		return v
	}
	l.fillComments(&v, comments)
	return v
}

func (l *Loader) fillComments(v *View, comments []campus.Comment) {
	v.Comments = StateReady
	v.CommentCards = make([]CommentCard, 0, len(comments))
	for _, c := range comments {
		v.CommentCards = append(v.CommentCards, l.card(c))
	}
	avg, filled := AverageRating(comments)
	v.Average = avg
	v.Stars = StarStrip(filled)
}

func (l *Loader) card(c campus.Comment) CommentCard {
	card := CommentCard{
		UserName: c.UserName,
		Stars:    StarStrip(int(c.Rating)),
		Text:     template.HTML(l.policy.Sanitize(c.Comment)),
	}
	if c.Description != "" {
		card.Description = template.HTML(l.policy.Sanitize(c.Description))
	}
	if ts, ok := c.Timestamp(); ok {
		card.Date = ts.Format("02/01/2006")
	}
	return card
}
