// Package composer is the comment-authoring state machine: star rating,
// image attachments, accessibility icon selection and submission.
//
// A Composer belongs to one visitor session. Every method is safe for
// concurrent use; methods that change the selection return a snapshot taken
// under the same lock, so the grid highlight, the chip strip and the id list
// rendered from it always agree.
package composer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// Notice titles.
const (
	TitleError   = "Erro"
	TitleSuccess = "Sucesso"
)

// SubmittedMessage confirms a successful submission.
const SubmittedMessage = "Comentário enviado para aprovação!"

var (
	ErrImageTooLarge   = errors.New("image exceeds size limit")
	ErrImageFormat     = errors.New("image format not allowed")
	ErrNameRequired    = errors.New("name is required")
	ErrCommentRequired = errors.New("comment is required")
	ErrRatingRequired  = errors.New("rating is required")
	ErrInvalidRating   = errors.New("rating out of range")
	ErrNoLocation      = errors.New("no location selected")
	ErrSubmitFailed    = errors.New("comment submission failed")
	ErrSubmitting      = errors.New("submission already in progress")
)

// FileError is a rejected attachment.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// UserMessage maps a composer error to the text shown to the visitor.
func UserMessage(err error) string {
	var fe *FileError
	switch {
	case errors.Is(err, ErrImageTooLarge):
		return "Imagem muito grande. O tamanho máximo é 10MB."
	case errors.Is(err, ErrImageFormat) && errors.As(err, &fe):
		return fmt.Sprintf("Arquivo rejeitado: %q\n\nFormato \".%s\" não é permitido.\n\nUse apenas: PNG, JPG, JPEG, WEBP, HEIC ou HEIF.",
			fe.Name, strings.ToUpper(extension(fe.Name)))
	case errors.Is(err, ErrNameRequired):
		return "Por favor, preencha seu nome."
	case errors.Is(err, ErrCommentRequired):
		return "Por favor, digite seu comentário."
	case errors.Is(err, ErrRatingRequired), errors.Is(err, ErrInvalidRating):
		return "Por favor, selecione uma avaliação com estrelas."
	case errors.Is(err, ErrNoLocation):
		return "Nenhum local selecionado."
	case errors.Is(err, ErrSubmitting):
		return "Aguarde, o comentário está sendo enviado."
	default:
		return "Erro ao enviar comentário. Tente novamente."
	}
}

// Composer holds one authoring session.
type Composer struct {
	source      campus.CommentSource
	placeholder string
	now         func() time.Time
	flight      singleflight.Group

	mu         sync.Mutex
	images     []Image
	rating     int
	iconIDs    []string
	panel      PanelState
	catalog    []campus.AccessibilityIcon
	loaded     bool
	submitting bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// New creates a composer backed by a comment source. placeholder is the icon
// image used when a catalog entry has none.
func New(source campus.CommentSource, placeholder string, opts ...Option) *Composer {
	c := &Composer{
		source:      source,
		placeholder: placeholder,
		now:         time.Now,
		panel:       PanelHidden,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rate sets the rating to k (1-5).
func (c *Composer) Rate(k int) ([]bool, error) {
	if k < 1 || k > MaxRating {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, k)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rating = k
	return stars(c.rating), nil
}

// Rating returns the chosen rating, 0 if unset.
func (c *Composer) Rating() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rating
}

// Stars returns the star row: stars 1..rating filled.
func (c *Composer) Stars() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return stars(c.rating)
}

// MaxRating is the highest selectable rating.
const MaxRating = 5

func stars(rating int) []bool {
	s := make([]bool, MaxRating)
	for i := range s {
		s[i] = i < rating
	}
	return s
}

// Reset clears every piece of authoring state, including the cached icon
// catalog.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Composer) resetLocked() {
	c.images = nil
	c.rating = 0
	c.iconIDs = nil
	c.panel = PanelHidden
	c.catalog = nil
	c.loaded = false
}

// Empty reports whether nothing has been authored yet.
func (c *Composer) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images) == 0 && c.rating == 0 && len(c.iconIDs) == 0
}
