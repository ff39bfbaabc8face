package detail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-campus/internal/campus"
)

type fakeComments struct {
	comments []campus.Comment
	approved []campus.Comment
	err      error
	calls    int
}

func (f *fakeComments) ByLocation(ctx context.Context, id campus.ID) ([]campus.Comment, error) {
	f.calls++
	return f.comments, f.err
}

func (f *fakeComments) ApprovedByLocation(ctx context.Context, id campus.ID) ([]campus.Comment, error) {
	f.calls++
	return f.approved, f.err
}

func (f *fakeComments) Icons(ctx context.Context) ([]campus.AccessibilityIcon, error) {
	return nil, nil
}

func (f *fakeComments) Create(ctx context.Context, p campus.CommentPayload) (bool, error) {
	return true, nil
}

func ratings(rs ...int) []campus.Comment {
	out := make([]campus.Comment, len(rs))
	for i, r := range rs {
		out[i] = campus.Comment{UserName: "u", Rating: campus.Rating(r)}
	}
	return out
}

func TestStarStrip(t *testing.T) {
	assert.Equal(t, []bool{true, true, true, false, false}, StarStrip(3))
	assert.Equal(t, []bool{false, false, false, false, false}, StarStrip(0))
	assert.Equal(t, []bool{true, true, true, true, true}, StarStrip(9))
}

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name   string
		in     []campus.Comment
		avg    float64
		filled int
	}{
		{"empty", nil, 0, 0},
		{"all unrated", ratings(0, 0), 0, 0},
		{"ignores zero", ratings(5, 0, 3), 4, 4},
		{"floors", ratings(4, 5, 0), 4.5, 4},
		{"single", ratings(2), 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, filled := AverageRating(tt.in)
			assert.InDelta(t, tt.avg, avg, 1e-9)
			assert.Equal(t, tt.filled, filled)
		})
	}
}

func TestCollectImagesOrder(t *testing.T) {
	comments := []campus.Comment{
		{Images: campus.ImageRefs{{Value: "a"}, {Value: "b"}}},
		{},
		{Images: campus.ImageRefs{{}, {Value: "c"}}},
	}
	got := CollectImages(comments)
	require.Len(t, got, 4)
	assert.Equal(t, "a", got[0].Value)
	assert.Equal(t, "b", got[1].Value)
	assert.True(t, got[2].IsZero())
	assert.Equal(t, "c", got[3].Value)
}

func TestCollectIconsDedup(t *testing.T) {
	comments := []campus.Comment{
		{Icons: campus.AccessibilityIcons{{ID: "3", Name: "Rampa"}, {ID: "7", Name: "Elevador"}}},
		{Icons: campus.AccessibilityIcons{{ID: "3", Name: "Rampa (dup)"}, {Name: "sem id"}, {ID: "9", Name: "Piso tátil"}}},
	}
	got := CollectIcons(comments)
	require.Len(t, got, 3)
	assert.Equal(t, "Rampa", got[0].Name)
	assert.Equal(t, campus.ID("7"), got[1].ID)
	assert.Equal(t, campus.ID("9"), got[2].ID)
}

func TestShell(t *testing.T) {
	l := NewLoader(&fakeComments{}, "/ph.svg", nil)
	v := l.Shell(campus.Location{ID: "1"})
	assert.Equal(t, UntitledLocation, v.Title)
	assert.Equal(t, NoDescription, v.DescriptionText)
	assert.Equal(t, StateLoading, v.Comments)
	assert.Equal(t, StateLoading, v.Icons)
}

func TestLoadEndToEnd(t *testing.T) {
	src := &fakeComments{comments: []campus.Comment{
		{UserName: "Ana", Rating: 4, Comment: "Boa rampa", CreatedAt: "2024-05-10T12:00:00Z",
			Images:  campus.ImageRefs{{Value: "1.png"}},
			Icons:   campus.AccessibilityIcons{{ID: "3", Name: "Rampa", IconURL: "/r.svg"}}},
		{UserName: "Bia", Rating: 5, Comment: "Ótimo", Description: "Acesso",
			Icons: campus.AccessibilityIcons{{ID: "3", Name: "Rampa"}, {ID: "7", Name: "Elevador"}}},
		{UserName: "Caio", Rating: 0, Comment: "Sem nota", Date: "2024-01-02",
			Images: campus.ImageRefs{{Value: "2.png"}}},
	}}
	l := NewLoader(src, "/ph.svg", nil)
	v := l.Load(context.Background(), campus.Location{ID: "10", Name: "Biblioteca", Description: "Livros"})

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, StateReady, v.Comments)
	require.Len(t, v.CommentCards, 3)
	assert.Equal(t, "10/05/2024", v.CommentCards[0].Date)
	assert.Equal(t, "02/01/2024", v.CommentCards[2].Date)
	assert.Equal(t, []bool{true, true, true, true, false}, v.CommentCards[0].Stars)
	assert.Equal(t, "Acesso", string(v.CommentCards[1].Description))
	assert.Empty(t, v.CommentCards[0].Description)

	assert.InDelta(t, 4.5, v.Average, 1e-9)
	assert.Equal(t, StarStrip(4), v.Stars)

	require.Len(t, v.Images, 2)
	assert.Equal(t, "1.png", v.Images[0].Value)

	assert.Equal(t, StateReady, v.Icons)
	require.Len(t, v.IconTiles, 2)
	assert.Equal(t, "/r.svg", v.IconTiles[0].Src)
	assert.Equal(t, "/ph.svg", v.IconTiles[1].Src)
	assert.Equal(t, "Livros", v.DescriptionText)
}

func TestLoadNoIcons(t *testing.T) {
	l := NewLoader(&fakeComments{comments: ratings(3)}, "/ph.svg", nil)
	v := l.Load(context.Background(), campus.Location{ID: "1"})
	assert.Equal(t, StateReady, v.Icons)
	assert.Empty(t, v.IconTiles)
}

func TestLoadFailure(t *testing.T) {
	l := NewLoader(&fakeComments{err: errors.New("boom")}, "/ph.svg", nil)
	v := l.Load(context.Background(), campus.Location{ID: "1", Name: "Cantina", Description: "Lanches"})

	assert.Equal(t, StateFailed, v.Comments)
	assert.Equal(t, CommentsFailed, v.CommentsError)
	assert.Equal(t, StateFailed, v.Icons)
	assert.Empty(t, v.Images)
	assert.Equal(t, "Cantina", v.Title)
	assert.Equal(t, "Lanches", v.Description)
}

func TestCardSanitizesText(t *testing.T) {
	src := &fakeComments{comments: []campus.Comment{{Comment: `oi<script>alert(1)</script>`}}}
	v := NewLoader(src, "", nil).Load(context.Background(), campus.Location{ID: "1"})
	require.Len(t, v.CommentCards, 1)
	assert.NotContains(t, string(v.CommentCards[0].Text), "<script>")
}

func TestReviews(t *testing.T) {
	src := &fakeComments{approved: ratings(5, 1)}
	v := NewLoader(src, "", nil).Reviews(context.Background(), campus.Location{ID: "1"})
	assert.Equal(t, StateReady, v.Comments)
	assert.Len(t, v.CommentCards, 2)
	assert.Equal(t, StarStrip(3), v.Stars)
}

func TestGuard(t *testing.T) {
	var g Guard
	first := g.Begin("a")
	assert.True(t, g.Current(first))

	second := g.Begin("b")
	assert.False(t, g.Current(first))
	assert.True(t, g.Current(second))

	peek, open := g.Ticket()
	assert.True(t, open)
	assert.True(t, g.Current(peek))

	g.End()
	assert.False(t, g.Current(second))
	_, open = g.Location()
	assert.False(t, open)
}
