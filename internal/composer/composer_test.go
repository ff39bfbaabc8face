package composer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joeblew999/plat-campus/internal/campus"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	icons     []campus.AccessibilityIcon
	iconsErr  error
	iconCalls atomic.Int32

	createOK  bool
	createErr error
	mu        sync.Mutex
	created   []campus.CommentPayload
}

func (f *fakeSource) ByLocation(context.Context, campus.ID) ([]campus.Comment, error) {
	return nil, nil
}

func (f *fakeSource) ApprovedByLocation(context.Context, campus.ID) ([]campus.Comment, error) {
	return nil, nil
}

func (f *fakeSource) Icons(context.Context) ([]campus.AccessibilityIcon, error) {
	f.iconCalls.Add(1)
	return f.icons, f.iconsErr
}

func (f *fakeSource) Create(_ context.Context, p campus.CommentPayload) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	return f.createOK, f.createErr
}

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newComposer(src *fakeSource) *Composer {
	return New(src, "/ph.svg", WithClock(func() time.Time { return fixedNow }))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	img.Set(10, 10, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRate(t *testing.T) {
	c := newComposer(&fakeSource{})
	assert.Equal(t, 0, c.Rating())
	assert.Equal(t, []bool{false, false, false, false, false}, c.Stars())

	s, err := c.Rate(3)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, false, false}, s)

	_, err = c.Rate(6)
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = c.Rate(0)
	assert.ErrorIs(t, err, ErrInvalidRating)
	assert.Equal(t, 3, c.Rating())
}

func TestAttachValidation(t *testing.T) {
	c := newComposer(&fakeSource{})
	big := Upload{Name: "big.png", Size: 11 * 1024 * 1024}
	exact := BytesUpload("exact.webp", make([]byte, 16))
	exact.Size = MaxImageBytes

	imgs, errs := c.Attach([]Upload{
		BytesUpload("photo.PNG", pngBytes(t)),
		big,
		BytesUpload("doc.gif", []byte("GIF89a")),
		exact,
		BytesUpload("noext", []byte("x")),
	})

	require.Len(t, imgs, 2)
	assert.Equal(t, "photo.PNG", imgs[0].Name)
	assert.Equal(t, "image/png", imgs[0].ContentType)
	assert.True(t, strings.HasPrefix(imgs[0].Preview, "data:image/jpeg;base64,"))
	assert.Equal(t, "exact.webp", imgs[1].Name)
	assert.Empty(t, imgs[1].Preview)

	require.Len(t, errs, 3)
	assert.ErrorIs(t, errs[0], ErrImageTooLarge)
	assert.Equal(t, "Imagem muito grande. O tamanho máximo é 10MB.", UserMessage(errs[0]))
	assert.ErrorIs(t, errs[1], ErrImageFormat)
	assert.Contains(t, UserMessage(errs[1]), `"doc.gif"`)
	assert.Contains(t, UserMessage(errs[1]), `".GIF"`)
	assert.ErrorIs(t, errs[2], ErrImageFormat)
}

func TestRemoveImage(t *testing.T) {
	c := newComposer(&fakeSource{})
	c.Attach([]Upload{
		BytesUpload("a.jpg", []byte("a")),
		BytesUpload("b.jpg", []byte("b")),
		BytesUpload("c.jpg", []byte("c")),
	})

	imgs, err := c.RemoveImage(1)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, "a.jpg", imgs[0].Name)
	assert.Equal(t, "c.jpg", imgs[1].Name)

	_, err = c.RemoveImage(5)
	assert.Error(t, err)
	assert.Len(t, c.Images(), 2)
}

func catalog() []campus.AccessibilityIcon {
	return []campus.AccessibilityIcon{
		{ID: "3", Name: "Rampa", Description: "Rampa de acesso", IconURL: "/r.svg"},
		{Name: "Sem id"},
		{ID: "7", Name: "Elevador"},
	}
}

func TestIconPanelLifecycle(t *testing.T) {
	src := &fakeSource{icons: catalog()}
	c := newComposer(src)

	assert.Equal(t, PanelLoading, c.OpenIcons().Panel)
	sel, err := c.LoadIcons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PanelReady, sel.Panel)
	require.Len(t, sel.Grid, 3)
	assert.Equal(t, "Rampa de acesso", sel.Grid[0].Label)
	assert.Equal(t, "/r.svg", sel.Grid[0].Src)
	assert.Equal(t, "item-1", sel.Grid[1].ID)
	assert.Equal(t, "/ph.svg", sel.Grid[2].Src)

	c.CloseIcons()
	assert.Equal(t, PanelReady, c.OpenIcons().Panel)
	_, err = c.LoadIcons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.iconCalls.Load())
}

func TestIconPanelEmptyAndFailed(t *testing.T) {
	c := newComposer(&fakeSource{})
	c.OpenIcons()
	sel, err := c.LoadIcons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PanelEmpty, sel.Panel)
	assert.Equal(t, IconsEmptyMessage, sel.Message)

	failing := &fakeSource{iconsErr: errors.New("down")}
	c = newComposer(failing)
	c.OpenIcons()
	sel, err = c.LoadIcons(context.Background())
	assert.Error(t, err)
	assert.Equal(t, PanelFailed, sel.Panel)
	assert.Equal(t, IconsFailedMessage, sel.Message)

	failing.iconsErr = nil
	failing.icons = catalog()
	c.OpenIcons()
	sel, err = c.LoadIcons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PanelReady, sel.Panel)
	assert.Equal(t, int32(2), failing.iconCalls.Load())
}

func TestConcurrentIconLoads(t *testing.T) {
	src := &fakeSource{icons: catalog()}
	c := newComposer(src)
	c.OpenIcons()

	var wg sync.WaitGroup
	results := make([]Selection, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.LoadIcons(context.Background())
		}(i)
	}
	wg.Wait()

	for _, sel := range results {
		assert.Equal(t, PanelReady, sel.Panel)
		assert.Len(t, sel.Grid, 3)
	}
	calls := src.iconCalls.Load()
	_, err := c.LoadIcons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calls, src.iconCalls.Load())
}

func TestToggleKeepsViewsConsistent(t *testing.T) {
	c := newComposer(&fakeSource{icons: catalog()})
	c.OpenIcons()
	_, err := c.LoadIcons(context.Background())
	require.NoError(t, err)

	sel := c.ToggleIcon("7")
	sel = c.ToggleIcon("item-1")
	sel = c.ToggleIcon("unknown")
	assert.Equal(t, "7,item-1", sel.IDs)
	require.Len(t, sel.Chips, 2)
	assert.Equal(t, "Elevador", sel.Chips[0].Name)
	assert.Equal(t, "Sem id", sel.Chips[1].Name)
	assert.True(t, sel.Grid[2].Selected)
	assert.True(t, sel.Grid[1].Selected)
	assert.False(t, sel.Grid[0].Selected)

	sel = c.ToggleIcon("7")
	assert.Equal(t, "item-1", sel.IDs)
	assert.False(t, sel.Grid[2].Selected)

	sel = c.RemoveIcon("item-1")
	assert.Empty(t, sel.IDs)
	assert.Empty(t, sel.Chips)
	for _, g := range sel.Grid {
		assert.False(t, g.Selected)
	}
}

func TestNumericIDs(t *testing.T) {
	assert.Equal(t, []int{3, 12}, NumericIDs([]string{"3", "item-0", "abc", "12", "4x"}))
	assert.Nil(t, NumericIDs([]string{"item-2"}))
}

func TestValidationOrder(t *testing.T) {
	c := newComposer(&fakeSource{createOK: true})

	_, err := c.Submit(context.Background(), "10", Form{})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, "Por favor, preencha seu nome.", UserMessage(err))

	_, err = c.Submit(context.Background(), "10", Form{Name: "Ana", Comment: "   "})
	assert.ErrorIs(t, err, ErrCommentRequired)
	assert.Equal(t, "Por favor, digite seu comentário.", UserMessage(err))

	_, err = c.Submit(context.Background(), "10", Form{Name: "Ana", Comment: "Boa"})
	assert.ErrorIs(t, err, ErrRatingRequired)
	assert.Equal(t, "Por favor, selecione uma avaliação com estrelas.", UserMessage(err))
}

func TestSubmitSuccessResets(t *testing.T) {
	src := &fakeSource{icons: catalog(), createOK: true}
	c := newComposer(src)
	c.Rate(4)
	c.Attach([]Upload{BytesUpload("a.jpg", []byte("a"))})
	c.OpenIcons()
	_, err := c.LoadIcons(context.Background())
	require.NoError(t, err)
	c.ToggleIcon("item-1")
	c.ToggleIcon("3")

	p, err := c.Submit(context.Background(), "10", Form{Name: "Ana", Comment: "Boa rampa"})
	require.NoError(t, err)
	assert.Equal(t, 4, p.Rating)
	assert.Equal(t, campus.ID("10"), p.LocationID)
	assert.Equal(t, campus.StatusPending, p.Status)
	assert.Equal(t, fixedNow, p.CreatedAt)
	assert.Equal(t, []int{3}, p.IconIDs)
	require.Len(t, p.Images, 1)
	assert.Equal(t, []byte("a"), p.Images[0].Data)

	assert.True(t, c.Empty())
	assert.Equal(t, PanelHidden, c.Selection().Panel)
	require.Len(t, src.created, 1)
}

func TestSubmitOnlySyntheticIconsOmitsField(t *testing.T) {
	c := newComposer(&fakeSource{icons: catalog(), createOK: true})
	c.Rate(2)
	c.OpenIcons()
	_, err := c.LoadIcons(context.Background())
	require.NoError(t, err)
	c.ToggleIcon("item-1")

	p, err := c.Submit(context.Background(), "10", Form{Name: "Ana", Comment: "ok"})
	require.NoError(t, err)
	assert.Nil(t, p.IconIDs)
}

func TestSubmitFailureKeepsState(t *testing.T) {
	for _, src := range []*fakeSource{
		{createOK: false},
		{createErr: errors.New("502")},
	} {
		c := newComposer(src)
		c.Rate(5)
		c.Attach([]Upload{BytesUpload("a.heic", []byte("a"))})

		_, err := c.Submit(context.Background(), "10", Form{Name: "Ana", Comment: "ok"})
		assert.ErrorIs(t, err, ErrSubmitFailed)
		assert.Equal(t, "Erro ao enviar comentário. Tente novamente.", UserMessage(err))
		assert.Equal(t, 5, c.Rating())
		assert.Len(t, c.Images(), 1)
	}
}

func TestSubmitNeedsLocation(t *testing.T) {
	c := newComposer(&fakeSource{createOK: true})
	c.Rate(1)
	_, err := c.Submit(context.Background(), "", Form{Name: "Ana", Comment: "ok"})
	assert.ErrorIs(t, err, ErrNoLocation)
}
