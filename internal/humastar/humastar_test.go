package humastar

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joeblew999/plat-campus/internal/templates"
)

func newAPI(t *testing.T, cfg huma.Config) humatest.TestAPI {
	t.Helper()
	return humatest.Wrap(t, humago.New(http.NewServeMux(), cfg))
}

func TestFillPath(t *testing.T) {
	assert.Equal(t, "/a/7/b", FillPath("/a/{id}/b", "7"))
	assert.Equal(t, "/a/7/b/x", FillPath("/a/{id}/b/{tab}", "7", "x"))
	assert.Equal(t, "/a/{id}", FillPath("/a/{id}"))
	assert.Equal(t, "/a/b%2Fc", FillPath("/a/{id}", "b/c"))
	assert.Equal(t, "/plain", FillPath("/plain", "ignored"))
}

func TestActionLinkHeader(t *testing.T) {
	actions := ActionsFor("7", []ActionDef{
		{Rel: "open", Pattern: "/ui/{id}/open", Method: http.MethodGet, Title: "Abrir"},
	})
	require.Len(t, actions, 1)
	assert.Equal(t, `</ui/7/open>; rel="open"; method="GET"; title="Abrir"`, actions[0].LinkHeader())
	assert.Equal(t, `<x>; rel="self"`, Action{Rel: "self", Href: "x"}.LinkHeader())
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, p.Data)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, []string{
		`</x?offset=0&limit=2>; rel="first"`,
		`</x?offset=0&limit=2>; rel="prev"`,
		`</x?offset=4&limit=2>; rel="next"`,
		`</x?offset=4&limit=2>; rel="last"`,
	}, p.PaginationLinks("/x"))

	empty := Paginate(items, 10, 2)
	assert.Empty(t, empty.Data)
	assert.NotNil(t, empty.Data)

	def := Paginate(items, -1, 0)
	assert.Equal(t, DefaultLimit, def.Limit)
	assert.Equal(t, 0, def.Offset)
	assert.Len(t, def.Data, 5)

	none := Paginate([]int{}, 0, 10)
	assert.Equal(t, []string{
		`</x?offset=0&limit=10>; rel="first"`,
		`</x?offset=0&limit=10>; rel="last"`,
	}, none.PaginationLinks("/x"))
}

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"username":"Ana","count":3,"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "Ana", s.String("username"))
	assert.Equal(t, "", s.String("count"))

	s, err = ParseSignals(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = ParseSignals([]byte("{"))
	assert.Error(t, err)

	_, err = (&SignalsInput{RawBody: []byte("nope")}).MustParse()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.GetStatus())
}

type itemBody struct {
	ID string `json:"id"`
}

func (b itemBody) Actions() []Action {
	return []Action{{Rel: "open", Href: "/ui/" + b.ID, Method: http.MethodGet}}
}

func TestLinksAndRoutes(t *testing.T) {
	links := NewLinks()
	cfg := huma.DefaultConfig("test", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, links.Transformer())
	api := newAPI(t, cfg)

	huma.Register(api, huma.Operation{
		OperationID: "health", Method: http.MethodGet, Path: "/health", Tags: []string{"health"},
	}, func(ctx context.Context, _ *EmptyInput) (*struct{}, error) { return &struct{}{}, nil })
	huma.Register(api, huma.Operation{
		OperationID: "list-things", Method: http.MethodGet, Path: "/things", Tags: []string{"things"},
	}, func(ctx context.Context, _ *EmptyInput) (*struct{ Body PageBody[int] }, error) {
		return &struct{ Body PageBody[int] }{Body: Paginate([]int{1, 2, 3}, 0, 2)}, nil
	})
	huma.Register(api, huma.Operation{
		OperationID: "get-thing", Method: http.MethodGet, Path: "/things/{id}", Tags: []string{"things"},
	}, func(ctx context.Context, in *struct {
		ID string `path:"id"`
	}) (*struct{ Body itemBody }, error) {
		return &struct{ Body itemBody }{Body: itemBody{ID: in.ID}}, nil
	})
	huma.Register(api, huma.Operation{
		OperationID: "ui-open", Method: http.MethodPost, Path: "/ui/{id}/open", Tags: []string{"ui"},
	}, func(ctx context.Context, _ *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		return &struct{}{}, nil
	})

	links.Discover(api, "ui")

	assert.Contains(t, links.For("/health"), `</things>; rel="things"`)
	assert.Contains(t, links.For("/things"), `</things/{id}>; rel="item"`)
	assert.Contains(t, links.For("/things/{id}"), `</things>; rel="collection"`)
	assert.Empty(t, links.For("/ui/{id}/open"))

	resp := api.Get("/things/9")
	require.Equal(t, http.StatusOK, resp.Code)
	got := resp.Header().Values("Link")
	assert.Contains(t, got, `</things/9>; rel="self"`)
	assert.Contains(t, got, `</ui/9>; rel="open"; method="GET"`)

	resp = api.Get("/things")
	assert.Contains(t, resp.Header().Values("Link"), `</things?offset=2&limit=2>; rel="next"`)

	pd, err := BuildPageData(api, map[string]any{"modal": "closed"}, "ui")
	require.NoError(t, err)
	assert.JSONEq(t, `{"modal":"closed"}`, pd.Signals)
	assert.Equal(t, "/ui/4/open", pd.Route("ui-open", "4"))
	assert.Equal(t, "", pd.Route("get-thing"))
}

func TestStreamAlert(t *testing.T) {
	r, err := templates.New()
	require.NoError(t, err)
	h := &Handler{Renderer: r}
	api := newAPI(t, huma.DefaultConfig("test", "1.0.0"))

	huma.Register(api, huma.Operation{
		OperationID: "alert", Method: http.MethodPost, Path: "/alert",
	}, func(ctx context.Context, _ *EmptyInput) (*huma.StreamResponse, error) {
		return h.Stream(func(sse SSE) {
			sse.Notify("Nome obrigatório", "Erro")
			sse.Signals(map[string]any{"modal": "compose"})
			sse.Script("")
		}), nil
	})

	resp := api.Post("/alert")
	body := resp.Body.String()
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, "alert-dialog alert-error")
	assert.Contains(t, body, AlertSelector)
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"modal":"compose"`)
}

func TestRenderFailureIsLogged(t *testing.T) {
	r, err := templates.New()
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)
	h := &Handler{Renderer: r, Logger: zap.New(core)}

	assert.Equal(t, RenderFailed, h.Render("no-such-fragment", nil))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "no-such-fragment", entry.ContextMap()["template"])

	assert.Contains(t, h.Render("loader", nil), "loader-container")
	assert.Equal(t, 1, logs.Len())
}
