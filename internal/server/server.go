package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/api"
	"github.com/joeblew999/plat-campus/internal/api/mapui"
	"github.com/joeblew999/plat-campus/internal/campus"
	"github.com/joeblew999/plat-campus/internal/config"
	"github.com/joeblew999/plat-campus/internal/detail"
	"github.com/joeblew999/plat-campus/internal/floorplan"
	"github.com/joeblew999/plat-campus/internal/humastar"
	"github.com/joeblew999/plat-campus/internal/logging"
	"github.com/joeblew999/plat-campus/internal/pins"
	"github.com/joeblew999/plat-campus/internal/session"
	"github.com/joeblew999/plat-campus/internal/templates"
	"github.com/joeblew999/plat-campus/internal/upstream"
)

// FragmentsDir is where dev mode reloads the HTML fragments from.
var FragmentsDir = filepath.Join("internal", "templates", "fragments")

// Config holds the server configuration.
type Config struct {
	Host        string
	Port        string
	APIURL      string // upstream campus API
	MediaURL    string // host serving comment images
	WebDir      string // static/ and assets/ are served from here
	CatalogPath string // YAML campus catalog; empty uses the embedded one
	Dev         bool   // reload fragments on every page load
	SessionTTL  time.Duration
	Logger      *zap.Logger
	HTTPClient  *http.Client
}

// Server is the campus map HTTP server.
type Server struct {
	config    Config
	logger    *zap.Logger
	mux       *http.ServeMux
	handler   http.Handler
	humaAPI   huma.API
	links     *humastar.Links
	renderer  *templates.Renderer
	catalog   *config.Catalog
	locations campus.LocationSource
	pins      *pins.Renderer
	sessions  *session.Store
	mapUI     *mapui.Handler
	page      humastar.PageData
}

// New wires the upstream client, the session store and every route.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	var renderer *templates.Renderer
	if cfg.Dev {
		renderer, err = templates.NewFromDir(FragmentsDir)
		if err == nil {
			logger.Info("loaded fragment templates", zap.String("dir", FragmentsDir))
		}
	} else {
		renderer, err = templates.New()
	}
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	links := humastar.NewLinks()

	humaConfig := huma.DefaultConfig("plat-campus API", api.Version)
	humaConfig.Info.Description = "Campus floor-plan map: locations, pins, location details and visitor comments."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, links.Transformer())
	humaAPI := humago.New(mux, humaConfig)

	opts := []upstream.Option{upstream.WithLogger(logger)}
	if cfg.HTTPClient != nil {
		opts = append(opts, upstream.WithHTTPClient(cfg.HTTPClient))
	}
	client := upstream.NewClient(cfg.APIURL, opts...)

	s := &Server{
		config:    cfg,
		logger:    logger,
		mux:       mux,
		humaAPI:   humaAPI,
		links:     links,
		renderer:  renderer,
		catalog:   catalog,
		locations: client,
		pins:      pins.NewRenderer(catalog),
		sessions: session.NewStore(session.Deps{
			Comments:        client,
			Resolver:        upstream.NewResolver(cfg.MediaURL),
			IconPlaceholder: catalog.IconPlaceholder,
		}, cfg.SessionTTL, logger),
		mapUI: mapui.NewHandler(renderer,
			detail.NewLoader(client, catalog.IconPlaceholder, logger),
			catalog.IconPlaceholder, logger),
	}

	if err := s.routes(); err != nil {
		return nil, err
	}
	s.handler = logging.RequestLogger(logger)(s.withSession(mux))
	return s, nil
}

func loadCatalog(path string) (*config.Catalog, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Run evicts idle sessions until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.sessions.Run(ctx)
}

// Pins fetches every location and lays it out on an image of the given
// size.
func (s *Server) Pins(ctx context.Context, size floorplan.Size) (*geojson.FeatureCollection, error) {
	locs, err := s.locations.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading locations: %w", err)
	}
	return s.pins.Layer(locs, size).FeatureCollection(), nil
}

func (s *Server) routes() error {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.NewAPIHandler(api.Deps{
		Locations: s.locations,
		Pins:      s.pins,
		Renderer:  s.renderer,
		Logger:    s.logger,
	}).RegisterRoutes(s.humaAPI)
	api.NewInfoHandler(api.InfoConfig{
		APIURL:   s.config.APIURL,
		MediaURL: s.config.MediaURL,
		MapImage: s.catalog.MapImage,
	}).RegisterRoutes(s.humaAPI)

	// Register modal and composer SSE routes using Huma + Datastar SDK
	s.mapUI.RegisterRoutes(s.humaAPI)

	s.links.Discover(s.humaAPI, mapui.Tag)
	page, err := humastar.BuildPageData(s.humaAPI, mapui.InitialSignals(), api.TagMap, mapui.Tag)
	if err != nil {
		return fmt.Errorf("building page data: %w", err)
	}
	s.page = page

	// Static files
	if s.config.WebDir != "" {
		for _, dir := range []string{"static", "assets"} {
			prefix := "/" + dir + "/"
			s.mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(filepath.Join(s.config.WebDir, dir)))))
		}
	}

	// Page route
	s.mux.HandleFunc("GET /{$}", s.handlePage)
	return nil
}

// withSession attaches the visitor session to the requests the page makes.
func (s *Server) withSession(next http.Handler) http.Handler {
	sessioned := s.sessions.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, api.MapPrefix+"/") || strings.HasPrefix(r.URL.Path, mapui.Prefix+"/") {
			sessioned.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handlePage renders the map page. Every page load starts a fresh session.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.config.Dev {
		if err := s.renderer.Reload(FragmentsDir); err != nil {
			s.logger.Warn("reloading fragments", zap.Error(err))
		}
	}

	sess := s.sessions.Start(w, r)
	var buf bytes.Buffer
	if err := s.renderer.RenderToBuffer(&buf, "page", s.mapUI.PageView(s.page, s.catalog.MapImage, sess)); err != nil {
		s.logger.Error("rendering page", zap.Error(err))
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}

	for _, link := range s.links.For(humastar.EntryPath) {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
