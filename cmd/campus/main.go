package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-campus/internal/floorplan"
	"github.com/joeblew999/plat-campus/internal/logging"
	"github.com/joeblew999/plat-campus/internal/server"
)

// Options defines all CLI flags and env vars for the campus server.
// Flags: --host, --port, --api-url, --media-url, --web-dir, --campus, --dev, --session-ttl
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_API_URL, ...
type Options struct {
	Host       string        `doc:"Host to bind to" default:"0.0.0.0"`
	Port       int           `doc:"Port to listen on" short:"p" default:"8086"`
	APIURL     string        `doc:"Upstream campus API base URL" default:"http://localhost:3000/api"`
	MediaURL   string        `doc:"Host serving comment images" default:"http://localhost:3000"`
	WebDir     string        `doc:"Path to web/ directory" default:"web"`
	Campus     string        `doc:"Campus catalog YAML (map image, thumbnails, colors)"`
	Dev        bool          `doc:"Development logging and template hot-reload"`
	SessionTTL time.Duration `doc:"How long an idle map session is kept" default:"2h"`
}

func newServer(opts *Options, logger *zap.Logger) (*server.Server, error) {
	return server.New(server.Config{
		Host:        opts.Host,
		Port:        fmt.Sprintf("%d", opts.Port),
		APIURL:      opts.APIURL,
		MediaURL:    opts.MediaURL,
		WebDir:      opts.WebDir,
		CatalogPath: opts.Campus,
		Dev:         opts.Dev,
		SessionTTL:  opts.SessionTTL,
		Logger:      logger,
	})
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger, err := logging.New(opts.Dev)
		if err != nil {
			fatal("Error creating logger", err)
		}
		srv, err := newServer(opts, logger)
		if err != nil {
			fatal("Error creating server", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
			Handler:           srv,
			ReadHeaderTimeout: 10 * time.Second,
		}

		hooks.OnStart(func() {
			go srv.Run(ctx)

			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)
			logger.Info("plat-campus server starting",
				zap.String("url", baseURL),
				zap.String("upstream", opts.APIURL),
				zap.String("docs", baseURL+"/docs"),
				zap.String("openapi", baseURL+"/openapi.json"))

			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			cancel()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown", zap.Error(err))
			}
			_ = logger.Sync()
		})
	})

	cli.Root().Use = "campus"
	cli.Root().Short = "Campus floor-plan map with location details and visitor comments"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts, zap.NewNop())
			if err != nil {
				fatal("Error creating server", err)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fatal("Error marshaling spec", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// pins subcommand: print the pin layer as GeoJSON
	pinsCmd := &cobra.Command{
		Use:   "pins",
		Short: "Fetch every location and print its pin as GeoJSON in image pixels",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			width, _ := cmd.Flags().GetFloat64("width")
			height, _ := cmd.Flags().GetFloat64("height")
			size := floorplan.Size{Width: width, Height: height}
			if !size.Valid() {
				fatal("Invalid image size", fmt.Errorf("%gx%g", width, height))
			}

			logger, err := logging.New(opts.Dev)
			if err != nil {
				fatal("Error creating logger", err)
			}
			srv, err := newServer(opts, logger)
			if err != nil {
				fatal("Error creating server", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fc, err := srv.Pins(ctx, size)
			if err != nil {
				fatal("Error loading pins", err)
			}
			output, err := json.MarshalIndent(fc, "", "  ")
			if err != nil {
				fatal("Error marshaling pins", err)
			}
			fmt.Println(string(output))
		}),
	}
	pinsCmd.Flags().Float64("width", 0, "Floor-plan image width in pixels")
	pinsCmd.Flags().Float64("height", 0, "Floor-plan image height in pixels")
	cli.Root().AddCommand(pinsCmd)

	cli.Run()
}
