package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-layers/internal/camera"
	"github.com/joeblew999/plat-layers/internal/config"
	"github.com/joeblew999/plat-layers/internal/loader"
	"github.com/joeblew999/plat-layers/internal/logger"
	"github.com/joeblew999/plat-layers/internal/server"
	"github.com/joeblew999/plat-layers/internal/service"
)

// Options defines all CLI flags and env vars for the layer server.
// Flags: --host, --port, --data-dir, --target-crs, --manifest, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_TARGET_CRS, ...
type Options struct {
	Host           string `doc:"Host to bind to" default:"0.0.0.0"`
	Port           int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir        string `doc:"Directory for GeoJSON files loaded by name" default:".data"`
	TargetCRS      string `doc:"CRS layers are reprojected into" default:"EPSG:3857"`
	ViewportWidth  int    `doc:"Viewport width in pixels" default:"800"`
	ViewportHeight int    `doc:"Viewport height in pixels" default:"800"`
	LogLevel       string `doc:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat      string `doc:"Log format (text, json)" default:"text"`
	Manifest       string `doc:"YAML manifest of layers to load at startup"`
	MaxLoadMB      int    `doc:"Largest GeoJSON document accepted from a file or URL, in MiB" default:"256"`
}

func newServer(opts *Options, l *slog.Logger) (*server.Server, error) {
	return server.New(server.Config{
		Host:         opts.Host,
		Port:         fmt.Sprintf("%d", opts.Port),
		DataDir:      opts.DataDir,
		TargetCRS:    opts.TargetCRS,
		Viewport:     camera.Size{Width: float64(opts.ViewportWidth), Height: float64(opts.ViewportHeight)},
		MaxLoadBytes: int64(opts.MaxLoadMB) << 20,
		Logger:       l,
	})
}

func fatal(l *slog.Logger, msg string, err error) {
	l.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		l := logger.Setup(os.Stderr, opts.LogLevel, opts.LogFormat)

		var manifest config.Manifest
		if opts.Manifest != "" {
			m, err := config.LoadManifest(opts.Manifest)
			if err != nil {
				fatal(l, "failed to read manifest", err)
			}
			manifest = m
			if m.TargetCRS != "" {
				opts.TargetCRS = m.TargetCRS
			}
		}

		srv, err := newServer(opts, l)
		if err != nil {
			fatal(l, "failed to create server", err)
		}

		hooks.OnStart(func() {
			if len(manifest.Layers) > 0 {
				added, err := srv.Preload(context.Background(), manifest.Sources())
				if err != nil {
					l.Error("manifest preload stopped", "error", err)
				}
				l.Info("manifest loaded", "path", opts.Manifest, "layers", added)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-layers API server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Printf("  CRS:     %s\n", srv.Processor().TargetCRS())
			fmt.Println()
			fmt.Printf("  Events:  %s/api/v1/events\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				fatal(l, "server error", err)
			}
		})
	})

	cli.Root().Use = "geo"
	cli.Root().Short = "Layer store for a geographic data viewer"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			l := logger.Setup(os.Stderr, opts.LogLevel, opts.LogFormat)
			srv, err := newServer(opts, l)
			if err != nil {
				fatal(l, "failed to create server", err)
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
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// ingest subcommand: load files through the pipeline and report per file
	ingestCmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest GeoJSON files and report the resulting layers",
		Args:  cobra.MinimumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			l := logger.Setup(os.Stderr, opts.LogLevel, opts.LogFormat)
			srv, err := newServer(opts, l)
			if err != nil {
				fatal(l, "failed to create server", err)
			}
			crsCode, _ := cmd.Flags().GetString("crs")

			reqs := make([]service.Request, 0, len(args))
			for _, path := range args {
				reqs = append(reqs, service.LoadFile{Source: loader.Source{Path: path, CRS: crsCode}})
			}
			ns, err := srv.Processor().Apply(cmd.Context(), reqs...)
			if err != nil {
				fatal(l, "ingest stopped", err)
			}

			failed := 0
			for _, n := range ns {
				switch n.Kind {
				case service.LayerLoaded:
					fmt.Printf("ok     %-6s %s\n", n.LayerID, n.Name)
				case service.LoadFailed:
					failed++
					fmt.Printf("failed %-6s %s: %v\n", service.KindOf(n.Err), n.Name, n.Err)
				}
			}
			if failed > 0 {
				os.Exit(1)
			}
		}),
	}
	ingestCmd.Flags().String("crs", config.DefaultSourceCRS, "Source CRS of the input files")
	cli.Root().AddCommand(ingestCmd)

	cli.Run()
}
