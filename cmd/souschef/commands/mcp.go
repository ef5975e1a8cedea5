package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/souschef-dev/souschef/internal/config"
	"github.com/souschef-dev/souschef/internal/mcp"
	"github.com/souschef-dev/souschef/internal/observability"
	"github.com/souschef-dev/souschef/pkg/version"
)

// metricsReadTimeout bounds header reads on the scrape endpoint.
const metricsReadTimeout = 10 * time.Second

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		configPath  string
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes souschef capabilities as tools that AI agents
can discover and invoke:
  - chef_parse_recipe: Parse a Chef recipe into structured resource records
  - chef_parse_attributes: Parse an attributes file with precedence resolution
  - chef_parse_resource: Extract a custom resource's declared interface
  - chef_convert: Convert a Chef recipe into an Ansible playbook`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			providers, err := initMCPObservability(debug)
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			red, redErr := observability.NewREDMetrics(providers.Meter)
			if redErr != nil {
				return redErr
			}

			if metricsAddr != "" {
				startMetricsServer(metricsAddr, providers.Logger)
			}

			deps := mcp.ServerDeps{
				Logger:        providers.Logger,
				Metrics:       red,
				Tracer:        providers.Tracer,
				MaxInputBytes: cfg.MCP.MaxInputBytes,
			}

			srv := mcp.NewServer(deps)

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (default: .souschef.yaml)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics endpoint (disabled when empty)")

	return cmd
}

// startMetricsServer serves the Prometheus scrape endpoint in the background.
// The listener lives for the process lifetime; stdio shutdown ends it.
func startMetricsServer(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.PrometheusHandler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: metricsReadTimeout}

	go func() {
		serveErr := srv.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("metrics endpoint failed", "addr", addr, "error", serveErr)
		}
	}()
}

func initMCPObservability(debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = observability.ModeMCP
	cfg.LogJSON = true

	if debug {
		cfg.LogLevel = slog.LevelDebug
	}

	return observability.Init(cfg)
}
