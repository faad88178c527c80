package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/snipgen/pkg/mcp"
	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
)

const (
	metricsPath           = "/metrics"
	metricsReadTimeout    = 5 * time.Second
	metricsShutdownWindow = 5 * time.Second
)

func mcpCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over the Model Context Protocol",
		Long: `Start a Model Context Protocol server on stdio.

Tools:
  - snipgen_synthesize: synthesize verified snippets from examples
  - snipgen_run: apply a snippet to a source text
  - snipgen_parse: list the node paths of a source text

Set telemetry.metrics_addr to also serve Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(root, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			red, err := observability.NewREDMetrics(a.providers.Meter)
			if err != nil {
				return err
			}

			synthesis, err := observability.NewSynthesisMetrics(a.providers.Meter)
			if err != nil {
				return err
			}

			if stop := a.serveMetrics(); stop != nil {
				defer stop()
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:    a.logger,
				Metrics:   red,
				Synthesis: synthesis,
				Tracer:    a.providers.Tracer,
				Sandbox:   a.box,
				Parser:    a.parser,
			})

			return srv.Run(cmd.Context())
		},
	}

	return cmd
}

// serveMetrics starts the Prometheus endpoint when one is configured and
// returns a function that stops it.
func (a *app) serveMetrics() func() {
	addr := a.cfg.Telemetry.MetricsAddr
	if addr == "" || a.providers.MetricsHandler == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, a.providers.MetricsHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           observability.HTTPMiddleware(a.providers.Tracer, mux),
		ReadHeaderTimeout: metricsReadTimeout,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		a.logger.Warn("metrics endpoint disabled", "addr", addr, "error", err)

		return nil
	}

	a.logger.Info("serving metrics", "addr", ln.Addr().String(), "path", metricsPath)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics endpoint failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownWindow)
		defer cancel()

		_ = srv.Shutdown(ctx)
	}
}
