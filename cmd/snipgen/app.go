package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/config"
	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
	"github.com/Sumatoshi-tech/snipgen/pkg/sandbox"
	"github.com/Sumatoshi-tech/snipgen/pkg/version"
)

// app bundles what every command needs.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	parser    *ast.Parser
	box       *sandbox.Sandbox
}

func newApp(opts *rootOptions, mode observability.AppMode) (*app, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	obs, err := observabilityConfig(cfg, opts, mode)
	if err != nil {
		return nil, err
	}

	providers, err := observability.InitWithWriter(obs, opts.stderr)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	maxSize, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	parser := ast.NewParser()

	return &app{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger,
		parser:    parser,
		box: sandbox.New(
			sandbox.WithLogger(providers.Logger),
			sandbox.WithParser(parser),
			sandbox.WithMaxRounds(cfg.Runner.MaxRounds),
			sandbox.WithMaxFileSize(maxSize),
		),
	}, nil
}

func observabilityConfig(cfg *config.Config, opts *rootOptions, mode observability.AppMode) (observability.Config, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return observability.Config{}, err
	}

	switch {
	case opts.verbose:
		level = slog.LevelDebug
	case opts.quiet:
		level = slog.LevelError
	}

	obs := observability.DefaultConfig()
	obs.ServiceVersion = version.Version
	obs.Mode = mode
	obs.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obs.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obs.Prometheus = mode == observability.ModeMCP && cfg.Telemetry.MetricsAddr != ""
	obs.LogLevel = level
	obs.LogJSON = cfg.JSONLogs() || mode == observability.ModeMCP

	return obs, nil
}

// grammar resolves a --grammar flag, falling back to the configured value.
func (a *app) grammar(flag string) (ast.Variant, error) {
	if flag != "" {
		return ast.ParseVariant(flag)
	}

	return a.cfg.Grammar()
}

func (a *app) close(ctx context.Context) {
	if err := a.providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn("observability shutdown failed", "error", err)
	}
}
