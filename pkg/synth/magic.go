package synth

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
)

// Magic synthesizes and verifies snippets in one call.
type Magic struct {
	analyzer *Analyzer
	verifier *Verifier
	tracer   trace.Tracer
	metrics  *observability.SynthesisMetrics
	logger   *slog.Logger
	parser   *ast.Parser
}

// Option configures Magic.
type Option func(*Magic)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Magic) { m.logger = l }
}

// WithTracer sets the tracer used for call spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Magic) { m.tracer = t }
}

// WithMetrics sets the synthesis metric instruments. Nil disables them.
func WithMetrics(sm *observability.SynthesisMetrics) Option {
	return func(m *Magic) { m.metrics = sm }
}

// WithParser shares a parser between calls.
func WithParser(p *ast.Parser) Option {
	return func(m *Magic) { m.parser = p }
}

// New creates a Magic that verifies candidates with runner.
func New(runner Runner, opts ...Option) *Magic {
	m := &Magic{
		tracer: noop.NewTracerProvider().Tracer(""),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.analyzer = NewAnalyzer(m.parser, m.logger)
	m.verifier = NewVerifier(runner, m.logger)

	return m
}

// Call returns the candidate snippets that reproduce every example, most
// specific first. An empty result means no candidate survived.
func (m *Magic) Call(ctx context.Context, req Request) ([]string, error) {
	ctx, span := m.tracer.Start(ctx, "snipgen.synthesize",
		trace.WithAttributes(
			attribute.String("snipgen.grammar", string(req.Variant)),
			attribute.Int("snipgen.examples", len(req.Inputs)),
		))
	defer span.End()

	start := time.Now()
	stats := observability.SynthesisStats{Grammar: string(req.Variant)}

	verified, err := m.call(ctx, req, &stats)

	stats.Duration = time.Since(start)
	stats.Failed = err != nil
	m.metrics.RecordSynthesis(ctx, stats)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(
		attribute.Int("snipgen.candidates", stats.Candidates),
		attribute.Int("snipgen.verified", stats.Verified),
	)

	m.logger.DebugContext(ctx, "synthesis done",
		"grammar", req.Variant, "candidates", stats.Candidates, "verified", stats.Verified,
		"duration", stats.Duration)

	return verified, nil
}

func (m *Magic) call(ctx context.Context, req Request, stats *observability.SynthesisStats) ([]string, error) {
	candidates, err := m.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	stats.Candidates = len(candidates)

	verified, err := m.verifier.Verify(ctx, req, candidates)
	if err != nil {
		return nil, err
	}

	stats.Verified = len(verified)

	return verified, nil
}
