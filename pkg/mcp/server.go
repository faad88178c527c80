// Package mcp exposes snippet synthesis as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
	"github.com/Sumatoshi-tech/snipgen/pkg/sandbox"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth"
	"github.com/Sumatoshi-tech/snipgen/pkg/version"
)

const (
	serverName = "snipgen"
	toolCount  = 3
)

// ServerDeps holds injectable dependencies. Zero values use defaults.
type ServerDeps struct {
	Logger *slog.Logger

	// Metrics records per-tool RED metrics. Nil disables them.
	Metrics *observability.REDMetrics

	// Synthesis records synthesis yield. Nil disables it.
	Synthesis *observability.SynthesisMetrics

	// Tracer creates per-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Sandbox runs snippets. Nil uses sandbox.Default().
	Sandbox *sandbox.Sandbox

	// Parser is shared by every tool. Nil creates one.
	Parser *ast.Parser
}

// Server wraps the MCP SDK server with the snipgen tools.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
	box     *sandbox.Sandbox
	parser  *ast.Parser
	magic   *synth.Magic
}

// NewServer creates a server with every tool registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	s := &Server{
		inner:   mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: version.Version}, opts),
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		logger:  deps.Logger,
		box:     deps.Sandbox,
		parser:  deps.Parser,
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.box == nil {
		s.box = sandbox.Default()
	}

	if s.parser == nil {
		s.parser = ast.NewParser()
	}

	magicOpts := []synth.Option{
		synth.WithLogger(s.logger),
		synth.WithParser(s.parser),
		synth.WithMetrics(deps.Synthesis),
	}

	if s.tracer != nil {
		magicOpts = append(magicOpts, synth.WithTracer(s.tracer))
	}

	s.magic = synth.New(s.box, magicOpts...)

	s.registerTools()

	return s
}

// ListToolNames returns the sorted names of the registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run serves on stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSynthesize,
		Description: synthesizeToolDescription,
	}, withMetrics(s.metrics, ToolNameSynthesize, withTracing(s.tracer, ToolNameSynthesize, s.handleSynthesize)))
	s.trackTool(ToolNameSynthesize)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameRun,
		Description: runToolDescription,
	}, withMetrics(s.metrics, ToolNameRun, withTracing(s.tracer, ToolNameRun, s.handleRun)))
	s.trackTool(ToolNameRun)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameParse,
		Description: parseToolDescription,
	}, withMetrics(s.metrics, ToolNameParse, withTracing(s.tracer, ToolNameParse, s.handleParse)))
	s.trackTool(ToolNameParse)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

const (
	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// withTracing starts a span per call and appends the trace id to sampled
// results.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		if sc := span.SpanContext(); sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: traceIDMetaKey + "=" + sc.TraceID().String()})
		}

		return result, output, err
	}
}

// withMetrics records RED metrics per call.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		done := metrics.TrackInflight(ctx, mcpSpanPrefix+toolName)
		defer done()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}

const (
	synthesizeToolDescription = "Synthesize rewriter snippets from before/after code examples. " +
		"Returns the candidates that reproduce every output, most specific first. " +
		"Omit outputs to match the inputs without changing them."

	runToolDescription = "Run a rewriter snippet (findNode, insert, delete, replace and so on) " +
		"against a source text and return the rewritten text."

	parseToolDescription = "Parse source code and list every node with the path " +
		"snippets use to address it."
)
