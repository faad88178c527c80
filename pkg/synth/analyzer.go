package synth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/jsstr"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth/builder"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth/converter"
)

// Request is one synthesis call. Outputs may be empty, meaning every input
// is expected to stay unchanged.
type Request struct {
	Variant ast.Variant `json:"grammar"`
	Mode    nql.Mode    `json:"mode,omitempty"`
	Inputs  []string    `json:"inputs"`
	Outputs []string    `json:"outputs,omitempty"`
}

// Validate checks the example counts.
func (r Request) Validate() error {
	if len(r.Inputs) == 0 {
		return ErrNoExamples
	}

	if len(r.Outputs) > 0 && len(r.Outputs) != len(r.Inputs) {
		return fmt.Errorf("%w: %d inputs, %d outputs", ErrExampleCountMismatch, len(r.Inputs), len(r.Outputs))
	}

	return nil
}

// Analyzer turns an example set into candidate snippets.
type Analyzer struct {
	parser *ast.Parser
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(parser *ast.Parser, logger *slog.Logger) *Analyzer {
	if parser == nil {
		parser = ast.NewParser()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Analyzer{parser: parser, logger: logger}
}

// Analyze parses the examples, generalizes the inputs into a find pattern
// and runs the converters. Candidates are ordered most specific first.
func (an *Analyzer) Analyze(ctx context.Context, req Request) ([]string, error) {
	err := req.Validate()
	if err != nil {
		return nil, err
	}

	mode, ok := nql.ParseMode(string(req.Mode))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	adapter, err := ast.AdapterFor(req.Variant)
	if err != nil {
		return nil, err
	}

	inputs, err := an.parseAll(ctx, req.Variant, "input", req.Inputs)
	if err != nil {
		return nil, err
	}

	outputs, err := an.parseAll(ctx, req.Variant, "output", req.Outputs)
	if err != nil {
		return nil, err
	}

	unwrap(adapter, inputs, outputs)

	pattern, err := FindPattern(adapter, inputs)
	if err != nil {
		return nil, err
	}

	if len(outputs) > 0 && !ast.AllSameType(outputs) {
		return nil, ErrOutputTypesMismatch
	}

	root := builder.New()
	c := &converter.Context{
		Adapter: adapter,
		Root:    root,
		Target:  root.Find(header(pattern, mode)),
		Inputs:  inputs,
		Outputs: outputs,
	}

	for _, cv := range converter.Terminal() {
		if cv.Convert(c) {
			an.logger.DebugContext(ctx, "converter matched", "converter", cv.Name())

			return root.Snippets(), nil
		}
	}

	find := c.Target

	c.Target = find.Selective()
	converter.FindAndReplace{}.Convert(c)

	c.Target = find.Selective()
	converter.ReplaceWith{}.Convert(c)

	return root.Snippets(), nil
}

func (an *Analyzer) parseAll(ctx context.Context, v ast.Variant, kind string, sources []string) ([]*ast.Node, error) {
	nodes := make([]*ast.Node, 0, len(sources))

	for i, src := range sources {
		n, err := an.parser.Parse(ctx, v, src)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", kind, i+1, err)
		}

		nodes = append(nodes, n)
	}

	return nodes, nil
}

// unwrap strips program wrappers around single items, and expression
// statement wrappers when every non-empty example is a bare expression.
func unwrap(a ast.Adapter, sets ...[]*ast.Node) {
	bare, seen := true, false

	for _, set := range sets {
		for i, n := range set {
			set[i] = a.Unwrap(n)
			if a.IsNull(set[i]) {
				continue
			}

			seen = true

			if _, ok := a.Expression(set[i]); !ok {
				bare = false
			}
		}
	}

	if !bare || !seen {
		return
	}

	for _, set := range sets {
		for i, n := range set {
			if expr, ok := a.Expression(n); ok {
				set[i] = expr
			}
		}
	}
}

func header(p *nql.Pattern, mode nql.Mode) string {
	if mode == nql.ModeObject {
		return p.Render(mode)
	}

	return jsstr.QuoteTemplate(p.Render(mode))
}
