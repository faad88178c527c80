package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/jsstr"
)

// ProgramGroup and ProgramName identify the rewriter wrapped around a
// candidate during verification.
const (
	ProgramGroup = "snipgen"
	ProgramName  = "candidate"
)

// Runner executes a rewriter definition against one staged file and
// returns the rewritten content.
type Runner interface {
	Run(ctx context.Context, v ast.Variant, definition, input string) (string, error)
}

// Program wraps a candidate snippet in a runnable rewriter definition.
func Program(v ast.Variant, snippet string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "new Rewriter(%s, %s, () => {\n", jsstr.Quote(ProgramGroup), jsstr.Quote(ProgramName))
	fmt.Fprintf(&b, "  configure({ parser: %s })\n", jsstr.Quote(string(v)))
	fmt.Fprintf(&b, "  withinFiles(%s, () => {\n", jsstr.Quote(v.Glob()))

	for line := range strings.SplitSeq(snippet, "\n") {
		if line == "" {
			b.WriteString("\n")

			continue
		}

		b.WriteString("    " + line + "\n")
	}

	b.WriteString("  })\n})\n")

	return b.String()
}

// IsDefinition reports whether snippet declares its own rewriter.
func IsDefinition(snippet string) bool {
	return strings.Contains(snippet, "new Rewriter(")
}

// Definition returns snippet unchanged when it already declares a rewriter
// and wraps it with Program otherwise.
func Definition(v ast.Variant, snippet string) string {
	if IsDefinition(snippet) {
		return snippet
	}

	return Program(v, snippet)
}

// Verifier keeps the candidates that reproduce every expected output.
type Verifier struct {
	runner Runner
	logger *slog.Logger
}

// NewVerifier creates a verifier backed by runner.
func NewVerifier(runner Runner, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Verifier{runner: runner, logger: logger}
}

// Verify runs each candidate over every input and returns, in order, those
// whose results match the outputs exactly. Missing outputs mean the inputs
// must come back unchanged. A candidate that fails to run is dropped.
func (vf *Verifier) Verify(ctx context.Context, req Request, candidates []string) ([]string, error) {
	var kept []string

	for idx, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if vf.check(ctx, req, idx, candidate) {
			kept = append(kept, candidate)
		}
	}

	return kept, nil
}

func (vf *Verifier) check(ctx context.Context, req Request, idx int, candidate string) bool {
	program := Program(req.Variant, candidate)

	for i, input := range req.Inputs {
		want := input
		if len(req.Outputs) > 0 {
			want = req.Outputs[i]
		}

		got, err := vf.runner.Run(ctx, req.Variant, program, input)
		if err != nil {
			vf.logger.DebugContext(ctx, "candidate failed", "candidate", idx, "example", i, "error", err)

			return false
		}

		if got != want {
			if vf.logger.Enabled(ctx, slog.LevelDebug) {
				vf.logger.DebugContext(ctx, "candidate mismatch",
					"candidate", idx, "example", i, "diff", Diff(want, got))
			}

			return false
		}
	}

	return true
}

// Diff renders a readable character diff from want to got.
func Diff(want, got string) string {
	dmp := diffmatchpatch.New()

	return dmp.DiffPrettyText(dmp.DiffMain(want, got, false))
}
