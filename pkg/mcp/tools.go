package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth"
)

// Tool names.
const (
	ToolNameSynthesize = "snipgen_synthesize"
	ToolNameRun        = "snipgen_run"
	ToolNameParse      = "snipgen_parse"
)

// MaxCodeInputBytes bounds every inline code argument.
const MaxCodeInputBytes = 1 << 20

// Tool input errors.
var (
	ErrEmptyInputs  = errors.New("inputs parameter is required and must not be empty")
	ErrEmptySnippet = errors.New("snippet parameter is required and must not be empty")
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
)

// SynthesizeInput is the input of snipgen_synthesize.
type SynthesizeInput struct {
	Inputs  []string `json:"inputs"            jsonschema:"source snippets before the change"`
	Outputs []string `json:"outputs,omitempty" jsonschema:"expected sources after the change, one per input"`
	Grammar string   `json:"grammar,omitempty" jsonschema:"javascript, typescript or css (default javascript)"`
	Mode    string   `json:"mode,omitempty"    jsonschema:"find clause style: attribute or object (default attribute)"`
}

// RunInput is the input of snipgen_run.
type RunInput struct {
	Snippet string `json:"snippet"           jsonschema:"snippet body or a full new Rewriter(...) definition"`
	Source  string `json:"source"            jsonschema:"source text to rewrite"`
	Grammar string `json:"grammar,omitempty" jsonschema:"javascript, typescript or css (default javascript)"`
}

// ParseInput is the input of snipgen_parse.
type ParseInput struct {
	Code    string `json:"code"              jsonschema:"source code to parse"`
	Grammar string `json:"grammar,omitempty" jsonschema:"javascript, typescript or css (default javascript)"`
	Type    string `json:"type,omitempty"    jsonschema:"optional node type filter"`
}

// ToolOutput wraps structured tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// SynthesizeResult is the structured result of snipgen_synthesize.
type SynthesizeResult struct {
	Grammar  string   `json:"grammar"`
	Snippets []string `json:"snippets"`
}

// RunResult is the structured result of snipgen_run.
type RunResult struct {
	Output  string `json:"output"`
	Changed bool   `json:"changed"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

func checkSize(texts ...string) error {
	total := 0
	for _, t := range texts {
		total += len(t)
	}

	if total > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, total, MaxCodeInputBytes)
	}

	return nil
}

func (s *Server) handleSynthesize(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input SynthesizeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Inputs) == 0 {
		return errorResult(ErrEmptyInputs)
	}

	if err := checkSize(slices.Concat(input.Inputs, input.Outputs)...); err != nil {
		return errorResult(err)
	}

	grammar, err := ast.ParseVariant(input.Grammar)
	if err != nil {
		return errorResult(err)
	}

	ctx = observability.WithGrammar(ctx, string(grammar))

	snippets, err := s.magic.Call(ctx, synth.Request{
		Variant: grammar,
		Mode:    nql.Mode(input.Mode),
		Inputs:  input.Inputs,
		Outputs: input.Outputs,
	})
	if err != nil {
		return errorResult(err)
	}

	if snippets == nil {
		snippets = []string{}
	}

	return jsonResult(SynthesizeResult{Grammar: string(grammar), Snippets: snippets})
}

func (s *Server) handleRun(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input RunInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if strings.TrimSpace(input.Snippet) == "" {
		return errorResult(ErrEmptySnippet)
	}

	if err := checkSize(input.Snippet, input.Source); err != nil {
		return errorResult(err)
	}

	grammar, err := ast.ParseVariant(input.Grammar)
	if err != nil {
		return errorResult(err)
	}

	ctx = observability.WithGrammar(ctx, string(grammar))

	out, err := s.box.Run(ctx, grammar, synth.Definition(grammar, input.Snippet), input.Source)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(RunResult{Output: out, Changed: out != input.Source})
}

func (s *Server) handleParse(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ParseInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := checkSize(input.Code); err != nil {
		return errorResult(err)
	}

	grammar, err := ast.ParseVariant(input.Grammar)
	if err != nil {
		return errorResult(err)
	}

	root, err := s.parser.Parse(ctx, grammar, input.Code)
	if err != nil {
		return errorResult(err)
	}

	entries := ast.Dump(root)

	if input.Type != "" {
		filtered := entries[:0]

		for _, e := range entries {
			if e.Type == input.Type {
				filtered = append(filtered, e)
			}
		}

		entries = filtered
	}

	if entries == nil {
		entries = []ast.Entry{}
	}

	return jsonResult(entries)
}
