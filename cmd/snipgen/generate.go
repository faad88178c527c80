package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/snipgen/pkg/examples"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth"
)

// Generate errors.
var (
	ErrNoExampleSource = errors.New("pass an example file or at least one --input")
	ErrNoSnippet       = errors.New("no snippet reproduces every example")
)

type generateOptions struct {
	inputs   []string
	outputs  []string
	grammar  string
	mode     string
	format   string
	noVerify bool
}

func generateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [examples.yaml|examples.hcl]",
		Short: "Synthesize snippets from before/after examples",
		Long: `Synthesize rewriter snippets from before/after examples and keep those
that reproduce every output.

Examples:
  snipgen generate set.yaml
  snipgen generate -i '$.isArray(foo)' -o 'Array.isArray(foo)'
  snipgen generate -g css -i 'a { color: red; }'      # match without changing
  snipgen generate --format json set.hcl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			req, err := opts.request(a, args)
			if err != nil {
				return err
			}

			ctx := observability.WithGrammar(cmd.Context(), string(req.Variant))

			var snippets []string

			if opts.noVerify {
				snippets, err = synth.NewAnalyzer(a.parser, a.logger).Analyze(ctx, req)
			} else {
				sm, smErr := observability.NewSynthesisMetrics(a.providers.Meter)
				if smErr != nil {
					return smErr
				}

				snippets, err = synth.New(a.box,
					synth.WithLogger(a.logger),
					synth.WithParser(a.parser),
					synth.WithTracer(a.providers.Tracer),
					synth.WithMetrics(sm),
				).Call(ctx, req)
			}

			if err != nil {
				return err
			}

			if len(snippets) == 0 {
				return ErrNoSnippet
			}

			return writeSnippets(cmd.OutOrStdout(), opts.format, snippets)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.inputs, "input", "i", nil, "source before the change (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.outputs, "output", "o", nil, "source after the change (repeatable)")
	cmd.Flags().StringVarP(&opts.grammar, "grammar", "g", "", "javascript, typescript or css")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "find clause style: attribute or object")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format (text, json)")
	cmd.Flags().BoolVar(&opts.noVerify, "no-verify", false, "print every candidate without running it")

	return cmd
}

func (o *generateOptions) request(a *app, args []string) (synth.Request, error) {
	var req synth.Request

	if len(args) == 1 {
		set, err := examples.Load(args[0])
		if err != nil {
			return req, err
		}

		fallback, err := a.cfg.Grammar()
		if err != nil {
			return req, err
		}

		if req, err = set.Request(fallback); err != nil {
			return req, err
		}
	}

	if len(o.inputs) > 0 {
		req.Inputs, req.Outputs = o.inputs, o.outputs
	}

	if len(req.Inputs) == 0 {
		return req, ErrNoExampleSource
	}

	if o.grammar != "" || req.Variant == "" {
		v, err := a.grammar(o.grammar)
		if err != nil {
			return req, err
		}

		req.Variant = v
	}

	switch {
	case o.mode != "":
		req.Mode = nql.Mode(o.mode)
	case req.Mode == "":
		req.Mode = nql.Mode(a.cfg.Synthesis.Mode)
	}

	return req, nil
}

func writeSnippets(w io.Writer, format string, snippets []string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)

		if err := enc.Encode(snippets); err != nil {
			return fmt.Errorf("encode snippets: %w", err)
		}

		return nil
	}

	header := color.New(color.FgCyan)

	for i, s := range snippets {
		if i > 0 {
			fmt.Fprintln(w)
		}

		header.Fprintf(w, "// candidate %d\n", i+1)
		fmt.Fprintln(w, s)
	}

	return nil
}
