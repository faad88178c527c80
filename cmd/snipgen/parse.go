package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/jsstr"
	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
)

const (
	formatTable  = "table"
	maxTextWidth = 48
	rootPath     = "."
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

type parseOptions struct {
	grammar  string
	format   string
	nodeType string
}

func parseCmd(root *rootOptions) *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "List the node paths of a source file",
		Long: `Parse a file, or stdin when no file is given, and list every node with
the path snippets use to address it.

Examples:
  snipgen parse src/a.js
  echo 'foo(a, b)' | snipgen parse --type identifier
  snipgen parse -f json styles.css`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatTable && opts.format != formatJSON {
				return fmt.Errorf("%w: %s", ErrUnknownFormat, opts.format)
			}

			a, err := newApp(root, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			return opts.parse(cmd, a, args)
		},
	}

	cmd.Flags().StringVarP(&opts.grammar, "grammar", "g", "", "javascript, typescript or css")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatTable, "output format: table or json")
	cmd.Flags().StringVarP(&opts.nodeType, "type", "t", "", "only list nodes of this type")

	return cmd
}

func (o *parseOptions) parse(cmd *cobra.Command, a *app, args []string) error {
	var (
		data []byte
		err  error
	)

	grammar := ast.Variant("")

	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		if err == nil && o.grammar == "" {
			grammar, _ = ast.VariantForFile(args[0])
		}
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}

	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	if grammar == "" {
		grammar, err = a.grammar(o.grammar)
		if err != nil {
			return err
		}
	}

	node, err := a.parser.Parse(cmd.Context(), grammar, string(data))
	if err != nil {
		return err
	}

	entries := filterEntries(ast.Dump(node), o.nodeType)

	if o.format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(entries)
	}

	writeEntries(cmd.OutOrStdout(), entries)

	return nil
}

func filterEntries(entries []ast.Entry, nodeType string) []ast.Entry {
	out := make([]ast.Entry, 0, len(entries))

	for _, e := range entries {
		if nodeType == "" || e.Type == nodeType {
			out = append(out, e)
		}
	}

	return out
}

func writeEntries(w io.Writer, entries []ast.Entry) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: maxTextWidth}})

	tbl.AppendHeader(table.Row{"PATH", "TYPE", "RANGE", "TEXT"})

	for _, e := range entries {
		path := e.Path
		if path == "" {
			path = rootPath
		}

		tbl.AppendRow(table.Row{
			path,
			e.Type,
			fmt.Sprintf("%d:%d-%d:%d", e.Start.Line, e.Start.Column, e.End.Line, e.End.Column),
			jsstr.Quote(e.Text),
		})
	}

	tbl.Render()
}
