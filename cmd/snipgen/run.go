package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth"
)

// binarySniffLength is how many leading bytes are checked for a NUL byte.
const binarySniffLength = 8000

// Run errors.
var (
	ErrNoSnippetSource = errors.New("pass a snippet file or --snippet")
	ErrUnknownLanguage = errors.New("cannot detect grammar")
)

type runOptions struct {
	snippet string
	grammar string
	dryRun  bool
}

func runCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [snippet-file] files...",
		Short: "Apply a snippet to files",
		Long: `Apply a rewriter snippet to files in place.

The snippet is either a bare body (findNode, insert, replace and so on) or a
full new Rewriter(...) definition. The grammar of each file comes from
--grammar, or is detected from its name and content.

Examples:
  snipgen run fix.snip src/a.js src/b.js
  snipgen run -s 'findNode(` + "`.identifier[text=foo]`" + `, () => { replaceWith("bar") })' a.js
  snipgen run --dry-run fix.snip src/a.ts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snippet, files, err := opts.source(args)
			if err != nil {
				return err
			}

			a, err := newApp(root, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			return opts.apply(cmd, a, snippet, files)
		},
	}

	cmd.Flags().StringVarP(&opts.snippet, "snippet", "s", "", "inline snippet instead of a snippet file")
	cmd.Flags().StringVarP(&opts.grammar, "grammar", "g", "", "force javascript, typescript or css")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print a diff instead of writing files")

	return cmd
}

func (o *runOptions) source(args []string) (snippet string, files []string, err error) {
	if o.snippet != "" {
		return o.snippet, args, nil
	}

	if len(args) < 2 { //nolint:mnd // snippet file plus at least one target.
		return "", nil, ErrNoSnippetSource
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("read snippet: %w", err)
	}

	return string(data), args[1:], nil
}

func (o *runOptions) apply(cmd *cobra.Command, a *app, snippet string, files []string) error {
	out := cmd.OutOrStdout()

	maxSize, err := a.cfg.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	changed := 0

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		if int64(len(data)) > maxSize {
			a.logger.Warn("skipping large file", "file", file,
				"size", humanize.IBytes(uint64(len(data))), "limit", humanize.IBytes(uint64(maxSize)))

			continue
		}

		if isBinary(data) {
			a.logger.Warn("skipping binary file", "file", file)

			continue
		}

		grammar, err := o.detect(a, file, data)
		if err != nil {
			return err
		}

		ctx := observability.WithGrammar(cmd.Context(), string(grammar))

		// A bare snippet is wrapped in the grammar's own glob; a full
		// definition sees the file under its real path.
		name := grammar.StagedFile()
		if synth.IsDefinition(snippet) {
			name = stagedPath(file)
		}

		result, err := a.box.RunFile(ctx, name, synth.Definition(grammar, snippet), string(data))
		if err != nil {
			return fmt.Errorf("run %s: %w", file, err)
		}

		if result == string(data) {
			continue
		}

		changed++

		if o.dryRun {
			writeDiff(out, file, string(data), result)

			continue
		}

		if err := os.WriteFile(file, []byte(result), 0o644); err != nil { //nolint:gosec // source files stay world readable.
			return fmt.Errorf("write %s: %w", file, err)
		}
	}

	color.New(color.FgGreen).Fprintf(out, "%s changed\n", plural(changed, "file"))

	return nil
}

func (o *runOptions) detect(a *app, file string, data []byte) (ast.Variant, error) {
	if o.grammar != "" {
		return a.grammar(o.grammar)
	}

	if v, ok := ast.VariantForFile(file); ok {
		return v, nil
	}

	switch enry.GetLanguage(file, data) {
	case "JavaScript":
		return ast.Light, nil
	case "TypeScript":
		return ast.Typed, nil
	case "CSS":
		return ast.Style, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, file)
	}
}

// stagedPath is the slash-separated name a file is staged under, so that
// withinFiles globs see its path relative to the working directory. Files
// outside the working directory are staged under their base name.
func stagedPath(file string) string {
	abs, err := filepath.Abs(file)
	if err != nil {
		return filepath.Base(file)
	}

	wd, err := os.Getwd()
	if err != nil {
		return filepath.Base(file)
	}

	rel, err := filepath.Rel(wd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(file)
	}

	return filepath.ToSlash(rel)
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), binarySniffLength)], 0) >= 0
}

// writeDiff prints a line diff of one file.
func writeDiff(w io.Writer, file, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	bold := color.New(color.Bold)
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)

	bold.Fprintf(w, "--- %s\n+++ %s\n", file, file)

	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}

			switch d.Type {
			case diffmatchpatch.DiffInsert:
				add.Fprint(w, "+"+line)
			case diffmatchpatch.DiffDelete:
				del.Fprint(w, "-"+line)
			case diffmatchpatch.DiffEqual:
				fmt.Fprint(w, " "+line)
			}
		}
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}

	return humanize.Comma(int64(n)) + " " + word + "s"
}
