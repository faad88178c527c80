package sandbox

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
)

type rewriter struct {
	body        *function
	group       string
	name        string
	description string
	variant     ast.Variant
}

// register evaluates the top level of a definition.
func (s *Session) register(program *ast.Node) ([]*rewriter, error) {
	calls, err := parseBlock(program.Items)
	if err != nil {
		return nil, err
	}

	added := make([]*rewriter, 0, len(calls))

	for _, c := range calls {
		if !c.isNew || c.name != "Rewriter" {
			return nil, fmt.Errorf("%w: %s at top level", ErrUnknownCall, c.name)
		}

		group, err := c.str(0)
		if err != nil {
			return nil, err
		}

		name, err := c.str(1)
		if err != nil {
			return nil, err
		}

		body, err := c.fn(2) //nolint:mnd // third argument.
		if err != nil {
			return nil, err
		}

		for _, rw := range s.rewriters {
			if rw.group == group && rw.name == name {
				return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateRewriter, group, name)
			}
		}

		rw := &rewriter{group: group, name: name, body: body}
		s.rewriters = append(s.rewriters, rw)
		added = append(added, rw)
	}

	return added, nil
}

// process runs the rewriter body: configuration calls and file scopes.
func (s *Session) process(ctx context.Context, rw *rewriter) error {
	calls, err := rw.body.statements()
	if err != nil {
		return err
	}

	for _, c := range calls {
		switch c.name {
		case "configure":
			opts, optErr := c.options(0)
			if optErr != nil {
				return optErr
			}

			if name, ok := opts.str("parser"); ok {
				v, vErr := ast.ParseVariant(name)
				if vErr != nil {
					return c.argError("%v", vErr)
				}

				rw.variant = v
			}
		case "description":
			desc, descErr := c.str(0)
			if descErr != nil {
				return descErr
			}

			rw.description = desc
		case "withinFiles", "withinFile":
			globs, globErr := c.strings(0)
			if globErr != nil {
				return globErr
			}

			fn, fnErr := c.fn(1)
			if fnErr != nil {
				return fnErr
			}

			for _, file := range s.Files() {
				if !matchAny(globs, file) {
					continue
				}

				s.processed[file] = true

				err = s.processFile(ctx, rw, file, fn)
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}
		default:
			return fmt.Errorf("%w: %s in rewriter body", ErrUnknownCall, c.name)
		}
	}

	return nil
}

// processFile applies fn to one file, re-running it while conflicting
// actions had to be postponed.
func (s *Session) processFile(ctx context.Context, rw *rewriter, file string, fn *function) error {
	v := rw.variant
	if v == "" {
		guess, ok := ast.VariantForFile(file)
		if !ok {
			guess = ast.Light
		}

		v = guess
	}

	adapter, err := ast.AdapterFor(v)
	if err != nil {
		return err
	}

	content := s.files[file]

	for round := 0; ; round++ {
		if round >= s.sandbox.maxRounds {
			return ErrConflictLimit
		}

		root, parseErr := s.sandbox.parser.Parse(ctx, v, content)
		if parseErr != nil {
			return parseErr
		}

		inst := &instance{adapter: adapter, root: root}

		err = inst.exec(fn, root)
		if err != nil {
			return err
		}

		next, conflicted := apply(content, inst.actions)
		content = next

		if !conflicted {
			break
		}

		s.sandbox.logger.DebugContext(ctx, "conflicting actions postponed",
			"rewriter", rw.group+"/"+rw.name, "file", file, "round", round)
	}

	s.files[file] = content

	return nil
}

func matchAny(globs []string, file string) bool {
	for _, g := range globs {
		if matchGlob(g, file) {
			return true
		}
	}

	return false
}

// matchGlob matches file against a pattern where a leading "**/" spans any
// number of directories.
func matchGlob(glob, file string) bool {
	if glob == "**" || glob == "**/*" {
		return true
	}

	if ok, _ := path.Match(glob, file); ok {
		return true
	}

	rest, deep := strings.CutPrefix(glob, "**/")
	if !deep {
		return false
	}

	for cur := file; ; {
		if ok, _ := path.Match(rest, cur); ok {
			return true
		}

		_, next, found := strings.Cut(cur, "/")
		if !found {
			return false
		}

		cur = next
	}
}
