package sandbox

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
)

// action replaces src[start:end] with text.
type action struct {
	text  string
	start int
	end   int
}

// apply performs the non-overlapping actions and reports whether any had
// to be dropped for overlapping an earlier one.
func apply(src string, actions []action) (string, bool) {
	if len(actions) == 0 {
		return src, false
	}

	sorted := slices.Clone(actions)
	slices.SortStableFunc(sorted, func(a, b action) int {
		if a.start != b.start {
			return a.start - b.start
		}

		return a.end - b.end
	})

	kept := make([]action, 0, len(sorted))
	conflicted := false
	lastEnd := 0

	for _, a := range sorted {
		if a.start < lastEnd {
			conflicted = true

			continue
		}

		kept = append(kept, a)
		lastEnd = a.end
	}

	out := src
	for i := len(kept) - 1; i >= 0; i-- {
		a := kept[i]
		out = out[:a.start] + a.text + out[a.end:]
	}

	return out, conflicted
}

// adjacentGroups partitions nodes into runs separated only by blanks and
// commas, so neighbouring deletions collapse into one range.
func adjacentGroups(src []byte, nodes []*ast.Node) [][]*ast.Node {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b *ast.Node) int { return a.Start - b.Start })

	var groups [][]*ast.Node

	for _, n := range sorted {
		if len(groups) > 0 {
			last := groups[len(groups)-1]
			prev := last[len(last)-1]

			if n.Start <= prev.End || strings.Trim(string(src[prev.End:n.Start]), " \t\r\n,") == "" {
				groups[len(groups)-1] = append(last, n)

				continue
			}
		}

		groups = append(groups, []*ast.Node{n})
	}

	return groups
}

// deleteRange widens the span of a group of sibling nodes so the removal
// leaves well-formed source: emptied lines disappear, list commas and member
// dots go with their element, and a doubled space collapses.
func deleteRange(src []byte, group []*ast.Node) ast.Range {
	first, last := group[0], group[len(group)-1]
	r := ast.Range{Start: first.Start, End: max(first.End, last.End)}

	if line, ok := wholeLine(src, r); ok {
		return line
	}

	if isListElement(first) {
		if end := skipBlanks(src, r.End); end < len(src) && src[end] == ',' {
			r.End = skipBlanks(src, end+1)

			return r
		}

		if start := skipBlanksBack(src, r.Start); start > 0 && src[start-1] == ',' {
			r.Start = start - 1

			return r
		}
	}

	if p := first.Parent(); p != nil && p.Type == "member_expression" {
		switch {
		case r.Start > 0 && src[r.Start-1] == '.':
			r.Start--
		case r.End < len(src) && src[r.End] == '.':
			r.End++
		}

		return r
	}

	if r.Start > 0 && isBlank(src[r.Start-1]) &&
		(r.End == len(src) || strings.IndexByte(" \t\r\n;),", src[r.End]) >= 0) {
		r.Start--
	}

	return r
}

// wholeLine extends r over its line when nothing else remains on it.
func wholeLine(src []byte, r ast.Range) (ast.Range, bool) {
	lineStart := strings.LastIndexByte(string(src[:r.Start]), '\n') + 1

	lineEnd := len(src)
	if idx := strings.IndexByte(string(src[r.End:]), '\n'); idx >= 0 {
		lineEnd = r.End + idx
	}

	if strings.TrimSpace(string(src[lineStart:r.Start])) != "" ||
		strings.Trim(string(src[r.End:lineEnd]), " \t\r;") != "" {
		return ast.Range{}, false
	}

	if lineEnd < len(src) {
		return ast.Range{Start: lineStart, End: lineEnd + 1}, true
	}

	if lineStart > 0 {
		return ast.Range{Start: lineStart - 1, End: lineEnd}, true
	}

	return ast.Range{Start: lineStart, End: lineEnd}, true
}

func isListElement(n *ast.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}

	if slices.Contains(p.Items, n) {
		return len(p.Items) > 1 || p.Type == "arguments" || p.Type == "array"
	}

	for _, f := range p.Fields {
		if len(f.Nodes) > 1 && slices.Contains(f.Nodes, n) {
			return true
		}
	}

	return false
}

func isBlank(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

func skipBlanks(src []byte, i int) int {
	for i < len(src) && isBlank(src[i]) {
		i++
	}

	return i
}

func skipBlanksBack(src []byte, i int) int {
	for i > 0 && isBlank(src[i-1]) {
		i--
	}

	return i
}
