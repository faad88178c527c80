// Package placeholder replaces output subtrees that can be re-selected from
// the matched input node with {{path}} tokens.
package placeholder

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
)

// Placeholder marks an elided span of a reference node's source.
type Placeholder struct {
	Path  string
	Start int
	End   int
}

// Token is the rendered form of the placeholder.
func (p Placeholder) Token() string {
	return "{{" + p.Path + "}}"
}

const argumentList = "arguments"

type located struct {
	node *ast.Node
	path string
}

// Collect finds the placeholders of out, a subtree found at outPath in the
// output example, against the input node in. Ranges are relative to out.
// Neither tree is modified.
func Collect(a ast.Adapter, out *ast.Node, outPath string, in *ast.Node) []Placeholder {
	c := collector{adapter: a, input: in, base: out.Start, candidates: breadthFirst(in)}
	c.visit(out, outPath)

	return c.found
}

// Template renders out with its placeholders substituted.
func Template(a ast.Adapter, out *ast.Node, outPath string, in *ast.Node) string {
	return Render(out, Collect(a, out, outPath, in))
}

// TemplateSpan renders the output source between start and end, replacing
// the subtrees of nodes that can be re-selected from in. Every node must lie
// inside the span.
func TemplateSpan(a ast.Adapter, nodes []*ast.Node, start, end int, in *ast.Node) string {
	if len(nodes) == 0 {
		return ""
	}

	c := collector{adapter: a, input: in, base: start, candidates: breadthFirst(in)}
	for _, n := range nodes {
		c.visit(n, "")
	}

	return splice(string(nodes[0].File()[start:end]), c.found)
}

// Render splices placeholder tokens into the source of out.
func Render(out *ast.Node, phs []Placeholder) string {
	return splice(out.Source(), phs)
}

func splice(src string, phs []Placeholder) string {
	sorted := slices.Clone(phs)
	slices.SortFunc(sorted, func(x, y Placeholder) int { return x.Start - y.Start })

	var sb strings.Builder

	pos := 0

	for _, p := range sorted {
		if p.Start < pos {
			continue
		}

		sb.WriteString(src[pos:p.Start])
		sb.WriteString(p.Token())
		pos = p.End
	}

	sb.WriteString(src[pos:])

	return sb.String()
}

type collector struct {
	adapter    ast.Adapter
	input      *ast.Node
	candidates []located
	found      []Placeholder
	base       int
}

func (c *collector) visit(n *ast.Node, path string) {
	if n.Named && !elementWise(n) {
		if src, ok := c.match(n, path); ok {
			c.found = append(c.found, Placeholder{Path: src, Start: n.Start - c.base, End: n.End - c.base})

			return
		}
	}

	for i, item := range n.Items {
		c.visit(item, ast.JoinPath(path, strconv.Itoa(i)))
	}

	for _, f := range n.Fields {
		if len(f.Nodes) == 1 {
			c.visit(f.Nodes[0], ast.JoinPath(path, f.Key))

			continue
		}

		for i, fn := range f.Nodes {
			c.visit(fn, ast.JoinPath(path, f.Key, strconv.Itoa(i)))
		}
	}
}

// elementWise reports whether n is an argument list to be templated per
// element, keeping its delimiters literal.
func elementWise(n *ast.Node) bool {
	return n.Type == argumentList && len(n.Items) > 0
}

// match prefers the input node at the same path, then any equal input
// subtree in breadth-first order.
func (c *collector) match(n *ast.Node, path string) (string, bool) {
	if path != "" {
		if v, err := ast.Lookup(c.input, path); err == nil && !v.IsList && ast.Identical(c.adapter, v.Node, n) {
			return path, true
		}
	}

	for _, cand := range c.candidates {
		if ast.Identical(c.adapter, cand.node, n) {
			return cand.path, true
		}
	}

	return "", false
}

func breadthFirst(root *ast.Node) []located {
	var out []located

	queue := []located{{node: root}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.path != "" && cur.node.Named {
			out = append(out, cur)
		}

		for i, item := range cur.node.Items {
			queue = append(queue, located{node: item, path: ast.JoinPath(cur.path, strconv.Itoa(i))})
		}

		for _, f := range cur.node.Fields {
			if len(f.Nodes) == 1 {
				queue = append(queue, located{node: f.Nodes[0], path: ast.JoinPath(cur.path, f.Key)})

				continue
			}

			for i, fn := range f.Nodes {
				queue = append(queue, located{node: fn, path: ast.JoinPath(cur.path, f.Key, strconv.Itoa(i))})
			}
		}
	}

	return out
}
