// Package builder assembles find clauses and edit statements into snippet
// text and enumerates the alternatives introduced by selective branches.
package builder

import (
	"slices"
	"strings"
)

// Kind tags a builder node.
type Kind int

// Builder node kinds.
const (
	KindRoot Kind = iota
	KindFind
	KindStatement
	KindSelective
)

const indent = "  "

// Node is one element of the builder tree.
type Node struct {
	nextID   *int
	text     string
	children []*Node
	kind     Kind
	id       int
}

// New returns an empty root.
func New() *Node {
	return &Node{kind: KindRoot, nextID: new(int)}
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// ID returns a selective's branch id, or 0.
func (n *Node) ID() int {
	return n.id
}

// Find adds a find clause whose header is the rendered query argument.
func (n *Node) Find(header string) *Node {
	return n.add(&Node{kind: KindFind, text: header})
}

// Statement adds a rendered edit statement.
func (n *Node) Statement(text string) {
	n.add(&Node{kind: KindStatement, text: text})
}

// Selective adds a branch point. Branch ids follow creation order.
func (n *Node) Selective() *Node {
	*n.nextID++

	return n.add(&Node{kind: KindSelective, id: *n.nextID})
}

// Empty reports whether no statement was added under n.
func (n *Node) Empty() bool {
	if n.kind == KindStatement {
		return false
	}

	return !slices.ContainsFunc(n.children, func(c *Node) bool { return !c.Empty() })
}

func (n *Node) add(c *Node) *Node {
	c.nextID = n.nextID
	n.children = append(n.children, c)

	return c
}

// Render produces the text of one pass. The first selective in depth-first
// order that is not in resolved is the active branch; every other selective
// renders nothing. It returns the active branch id (0 when there is none)
// and whether unresolved branches remain after this one.
func (n *Node) Render(resolved map[int]bool) (text string, chosen int, remaining bool) {
	var pending []int

	n.selectives(func(id int) {
		if !resolved[id] {
			pending = append(pending, id)
		}
	})

	if len(pending) > 0 {
		chosen = pending[0]
	}

	return n.render(chosen), chosen, len(pending) > 1
}

// Snippets renders every pass and returns the distinct non-empty results
// in pass order.
func (n *Node) Snippets() []string {
	var out []string

	resolved := map[int]bool{}

	for {
		text, chosen, remaining := n.Render(resolved)
		if text != "" && !slices.Contains(out, text) {
			out = append(out, text)
		}

		if chosen == 0 || !remaining {
			return out
		}

		resolved[chosen] = true
	}
}

func (n *Node) selectives(fn func(int)) {
	for _, c := range n.children {
		if c.kind == KindSelective {
			fn(c.id)
		}

		c.selectives(fn)
	}
}

func (n *Node) render(active int) string {
	switch n.kind {
	case KindStatement:
		return n.text
	case KindSelective:
		if n.id != active {
			return ""
		}

		return n.renderChildren(active)
	case KindFind:
		body := n.renderChildren(active)
		if body == "" {
			return ""
		}

		return "findNode(" + n.text + ", () => {\n" + indentLines(body) + "\n})"
	case KindRoot:
		return n.renderChildren(active)
	default:
		return ""
	}
}

func (n *Node) renderChildren(active int) string {
	parts := make([]string, 0, len(n.children))

	for _, c := range n.children {
		if text := c.render(active); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n")
}

func indentLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = indent + l
		}
	}

	return strings.Join(lines, "\n")
}
