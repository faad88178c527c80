// Package ast provides the syntax tree model shared by synthesis and
// execution, the per-grammar adapters and a tree-sitter parser backend.
package ast

import (
	"slices"
	"strconv"
)

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a half-open byte span.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Field is a named child slot. A slot holding more than one node is
// list-valued.
type Field struct {
	Key   string
	Nodes []*Node
}

// Node is an immutable syntax tree node.
type Node struct {
	parent   *Node
	src      []byte
	Type     string
	Fields   []Field
	Items    []*Node
	children []*Node
	StartPos Position
	EndPos   Position
	Start    int
	End      int
	Named    bool
}

// Value is the content of a child slot: either a single node or a list.
type Value struct {
	Node   *Node
	List   []*Node
	IsList bool
}

// Valid reports whether the value holds anything.
func (v Value) Valid() bool {
	return v.IsList || v.Node != nil
}

// Nodes returns the value as a slice.
func (v Value) Nodes() []*Node {
	if v.IsList {
		return v.List
	}

	if v.Node == nil {
		return nil
	}

	return []*Node{v.Node}
}

// Span returns the byte range covered by the value. An empty list has no span.
func (v Value) Span() (Range, bool) {
	nodes := v.Nodes()
	if len(nodes) == 0 {
		return Range{}, false
	}

	return Range{Start: nodes[0].Start, End: nodes[len(nodes)-1].End}, true
}

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Source returns the node's source text.
func (n *Node) Source() string {
	if n == nil {
		return ""
	}

	return string(n.src[n.Start:n.End])
}

// File returns the complete source the node was parsed from.
func (n *Node) File() []byte {
	return n.src
}

// Range returns the node's byte span.
func (n *Node) Range() Range {
	return Range{Start: n.Start, End: n.End}
}

// Keys returns the field keys in source order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		keys = append(keys, f.Key)
	}

	return keys
}

// Field returns the value of a field slot.
func (n *Node) Field(key string) Value {
	for _, f := range n.Fields {
		if f.Key != key {
			continue
		}

		if len(f.Nodes) == 1 {
			return Value{Node: f.Nodes[0]}
		}

		return Value{List: f.Nodes, IsList: true}
	}

	return Value{}
}

// Children returns every kept child in source order.
func (n *Node) Children() []*Node {
	return n.children
}

// Walk visits n and its descendants in pre-order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}

	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}

	return true
}

// Contains reports whether r lies within the node.
func (n *Node) Contains(r Range) bool {
	return n.Start <= r.Start && r.End <= n.End
}

// Slot is a child addressed by its path segment(s) relative to its parent.
type Slot struct {
	Node *Node
	Key  string
}

// Slots returns every field node and item of n in source order. List-valued
// fields and items are addressed by index.
func (n *Node) Slots() []Slot {
	slots := make([]Slot, 0, len(n.children))

	for _, f := range n.Fields {
		if len(f.Nodes) == 1 {
			slots = append(slots, Slot{Key: f.Key, Node: f.Nodes[0]})

			continue
		}

		for i, c := range f.Nodes {
			slots = append(slots, Slot{Key: JoinPath(f.Key, strconv.Itoa(i)), Node: c})
		}
	}

	for i, c := range n.Items {
		slots = append(slots, Slot{Key: strconv.Itoa(i), Node: c})
	}

	slices.SortStableFunc(slots, func(a, b Slot) int { return a.Node.Start - b.Node.Start })

	return slots
}
