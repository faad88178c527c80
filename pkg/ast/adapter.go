package ast

import (
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/jsstr"
)

// Adapter is the per-grammar capability set consumed by synthesis. It
// answers questions about nodes but implements no tree algorithms.
type Adapter interface {
	Variant() Variant
	NodeType(n *Node) string
	ChildKeys(n *Node) []string
	Range(n *Node) Range
	Source(n *Node) string
	// IsNull reports whether n is the empty-program sentinel.
	IsNull(n *Node) bool
	// IsLeaf reports whether n is compared by value rather than by structure.
	IsLeaf(n *Node) bool
	LeafEquals(a, b *Node) bool
	// LiteralEquals compares a leaf or subtree with literal pattern text.
	LiteralEquals(n *Node, text string) bool
	// Unwrap strips the root wrapper around a single top-level item.
	Unwrap(root *Node) *Node
	// Expression returns the expression held by an expression statement.
	Expression(n *Node) (*Node, bool)
}

// AdapterFor returns the adapter of a variant.
func AdapterFor(v Variant) (Adapter, error) {
	switch v {
	case Typed:
		return typedAdapter{base: newBase(Typed, "program", scriptAtoms)}, nil
	case Light:
		return lightAdapter{base: newBase(Light, "program", scriptAtoms)}, nil
	case Style:
		return styleAdapter{base: newBase(Style, "stylesheet", styleAtoms)}, nil
	default:
		return nil, ErrUnknownVariant
	}
}

var scriptAtoms = []string{"string", "template_string", "number", "regex", "comment"}

var styleAtoms = []string{
	"string_value", "integer_value", "float_value", "color_value", "plain_value", "comment",
}

type base struct {
	atoms   map[string]struct{}
	root    string
	variant Variant
}

func newBase(v Variant, root string, atoms []string) base {
	b := base{variant: v, root: root, atoms: make(map[string]struct{}, len(atoms))}
	for _, a := range atoms {
		b.atoms[a] = struct{}{}
	}

	return b
}

func (b base) Variant() Variant           { return b.variant }
func (b base) NodeType(n *Node) string    { return n.Type }
func (b base) ChildKeys(n *Node) []string { return n.Keys() }
func (b base) Range(n *Node) Range        { return n.Range() }
func (b base) Source(n *Node) string      { return n.Source() }

func (b base) IsNull(n *Node) bool {
	return n == nil || (n.Type == b.root && len(n.Items) == 0 && len(n.Fields) == 0)
}

func (b base) IsLeaf(n *Node) bool {
	if len(n.Fields) == 0 && len(n.Items) == 0 {
		return true
	}

	_, ok := b.atoms[n.Type]

	return ok
}

func (b base) Unwrap(root *Node) *Node {
	if root == nil || root.Type != b.root || len(root.Fields) != 0 || len(root.Items) != 1 {
		return root
	}

	return root.Items[0]
}

func (b base) Expression(n *Node) (*Node, bool) {
	if n == nil || n.Type != "expression_statement" || len(n.Items) != 1 {
		return nil, false
	}

	return n.Items[0], true
}

type lightAdapter struct{ base }

func (lightAdapter) LeafEquals(a, b *Node) bool {
	return a.Type == b.Type && a.Source() == b.Source()
}

func (lightAdapter) LiteralEquals(n *Node, text string) bool {
	return n.Source() == text
}

// typedAdapter compares string literals by value, so 'a' equals "a".
type typedAdapter struct{ base }

func (typedAdapter) LeafEquals(a, b *Node) bool {
	if a.Type != b.Type {
		return false
	}

	if a.Type == "string" {
		return stringValue(a.Source()) == stringValue(b.Source())
	}

	return a.Source() == b.Source()
}

func (typedAdapter) LiteralEquals(n *Node, text string) bool {
	if n.Source() == text {
		return true
	}

	return n.Type == "string" && stringValue(n.Source()) == stringValue(text)
}

func stringValue(lit string) string {
	v, err := jsstr.Unquote(lit)
	if err != nil {
		return lit
	}

	return v
}

// styleAdapter matches identifiers the way browsers do: case-insensitively.
type styleAdapter struct{ base }

var foldedStyleTypes = map[string]struct{}{
	"property_name": {},
	"tag_name":      {},
	"plain_value":   {},
	"color_value":   {},
	"feature_name":  {},
}

func (styleAdapter) LeafEquals(a, b *Node) bool {
	if a.Type != b.Type {
		return false
	}

	if _, ok := foldedStyleTypes[a.Type]; ok {
		return strings.EqualFold(a.Source(), b.Source())
	}

	return a.Source() == b.Source()
}

func (styleAdapter) LiteralEquals(n *Node, text string) bool {
	if _, ok := foldedStyleTypes[n.Type]; ok {
		return strings.EqualFold(n.Source(), text)
	}

	return n.Source() == text
}
