package synth

import (
	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
)

// FindPattern generalizes nodes of one type into a pattern: slots equal in
// every example become literals, slots sharing a type become nested
// patterns, equal-length lists keep their length, anything else is left
// unconstrained.
func FindPattern(a ast.Adapter, nodes []*ast.Node) (*nql.Pattern, error) {
	if len(nodes) == 0 {
		return nil, ErrNoExamples
	}

	if !ast.AllSameType(nodes) {
		return nil, ErrInputTypesMismatch
	}

	p := &nql.Pattern{NodeType: nodes[0].Type}

	if a.IsLeaf(nodes[0]) {
		if ast.AllEqual(a, nodes) {
			lit := nodes[0].Source()
			p.Literal = &lit
		}

		return p, nil
	}

	generalize(a, nodes, p)

	return p, nil
}

func generalize(a ast.Adapter, nodes []*ast.Node, p *nql.Pattern) {
	for _, key := range unionKeys(nodes) {
		values := make([]ast.Value, 0, len(nodes))

		for _, n := range nodes {
			values = append(values, n.Field(key))
		}

		if sub := valuePattern(a, values); sub != nil {
			p.Set(key, sub)
		}
	}

	items := make([][]*ast.Node, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, n.Items)
	}

	listPattern(a, items, p)
}

func unionKeys(nodes []*ast.Node) []string {
	var keys []string

	seen := map[string]bool{}

	for _, n := range nodes {
		for _, k := range n.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	return keys
}

func valuePattern(a ast.Adapter, values []ast.Value) *nql.Pattern {
	singles := make([]*ast.Node, 0, len(values))
	lists := make([][]*ast.Node, 0, len(values))

	for _, v := range values {
		switch {
		case !v.Valid():
			return nil
		case v.IsList:
			lists = append(lists, v.List)
		default:
			singles = append(singles, v.Node)
		}
	}

	if len(lists) == 0 {
		return nodePattern(a, singles)
	}

	if len(singles) > 0 {
		return nil
	}

	p := &nql.Pattern{}
	if !listPattern(a, lists, p) {
		return nil
	}

	return p
}

// listPattern constrains equal-length lists element-wise.
func listPattern(a ast.Adapter, lists [][]*ast.Node, p *nql.Pattern) bool {
	size := len(lists[0])
	for _, l := range lists {
		if len(l) != size {
			return false
		}
	}

	if size == 0 && p.NodeType != "" && len(p.Fields) > 0 {
		return true
	}

	p.SetLength(size)

	for i := range size {
		column := make([]*ast.Node, 0, len(lists))
		for _, l := range lists {
			column = append(column, l[i])
		}

		if sub := nodePattern(a, column); sub != nil {
			p.SetElement(i, sub)
		}
	}

	return true
}

func nodePattern(a ast.Adapter, nodes []*ast.Node) *nql.Pattern {
	if ast.AllEqual(a, nodes) {
		return nql.Lit(nodes[0].Source())
	}

	if !ast.AllSameType(nodes) {
		return nil
	}

	p := &nql.Pattern{NodeType: nodes[0].Type}
	if !a.IsLeaf(nodes[0]) {
		generalize(a, nodes, p)
	}

	return p
}
