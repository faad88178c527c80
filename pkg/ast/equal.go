package ast

// Equal reports deep structural equality of two nodes under adapter a.
func Equal(a Adapter, x, y *Node) bool {
	if x == nil || y == nil {
		return x == y
	}

	if x.Type != y.Type {
		return false
	}

	xLeaf, yLeaf := a.IsLeaf(x), a.IsLeaf(y)
	if xLeaf || yLeaf {
		return xLeaf && yLeaf && a.LeafEquals(x, y)
	}

	if len(x.Fields) != len(y.Fields) {
		return false
	}

	for i := range x.Fields {
		if x.Fields[i].Key != y.Fields[i].Key || !ListEqual(a, x.Fields[i].Nodes, y.Fields[i].Nodes) {
			return false
		}
	}

	return ListEqual(a, x.Items, y.Items)
}

// Identical reports whether x and y are equal and also spell the same
// source text. Equal ignores unfielded tokens and compares some leaves
// loosely, so only Identical nodes can be left untouched by an edit.
func Identical(a Adapter, x, y *Node) bool {
	return Equal(a, x, y) && x.Source() == y.Source()
}

// ListEqual compares two node lists element-wise.
func ListEqual(a Adapter, xs, ys []*Node) bool {
	if len(xs) != len(ys) {
		return false
	}

	for i := range xs {
		if !Equal(a, xs[i], ys[i]) {
			return false
		}
	}

	return true
}

// ValuesEqual compares two slot values.
func ValuesEqual(a Adapter, x, y Value) bool {
	if x.IsList != y.IsList {
		return false
	}

	if x.IsList {
		return ListEqual(a, x.List, y.List)
	}

	return Equal(a, x.Node, y.Node)
}

// AllSameType reports whether every node shares the first node's type.
func AllSameType(nodes []*Node) bool {
	for _, n := range nodes {
		if n == nil || n.Type != nodes[0].Type {
			return false
		}
	}

	return true
}

// AllEqual reports whether every node equals the first one.
func AllEqual(a Adapter, nodes []*Node) bool {
	for _, n := range nodes[min(1, len(nodes)):] {
		if !Equal(a, nodes[0], n) {
			return false
		}
	}

	return true
}
