package ast

// Entry describes one addressable node of a tree.
type Entry struct {
	Path  string   `json:"path"`
	Type  string   `json:"type"`
	Text  string   `json:"text"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Dump lists every node below n with the path that Lookup resolves to it,
// in pre-order. n itself is listed first with an empty path.
func Dump(n *Node) []Entry {
	var out []Entry

	var visit func(n *Node, path string)

	visit = func(n *Node, path string) {
		out = append(out, Entry{Path: path, Type: n.Type, Text: n.Source(), Start: n.StartPos, End: n.EndPos})

		for _, s := range n.Slots() {
			visit(s.Node, JoinPath(path, s.Key))
		}
	}

	if n != nil {
		visit(n, "")
	}

	return out
}
