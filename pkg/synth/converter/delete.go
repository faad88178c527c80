package converter

import (
	"strconv"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
)

// Delete handles same-typed pairs whose every difference is a removed child.
type Delete struct{}

// Name implements Converter.
func (Delete) Name() string { return "delete" }

// Convert implements Converter.
func (Delete) Convert(c *Context) bool {
	if !c.HasOutputs() {
		return false
	}

	paths, ok := deletions(c.Adapter, c.In(), c.Out(), "")
	if !ok || len(paths) == 0 {
		return false
	}

	c.Target.Statement(DeleteStatement(paths))

	return true
}

// deletions lists the child paths of in missing from out. It fails when
// any difference is not a deletion.
func deletions(a ast.Adapter, in, out *ast.Node, path string) ([]string, bool) {
	if ast.Identical(a, in, out) {
		return nil, true
	}

	if in.Type != out.Type || a.IsLeaf(in) || a.IsLeaf(out) {
		return nil, false
	}

	for _, key := range out.Keys() {
		if !in.Field(key).Valid() {
			return nil, false
		}
	}

	var paths []string

	for _, f := range in.Fields {
		key := ast.JoinPath(path, f.Key)

		outV := out.Field(f.Key)
		if !outV.Valid() {
			paths = append(paths, key)

			continue
		}

		var (
			sub []string
			ok  bool
		)

		if !outV.IsList && len(f.Nodes) == 1 {
			sub, ok = deletions(a, f.Nodes[0], outV.Node, key)
		} else {
			sub, ok = listDeletions(a, f.Nodes, outV.Nodes(), key)
		}

		if !ok {
			return nil, false
		}

		paths = append(paths, sub...)
	}

	sub, ok := listDeletions(a, in.Items, out.Items, path)
	if !ok {
		return nil, false
	}

	return append(paths, sub...), true
}

// listDeletions explains a list difference by removed elements. A shorter
// output must be an in-order subsequence of the input; the last element is
// addressed as -1.
func listDeletions(a ast.Adapter, ins, outs []*ast.Node, prefix string) ([]string, bool) {
	if len(outs) > len(ins) {
		return nil, false
	}

	if len(outs) == len(ins) {
		var paths []string

		for i := range ins {
			sub, ok := deletions(a, ins[i], outs[i], ast.JoinPath(prefix, strconv.Itoa(i)))
			if !ok {
				return nil, false
			}

			paths = append(paths, sub...)
		}

		return paths, true
	}

	missing, ok := subsequence(a, ins, outs)
	if !ok || len(missing) != len(ins)-len(outs) {
		return nil, false
	}

	paths := make([]string, 0, len(missing))
	for _, idx := range missing {
		paths = append(paths, ast.JoinPath(prefix, ast.Index(idx, len(ins))))
	}

	return paths, true
}

// subsequence greedily aligns short with long and returns the indexes of
// long that were skipped.
func subsequence(a ast.Adapter, long, short []*ast.Node) ([]int, bool) {
	var skipped []int

	j := 0

	for i, n := range long {
		if j < len(short) && ast.Identical(a, n, short[j]) {
			j++

			continue
		}

		skipped = append(skipped, i)
	}

	return skipped, j == len(short)
}

// FindAndDelete handles an output that is one direct child of the input.
type FindAndDelete struct{}

// Name implements Converter.
func (FindAndDelete) Name() string { return "find_and_delete" }

// Convert implements Converter.
func (FindAndDelete) Convert(c *Context) bool {
	if !c.HasOutputs() {
		return false
	}

	slots := c.In().Slots()

	for i, slot := range slots {
		if !slot.Node.Named || !ast.Identical(c.Adapter, slot.Node, c.Out()) {
			continue
		}

		before := keys(slots[:i])
		after := keys(slots[i+1:])

		if len(before) > 0 {
			c.Target.Statement(DeleteStatement(before))
		}

		if len(after) > 0 {
			c.Target.Statement(DeleteStatement(after))
		}

		return len(before)+len(after) > 0
	}

	return false
}

func keys(slots []ast.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Key)
	}

	return out
}
