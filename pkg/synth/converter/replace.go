package converter

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth/placeholder"
)

// FindAndReplace explains a pair by field replacements plus structural
// deletions and insertions. It emits nothing unless every divergence is
// accounted for.
type FindAndReplace struct{}

// Name implements Converter.
func (FindAndReplace) Name() string { return "find_and_replace" }

// Convert implements Converter.
func (FindAndReplace) Convert(c *Context) bool {
	if !c.HasOutputs() {
		return false
	}

	d := &differ{adapter: c.Adapter, input: c.In(), replaces: map[string]string{}}
	if !d.walk(c.In(), c.Out(), "") || d.empty() {
		return false
	}

	for _, stmt := range d.statements() {
		c.Target.Statement(stmt)
	}

	return true
}

type insertion struct {
	text string
	to   string
	at   string
}

type differ struct {
	adapter  ast.Adapter
	input    *ast.Node
	replaces map[string]string
	deletes  []string
	inserts  []insertion
}

type snapshot struct {
	replaces map[string]string
	deletes  int
	inserts  int
}

func (d *differ) save() snapshot {
	return snapshot{replaces: maps.Clone(d.replaces), deletes: len(d.deletes), inserts: len(d.inserts)}
}

func (d *differ) restore(s snapshot) {
	d.replaces = s.replaces
	d.deletes = d.deletes[:s.deletes]
	d.inserts = d.inserts[:s.inserts]
}

// changedSince reports whether anything was recorded after s. Children that
// all match while the node text differs leave a change only a whole-node
// replacement can express.
func (d *differ) changedSince(s snapshot) bool {
	return len(d.replaces) != len(s.replaces) || len(d.deletes) != s.deletes || len(d.inserts) != s.inserts
}

func (d *differ) empty() bool {
	return len(d.replaces) == 0 && len(d.deletes) == 0 && len(d.inserts) == 0
}

// walk diffs a same-position pair. When the children cannot be reconciled
// the whole node at path is replaced instead; the matched node itself is
// never replaced here.
func (d *differ) walk(in, out *ast.Node, path string) bool {
	if ast.Identical(d.adapter, in, out) {
		return true
	}

	if in.Type != out.Type || d.adapter.IsLeaf(in) || d.adapter.IsLeaf(out) {
		return d.replace(out, path)
	}

	saved := d.save()
	if d.walkChildren(in, out, path) && d.changedSince(saved) {
		return true
	}

	d.restore(saved)

	return d.replace(out, path)
}

func (d *differ) replace(out *ast.Node, path string) bool {
	if path == "" {
		return false
	}

	d.replaces[path] = placeholder.Template(d.adapter, out, path, d.input)

	return true
}

func (d *differ) walkChildren(in, out *ast.Node, path string) bool {
	for _, key := range out.Keys() {
		if !in.Field(key).Valid() {
			return false
		}
	}

	for _, f := range in.Fields {
		key := ast.JoinPath(path, f.Key)

		outV := out.Field(f.Key)
		if !outV.Valid() {
			d.deletes = append(d.deletes, key)

			continue
		}

		if !outV.IsList && len(f.Nodes) == 1 {
			if !d.walk(f.Nodes[0], outV.Node, key) {
				return false
			}

			continue
		}

		if !d.walkList(f.Nodes, outV.Nodes(), key) {
			return false
		}
	}

	return d.walkList(in.Items, out.Items, path)
}

func (d *differ) walkList(ins, outs []*ast.Node, prefix string) bool {
	switch {
	case len(ins) == len(outs):
		for i := range ins {
			if !d.walk(ins[i], outs[i], ast.JoinPath(prefix, strconv.Itoa(i))) {
				return false
			}
		}

		return true
	case len(outs) < len(ins):
		missing, ok := subsequence(d.adapter, ins, outs)
		if !ok {
			return false
		}

		for _, idx := range missing {
			d.deletes = append(d.deletes, ast.JoinPath(prefix, ast.Index(idx, len(ins))))
		}

		return true
	default:
		return d.insertions(ins, outs, prefix)
	}
}

// insertions anchors every output element absent from the input on a
// neighbouring element that both lists share.
func (d *differ) insertions(ins, outs []*ast.Node, prefix string) bool {
	if len(ins) == 0 {
		return false
	}

	extra, ok := subsequence(d.adapter, outs, ins)
	if !ok {
		return false
	}

	isExtra := make(map[int]bool, len(extra))
	for _, idx := range extra {
		isExtra[idx] = true
	}

	matched := -1

	for k := 0; k < len(outs); k++ {
		if !isExtra[k] {
			matched++

			continue
		}

		run := k
		for run+1 < len(outs) && isExtra[run+1] {
			run++
		}

		added := outs[k : run+1]

		if matched >= 0 {
			d.inserts = append(d.inserts, insertion{
				text: placeholder.TemplateSpan(d.adapter, added, outs[k-1].End, outs[run].End, d.input),
				to:   ast.JoinPath(prefix, ast.Index(matched, len(ins))),
				at:   AtEnd,
			})
		} else {
			d.inserts = append(d.inserts, insertion{
				text: placeholder.TemplateSpan(d.adapter, added, outs[k].Start, outs[run+1].Start, d.input),
				to:   ast.JoinPath(prefix, ast.Index(0, len(ins))),
				at:   AtBeginning,
			})
		}

		k = run
	}

	return true
}

// statements renders replacements sorted by path, then deletions, then
// insertions. A replacement suppresses anything recorded beneath it.
func (d *differ) statements() []string {
	paths := make([]string, 0, len(d.replaces))
	for p := range d.replaces {
		paths = append(paths, p)
	}

	slices.Sort(paths)

	var kept []string

	for _, p := range paths {
		if !covered(kept, p) {
			kept = append(kept, p)
		}
	}

	out := make([]string, 0, len(kept)+len(d.inserts)+1)
	for _, p := range kept {
		out = append(out, ReplaceStatement(p, d.replaces[p]))
	}

	var deletes []string

	for _, p := range d.deletes {
		if !covered(kept, p) {
			deletes = append(deletes, p)
		}
	}

	if len(deletes) > 0 {
		out = append(out, DeleteStatement(deletes))
	}

	for _, ins := range d.inserts {
		if !covered(kept, ins.to) {
			out = append(out, InsertToStatement(ins.text, ins.to, ins.at))
		}
	}

	return out
}

func covered(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+".") {
			return true
		}
	}

	return false
}

// ReplaceWith replaces the whole matched node with the output rendered as
// a template. It always succeeds.
type ReplaceWith struct{}

// Name implements Converter.
func (ReplaceWith) Name() string { return "replace_with" }

// Convert implements Converter.
func (ReplaceWith) Convert(c *Context) bool {
	if !c.HasOutputs() {
		c.Target.Statement(NoopStatement())

		return true
	}

	c.Target.Statement(ReplaceWithStatement(placeholder.Template(c.Adapter, c.Out(), "", c.In())))

	return true
}
