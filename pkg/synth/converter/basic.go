package converter

import (
	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
)

// Noop handles example sets whose outputs are absent or unchanged.
type Noop struct{}

// Name implements Converter.
func (Noop) Name() string { return "noop" }

// Convert implements Converter.
func (Noop) Convert(c *Context) bool {
	if c.HasOutputs() {
		for i, in := range c.Inputs {
			if !ast.Identical(c.Adapter, in, c.Outputs[i]) {
				return false
			}
		}
	}

	c.Target.Statement(NoopStatement())

	return true
}

// Remove handles outputs that are all empty programs.
type Remove struct{}

// Name implements Converter.
func (Remove) Name() string { return "remove" }

// Convert implements Converter.
func (Remove) Convert(c *Context) bool {
	if !c.HasOutputs() || !all(c.Outputs, c.Adapter.IsNull) {
		return false
	}

	c.Target.Statement(RemoveStatement())

	return true
}

// Insert handles inputs that are all empty programs; the statement is
// emitted at the top level since there is no node to find.
type Insert struct{}

// Name implements Converter.
func (Insert) Name() string { return "insert" }

// Convert implements Converter.
func (Insert) Convert(c *Context) bool {
	if !c.HasOutputs() || !all(c.Inputs, c.Adapter.IsNull) {
		return false
	}

	c.Root.Statement(InsertStatement(string(c.Out().File()), AtBeginning))

	return true
}

// FindAndInsert handles an input whose exact text reappears inside the output.
type FindAndInsert struct{}

// Name implements Converter.
func (FindAndInsert) Name() string { return "find_and_insert" }

// Convert implements Converter.
func (FindAndInsert) Convert(c *Context) bool {
	if !c.HasOutputs() {
		return false
	}

	in, out := c.In(), c.Out()

	var found *ast.Node

	for _, child := range out.Children() {
		child.Walk(func(n *ast.Node) bool {
			if n.Named && ast.Identical(c.Adapter, in, n) {
				found = n
			}

			return found == nil
		})

		if found != nil {
			break
		}
	}

	if found == nil {
		return false
	}

	src := out.File()
	if prefix := string(src[out.Start:found.Start]); prefix != "" {
		c.Target.Statement(InsertStatement(prefix, AtBeginning))
	}

	if suffix := string(src[found.End:out.End]); suffix != "" {
		c.Target.Statement(InsertStatement(suffix, AtEnd))
	}

	return true
}

func all(nodes []*ast.Node, pred func(*ast.Node) bool) bool {
	for _, n := range nodes {
		if !pred(n) {
			return false
		}
	}

	return true
}
