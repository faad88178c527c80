// Package converter infers edit statements from an example pair. Each
// converter inspects the first pair only; later pairs are left to
// verification.
package converter

import (
	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth/builder"
)

// Context is the input of one inference step.
type Context struct {
	Adapter ast.Adapter
	// Root receives top-level statements.
	Root *builder.Node
	// Target receives statements scoped to the matched node.
	Target  *builder.Node
	Inputs  []*ast.Node
	Outputs []*ast.Node
}

// In returns the first input.
func (c *Context) In() *ast.Node {
	return c.Inputs[0]
}

// Out returns the first output.
func (c *Context) Out() *ast.Node {
	return c.Outputs[0]
}

// HasOutputs reports whether expected outputs were supplied.
func (c *Context) HasOutputs() bool {
	return len(c.Outputs) > 0
}

// Converter infers statements for one family of edits. Convert reports
// whether it fully explained the first pair.
type Converter interface {
	Name() string
	Convert(c *Context) bool
}

// Terminal returns the narrow converters in the order they are tried.
func Terminal() []Converter {
	return []Converter{Noop{}, Remove{}, Insert{}, FindAndInsert{}, Delete{}, FindAndDelete{}}
}
