package sandbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
)

// instance processes one parsed file.
type instance struct {
	adapter ast.Adapter
	root    *ast.Node
	actions []action
}

func (in *instance) exec(fn *function, current *ast.Node) error {
	calls, err := fn.statements()
	if err != nil {
		return err
	}

	for _, c := range calls {
		err = in.call(c, current)
		if err != nil {
			return err
		}
	}

	return nil
}

func (in *instance) call(c *call, current *ast.Node) error {
	switch c.name {
	case "findNode", "withNode":
		return in.findNode(c, current)
	case "ifExistNode", "unlessExistNode":
		return in.ifExist(c, current, c.name == "ifExistNode")
	case "gotoNode":
		return in.gotoNode(c, current)
	case "noop":
		return nil
	case "remove":
		in.remove(current)

		return nil
	case "delete":
		return in.delete(c, current)
	case "insert":
		return in.insert(c, current)
	case "insertBefore", "insertAfter":
		return in.insertSibling(c, current)
	case "replace":
		return in.replace(c, current)
	case "replaceWith":
		return in.replaceWith(c, current)
	default:
		return fmt.Errorf("%w: %s at line %d", ErrUnknownCall, c.name, c.node.StartPos.Line)
	}
}

func (in *instance) query(c *call) (*nql.Query, error) {
	if len(c.args) == 0 {
		return nil, c.argError("missing query")
	}

	switch q := c.args[0].(type) {
	case string:
		parsed, err := nql.Parse(q)
		if err != nil {
			return nil, c.argError("%v", err)
		}

		return parsed, nil
	case *object:
		return objectQuery(q), nil
	default:
		return nil, c.argError("query must be a string or an object")
	}
}

// objectQuery flattens a structured-object pattern into predicates.
func objectQuery(obj *object) *nql.Query {
	q := &nql.Query{}
	flattenObject(obj, "", q)

	return q
}

func flattenObject(obj *object, prefix string, q *nql.Query) {
	for _, key := range obj.keys {
		p := ast.JoinPath(prefix, key)

		switch v := obj.vals[key].(type) {
		case *object:
			flattenObject(v, p, q)
		case string:
			if prefix == "" && key == nql.KeyNodeType {
				q.NodeType = v

				continue
			}

			q.Predicates = append(q.Predicates, nql.Predicate{Path: p, Value: v})
		case float64:
			q.Predicates = append(q.Predicates, nql.Predicate{Path: p, Value: formatNumber(v)})
		case bool:
			q.Predicates = append(q.Predicates, nql.Predicate{Path: p, Value: fmt.Sprint(v)})
		}
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (in *instance) findNode(c *call, current *ast.Node) error {
	q, err := in.query(c)
	if err != nil {
		return err
	}

	fn, err := c.fn(1)
	if err != nil {
		return err
	}

	var matches []*ast.Node

	current.Walk(func(n *ast.Node) bool {
		if n.Named && q.Match(in.adapter, n) {
			matches = append(matches, n)
		}

		return true
	})

	for _, m := range matches {
		err = in.exec(fn, m)
		if err != nil {
			return err
		}
	}

	return nil
}

func (in *instance) ifExist(c *call, current *ast.Node, want bool) error {
	q, err := in.query(c)
	if err != nil {
		return err
	}

	fn, err := c.fn(1)
	if err != nil {
		return err
	}

	found := false

	for _, child := range current.Children() {
		child.Walk(func(n *ast.Node) bool {
			found = n.Named && q.Match(in.adapter, n)

			return !found
		})

		if found {
			break
		}
	}

	if found != want {
		return nil
	}

	return in.exec(fn, current)
}

func (in *instance) gotoNode(c *call, current *ast.Node) error {
	p, err := c.str(0)
	if err != nil {
		return err
	}

	fn, err := c.fn(1)
	if err != nil {
		return err
	}

	v, err := ast.Lookup(current, p)
	if err != nil {
		return nil //nolint:nilerr // a missing child means there is nothing to visit.
	}

	for _, n := range v.Nodes() {
		err = in.exec(fn, n)
		if err != nil {
			return err
		}
	}

	return nil
}

// remove deletes the node, lifted out of an expression statement wrapper.
func (in *instance) remove(current *ast.Node) {
	n := current
	for p := n.Parent(); p != nil && p.Type == "expression_statement" && len(p.Items) == 1; p = n.Parent() {
		n = p
	}

	if n.Parent() == nil {
		in.add(ast.Range{Start: 0, End: len(n.File())}, "")

		return
	}

	in.add(deleteRange(n.File(), []*ast.Node{n}), "")
}

func (in *instance) delete(c *call, current *ast.Node) error {
	paths, err := c.strings(0)
	if err != nil {
		return err
	}

	var nodes []*ast.Node

	for _, p := range paths {
		v, lookupErr := ast.Lookup(current, p)
		if lookupErr != nil {
			return lookupErr
		}

		nodes = append(nodes, v.Nodes()...)
	}

	for _, group := range adjacentGroups(current.File(), nodes) {
		in.add(deleteRange(current.File(), group), "")
	}

	return nil
}

func (in *instance) insert(c *call, current *ast.Node) error {
	text, err := c.str(0)
	if err != nil {
		return err
	}

	opts, err := c.options(1)
	if err != nil {
		return err
	}

	target := ast.Value{Node: current}

	if to, ok := opts.str("to"); ok {
		target, err = ast.Lookup(current, to)
		if err != nil {
			return err
		}
	}

	span, ok := target.Span()
	if !ok {
		return c.argError("nothing to insert relative to")
	}

	text, err = expand(text, current)
	if err != nil {
		return err
	}

	at, _ := opts.str("at")
	atRoot := target.Node == in.root && len(in.root.File()) > 0

	if at == "beginning" {
		if atRoot {
			text += "\n"
		}

		in.add(ast.Range{Start: span.Start, End: span.Start}, text)

		return nil
	}

	if atRoot {
		text = "\n" + text
	}

	in.add(ast.Range{Start: span.End, End: span.End}, text)

	return nil
}

// insertSibling inserts text on its own line before or after the node,
// keeping the node's indentation.
func (in *instance) insertSibling(c *call, current *ast.Node) error {
	text, err := c.str(0)
	if err != nil {
		return err
	}

	text, err = expand(text, current)
	if err != nil {
		return err
	}

	src := current.File()
	lineStart := strings.LastIndexByte(string(src[:current.Start]), '\n') + 1
	indent := leadingBlank(src[lineStart:current.Start])

	if c.name == "insertBefore" {
		in.add(ast.Range{Start: current.Start, End: current.Start}, text+"\n"+indent)

		return nil
	}

	in.add(ast.Range{Start: current.End, End: current.End}, "\n"+indent+text)

	return nil
}

func (in *instance) replace(c *call, current *ast.Node) error {
	paths, err := c.strings(0)
	if err != nil {
		return err
	}

	opts, err := c.options(1)
	if err != nil {
		return err
	}

	with, ok := opts.str("with")
	if !ok {
		return c.argError("missing with")
	}

	text, err := expand(with, current)
	if err != nil {
		return err
	}

	for _, p := range paths {
		v, lookupErr := ast.Lookup(current, p)
		if lookupErr != nil {
			return lookupErr
		}

		span, has := v.Span()
		if !has {
			return c.argError("empty target %q", p)
		}

		in.add(span, text)
	}

	return nil
}

func (in *instance) replaceWith(c *call, current *ast.Node) error {
	template, err := c.str(0)
	if err != nil {
		return err
	}

	text, err := expand(template, current)
	if err != nil {
		return err
	}

	in.add(current.Range(), text)

	return nil
}

func (in *instance) add(r ast.Range, text string) {
	in.actions = append(in.actions, action{start: r.Start, end: r.End, text: text})
}

// expand substitutes {{path}} tokens with the source they address.
func expand(template string, current *ast.Node) (string, error) {
	var sb strings.Builder

	rest := template

	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			sb.WriteString(rest)

			return sb.String(), nil
		}

		closing := strings.Index(rest[open:], "}}")
		if closing < 0 {
			sb.WriteString(rest)

			return sb.String(), nil
		}

		sb.WriteString(rest[:open])

		p := strings.TrimSpace(rest[open+2 : open+closing])

		v, err := ast.Lookup(current, p)
		if err != nil {
			return "", err
		}

		if span, ok := v.Span(); ok {
			sb.Write(current.File()[span.Start:span.End])
		}

		rest = rest[open+closing+2:]
	}
}

func leadingBlank(b []byte) string {
	for i, ch := range b {
		if ch != ' ' && ch != '\t' {
			return string(b[:i])
		}
	}

	return string(b)
}
