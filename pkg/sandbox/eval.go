package sandbox

import (
	"fmt"
	"strconv"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/jsstr"
)

// object is an object literal with its key order preserved.
type object struct {
	vals map[string]any
	keys []string
}

func (o *object) str(key string) (string, bool) {
	s, ok := o.vals[key].(string)

	return s, ok
}

// function is an arrow function or function expression.
type function struct {
	body *ast.Node
}

// call is a parsed invocation.
type call struct {
	node  *ast.Node
	name  string
	args  []any
	isNew bool
}

func (c *call) argError(format string, a ...any) error {
	return fmt.Errorf("%w: %s at line %d: %s", ErrInvalidArgument, c.name, c.node.StartPos.Line, fmt.Sprintf(format, a...))
}

func (c *call) str(idx int) (string, error) {
	if idx >= len(c.args) {
		return "", c.argError("missing argument %d", idx+1)
	}

	s, ok := c.args[idx].(string)
	if !ok {
		return "", c.argError("argument %d must be a string", idx+1)
	}

	return s, nil
}

func (c *call) fn(idx int) (*function, error) {
	if idx >= len(c.args) {
		return nil, c.argError("missing callback")
	}

	f, ok := c.args[idx].(*function)
	if !ok {
		return nil, c.argError("argument %d must be a function", idx+1)
	}

	return f, nil
}

func (c *call) options(idx int) (*object, error) {
	if idx >= len(c.args) {
		return &object{vals: map[string]any{}}, nil
	}

	o, ok := c.args[idx].(*object)
	if !ok {
		return nil, c.argError("argument %d must be an object", idx+1)
	}

	return o, nil
}

// strings accepts a string or an array of strings.
func (c *call) strings(idx int) ([]string, error) {
	if idx >= len(c.args) {
		return nil, c.argError("missing argument %d", idx+1)
	}

	switch v := c.args[idx].(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))

		for _, el := range v {
			s, ok := el.(string)
			if !ok {
				return nil, c.argError("argument %d must hold strings", idx+1)
			}

			out = append(out, s)
		}

		return out, nil
	default:
		return nil, c.argError("argument %d must be a string or an array", idx+1)
	}
}

// statements returns the calls of a function body in order.
func (f *function) statements() ([]*call, error) {
	if f.body.Type != "statement_block" {
		c, err := parseCall(f.body)
		if err != nil {
			return nil, err
		}

		return []*call{c}, nil
	}

	return parseBlock(f.body.Items)
}

func parseBlock(items []*ast.Node) ([]*call, error) {
	calls := make([]*call, 0, len(items))

	for _, stmt := range items {
		switch stmt.Type {
		case "comment", "empty_statement":
			continue
		case "expression_statement":
			if len(stmt.Items) != 1 {
				return nil, fmt.Errorf("%w: line %d", ErrInvalidArgument, stmt.StartPos.Line)
			}

			c, err := parseCall(stmt.Items[0])
			if err != nil {
				return nil, err
			}

			calls = append(calls, c)
		default:
			return nil, fmt.Errorf("%w: unsupported statement %s at line %d", ErrInvalidArgument, stmt.Type, stmt.StartPos.Line)
		}
	}

	return calls, nil
}

func parseCall(n *ast.Node) (*call, error) {
	var (
		callee *ast.Node
		isNew  bool
	)

	switch n.Type {
	case "call_expression":
		callee = n.Field("function").Node
	case "new_expression":
		callee = n.Field("constructor").Node
		isNew = true
	case "parenthesized_expression":
		if len(n.Items) == 1 {
			return parseCall(n.Items[0])
		}
	case "unary_expression":
		if op := n.Field("operator").Node; op != nil && op.Source() == "delete" {
			return parseDelete(n)
		}
	}

	if callee == nil || callee.Type != "identifier" {
		return nil, fmt.Errorf("%w: expected a call at line %d: %s", ErrInvalidArgument, n.StartPos.Line, n.Source())
	}

	c := &call{node: n, name: callee.Source(), isNew: isNew}

	if argList := n.Field("arguments").Node; argList != nil {
		for _, a := range argList.Items {
			if a.Type == "comment" {
				continue
			}

			v, err := evaluate(a)
			if err != nil {
				return nil, err
			}

			c.args = append(c.args, v)
		}
	}

	return c, nil
}

// parseDelete reads delete(...) which parses as the delete operator applied
// to a parenthesized argument list.
func parseDelete(n *ast.Node) (*call, error) {
	arg := n.Field("argument").Node
	if arg == nil || arg.Type != "parenthesized_expression" {
		return nil, fmt.Errorf("%w: expected a call at line %d: %s", ErrInvalidArgument, n.StartPos.Line, n.Source())
	}

	c := &call{node: n, name: "delete"}

	for _, a := range sequence(arg.Items) {
		v, err := evaluate(a)
		if err != nil {
			return nil, err
		}

		c.args = append(c.args, v)
	}

	return c, nil
}

// sequence flattens comma expressions into their operands.
func sequence(items []*ast.Node) []*ast.Node {
	var out []*ast.Node

	for _, it := range items {
		switch it.Type {
		case "comment":
			continue
		case "sequence_expression":
			var operands []*ast.Node

			for _, ch := range it.Children() {
				if ch.Named {
					operands = append(operands, ch)
				}
			}

			out = append(out, sequence(operands)...)
		default:
			out = append(out, it)
		}
	}

	return out
}

// evaluate reduces a literal expression to a Go value.
func evaluate(n *ast.Node) (any, error) {
	switch n.Type {
	case "string":
		return unquote(n)
	case "template_string":
		for _, c := range n.Items {
			if c.Type == "template_substitution" {
				return nil, fmt.Errorf("%w: template substitutions are not supported at line %d", ErrInvalidArgument, n.StartPos.Line)
			}
		}

		return unquote(n)
	case "number":
		f, err := strconv.ParseFloat(n.Source(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}

		return f, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "parenthesized_expression":
		if len(n.Items) == 1 {
			return evaluate(n.Items[0])
		}
	case "array":
		out := make([]any, 0, len(n.Items))

		for _, el := range n.Items {
			if el.Type == "comment" {
				continue
			}

			v, err := evaluate(el)
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	case "object":
		return evaluateObject(n)
	case "arrow_function", "function_expression", "function":
		body := n.Field("body").Node
		if body == nil {
			break
		}

		return &function{body: body}, nil
	}

	return nil, fmt.Errorf("%w: unsupported expression %s at line %d", ErrInvalidArgument, n.Type, n.StartPos.Line)
}

func evaluateObject(n *ast.Node) (*object, error) {
	obj := &object{vals: map[string]any{}}

	for _, item := range n.Items {
		if item.Type == "comment" {
			continue
		}

		if item.Type != "pair" {
			return nil, fmt.Errorf("%w: unsupported object member %s at line %d", ErrInvalidArgument, item.Type, item.StartPos.Line)
		}

		keyNode := item.Field("key").Node

		key := keyNode.Source()
		if keyNode.Type == "string" {
			var err error

			key, err = jsstr.Unquote(key)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}
		}

		v, err := evaluate(item.Field("value").Node)
		if err != nil {
			return nil, err
		}

		if _, seen := obj.vals[key]; !seen {
			obj.keys = append(obj.keys, key)
		}

		obj.vals[key] = v
	}

	return obj, nil
}

func unquote(n *ast.Node) (string, error) {
	s, err := jsstr.Unquote(n.Source())
	if err != nil {
		return "", fmt.Errorf("%w: line %d: %w", ErrInvalidArgument, n.StartPos.Line, err)
	}

	return s, nil
}
