package ast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/css"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/typescript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

var (
	errPoolType   = errors.New("ast parser: pool returned unexpected type")
	errNoRootNode = errors.New("ast parser: no root node")
)

// SyntaxError reports the first malformed construct of a source text.
type SyntaxError struct {
	Message string
	Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

var languageFuncs = map[Variant]func() unsafe.Pointer{
	Typed: typescript.GetLanguage,
	Light: javascript.GetLanguage,
	Style: css.GetLanguage,
}

// Parser turns source text into Node trees. It is safe for concurrent use.
type Parser struct {
	pools map[Variant]*sync.Pool
}

// NewParser creates a parser for every supported variant.
func NewParser() *Parser {
	p := &Parser{pools: make(map[Variant]*sync.Pool, len(languageFuncs))}

	for v, fn := range languageFuncs {
		lang := sitter.NewLanguage(fn())
		p.pools[v] = &sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		}
	}

	return p
}

var defaultParser = sync.OnceValue(NewParser)

// Parse parses source with the process-wide parser.
func Parse(ctx context.Context, v Variant, source string) (*Node, error) {
	return defaultParser().Parse(ctx, v, source)
}

// Parse parses source into a tree. Malformed input yields a *SyntaxError.
func (p *Parser) Parse(ctx context.Context, v Variant, source string) (*Node, error) {
	pool, ok := p.pools[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	src := []byte(source)

	tree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("ast parser: failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	if synErr := firstError(root); synErr != nil {
		return nil, synErr
	}

	return build(root, src, nil), nil
}

func firstError(n sitter.Node) *SyntaxError {
	if n.IsMissing() {
		return &SyntaxError{Message: "missing " + n.Type(), Position: startOf(n)}
	}

	if n.Type() == "ERROR" {
		return &SyntaxError{Message: "unexpected input", Position: startOf(n)}
	}

	for idx := range n.ChildCount() {
		if err := firstError(n.Child(idx)); err != nil {
			return err
		}
	}

	return nil
}

func startOf(n sitter.Node) Position {
	p := n.StartPoint()

	return Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func endOf(n sitter.Node) Position {
	p := n.EndPoint()

	return Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

// build converts a tree-sitter node. Named children become fields or items,
// anonymous tokens are kept only when they carry a field name.
func build(tsn sitter.Node, src []byte, parent *Node) *Node {
	n := &Node{
		parent:   parent,
		src:      src,
		Type:     tsn.Type(),
		Named:    tsn.IsNamed(),
		Start:    int(tsn.StartByte()),
		End:      int(tsn.EndByte()),
		StartPos: startOf(tsn),
		EndPos:   endOf(tsn),
	}

	cursor := sitter.NewTreeCursor(tsn)
	if !cursor.GoToFirstChild() {
		return n
	}

	for {
		child := cursor.CurrentNode()
		field := cursor.CurrentFieldName()

		if child.IsNamed() || field != "" {
			c := build(child, src, n)
			n.children = append(n.children, c)

			if field == "" {
				n.Items = append(n.Items, c)
			} else {
				n.addField(field, c)
			}
		}

		if !cursor.GoToNextSibling() {
			break
		}
	}

	return n
}

func (n *Node) addField(key string, c *Node) {
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			n.Fields[i].Nodes = append(n.Fields[i].Nodes, c)

			return
		}
	}

	n.Fields = append(n.Fields, Field{Key: key, Nodes: []*Node{c}})
}
