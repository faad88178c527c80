package nql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
)

// ErrInvalidQuery is returned for malformed query text.
var ErrInvalidQuery = errors.New("invalid node query")

// Predicate constrains the value reached by a dotted path.
type Predicate struct {
	Path  string
	Value string
}

// Query is a node type plus attribute predicates.
type Query struct {
	NodeType   string
	Predicates []Predicate
}

var (
	bareValue = regexp.MustCompile(`^[A-Za-z0-9_$.\-]+$`)
	typeName  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// String renders the attribute-predicate form.
func (q *Query) String() string {
	var sb strings.Builder

	if q.NodeType != "" {
		sb.WriteByte('.')
		sb.WriteString(q.NodeType)
	}

	for _, p := range q.Predicates {
		sb.WriteByte('[')
		sb.WriteString(p.Path)
		sb.WriteByte('=')

		if bareValue.MatchString(p.Value) {
			sb.WriteString(p.Value)
		} else {
			sb.WriteString(strconv.Quote(p.Value))
		}

		sb.WriteByte(']')
	}

	return sb.String()
}

// Parse reads the attribute-predicate form.
func Parse(text string) (*Query, error) {
	s := strings.TrimSpace(text)
	q := &Query{}

	if strings.HasPrefix(s, ".") {
		end := strings.IndexByte(s, '[')
		if end < 0 {
			end = len(s)
		}

		q.NodeType = strings.TrimSpace(s[1:end])
		if !typeName.MatchString(q.NodeType) {
			return nil, fmt.Errorf("%w: bad node type %q", ErrInvalidQuery, q.NodeType)
		}

		s = s[end:]
	}

	for s != "" {
		if s[0] != '[' {
			return nil, fmt.Errorf("%w: expected '[' in %q", ErrInvalidQuery, text)
		}

		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return nil, fmt.Errorf("%w: missing '=' in %q", ErrInvalidQuery, text)
		}

		path := strings.TrimSpace(s[1:eq])
		if path == "" {
			return nil, fmt.Errorf("%w: empty attribute in %q", ErrInvalidQuery, text)
		}

		value, rest, err := readValue(s[eq+1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}

		if !strings.HasPrefix(rest, "]") {
			return nil, fmt.Errorf("%w: unclosed predicate in %q", ErrInvalidQuery, text)
		}

		q.Predicates = append(q.Predicates, Predicate{Path: path, Value: value})
		s = strings.TrimLeft(rest[1:], " ")
	}

	if q.NodeType == "" && len(q.Predicates) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}

	return q, nil
}

func readValue(s string) (value, rest string, err error) {
	if !strings.HasPrefix(s, `"`) {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return "", "", errors.New("unterminated value")
		}

		return strings.TrimSpace(s[:end]), s[end:], nil
	}

	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			value, err = strconv.Unquote(s[:i+1])
			if err != nil {
				return "", "", err
			}

			return value, s[i+1:], nil
		}
	}

	return "", "", errors.New("unterminated quoted value")
}

// Match reports whether n satisfies the query.
func (q *Query) Match(a ast.Adapter, n *ast.Node) bool {
	if q.NodeType != "" && n.Type != q.NodeType {
		return false
	}

	for _, p := range q.Predicates {
		if !matchPredicate(a, n, p) {
			return false
		}
	}

	return true
}

func matchPredicate(a ast.Adapter, n *ast.Node, p Predicate) bool {
	segs := ast.SplitPath(p.Path)
	last := segs[len(segs)-1]
	prefix := strings.Join(segs[:len(segs)-1], ".")

	switch last {
	case KeyNodeType, KeyLength, KeyText:
		v, err := ast.Lookup(n, prefix)
		if err != nil {
			return false
		}

		return matchReserved(a, v, last, p.Value)
	}

	v, err := ast.Lookup(n, p.Path)
	if err != nil {
		return false
	}

	if v.IsList {
		span, ok := v.Span()
		if !ok {
			return p.Value == ""
		}

		return string(n.File()[span.Start:span.End]) == p.Value
	}

	return a.LiteralEquals(v.Node, p.Value)
}

func matchReserved(a ast.Adapter, v ast.Value, key, want string) bool {
	switch key {
	case KeyLength:
		size := len(v.List)
		if !v.IsList {
			size = len(v.Node.Items)
		}

		return strconv.Itoa(size) == want
	case KeyNodeType:
		return !v.IsList && v.Node.Type == want
	default:
		return !v.IsList && a.LiteralEquals(v.Node, want)
	}
}
