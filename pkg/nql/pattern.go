// Package nql holds generalized node patterns and the node query language
// used to render and evaluate them.
package nql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/jsstr"
)

// Reserved pattern keys.
const (
	KeyNodeType = "nodeType"
	KeyLength   = "length"
	KeyText     = "text"
)

// Mode selects how a pattern is rendered into a find clause.
type Mode string

// Output modes.
const (
	// ModeAttribute renders ".type[key=value]" queries.
	ModeAttribute Mode = "attribute"
	// ModeObject renders "{ nodeType: ..., key: ... }" literals.
	ModeObject Mode = "object"
)

// ParseMode resolves a mode name, defaulting to ModeAttribute.
func ParseMode(name string) (Mode, bool) {
	switch strings.ToLower(name) {
	case "", "attribute", "attributes", "nql", "query":
		return ModeAttribute, true
	case "object", "rules", "structured":
		return ModeObject, true
	default:
		return "", false
	}
}

// Entry is one keyed sub-pattern.
type Entry struct {
	Pattern *Pattern
	Key     string
}

// Pattern is a generalized description of a set of nodes.
type Pattern struct {
	Literal  *string
	Length   *int
	NodeType string
	Fields   []Entry
	Elements []Entry
}

// Lit returns a literal pattern.
func Lit(text string) *Pattern {
	return &Pattern{Literal: &text}
}

// Set appends a field sub-pattern.
func (p *Pattern) Set(key string, sub *Pattern) {
	p.Fields = append(p.Fields, Entry{Key: key, Pattern: sub})
}

// SetElement appends an element sub-pattern at index idx.
func (p *Pattern) SetElement(idx int, sub *Pattern) {
	p.Elements = append(p.Elements, Entry{Key: strconv.Itoa(idx), Pattern: sub})
}

// SetLength records the expected item count.
func (p *Pattern) SetLength(n int) {
	p.Length = &n
}

// Query flattens the pattern into predicates.
func (p *Pattern) Query() *Query {
	q := &Query{NodeType: p.NodeType}
	if p.Literal != nil {
		q.Predicates = append(q.Predicates, Predicate{Path: KeyText, Value: *p.Literal})
	}

	p.flatten("", q)

	return q
}

func (p *Pattern) flatten(prefix string, q *Query) {
	visit := func(e Entry) {
		path := join(prefix, e.Key)

		sub := e.Pattern
		if sub.Literal != nil && sub.NodeType == "" {
			q.Predicates = append(q.Predicates, Predicate{Path: path, Value: *sub.Literal})

			return
		}

		if sub.NodeType != "" {
			q.Predicates = append(q.Predicates, Predicate{Path: join(path, KeyNodeType), Value: sub.NodeType})
		}

		sub.flatten(path, q)
	}

	for _, e := range p.Fields {
		visit(e)
	}

	if p.Length != nil {
		q.Predicates = append(q.Predicates, Predicate{Path: join(prefix, KeyLength), Value: strconv.Itoa(*p.Length)})
	}

	for _, e := range p.Elements {
		visit(e)
	}
}

// Render renders the pattern in the given mode.
func (p *Pattern) Render(mode Mode) string {
	if mode == ModeObject {
		return p.Object()
	}

	return p.Query().String()
}

// Object renders the structured-object form.
func (p *Pattern) Object() string {
	parts := make([]string, 0, len(p.Fields)+len(p.Elements)+2) //nolint:mnd // nodeType and length.

	if p.NodeType != "" {
		parts = append(parts, KeyNodeType+": "+jsstr.Quote(p.NodeType))
	}

	if p.Literal != nil {
		parts = append(parts, KeyText+": "+jsstr.Quote(*p.Literal))
	}

	entry := func(e Entry) string {
		if e.Pattern.Literal != nil && e.Pattern.NodeType == "" {
			return objectKey(e.Key) + ": " + jsstr.Quote(*e.Pattern.Literal)
		}

		return objectKey(e.Key) + ": " + e.Pattern.Object()
	}

	for _, e := range p.Fields {
		parts = append(parts, entry(e))
	}

	if p.Length != nil {
		parts = append(parts, KeyLength+": "+strconv.Itoa(*p.Length))
	}

	for _, e := range p.Elements {
		parts = append(parts, entry(e))
	}

	if len(parts) == 0 {
		return "{}"
	}

	return "{ " + strings.Join(parts, ", ") + " }"
}

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true, "continue": true,
	"debugger": true, "default": true, "delete": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true, "var": true,
	"void": true, "while": true, "with": true, "yield": true, "let": true, "static": true,
	"await": true, "null": true, "true": true, "false": true,
}

var plainKey = regexp.MustCompile(`^([A-Za-z_$][A-Za-z0-9_$]*|[0-9]+)$`)

// objectKey quotes keys that cannot appear bare in an object literal.
func objectKey(key string) string {
	if plainKey.MatchString(key) && !reservedWords[key] {
		return key
	}

	return jsstr.Quote(key)
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}
