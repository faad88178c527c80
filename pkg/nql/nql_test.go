package nql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
)

func isArrayPattern() *nql.Pattern {
	arg := &nql.Pattern{NodeType: "identifier"}

	args := &nql.Pattern{NodeType: "arguments"}
	args.SetLength(1)
	args.SetElement(0, arg)

	p := &nql.Pattern{NodeType: "call_expression"}
	p.Set("function", nql.Lit("$.isArray"))
	p.Set("arguments", args)

	return p
}

func TestRenderAttribute(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		".call_expression[function=$.isArray][arguments.nodeType=arguments][arguments.length=1][arguments.0.nodeType=identifier]",
		isArrayPattern().Render(nql.ModeAttribute))
}

func TestRenderObject(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		`{ nodeType: "call_expression", "function": "$.isArray", arguments: { nodeType: "arguments", length: 1, 0: { nodeType: "identifier" } } }`,
		isArrayPattern().Render(nql.ModeObject))
}

func TestRenderQuotesNonBareValues(t *testing.T) {
	t.Parallel()

	p := &nql.Pattern{NodeType: "call_expression"}
	p.Set("arguments", nql.Lit(`("a b")`))

	assert.Equal(t, `.call_expression[arguments="(\"a b\")"]`, p.Render(nql.ModeAttribute))
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	want := isArrayPattern().Query()
	want.Predicates = append(want.Predicates, nql.Predicate{Path: "x", Value: "a ] \"b\""})

	got, err := nql.Parse(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"", ".a[b]", ".a[b=c", `.a[b="c]`, ".a x"} {
		_, err := nql.Parse(q)
		require.ErrorIs(t, err, nql.ErrInvalidQuery, q)
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	adapter, err := ast.AdapterFor(ast.Light)
	require.NoError(t, err)

	query := isArrayPattern().Query()

	matches := func(src string) bool {
		root, perr := ast.Parse(context.Background(), ast.Light, src)
		require.NoError(t, perr)

		found := false

		root.Walk(func(n *ast.Node) bool {
			if query.Match(adapter, n) {
				found = true
			}

			return !found
		})

		return found
	}

	assert.True(t, matches("$.isArray(foo)"))
	assert.True(t, matches("if ($.isArray(bar)) {}"))
	assert.False(t, matches("$.isArray(foo, bar)"))
	assert.False(t, matches("$.isArray('foo')"))
	assert.False(t, matches("_.isArray(foo)"))
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	m, ok := nql.ParseMode("object")
	assert.True(t, ok)
	assert.Equal(t, nql.ModeObject, m)

	m, ok = nql.ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, nql.ModeAttribute, m)

	_, ok = nql.ParseMode("xml")
	assert.False(t, ok)
}
