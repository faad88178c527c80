package converter_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth/builder"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth/converter"
)

func node(t *testing.T, v ast.Variant, src string) *ast.Node {
	t.Helper()

	adapter, err := ast.AdapterFor(v)
	require.NoError(t, err)

	root, err := ast.Parse(context.Background(), v, src)
	require.NoError(t, err)

	n := adapter.Unwrap(root)
	if expr, ok := adapter.Expression(n); ok {
		return expr
	}

	return n
}

func newContext(t *testing.T, v ast.Variant, ins, outs []string) *converter.Context {
	t.Helper()

	adapter, err := ast.AdapterFor(v)
	require.NoError(t, err)

	c := &converter.Context{Adapter: adapter, Root: builder.New()}
	c.Target = c.Root.Find("`.x`")

	for _, s := range ins {
		c.Inputs = append(c.Inputs, node(t, v, s))
	}

	for _, s := range outs {
		c.Outputs = append(c.Outputs, node(t, v, s))
	}

	return c
}

func body(t *testing.T, c *converter.Context) []string {
	t.Helper()

	snippets := c.Root.Snippets()
	require.Len(t, snippets, 1)

	text := strings.TrimPrefix(snippets[0], "findNode(`.x`, () => {\n")
	text = strings.TrimSuffix(text, "\n})")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimPrefix(lines[i], "  ")
	}

	return lines
}

func TestNoop(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"foo()"}, []string{"foo()"})
	require.True(t, converter.Noop{}.Convert(c))
	assert.Equal(t, []string{"noop()"}, body(t, c))

	c = newContext(t, ast.Light, []string{"foo()"}, nil)
	require.True(t, converter.Noop{}.Convert(c))

	c = newContext(t, ast.Light, []string{"foo()"}, []string{"bar()"})
	assert.False(t, converter.Noop{}.Convert(c))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"console.log(foo)"}, []string{""})
	require.True(t, converter.Remove{}.Convert(c))
	assert.Equal(t, []string{"remove()"}, body(t, c))

	c = newContext(t, ast.Light, []string{"foo"}, []string{"bar"})
	assert.False(t, converter.Remove{}.Convert(c))
}

func TestInsertIsTopLevel(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{""}, []string{"console.log('hello world')"})
	require.True(t, converter.Insert{}.Convert(c))
	assert.Equal(t, []string{`insert("console.log('hello world')", { at: "beginning" })`}, c.Root.Snippets())
}

func TestFindAndInsert(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"foo"}, []string{"bar(foo)"})
	require.True(t, converter.FindAndInsert{}.Convert(c))
	assert.Equal(t, []string{
		`insert("bar(", { at: "beginning" })`,
		`insert(")", { at: "end" })`,
	}, body(t, c))
}

func TestDeleteLastArgument(t *testing.T) {
	t.Parallel()

	for _, v := range []ast.Variant{ast.Light, ast.Typed} {
		c := newContext(t, v, []string{"foo(a, b)"}, []string{"foo(a)"})
		require.True(t, converter.Delete{}.Convert(c), v)
		assert.Equal(t, []string{`delete("arguments.-1")`}, body(t, c), v)
	}
}

func TestDeleteMiddleArgument(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"foo(a, b, c)"}, []string{"foo(a, c)"})
	require.True(t, converter.Delete{}.Convert(c))
	assert.Equal(t, []string{`delete("arguments.1")`}, body(t, c))
}

func TestDeleteStyleValue(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Style, []string{"a { color: red blue; }"}, []string{"a { color: red; }"})
	require.True(t, converter.Delete{}.Convert(c))
	assert.Equal(t, []string{`delete("1.0.-1")`}, body(t, c))
}

func TestDeleteRejectsReplacement(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"foo(a, b)"}, []string{"foo(c)"})
	assert.False(t, converter.Delete{}.Convert(c))
}

func TestFindAndDelete(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"a + b"}, []string{"a"})
	require.True(t, converter.FindAndDelete{}.Convert(c))
	assert.Equal(t, []string{`delete(["operator", "right"])`}, body(t, c))
}

func TestFindAndReplaceField(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light,
		[]string{"$.isArray(foo)", "$.isArray(bar)"},
		[]string{"Array.isArray(foo)", "Array.isArray(bar)"})
	require.True(t, converter.FindAndReplace{}.Convert(c))
	assert.Equal(t, []string{`replace("function.object", { with: "Array" })`}, body(t, c))
}

func TestFindAndReplaceUsesPlaceholders(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"foo(a, b)"}, []string{"foo(b, a)"})
	require.True(t, converter.FindAndReplace{}.Convert(c))
	assert.Equal(t, []string{
		`replace("arguments.0", { with: "{{arguments.1}}" })`,
		`replace("arguments.1", { with: "{{arguments.0}}" })`,
	}, body(t, c))
}

func TestFindAndReplaceInsertsArgument(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"foo(a)"}, []string{"foo(a, b)"})
	require.True(t, converter.FindAndReplace{}.Convert(c))
	assert.Equal(t, []string{`insert(", b", { to: "arguments.-1", at: "end" })`}, body(t, c))
}

func TestFindAndReplaceRejectsRootTypeChange(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"foo"}, []string{"bar()"})
	assert.False(t, converter.FindAndReplace{}.Convert(c))
	assert.Empty(t, c.Root.Snippets())
}

func TestReplaceWith(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"$.isArray(foo)"}, []string{"Array.isArray(foo)"})
	require.True(t, converter.ReplaceWith{}.Convert(c))
	assert.Equal(t, []string{`replaceWith("Array.{{function.property}}({{arguments.0}})")`}, body(t, c))
}

func TestTerminalOrder(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, 6)
	for _, cv := range converter.Terminal() {
		names = append(names, cv.Name())
	}

	assert.Equal(t, []string{"noop", "remove", "insert", "find_and_insert", "delete", "find_and_delete"}, names)
}

func TestNoopRequiresIdenticalText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant ast.Variant
		in, out string
	}{
		{"unfielded token", ast.Light, "async function f() {}", "function f() {}"},
		{"style case", ast.Style, "a { COLOR: red; }", "a { color: red; }"},
		{"quote style", ast.Typed, "foo('a')", `foo("a")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newContext(t, tt.variant, []string{tt.in}, []string{tt.out})
			assert.False(t, converter.Noop{}.Convert(c))
			assert.Empty(t, c.Root.Snippets())
		})
	}
}

func TestFindAndInsertRequiresIdenticalText(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Typed, []string{"foo('a')"}, []string{`bar(foo("a"))`})
	assert.False(t, converter.FindAndInsert{}.Convert(c))
	assert.Empty(t, c.Root.Snippets())
}

func TestFindAndReplaceQuoteStyle(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Typed, []string{"foo('a')"}, []string{`foo("a")`})
	require.True(t, converter.FindAndReplace{}.Convert(c))
	assert.Equal(t, []string{`replace("arguments.0", { with: "\"a\"" })`}, body(t, c))
}

func TestFindAndReplaceTemplatesInsertion(t *testing.T) {
	t.Parallel()

	c := newContext(t, ast.Light, []string{"a.b(x)", "c.d(y)"}, []string{"b(a, x)", "d(c, y)"})
	require.True(t, converter.FindAndReplace{}.Convert(c))
	assert.Equal(t, []string{
		`replace("function", { with: "{{function.property}}" })`,
		`insert("{{function.object}}, ", { to: "arguments.-1", at: "beginning" })`,
	}, body(t, c))
}
