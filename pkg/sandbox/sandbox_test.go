package sandbox_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/sandbox"
)

func rewriter(parser, glob, body string) string {
	return `new Rewriter("test", "case", () => {
  configure({ parser: "` + parser + `" })
  withinFiles("` + glob + `", () => {
    ` + body + `
  })
})`
}

func TestRunStatements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant ast.Variant
		body    string
		input   string
		want    string
	}{
		{
			name:    "replace field",
			variant: ast.Light,
			body:    `findNode(".call_expression[function=$.isArray]", () => { replace("function.object", { with: "Array" }) })`,
			input:   "$.isArray(foo)",
			want:    "Array.isArray(foo)",
		},
		{
			name:    "replace with template",
			variant: ast.Light,
			body:    `findNode(".call_expression[function=$.isArray]", () => { replaceWith("Array.{{function.property}}{{arguments}}") })`,
			input:   "if ($.isArray(bar)) {}",
			want:    "if (Array.isArray(bar)) {}",
		},
		{
			name:    "delete last argument",
			variant: ast.Typed,
			body:    `findNode(".call_expression[function=foo]", () => { delete("arguments.-1") })`,
			input:   "foo(a, b)",
			want:    "foo(a)",
		},
		{
			name:    "delete first argument",
			variant: ast.Light,
			body:    `findNode(".call_expression[function=foo]", () => { delete("arguments.0") })`,
			input:   "foo(a, b)",
			want:    "foo(b)",
		},
		{
			name:    "delete adjacent fields",
			variant: ast.Light,
			body:    `findNode(".binary_expression", () => { delete(["operator", "right"]) })`,
			input:   "x = a + b;",
			want:    "x = a;",
		},
		{
			name:    "delete member property",
			variant: ast.Light,
			body:    `findNode(".member_expression[property=b]", () => { delete("property") })`,
			input:   "a.b",
			want:    "a",
		},
		{
			name:    "remove statement line",
			variant: ast.Light,
			body:    `findNode(".call_expression[function=console.log]", () => { remove() })`,
			input:   "a();\nconsole.log(foo);\nb();\n",
			want:    "a();\nb();\n",
		},
		{
			name:    "remove whole file",
			variant: ast.Light,
			body:    `findNode(".call_expression", () => { remove() })`,
			input:   "console.log(foo)",
			want:    "",
		},
		{
			name:    "insert into empty file",
			variant: ast.Light,
			body:    `insert("console.log('hello world')", { at: "beginning" })`,
			input:   "",
			want:    "console.log('hello world')",
		},
		{
			name:    "wrap node",
			variant: ast.Light,
			body:    `findNode(".identifier[text=foo]", () => { insert("bar(", { at: "beginning" }); insert(")", { at: "end" }) })`,
			input:   "foo",
			want:    "bar(foo)",
		},
		{
			name:    "insert after argument",
			variant: ast.Light,
			body:    `findNode(".call_expression[function=foo]", () => { insert(", b", { to: "arguments.-1", at: "end" }) })`,
			input:   "foo(a)",
			want:    "foo(a, b)",
		},
		{
			name:    "object query",
			variant: ast.Light,
			body:    `findNode({ nodeType: "call_expression", "function": "foo", arguments: { length: 1 } }, () => { replace("function", { with: "bar" }) })`,
			input:   "foo(a); foo(a, b);",
			want:    "bar(a); foo(a, b);",
		},
		{
			name:    "style value delete",
			variant: ast.Style,
			body:    `findNode(".declaration", () => { delete("-1") })`,
			input:   "a { color: red blue; }",
			want:    "a { color: red; }",
		},
		{
			name:    "style declaration delete",
			variant: ast.Style,
			body:    `findNode(".rule_set", () => { delete("1.-1") })`,
			input:   "a { color: red; margin: 0; }",
			want:    "a { color: red; }",
		},
		{
			name:    "unless exist",
			variant: ast.Light,
			body:    `findNode(".call_expression", () => { unlessExistNode(".identifier[text=b]", () => { replace("function", { with: "g" }) }) })`,
			input:   "f(a); f(b);",
			want:    "g(a); f(b);",
		},
		{
			name:    "noop",
			variant: ast.Light,
			body:    `findNode(".identifier", () => { noop() })`,
			input:   "a + b",
			want:    "a + b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sb := sandbox.New()
			got, err := sb.Run(context.Background(), tt.variant, rewriter(string(tt.variant), tt.variant.Glob(), tt.body), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConflictsAreRerun(t *testing.T) {
	t.Parallel()

	def := rewriter("javascript", "**/*.js", `findNode(".call_expression", () => { replaceWith("{{arguments.0}}") })`)

	got, err := sandbox.New().Run(context.Background(), ast.Light, def, "f(g(a))")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestConflictLimit(t *testing.T) {
	t.Parallel()

	def := rewriter("javascript", "**/*.js", `findNode(".call_expression", () => { replaceWith("{{arguments.0}}") })`)

	_, err := sandbox.New(sandbox.WithMaxRounds(1)).Run(context.Background(), ast.Light, def, "f(g(a))")
	require.ErrorIs(t, err, sandbox.ErrConflictLimit)
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  string
		want error
	}{
		{name: "unknown statement", def: rewriter("javascript", "**/*.js", `explode()`), want: sandbox.ErrUnknownCall},
		{name: "unknown top level", def: `foo()`, want: sandbox.ErrUnknownCall},
		{name: "bad argument", def: rewriter("javascript", "**/*.js", `findNode(42, () => {})`), want: sandbox.ErrInvalidArgument},
		{name: "missing path", def: rewriter("javascript", "**/*.js", `findNode(".identifier", () => { delete("nope") })`), want: ast.ErrPathNotFound},
		{
			name: "duplicate",
			def:  `new Rewriter("a", "b", () => {}); new Rewriter("a", "b", () => {})`,
			want: sandbox.ErrDuplicateRewriter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := sandbox.New().Run(context.Background(), ast.Light, tt.def, "foo")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSyntaxErrorInDefinition(t *testing.T) {
	t.Parallel()

	_, err := sandbox.New().Run(context.Background(), ast.Light, "new Rewriter(", "foo")

	var synErr *ast.SyntaxError
	require.ErrorAs(t, err, &synErr)
}

func TestSessionIsolation(t *testing.T) {
	t.Parallel()

	sb := sandbox.New()
	ctx := context.Background()

	sess, err := sb.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Stage("src/app.js", "foo()"))
	require.NoError(t, sess.Stage("style.css", "a {}"))
	require.NoError(t, sess.Run(ctx, `new Rewriter("g", "n", () => {
  description("rename foo")
  withinFiles("**/*.js", () => {
    findNode(".identifier[text=foo]", () => { replaceWith("bar") })
  })
})`))

	got, err := sess.ReadFile("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, "bar()", got)
	assert.Equal(t, []string{"src/app.js", "style.css"}, sess.Files())
	assert.True(t, sess.Processed("src/app.js"))
	assert.False(t, sess.Processed("style.css"))
	assert.Equal(t, []sandbox.RewriterInfo{{Group: "g", Name: "n", Description: "rename foo"}}, sess.Rewriters())

	busy, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = sb.Acquire(busy)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	sess.Release()
	sess.Release()

	_, err = sess.ReadFile("src/app.js")
	require.ErrorIs(t, err, sandbox.ErrReleased)

	next, err := sb.Acquire(ctx)
	require.NoError(t, err)
	assert.Empty(t, next.Files())
	assert.Empty(t, next.Rewriters())
	next.Release()
}

func TestStageSizeLimit(t *testing.T) {
	t.Parallel()

	sb := sandbox.New(sandbox.WithMaxFileSize(4))

	_, err := sb.Run(context.Background(), ast.Light, rewriter("javascript", "**/*.js", "noop()"), "foo(bar)")
	require.ErrorIs(t, err, sandbox.ErrFileTooLarge)
}

func TestRunFileUsesStagedPath(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	sb := sandbox.New(sandbox.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	definition := rewriter("javascript", "src/**/*.js", `findNode(".identifier[text=foo]", () => { replaceWith("bar") })`)

	got, err := sb.RunFile(context.Background(), "src/lib/app.js", definition, "foo()")
	require.NoError(t, err)
	assert.Equal(t, "bar()", got)
	assert.Empty(t, logs.String())

	got, err = sb.RunFile(context.Background(), "test/app.js", definition, "foo()")
	require.NoError(t, err)
	assert.Equal(t, "foo()", got)
	assert.Contains(t, logs.String(), "no withinFiles scope matched the staged file")
	assert.Contains(t, logs.String(), "file=test/app.js")
}
