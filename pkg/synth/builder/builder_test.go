package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/snipgen/pkg/synth/builder"
)

func TestRenderFindClause(t *testing.T) {
	t.Parallel()

	root := builder.New()
	find := root.Find("`.identifier`")
	find.Statement("noop()")

	assert.Equal(t, []string{"findNode(`.identifier`, () => {\n  noop()\n})"}, root.Snippets())
}

func TestBareRootStatement(t *testing.T) {
	t.Parallel()

	root := builder.New()
	root.Find("`.program`")
	root.Statement(`insert("x", { at: "beginning" })`)

	assert.Equal(t, []string{`insert("x", { at: "beginning" })`}, root.Snippets())
}

func TestSelectiveEnumeration(t *testing.T) {
	t.Parallel()

	root := builder.New()
	find := root.Find("`.call_expression`")
	first := find.Selective()
	second := find.Selective()

	first.Statement(`replace("function", { with: "bar" })`)
	first.Statement(`delete("arguments.-1")`)
	second.Statement(`replaceWith("bar()")`)

	assert.Equal(t, 1, first.ID())
	assert.Equal(t, 2, second.ID())

	text, chosen, remaining := root.Render(map[int]bool{})
	assert.Equal(t, 1, chosen)
	assert.True(t, remaining)
	assert.NotContains(t, text, "replaceWith")

	text, chosen, remaining = root.Render(map[int]bool{1: true})
	assert.Equal(t, 2, chosen)
	assert.False(t, remaining)
	assert.Equal(t, "findNode(`.call_expression`, () => {\n  replaceWith(\"bar()\")\n})", text)

	assert.Equal(t, []string{
		"findNode(`.call_expression`, () => {\n  replace(\"function\", { with: \"bar\" })\n  delete(\"arguments.-1\")\n})",
		"findNode(`.call_expression`, () => {\n  replaceWith(\"bar()\")\n})",
	}, root.Snippets())
}

func TestEmptyBranchesAreFiltered(t *testing.T) {
	t.Parallel()

	root := builder.New()
	find := root.Find("`.a`")
	find.Selective()
	find.Selective().Statement("remove()")

	assert.Equal(t, []string{"findNode(`.a`, () => {\n  remove()\n})"}, root.Snippets())
	assert.False(t, root.Empty())
	assert.True(t, builder.New().Empty())
}

func TestNestedFindIndents(t *testing.T) {
	t.Parallel()

	root := builder.New()
	outer := root.Find("`.a`")
	outer.Find("`.b`").Statement("noop()")

	assert.Equal(t, []string{"findNode(`.a`, () => {\n  findNode(`.b`, () => {\n    noop()\n  })\n})"}, root.Snippets())
}

func TestRenderIsPure(t *testing.T) {
	t.Parallel()

	root := builder.New()
	find := root.Find("`.a`")
	find.Selective().Statement("noop()")
	find.Selective().Statement("remove()")

	assert.Equal(t, root.Snippets(), root.Snippets())
}
