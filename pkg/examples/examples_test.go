package examples_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/examples"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
	"github.com/Sumatoshi-tech/snipgen/pkg/sandbox"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth"
)

const isArrayYAML = `
name: is-array
grammar: ts
mode: object
inputs:
  - $.isArray(foo)
  - $.isArray(bar)
outputs:
  - Array.isArray(foo)
  - Array.isArray(bar)
`

const isArrayHCL = `
name    = "is-array"
grammar = "typescript"

example {
  input  = "$.isArray(foo)"
  output = "Array.isArray(foo)"
}

example {
  input  = "$.isArray(bar)"
  output = "Array.isArray(bar)"
}
`

func TestParseYAML(t *testing.T) {
	t.Parallel()

	set, err := examples.Parse([]byte(isArrayYAML), "set.yaml")
	require.NoError(t, err)

	assert.Equal(t, "is-array", set.Name)
	assert.Equal(t, []string{"$.isArray(foo)", "$.isArray(bar)"}, set.Inputs)
	assert.Equal(t, []string{"Array.isArray(foo)", "Array.isArray(bar)"}, set.Outputs)

	req, err := set.Request(ast.Light)
	require.NoError(t, err)
	assert.Equal(t, ast.Typed, req.Variant)
	assert.Equal(t, nql.ModeObject, req.Mode)
}

func TestParseHCL(t *testing.T) {
	t.Parallel()

	set, err := examples.Parse([]byte(isArrayHCL), "set.hcl")
	require.NoError(t, err)

	assert.Equal(t, "typescript", set.Grammar)
	assert.Equal(t, []string{"$.isArray(foo)", "$.isArray(bar)"}, set.Inputs)
	assert.Equal(t, []string{"Array.isArray(foo)", "Array.isArray(bar)"}, set.Outputs)
}

func TestParseHCLWithoutOutputs(t *testing.T) {
	t.Parallel()

	set, err := examples.Parse([]byte("example {\n  input = \"foo()\"\n}\n"), "noop.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo()"}, set.Inputs)
	assert.Empty(t, set.Outputs)

	req, err := set.Request(ast.Style)
	require.NoError(t, err)
	assert.Equal(t, ast.Style, req.Variant)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		data     string
		want     error
	}{
		{"format", "set.json", "{}", examples.ErrUnsupportedFormat},
		{"empty yaml", "set.yaml", "", examples.ErrInvalidSet},
		{"no inputs", "set.yml", "grammar: js\ninputs: []\n", examples.ErrInvalidSet},
		{"unknown key", "set.yaml", "inputs: [a]\nextra: 1\n", examples.ErrInvalidSet},
		{"bad grammar", "set.yaml", "grammar: ruby\ninputs: [a]\n", examples.ErrInvalidSet},
		{"no hcl examples", "set.hcl", "grammar = \"css\"\n", examples.ErrInvalidSet},
		{
			"partial hcl outputs", "set.hcl",
			"example {\n  input = \"a\"\n  output = \"b\"\n}\nexample {\n  input = \"c\"\n}\n",
			examples.ErrInvalidSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := examples.Parse([]byte(tt.data), tt.filename)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseHCLSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := examples.Parse([]byte("example {"), "broken.hcl")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "set.yaml")
	require.NoError(t, os.WriteFile(path, []byte(isArrayYAML), 0o600))

	set, err := examples.Load(path)
	require.NoError(t, err)
	assert.Len(t, set.Inputs, 2)

	_, err = examples.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBundledSets(t *testing.T) {
	t.Parallel()

	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.*"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	magic := synth.New(sandbox.New())

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			t.Parallel()

			set, err := examples.Load(path)
			require.NoError(t, err)

			req, err := set.Request(ast.Light)
			require.NoError(t, err)

			snippets, err := magic.Call(context.Background(), req)
			require.NoError(t, err)
			assert.NotEmpty(t, snippets)
		})
	}
}
