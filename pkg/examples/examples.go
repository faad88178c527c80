// Package examples loads before/after example sets from YAML or HCL files.
package examples

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
	"github.com/Sumatoshi-tech/snipgen/pkg/synth"
)

// Loader errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported example file format")
	ErrInvalidSet        = errors.New("invalid example set")
)

//go:embed schema.json
var schema []byte

// Set is one synthesis task: inputs and, optionally, their expected outputs.
type Set struct {
	Name    string   `yaml:"name,omitempty"    json:"name,omitempty"`
	Grammar string   `yaml:"grammar,omitempty" json:"grammar,omitempty"`
	Mode    string   `yaml:"mode,omitempty"    json:"mode,omitempty"`
	Inputs  []string `yaml:"inputs"            json:"inputs"`
	Outputs []string `yaml:"outputs,omitempty" json:"outputs,omitempty"`
}

// Request converts the set into a synthesis request. fallback is used when
// the set names no grammar.
func (s *Set) Request(fallback ast.Variant) (synth.Request, error) {
	grammar := fallback
	if s.Grammar != "" {
		v, err := ast.ParseVariant(s.Grammar)
		if err != nil {
			return synth.Request{}, fmt.Errorf("%w: %w", ErrInvalidSet, err)
		}

		grammar = v
	}

	return synth.Request{
		Variant: grammar,
		Mode:    nql.Mode(s.Mode),
		Inputs:  s.Inputs,
		Outputs: s.Outputs,
	}, nil
}

// Load reads a set, picking the decoder from the file extension.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read example set: %w", err)
	}

	return Parse(data, path)
}

// Parse decodes data; filename selects the format and labels diagnostics.
func Parse(data []byte, filename string) (*Set, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".hcl":
		return parseHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func parseYAML(data []byte) (*Set, error) {
	var raw map[string]any

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	var set Set

	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	return &set, nil
}

func validate(raw map[string]any) error {
	if raw == nil {
		raw = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("validate example set: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidSet, strings.Join(msgs, "; "))
}

type hclSet struct {
	Name     string       `hcl:"name,optional"`
	Grammar  string       `hcl:"grammar,optional"`
	Mode     string       `hcl:"mode,optional"`
	Examples []hclExample `hcl:"example,block"`
}

type hclExample struct {
	Input  string  `hcl:"input"`
	Output *string `hcl:"output,optional"`
}

func parseHCL(data []byte, filename string) (*Set, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl %s: %w", filename, diags)
	}

	var parsed hclSet
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decode hcl %s: %w", filename, diags)
	}

	set := &Set{Name: parsed.Name, Grammar: parsed.Grammar, Mode: parsed.Mode}

	withOutput := 0

	for _, ex := range parsed.Examples {
		set.Inputs = append(set.Inputs, ex.Input)

		if ex.Output != nil {
			withOutput++

			set.Outputs = append(set.Outputs, *ex.Output)
		}
	}

	if withOutput != 0 && withOutput != len(parsed.Examples) {
		return nil, fmt.Errorf("%w: %d of %d examples have an output", ErrInvalidSet, withOutput, len(parsed.Examples))
	}

	if err := validate(set.raw()); err != nil {
		return nil, err
	}

	return set, nil
}

// raw mirrors the YAML document shape for schema validation.
func (s *Set) raw() map[string]any {
	out := map[string]any{"inputs": toAny(s.Inputs)}

	if s.Name != "" {
		out["name"] = s.Name
	}

	if s.Grammar != "" {
		out["grammar"] = s.Grammar
	}

	if s.Mode != "" {
		out["mode"] = s.Mode
	}

	if len(s.Outputs) > 0 {
		out["outputs"] = toAny(s.Outputs)
	}

	return out
}

func toAny(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}

	return out
}
