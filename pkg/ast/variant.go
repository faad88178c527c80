package ast

import (
	"errors"
	"fmt"
	"strings"
)

// Variant selects one of the supported grammars.
type Variant string

// Supported grammar variants.
const (
	// Typed is the statically typed script grammar.
	Typed Variant = "typescript"
	// Light is the lightweight script grammar.
	Light Variant = "javascript"
	// Style is the stylesheet grammar.
	Style Variant = "css"
)

// ErrUnknownVariant is returned for an unsupported grammar name.
var ErrUnknownVariant = errors.New("unknown grammar variant")

// Variants lists every supported variant in a stable order.
func Variants() []Variant {
	return []Variant{Typed, Light, Style}
}

// ParseVariant resolves a grammar name or common alias.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "typescript", "ts", "typed":
		return Typed, nil
	case "javascript", "js", "light", "":
		return Light, nil
	case "css", "style":
		return Style, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
}

// Ext returns the file extension (without dot) of the variant.
func (v Variant) Ext() string {
	switch v {
	case Typed:
		return "ts"
	case Style:
		return "css"
	case Light:
		return "js"
	default:
		return "js"
	}
}

// StagedFile is the file name used when running a definition against a
// single source text.
func (v Variant) StagedFile() string {
	return "code." + v.Ext()
}

// Glob is the file pattern that selects files of the variant.
func (v Variant) Glob() string {
	return "**/*." + v.Ext()
}

// VariantForFile guesses the variant from a file name extension.
func VariantForFile(name string) (Variant, bool) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return "", false
	}

	switch strings.ToLower(name[idx+1:]) {
	case "ts", "mts", "cts":
		return Typed, true
	case "js", "mjs", "cjs", "jsx":
		return Light, true
	case "css":
		return Style, true
	default:
		return "", false
	}
}
