package converter

import (
	"strings"

	"github.com/Sumatoshi-tech/snipgen/pkg/jsstr"
)

// Insert positions.
const (
	AtBeginning = "beginning"
	AtEnd       = "end"
)

// NoopStatement leaves the matched node untouched.
func NoopStatement() string {
	return "noop()"
}

// RemoveStatement removes the matched node.
func RemoveStatement() string {
	return "remove()"
}

// InsertStatement inserts text at the beginning or end of the matched node.
func InsertStatement(text, at string) string {
	return "insert(" + jsstr.Quote(text) + ", { at: " + jsstr.Quote(at) + " })"
}

// InsertToStatement inserts text relative to the child at path.
func InsertToStatement(text, path, at string) string {
	return "insert(" + jsstr.Quote(text) + ", { to: " + jsstr.Quote(path) + ", at: " + jsstr.Quote(at) + " })"
}

// DeleteStatement deletes one or more child paths.
func DeleteStatement(paths []string) string {
	if len(paths) == 1 {
		return "delete(" + jsstr.Quote(paths[0]) + ")"
	}

	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = jsstr.Quote(p)
	}

	return "delete([" + strings.Join(quoted, ", ") + "])"
}

// ReplaceStatement replaces the child at path with a template.
func ReplaceStatement(path, template string) string {
	return "replace(" + jsstr.Quote(path) + ", { with: " + jsstr.Quote(template) + " })"
}

// ReplaceWithStatement replaces the matched node with a template.
func ReplaceWithStatement(template string) string {
	return "replaceWith(" + jsstr.Quote(template) + ")"
}
