package ast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LastIndex is the path segment that addresses the final list element.
const LastIndex = "-1"

// ErrPathNotFound is returned when a path does not resolve.
var ErrPathNotFound = errors.New("path not found")

// JoinPath appends segments to a dotted path, skipping empty ones.
func JoinPath(base string, segs ...string) string {
	parts := make([]string, 0, len(segs)+1)
	if base != "" {
		parts = append(parts, base)
	}

	for _, s := range segs {
		if s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, ".")
}

// SplitPath splits a dotted path into segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}

	return strings.Split(path, ".")
}

// Index renders a list position as a path segment; the last element of a
// list of length size is rendered as LastIndex.
func Index(idx, size int) string {
	if size > 0 && idx == size-1 {
		return LastIndex
	}

	return strconv.Itoa(idx)
}

// Lookup resolves a dotted path against n. Numeric segments index the
// node's items, or the elements of a list-valued slot; negative indexes
// count from the end.
func Lookup(n *Node, path string) (Value, error) {
	cur := Value{Node: n}

	for _, seg := range SplitPath(path) {
		next, ok := step(cur, seg)
		if !ok {
			return Value{}, fmt.Errorf("%w: %q at %q", ErrPathNotFound, path, seg)
		}

		cur = next
	}

	return cur, nil
}

func step(cur Value, seg string) (Value, bool) {
	idx, numErr := strconv.Atoi(seg)

	if cur.IsList {
		if numErr != nil {
			return Value{}, false
		}

		return pick(cur.List, idx)
	}

	if cur.Node == nil {
		return Value{}, false
	}

	if numErr == nil {
		return pick(cur.Node.Items, idx)
	}

	v := cur.Node.Field(seg)

	return v, v.Valid()
}

func pick(list []*Node, idx int) (Value, bool) {
	if idx < 0 {
		idx += len(list)
	}

	if idx < 0 || idx >= len(list) {
		return Value{}, false
	}

	return Value{Node: list[idx]}, true
}
