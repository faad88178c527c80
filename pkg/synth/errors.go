// Package synth synthesizes rewriter snippets from before/after examples.
package synth

import "errors"

// Input contract violations. They abort a synthesis call.
var (
	ErrNoExamples           = errors.New("no examples given")
	ErrExampleCountMismatch = errors.New("inputs and outputs differ in count")
	ErrInputTypesMismatch   = errors.New("input node types are not same")
	ErrOutputTypesMismatch  = errors.New("output node types are not same")
	ErrUnknownMode          = errors.New("unknown output mode")
)
