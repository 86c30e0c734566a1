// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

var (
	// ErrNotFound is returned when no bundle matches a name.
	ErrNotFound = errors.New("bundle not found")

	// ErrFilterCheck is returned when a filter fails syntax or type checking.
	ErrFilterCheck = errors.New("filter expression check failed")

	// ErrFilterEval is returned when evaluating a filter fails.
	ErrFilterEval = errors.New("filter expression evaluation failed")

	// ErrFilterResult is returned when a filter does not produce a bool.
	ErrFilterResult = errors.New("filter expression returned invalid result type")
)

// ErrKind identifies the compilation stage a FilterError comes from.
type ErrKind string

const (
	// ErrKindParse indicates a syntax error.
	ErrKindParse ErrKind = "parse"
	// ErrKindCheck indicates a type checking error.
	ErrKindCheck ErrKind = "check"
)

// Issue is one problem found in a filter expression.
type Issue struct {
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

// FilterError reports the issues that prevented a filter from compiling.
type FilterError struct {
	Kind     ErrKind `json:"kind"`
	Source   string  `json:"source,omitempty"`
	Issues   []Issue `json:"errors,omitempty"`
	original error
}

// Error implements the error interface for FilterError.
func (fe *FilterError) Error() string {
	return fmt.Sprintf("filter %s error in expression %q: %s", fe.Kind, fe.Source, fe.original)
}

// Unwrap returns the underlying error.
func (fe *FilterError) Unwrap() error {
	return fe.original
}

// AsJSON returns the error details as a JSON string.
func (fe *FilterError) AsJSON() string {
	data, err := json.Marshal(fe)
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal JSON: %s"}`, err)
	}
	return string(data)
}

func newFilterError(kind ErrKind, source string, issues *cel.Issues) error {
	fe := &FilterError{
		Kind:     kind,
		Source:   source,
		Issues:   make([]Issue, 0, len(issues.Errors())),
		original: fmt.Errorf("%w: %w", ErrFilterCheck, issues.Err()),
	}
	for _, err := range issues.Errors() {
		fe.Issues = append(fe.Issues, Issue{
			Line: err.Location.Line(),
			Col:  err.Location.Column(),
			Msg:  err.Message,
		})
	}
	return fe
}
