// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"errors"
	"fmt"
)

// ErrParse is returned when a metadata document is malformed.
var ErrParse = errors.New("malformed bundle metadata")

// ParseError describes why a metadata document was rejected.
type ParseError struct {
	Detail string

	original error
}

// Error implements the error interface for ParseError.
func (pe *ParseError) Error() string {
	return fmt.Sprintf("metadata parse error: %s", pe.original)
}

// Unwrap returns the underlying error.
func (pe *ParseError) Unwrap() error {
	return pe.original
}

func newParseError(detail string, cause error) error {
	original := fmt.Errorf("%w: %s", ErrParse, detail)
	if cause != nil {
		original = fmt.Errorf("%w: %s: %w", ErrParse, detail, cause)
	}
	return &ParseError{Detail: detail, original: original}
}
