// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"fmt"
)

var (
	// ErrNameCollision is returned when saving a new bundle onto an existing archive path.
	ErrNameCollision = errors.New("bundle archive already exists")

	// ErrInvalid is returned when an operation needs a successfully loaded bundle.
	ErrInvalid = errors.New("bundle is not valid")

	// ErrDeleted is returned for any operation on a deleted bundle.
	ErrDeleted = errors.New("bundle has been deleted")

	// ErrMissingSource is returned by Save when a listed file has no content to write.
	ErrMissingSource = errors.New("no source for bundle file")

	// ErrNoResource is returned when a named resource is not part of the bundle.
	ErrNoResource = errors.New("resource not in bundle")

	// ErrUnsafePath is recorded for a manifest file that would be installed
	// outside the bundle's install directory.
	ErrUnsafePath = errors.New("unsafe install path")

	// ErrDuplicateResource is returned when a resource would replace another
	// file already stored under the same archive path.
	ErrDuplicateResource = errors.New("resource already in bundle")
)

// FilesystemError records a host filesystem operation that failed during
// install, uninstall or delete.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FilesystemError) Unwrap() error {
	return e.Err
}
