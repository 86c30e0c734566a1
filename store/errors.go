// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import "errors"

// Sentinel errors for archive operations.
var (
	// ErrArchiveOpen is returned when an archive cannot be opened in the requested mode.
	ErrArchiveOpen = errors.New("cannot open archive")

	// ErrArchiveIO is returned when reading or writing an entry fails.
	ErrArchiveIO = errors.New("archive I/O failed")

	// ErrEntryOpen is returned when opening an entry while another one is open.
	ErrEntryOpen = errors.New("another archive entry is open")

	// ErrNoEntry is returned by Read, Write and Close without an open entry.
	ErrNoEntry = errors.New("no archive entry is open")

	// ErrWrongMode is returned when an operation does not match the handle mode.
	ErrWrongMode = errors.New("operation not permitted in this archive mode")

	// ErrInvalidPath is returned for absolute or escaping entry names.
	ErrInvalidPath = errors.New("invalid archive entry path")

	// ErrFinalized is returned for any operation on a finalized handle.
	ErrFinalized = errors.New("archive handle already finalized")

	// ErrNoParent is recorded when an extraction target has no parent directory.
	ErrNoParent = errors.New("destination parent directory does not exist")

	// ErrEntryTooLarge is returned for entries larger than the configured limit.
	ErrEntryTooLarge = errors.New("archive entry exceeds size limit")
)
