// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package store provides a handle over a zip container used as a bundle
archive.

A [Handle] is opened either for reading or for writing. Inside a handle at
most one entry is open at a time; reads and writes apply to that entry.

	h, err := store.OpenForRead("/bundles/Foo.bundle")
	if err != nil {
		return err // wraps store.ErrArchiveOpen
	}
	defer h.Finalize()

	if h.HasFile("manifest.xml") {
		data, err := h.ReadFile("manifest.xml")
		...
	}

# Writing

Writes go to a temporary file next to the target. [Handle.Finalize] renames it
onto the target path; [Handle.Abort] discards it, leaving any previous archive
untouched. The first entry of every written archive is an uncompressed
"mimetype" entry identifying the container.

# Host files

[Handle.ExtractFile] and [Handle.AddLocalFile] move single entries between the
archive and the host filesystem. They report failure with a boolean and never
create directories; [Handle.Err] returns the underlying cause. Archive and host
access go through a go-billy filesystem so callers can substitute an in-memory
one.

# Safety

Entry names must be relative and may not escape the archive root. Entries
larger than [MaxEntrySize] are refused when read.
*/
package store
