// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package name validates the user-supplied strings that end up in bundle
archives and on disk: bundle names and tag names.

Bundle names become directory names below every category directory of the
install root, so they are restricted to a single, visible path segment.
Tags are free text but must be printable and trimmed.
*/
package name
