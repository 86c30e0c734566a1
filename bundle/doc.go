// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package bundle implements the lifecycle of a resource bundle archive.

A [Bundle] starts Unloaded. [Bundle.Load] reads the archive and moves it to
Loaded; a bundle whose archive is missing or malformed is still Loaded but
reports Valid() == false and carries a stub name derived from the file name,
so lists of bundles can show broken entries instead of failing.

	b := bundle.Open("/data/bundles/Inks.bundle")
	if !b.Valid() {
		return bundle.ErrInvalid
	}
	report, err := b.Install(ctx, bundle.Target{
		Root:       "/data/resources",
		Registries: regs,
	})

# Installation layout

Files are extracted to <root>/<category dir>/<short pack name>/<file>.
Per-file failures are collected in a [Report]; only a failure to create a
directory aborts an install. Uninstall removes the per-bundle directories and
any directory the install itself created, and always leaves the bundle marked
as not installed.

Two bundles with the same short pack name share install directories.
Installing or uninstalling them concurrently is not guarded against.

# Editing

New bundles are built with [New], [Bundle.AddResource] and [Bundle.AddTag]
and written with [Bundle.Save]. Saving a new bundle over an existing archive
fails with [ErrNameCollision] before anything is written.
*/
package bundle
