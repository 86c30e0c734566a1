// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package bundles distributes resource bundle archives as OCI artifacts.

A bundle artifact is a single OCI image manifest whose only layer is the
bundle archive itself, byte for byte, and whose config blob is a JSON
[BundleConfig] summarising the bundle metadata and file list.

# Packaging

[Packager] loads a saved bundle, stores the archive and config blobs in a
local [Store] (an OCI image layout, by default under the XDG data home) and
writes the manifest:

	store, err := bundles.NewStore(bundles.DefaultStoreRoot())
	result, err := bundles.NewPackager(store).Package(ctx, "/path/Inks.bundle", bundles.DefaultPackageOptions())
	err = store.Tag(ctx, result.ManifestDigest, "v1")

# Distribution

[Registry] pushes and pulls artifacts with oras. Pulled content passes
through a validating target that enforces size and layer-count limits and
checks every digest before it reaches the local store.

[Extract] writes the archive of a stored artifact to a path that must not
exist yet, after verifying the layer digest.
*/
package bundles
