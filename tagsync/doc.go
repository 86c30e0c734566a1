// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package tagsync propagates the per-file tags recorded in a bundle manifest to
the per-category resource registries that track tag assignments.

Registries are independent of bundles: they are keyed by resource identity
and are only ever changed through [Registry.AssignTag] and
[Registry.UnassignTag]. Registries must treat assignment as set union, which
makes [ExportTags] idempotent.

	regs := tagsync.Registries{
		resource.Brush: brushRegistry,
	}
	report, err := tagsync.ExportTags(ctx, bundleManifest, regs)

Uninstalling a bundle does not revoke its tags. [RevokeTags] is provided for
callers that want that explicitly.

# Implementations

[MemoryRegistry] keeps assignments in memory. [DirectoryRegistry] resolves
resources from a [resource.Capability] and persists assignments as YAML.
*/
package tagsync
