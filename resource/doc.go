// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package resource defines the closed set of resource categories a bundle can
carry, together with their canonical rank, manifest element name and install
directory.

# Categories

Categories are ordered by rank. The rank drives the order of category nodes
in a bundle manifest:

	resource.Brush     // "brush"     -> brushes/
	resource.Gradient  // "gradient"  -> gradients/
	resource.Paintop   // "paintop"   -> paintoppresets/
	resource.Palette   // "palette"   -> palettes/
	resource.Pattern   // "pattern"   -> patterns/
	resource.Template  // "template"  -> templates/
	resource.Workspace // "workspace" -> workspaces/
	resource.Reference // "reference" -> references/
	resource.Other     // "other"     (not installed)

# Capabilities

Each category exposes a [Capability] that lists the resources available in
an install root and names the icon used to display them. The table returned
by [Capabilities] is keyed by category so callers select behaviour by lookup:

	caps := resource.Capabilities(osfs.New("/"), "/home/me/.local/share/krita")
	names, err := caps[resource.Brush].ListAvailable()
*/
package resource
