// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package manifest models the file index of a resource bundle ("manifest.xml").

A [Manifest] maps each resource category to an ordered list of file entries.
Every entry carries the file's path inside the archive, the set of tags
assigned to it and, optionally, the digest of its content.

# Document format

	<?xml version="1.0" encoding="UTF-8"?>
	<manifest>
	 <brush>
	  <file name="brushes/round.gbr" digest="sha256:...">
	   <tag>ink</tag>
	  </file>
	 </brush>
	</manifest>

Category nodes are written in category rank order. Parsing merges repeated
category nodes and repeated file entries of the same category (their tag sets
are combined) so that a parsed manifest is always canonical.

# Derived views

[Manifest.FileList] lists every archive path, [Manifest.FilesToExtract] the
entries that are installed, and [Manifest.DirList] the install directories
those entries land in.
*/
package manifest
