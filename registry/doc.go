// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package registry manages a directory of bundle archives.

A [Registry] lists every *.bundle file in its directory, including broken
ones, and records which bundles are installed in bundles.yaml so that the
installed state survives restarts:

	reg, err := registry.New("/data/bundles", bundle.Target{Root: "/data/resources"})
	if err != nil {
		return err
	}
	if err := reg.Refresh(ctx); err != nil {
		return err
	}
	inks, err := reg.Filter(`"ink" in bundle.tags && bundle.valid`)

# Filters

Filters are CEL expressions over a map named bundle. See [Filter] for the
available keys. Expressions longer than [MaxFilterLength] are rejected and
evaluation is bounded by [FilterCostLimit].
*/
package registry
