// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/KDE/krita-sub040/bundle"
	"github.com/KDE/krita-sub040/meta"
	"github.com/KDE/krita-sub040/resource"
)

const archivePath = "/bundles/Inks.bundle"

// savedBundle returns a filesystem holding a valid bundle at archivePath.
func savedBundle(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/round.gbr", []byte("round brush"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/src/dots.pat", []byte("dot pattern"), 0o644))
	require.NoError(t, fs.MkdirAll("/bundles", 0o755))

	b := bundle.New(archivePath, bundle.WithHostFS(fs))
	_, err := b.AddResource(resource.Brush, "/src/round.gbr", "ink")
	require.NoError(t, err)
	_, err = b.AddResource(resource.Pattern, "/src/dots.pat")
	require.NoError(t, err)
	b.Metadata().AddTag(meta.FieldAuthor, "Jane", false)
	b.Metadata().AddTag(meta.FieldLicense, "CC-BY-SA", false)
	require.NoError(t, b.Save(t.Context()))
	return fs
}

func packageBundle(t *testing.T, store *Store, fs billy.Filesystem) *PackageResult {
	t.Helper()
	result, err := NewPackager(store, WithPackagerFilesystem(fs)).Package(t.Context(), archivePath, DefaultPackageOptions())
	require.NoError(t, err)
	return result
}
