// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/KDE/krita-sub040/resource"
	"github.com/KDE/krita-sub040/store"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func testOptions(fs billy.Filesystem) []Option {
	return []Option{
		WithHostFS(fs),
		WithClock(func() time.Time { return fixedNow }),
	}
}

// newWorkspace returns a filesystem holding /src/round.gbr, /src/dots.pat
// and an empty /bundles directory.
func newWorkspace(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	writeFile(t, fs, "/src/round.gbr", "round brush")
	writeFile(t, fs, "/src/flat.gbr", "flat brush")
	writeFile(t, fs, "/src/dots.pat", "dot pattern")
	require.NoError(t, fs.MkdirAll("/bundles", 0o755))
	return fs
}

func writeFile(t *testing.T, fs billy.Filesystem, p, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, p, []byte(content), 0o644))
}

func readFile(t *testing.T, fs billy.Filesystem, p string) string {
	t.Helper()
	data, err := util.ReadFile(fs, p)
	require.NoError(t, err)
	return string(data)
}

// saveFoo creates and saves /bundles/Foo.bundle with round.gbr tagged "ink"
// and dots.pat tagged "texture".
func saveFoo(t *testing.T, fs billy.Filesystem, opts ...Option) *Bundle {
	t.Helper()
	b := New("/bundles/Foo.bundle", append(testOptions(fs), opts...)...)
	_, err := b.AddResource(resource.Brush, "/src/round.gbr", "ink")
	require.NoError(t, err)
	_, err = b.AddResource(resource.Pattern, "/src/dots.pat", "texture")
	require.NoError(t, err)
	require.NoError(t, b.Save(t.Context()))
	return b
}

// writeArchive builds an archive with the given entries.
func writeArchive(t *testing.T, fs billy.Filesystem, p string, entries map[string]string) {
	t.Helper()
	h, err := store.OpenForWrite(p, store.WithFilesystem(fs))
	require.NoError(t, err)
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		require.NoError(t, h.WriteFile(name, []byte(entries[name])))
	}
	require.NoError(t, h.Finalize())
}

// snapshot maps every path below root to its content, or "<dir>".
func snapshot(t *testing.T, fs billy.Filesystem, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	var walk func(dir string)
	walk = func(dir string) {
		entries, err := fs.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			p := fs.Join(dir, e.Name())
			if e.IsDir() {
				out[p] = "<dir>"
				walk(p)
				continue
			}
			out[p] = readFile(t, fs, p)
		}
	}
	walk(root)
	return out
}

func exists(fs billy.Filesystem, p string) bool {
	_, err := fs.Stat(p)
	return err == nil
}
