// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KDE/krita-sub040/manifest"
	"github.com/KDE/krita-sub040/meta"
	"github.com/KDE/krita-sub040/resource"
	"github.com/KDE/krita-sub040/store"
)

func TestSave_CreateAndLoad(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	b := New("/bundles/Foo.bundle", testOptions(fs)...)
	assert.Equal(t, StateUnloaded, b.State())
	assert.Equal(t, "Foo", b.Name())

	p, err := b.AddResource(resource.Brush, "/src/round.gbr", "ink")
	require.NoError(t, err)
	assert.Equal(t, "brushes/round.gbr", p)
	require.NoError(t, b.Save(t.Context()))

	loaded := Open("/bundles/Foo.bundle", testOptions(fs)...)
	require.True(t, loaded.Valid())
	assert.Equal(t, StateLoaded, loaded.State())
	assert.Equal(t, []string{"brushes/round.gbr"}, loaded.Manifest().FileList())

	e, ok := loaded.Manifest().Lookup("round.gbr")
	require.True(t, ok)
	assert.Equal(t, []string{"ink"}, e.Tags)
	assert.Equal(t, digest.FromString("round brush"), e.Digest)
	assert.Empty(t, loaded.Missing())
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	b := saveFoo(t, fs)
	require.NoError(t, b.Rename("Foo Inks"))
	b.Metadata().AddTag(meta.FieldAuthor, "Jane", false)
	b.Metadata().AddTag(meta.FieldLicense, "CC-BY-SA", false)
	require.NoError(t, b.Save(t.Context()))

	loaded := Open(b.Path(), testOptions(fs)...)
	require.True(t, loaded.Valid())
	assert.Equal(t, b.Manifest().FileList(), loaded.Manifest().FileList())
	assert.Equal(t, b.Metadata().Singletons(), loaded.Metadata().Singletons())
	assert.Equal(t, "Foo Inks", loaded.Name())
	assert.Equal(t, "01/03/2026", loaded.Metadata().Get(meta.FieldUpdated))
	assert.Equal(t, "01/03/2026", loaded.Metadata().Get(meta.FieldCreated))
	assert.Equal(t, Generator, loaded.Metadata().Get("generator"))
}

func TestSave_FreshMergesFileTags(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	b := saveFoo(t, fs)
	assert.Equal(t, []string{"ink", "texture"}, b.Tags())

	// An existing bundle does not pick up file tags on save.
	require.True(t, b.Manifest().AddFileTag("round.gbr", "wash"))
	require.NoError(t, b.Save(t.Context()))
	assert.Equal(t, []string{"ink", "texture"}, b.Tags())
}

func TestSave_CopiesFromPreviousArchive(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	saveFoo(t, fs)

	b := Open("/bundles/Foo.bundle", testOptions(fs)...)
	require.True(t, b.Valid())
	_, err := b.AddResource(resource.Brush, "/src/flat.gbr")
	require.NoError(t, err)
	require.NoError(t, b.Save(t.Context()))

	h, err := store.OpenForRead("/bundles/Foo.bundle", store.WithFilesystem(fs))
	require.NoError(t, err)
	defer func() { _ = h.Finalize() }()

	data, err := h.ReadFile("brushes/round.gbr")
	require.NoError(t, err)
	assert.Equal(t, "round brush", string(data))
	data, err = h.ReadFile("brushes/flat.gbr")
	require.NoError(t, err)
	assert.Equal(t, "flat brush", string(data))
	assert.Equal(t, store.MimeTypeEntry, h.Entries()[0])
}

func TestSave_NameCollision(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	writeFile(t, fs, "/bundles/Foo.bundle", "someone else's bundle")

	b := New("/bundles/Foo.bundle", testOptions(fs)...)
	_, err := b.AddResource(resource.Brush, "/src/round.gbr", "ink")
	require.NoError(t, err)

	err = b.Save(t.Context())
	require.ErrorIs(t, err, ErrNameCollision)

	assert.Equal(t, "someone else's bundle", readFile(t, fs, "/bundles/Foo.bundle"))
	entries, err := fs.ReadDir("/bundles")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, b.Tags(), "metadata must not change before the collision check")
}

func TestSave_MissingSource(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	b := New("/bundles/Foo.bundle", testOptions(fs)...)
	b.Manifest().AddFile(resource.Brush, "brushes/ghost.gbr")

	require.ErrorIs(t, b.Save(t.Context()), ErrMissingSource)
	assert.False(t, exists(fs, "/bundles/Foo.bundle"))
}

func TestSave_Canceled(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	b := New("/bundles/Foo.bundle", testOptions(fs)...)
	_, err := b.AddResource(resource.Brush, "/src/round.gbr")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, b.Save(ctx), context.Canceled)

	entries, err := fs.ReadDir("/bundles")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_Progress(t *testing.T) {
	t.Parallel()

	var steps []Progress
	fs := newWorkspace(t)
	saveFoo(t, fs, WithProgress(func(p Progress) { steps = append(steps, p) }))

	require.Len(t, steps, 2)
	assert.Equal(t, Progress{Op: "save", Path: "brushes/round.gbr", Done: 1, Total: 2}, steps[0])
	assert.Equal(t, 2, steps[1].Done)
}

func TestLoad_Stub(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, fs billy.Filesystem)
		wantErr error
	}{
		{
			name:    "missing archive",
			setup:   func(*testing.T, billy.Filesystem) {},
			wantErr: store.ErrArchiveOpen,
		},
		{
			name: "not a zip",
			setup: func(t *testing.T, fs billy.Filesystem) {
				t.Helper()
				writeFile(t, fs, "/bundles/Broken.bundle", "definitely not a zip")
			},
			wantErr: store.ErrArchiveOpen,
		},
		{
			name: "zip without manifest",
			setup: func(t *testing.T, fs billy.Filesystem) {
				t.Helper()
				writeArchive(t, fs, "/bundles/Broken.bundle", map[string]string{"readme.txt": "hi"})
			},
			wantErr: store.ErrArchiveIO,
		},
		{
			name: "malformed manifest",
			setup: func(t *testing.T, fs billy.Filesystem) {
				t.Helper()
				writeArchive(t, fs, "/bundles/Broken.bundle", map[string]string{
					manifest.FileName: "<manifest><brush>",
					meta.FileName:     "<package/>",
				})
			},
			wantErr: manifest.ErrParse,
		},
		{
			name: "malformed metadata",
			setup: func(t *testing.T, fs billy.Filesystem) {
				t.Helper()
				writeArchive(t, fs, "/bundles/Broken.bundle", map[string]string{
					manifest.FileName: "<manifest/>",
					meta.FileName:     "<package><name>",
				})
			},
			wantErr: meta.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := newWorkspace(t)
			tt.setup(t, fs)

			b := New("/bundles/Broken.bundle", testOptions(fs)...)
			err := b.Load()
			require.ErrorIs(t, err, tt.wantErr)

			assert.False(t, b.Valid())
			assert.Equal(t, StateLoaded, b.State())
			assert.Zero(t, b.Manifest().Len())
			assert.Equal(t, "Broken", b.Name())
		})
	}
}

func TestLoad_MissingFilesKeepBundleValid(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	writeArchive(t, fs, "/bundles/Half.bundle", map[string]string{
		manifest.FileName: `<manifest><brush><file name="brushes/a.gbr"/><file name="brushes/b.gbr"/></brush></manifest>`,
		meta.FileName:     `<package><name>Half</name></package>`,
		"brushes/a.gbr":   "a",
	})

	b := Open("/bundles/Half.bundle", testOptions(fs)...)
	assert.True(t, b.Valid())
	assert.Equal(t, []string{"brushes/b.gbr"}, b.Missing())
}

func TestSave_DropsFilesMissingFromArchive(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	writeArchive(t, fs, "/bundles/Half.bundle", map[string]string{
		manifest.FileName: `<manifest><brush><file name="brushes/a.gbr"/><file name="brushes/b.gbr"/></brush></manifest>`,
		meta.FileName:     `<package><name>Half</name></package>`,
		"brushes/a.gbr":   "a",
	})

	b := Open("/bundles/Half.bundle", testOptions(fs)...)
	require.Equal(t, []string{"brushes/b.gbr"}, b.Missing())
	require.NoError(t, b.Rename("Whole"))
	require.NoError(t, b.Save(t.Context()))
	assert.Empty(t, b.Missing())
	assert.Equal(t, []string{"brushes/a.gbr"}, b.Manifest().FileList())

	again := Open("/bundles/Half.bundle", testOptions(fs)...)
	assert.True(t, again.Valid())
	assert.Equal(t, "Whole", again.Name())
	assert.Equal(t, []string{"brushes/a.gbr"}, again.Manifest().FileList())
	assert.Empty(t, again.Missing())
}

func TestSave_FailedWriteLeavesBundleUnchanged(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	b := New("/bundles/Foo.bundle", testOptions(fs)...)
	_, err := b.AddResource(resource.Brush, "/src/round.gbr", "ink")
	require.NoError(t, err)
	require.NoError(t, fs.Remove("/src/round.gbr"))

	require.Error(t, b.Save(t.Context()))
	assert.False(t, exists(fs, "/bundles/Foo.bundle"))
	md := b.Metadata()
	for _, field := range []string{meta.FieldCreated, meta.FieldUpdated, "generator", "bundle-version"} {
		assert.False(t, md.Has(field), field)
	}
	assert.Empty(t, b.Tags())
	assert.Equal(t, StateUnloaded, b.State())

	writeFile(t, fs, "/src/round.gbr", "round brush")
	require.NoError(t, b.Save(t.Context()))
	assert.Equal(t, []string{"ink"}, b.Tags())
	assert.Equal(t, fixedNow.Format(meta.DateLayout), b.Metadata().Get(meta.FieldUpdated))
}

func TestDeletedBundleRejectsOperations(t *testing.T) {
	t.Parallel()

	fs := newWorkspace(t)
	b := saveFoo(t, fs)
	_, err := b.Delete(t.Context(), Target{Root: "/res"})
	require.NoError(t, err)

	assert.Equal(t, StateDeleted, b.State())
	assert.False(t, exists(fs, "/bundles/Foo.bundle"))
	require.ErrorIs(t, b.Load(), ErrDeleted)
	require.ErrorIs(t, b.Save(t.Context()), ErrDeleted)
	require.ErrorIs(t, b.AddTag("x"), ErrDeleted)
	_, err = b.Install(t.Context(), Target{Root: "/res"})
	require.ErrorIs(t, err, ErrDeleted)
}
