// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryCapability_ListAvailable(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	for _, p := range []string{
		"/root/brushes/basic.gbr",
		"/root/brushes/Foo/round.gbr",
		"/root/brushes/readme.txt",
		"/root/paintoppresets/ink.kpp",
	} {
		require.NoError(t, util.WriteFile(fs, p, []byte("x"), 0o644))
	}

	caps := Capabilities(fs, "/root")
	require.Len(t, caps, len(All()))

	brushes, err := caps[Brush].ListAvailable()
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo/round.gbr", "basic.gbr"}, brushes)

	presets, err := caps[Paintop].ListAvailable()
	require.NoError(t, err)
	assert.Equal(t, []string{"ink.kpp"}, presets)
}

func TestDirectoryCapability_MissingDirectory(t *testing.T) {
	t.Parallel()

	capability := NewDirectoryCapability(memfs.New(), "/nowhere", Gradient)
	got, err := capability.ListAvailable()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, Gradient, capability.Category())
}

func TestDirectoryCapability_IconFor(t *testing.T) {
	t.Parallel()

	caps := Capabilities(memfs.New(), "/root")
	assert.Equal(t, "paintbrush", caps[Brush].IconFor("round.gbr"))
	assert.Equal(t, "palette-library", caps[Palette].IconFor("x.gpl"))
}
