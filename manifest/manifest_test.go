// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KDE/krita-sub040/resource"
)

func sampleManifest() *Manifest {
	m := New()
	m.AddResource(resource.Pattern, "patterns/dots.pat", []string{"texture"}, "")
	m.AddResource(resource.Brush, "brushes/round.gbr", []string{"ink"}, digest.FromString("round"))
	m.AddResource(resource.Brush, "brushes/flat.gbr", []string{"ink", "wash"}, "")
	m.AddResource(resource.Other, "other/readme.txt", nil, "")
	return m
}

func TestManifest_AddFileDeduplicates(t *testing.T) {
	t.Parallel()

	m := New()
	a := m.AddFile(resource.Brush, "brushes/round.gbr")
	b := m.AddFile(resource.Brush, "brushes/round.gbr")
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())
}

func TestManifest_CanonicalOrder(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	assert.Equal(t, []resource.Category{resource.Brush, resource.Pattern, resource.Other}, m.Categories())
	assert.Equal(t, []string{
		"brushes/round.gbr",
		"brushes/flat.gbr",
		"patterns/dots.pat",
		"other/readme.txt",
	}, m.FileList())
	assert.Equal(t, []string{"ink", "wash", "texture"}, m.Tags())
}

func TestManifest_Views(t *testing.T) {
	t.Parallel()

	m := sampleManifest()

	var extract []string
	for _, e := range m.FilesToExtract() {
		extract = append(extract, e.Path)
	}
	assert.Equal(t, []string{"brushes/round.gbr", "brushes/flat.gbr", "patterns/dots.pat"}, extract)
	assert.Equal(t, []string{"brushes", "patterns"}, m.DirList())
}

func TestManifest_RemoveFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		remove    string
		wantTags  []string
		wantFiles []string
	}{
		{
			name:      "by archive path",
			remove:    "brushes/flat.gbr",
			wantTags:  []string{"ink", "wash"},
			wantFiles: []string{"brushes/round.gbr", "patterns/dots.pat", "other/readme.txt"},
		},
		{
			name:      "by base name",
			remove:    "dots.pat",
			wantTags:  []string{"texture"},
			wantFiles: []string{"brushes/round.gbr", "brushes/flat.gbr", "other/readme.txt"},
		},
		{
			name:      "untagged file",
			remove:    "readme.txt",
			wantTags:  []string{},
			wantFiles: []string{"brushes/round.gbr", "brushes/flat.gbr", "patterns/dots.pat"},
		},
		{
			name:      "unknown file",
			remove:    "nope.gbr",
			wantTags:  nil,
			wantFiles: []string{"brushes/round.gbr", "brushes/flat.gbr", "patterns/dots.pat", "other/readme.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := sampleManifest()
			assert.Equal(t, tt.wantTags, m.RemoveFile(tt.remove))
			assert.Equal(t, tt.wantFiles, m.FileList())
		})
	}
}

func TestManifest_RemoveLastFileDropsCategory(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	m.RemoveFile("dots.pat")
	assert.NotContains(t, m.Categories(), resource.Pattern)
}

func TestManifest_FileTags(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	assert.True(t, m.AddFileTag("round.gbr", "bold"))
	assert.False(t, m.AddFileTag("round.gbr", "bold"))
	assert.False(t, m.AddFileTag("missing.gbr", "bold"))
	assert.True(t, m.TagUsed("bold"))

	assert.True(t, m.RemoveFileTag("brushes/round.gbr", "bold"))
	assert.False(t, m.RemoveFileTag("brushes/round.gbr", "bold"))
	assert.False(t, m.TagUsed("bold"))

	// Tags are case-sensitive.
	assert.True(t, m.AddFileTag("round.gbr", "Ink"))
	e, ok := m.Lookup("round.gbr")
	require.True(t, ok)
	assert.Equal(t, []string{"ink", "Ink"}, e.Tags)
}

func TestManifest_CheckSortIdempotent(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	// Simulate entries appended outside AddFile, as a decoder could produce.
	m.files[resource.Brush] = append(m.files[resource.Brush],
		&FileEntry{Category: resource.Brush, Path: "brushes/round.gbr", Tags: []string{"extra", "ink"}},
		&FileEntry{Category: resource.Brush, Path: ""},
	)
	m.files[resource.Gradient] = nil

	m.CheckSort()
	once, err := m.MarshalDocument()
	require.NoError(t, err)

	m.CheckSort()
	twice, err := m.MarshalDocument()
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
	e, ok := m.Lookup("brushes/round.gbr")
	require.True(t, ok)
	assert.Equal(t, []string{"ink", "extra"}, e.Tags)
	assert.Equal(t, 4, m.Len())
	assert.NotContains(t, m.Categories(), resource.Gradient)
}

func TestManifest_Clone(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	c := m.Clone()
	c.AddFileTag("round.gbr", "copy-only")

	assert.False(t, m.TagUsed("copy-only"))
	assert.True(t, c.TagUsed("copy-only"))
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	parsed, err := Parse(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(m.Entries(), parsed.Entries()); diff != "" {
		t.Errorf("manifest mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestParse_Document(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<manifest>
 <pattern>
  <file name="patterns/dots.pat"/>
 </pattern>
 <brush>
  <file name="brushes/round.gbr"><tag>ink</tag></file>
 </brush>
 <brush>
  <file name="brushes/round.gbr"><tag>wash</tag><tag> </tag></file>
  <file name="brushes/flat.gbr"/>
 </brush>
</manifest>`

	m, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"brushes/round.gbr", "brushes/flat.gbr", "patterns/dots.pat"}, m.FileList())
	e, ok := m.Lookup("round.gbr")
	require.True(t, ok)
	assert.Equal(t, []string{"ink", "wash"}, e.Tags)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not xml", "this is not xml"},
		{"wrong root", "<package><name>x</name></package>"},
		{"unknown category", "<manifest><sculpt><file name=\"a\"/></sculpt></manifest>"},
		{"missing name", "<manifest><brush><file/></brush></manifest>"},
		{"traversal", "<manifest><brush><file name=\"../../etc/passwd\"/></brush></manifest>"},
		{"dot segments", "<manifest><brush><file name=\"brushes/../evil.gbr\"/></brush></manifest>"},
		{"doubled slash", "<manifest><brush><file name=\"brushes//round.gbr\"/></brush></manifest>"},
		{"bad digest", "<manifest><brush><file name=\"a.gbr\" digest=\"md5\"/></brush></manifest>"},
		{"truncated", "<manifest><brush>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, ErrParse)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.NotEmpty(t, pe.Detail)
		})
	}
}

func TestFileEntry_InstallPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category resource.Category
		path     string
		want     string
		wantOK   bool
	}{
		{"category file", resource.Brush, "brushes/round.gbr", "round.gbr", true},
		{"nested", resource.Brush, "brushes/soft/round.gbr", "soft/round.gbr", true},
		{"stored elsewhere", resource.Brush, "extra/round.gbr", "round.gbr", true},
		{"parent of category", resource.Brush, "brushes/../evil.gbr", "", false},
		{"deep parent", resource.Brush, "brushes/soft/../../../evil.gbr", "", false},
		{"inner dot segments", resource.Brush, "brushes/soft/../round.gbr", "round.gbr", true},
		{"category dir only", resource.Brush, "brushes/..", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := &FileEntry{Category: tt.category, Path: tt.path}
			got, ok := e.InstallPath()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
