// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package tagsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/KDE/krita-sub040/manifest"
	"github.com/KDE/krita-sub040/resource"
	"github.com/KDE/krita-sub040/tagsync/mocks"
)

func sampleManifest() *manifest.Manifest {
	m := manifest.New()
	m.AddResource(resource.Brush, "brushes/round.gbr", []string{"ink", "wash"}, "")
	m.AddResource(resource.Brush, "brushes/flat.gbr", nil, "")
	m.AddResource(resource.Pattern, "patterns/dots.pat", []string{"texture"}, "")
	m.AddResource(resource.Gradient, "gradients/missing.ggr", []string{"sky"}, "")
	return m
}

func TestExportTags_Idempotent(t *testing.T) {
	t.Parallel()

	brushes := NewMemoryRegistry("Foo/round.gbr", "Foo/flat.gbr")
	patterns := NewMemoryRegistry("Foo/dots.pat")
	regs := Registries{
		resource.Brush:    brushes,
		resource.Pattern:  patterns,
		resource.Gradient: NewMemoryRegistry(),
	}

	first, err := ExportTags(t.Context(), sampleManifest(), regs)
	require.NoError(t, err)
	assert.True(t, first.OK())
	assert.Equal(t, 3, first.Calls)
	require.Len(t, first.Skipped, 1)
	assert.Equal(t, "gradients/missing.ggr", first.Skipped[0].Path)

	snapshot := brushes.Assignments()

	second, err := ExportTags(t.Context(), sampleManifest(), regs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, brushes.Assignments())

	assert.Equal(t, []string{"ink", "wash"}, brushes.TagsFor("Foo/round.gbr"))
	assert.Empty(t, brushes.TagsFor("Foo/flat.gbr"))
	assert.Equal(t, []string{"texture"}, patterns.TagsFor("Foo/dots.pat"))
}

func TestExportTags_MissingRegistry(t *testing.T) {
	t.Parallel()

	report, err := ExportTags(t.Context(), sampleManifest(), Registries{})
	require.NoError(t, err)
	assert.Zero(t, report.Calls)
	assert.Len(t, report.Skipped, 3)
}

func TestExportTags_RecordsFailures(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	reg := mocks.NewMockRegistry(ctrl)
	boom := errors.New("database locked")

	m := manifest.New()
	m.AddResource(resource.Brush, "brushes/round.gbr", []string{"ink", "wash"}, "")

	reg.EXPECT().Lookup("round.gbr").Return("42", true)
	reg.EXPECT().AssignTag("42", "ink").Return(boom)
	reg.EXPECT().AssignTag("42", "wash").Return(nil)

	report, err := ExportTags(t.Context(), m, Registries{resource.Brush: reg})
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Calls)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "ink", report.Failures[0].Tag)
	assert.ErrorIs(t, report.Failures[0], boom)
}

func TestExportTags_FlushesOnce(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	reg := struct {
		*mocks.MockRegistry
		*mocks.MockFlusher
	}{mocks.NewMockRegistry(ctrl), mocks.NewMockFlusher(ctrl)}

	m := manifest.New()
	m.AddResource(resource.Brush, "brushes/a.gbr", []string{"ink"}, "")
	m.AddResource(resource.Brush, "brushes/b.gbr", []string{"ink"}, "")

	reg.MockRegistry.EXPECT().Lookup(gomock.Any()).Return("id", true).Times(2)
	reg.MockRegistry.EXPECT().AssignTag("id", "ink").Return(nil).Times(2)
	reg.MockFlusher.EXPECT().Flush().Return(errors.New("disk full"))

	report, err := ExportTags(t.Context(), m, Registries{resource.Brush: reg})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Calls)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "registry", report.Failures[0].Path)
}

func TestExportTags_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := ExportTags(ctx, sampleManifest(), Registries{resource.Brush: NewMemoryRegistry()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRevokeTags(t *testing.T) {
	t.Parallel()

	brushes := NewMemoryRegistry("Foo/round.gbr")
	require.NoError(t, brushes.AssignTag("Foo/round.gbr", "keep"))
	regs := Registries{resource.Brush: brushes}

	m := manifest.New()
	m.AddResource(resource.Brush, "brushes/round.gbr", []string{"ink"}, "")

	_, err := ExportTags(t.Context(), m, regs)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep", "ink"}, brushes.TagsFor("Foo/round.gbr"))

	report, err := RevokeTags(t.Context(), m, regs)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, []string{"keep"}, brushes.TagsFor("Foo/round.gbr"))
}

func TestExportTags_WithInstallName(t *testing.T) {
	t.Parallel()

	m := manifest.New()
	m.AddResource(resource.Brush, "brushes/round.gbr", []string{"ink"}, "")
	m.AddResource(resource.Brush, "brushes/soft/flat.gbr", []string{"wash"}, "")

	tests := []struct {
		name        string
		resources   []string
		installName string
		want        map[string][]string
		skipped     int
	}{
		{
			name:        "installed copy wins over another bundle",
			resources:   []string{"Bar/round.gbr", "Foo/round.gbr", "Foo/soft/flat.gbr"},
			installName: "Foo",
			want:        map[string][]string{"Foo/round.gbr": {"ink"}, "Foo/soft/flat.gbr": {"wash"}},
		},
		{
			name:        "only another bundle has the name",
			resources:   []string{"Bar/round.gbr", "Bar/flat.gbr"},
			installName: "Foo",
			want:        map[string][]string{},
			skipped:     2,
		},
		{
			name:        "loose file",
			resources:   []string{"round.gbr"},
			installName: "Foo",
			want:        map[string][]string{"round.gbr": {"ink"}},
			skipped:     1,
		},
		{
			name:      "without install name the first copy is used",
			resources: []string{"Bar/round.gbr", "Foo/round.gbr"},
			want:      map[string][]string{"Bar/round.gbr": {"ink"}},
			skipped:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			brushes := NewMemoryRegistry(tt.resources...)
			var opts []Option
			if tt.installName != "" {
				opts = append(opts, WithInstallName(tt.installName))
			}

			report, err := ExportTags(t.Context(), m, Registries{resource.Brush: brushes}, opts...)
			require.NoError(t, err)
			assert.Len(t, report.Skipped, tt.skipped)
			for _, id := range tt.resources {
				assert.Equal(t, tt.want[id], brushes.TagsFor(id), id)
			}
		})
	}
}

func TestRevokeTags_WithInstallName(t *testing.T) {
	t.Parallel()

	brushes := NewMemoryRegistry("Bar/round.gbr", "Foo/round.gbr")
	require.NoError(t, brushes.AssignTag("Bar/round.gbr", "ink"))
	require.NoError(t, brushes.AssignTag("Foo/round.gbr", "ink"))

	m := manifest.New()
	m.AddResource(resource.Brush, "brushes/round.gbr", []string{"ink"}, "")

	_, err := RevokeTags(t.Context(), m, Registries{resource.Brush: brushes}, WithInstallName("Foo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ink"}, brushes.TagsFor("Bar/round.gbr"))
	assert.Empty(t, brushes.TagsFor("Foo/round.gbr"))
}
