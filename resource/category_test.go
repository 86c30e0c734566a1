// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{"brush", "brush", Brush, false},
		{"paintop", "paintop", Paintop, false},
		{"other", "other", Other, false},
		{"plural is not a category", "brushes", Other, true},
		{"case sensitive", "Brush", Other, true},
		{"empty", "", Other, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_RankOrder(t *testing.T) {
	t.Parallel()

	names := make([]string, 0)
	prev := -1
	for _, c := range All() {
		assert.Greater(t, c.Rank(), prev)
		prev = c.Rank()
		names = append(names, c.String())
	}
	assert.Equal(t, []string{
		"brush", "gradient", "paintop", "palette", "pattern",
		"template", "workspace", "reference", "other",
	}, names)
}

func TestCategory_Dir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "brushes", Brush.Dir())
	assert.Equal(t, "paintoppresets", Paintop.Dir())
	assert.Equal(t, "workspaces", Workspace.Dir())
	assert.Empty(t, Category(42).Dir())
}

func TestCategory_Installable(t *testing.T) {
	t.Parallel()

	for _, c := range All() {
		assert.Equal(t, c != Other, c.Installable(), c.String())
	}
	assert.False(t, Category(-1).Installable())
}

func TestCategory_Accepts(t *testing.T) {
	t.Parallel()

	assert.True(t, Brush.Accepts("round.gbr"))
	assert.True(t, Brush.Accepts("ROUND.GBR"))
	assert.False(t, Brush.Accepts("round.kpp"))
	assert.True(t, Paintop.Accepts("basic.kpp"))
	assert.True(t, Reference.Accepts("anything.bin"))
}

func TestCategory_TextRoundTrip(t *testing.T) {
	t.Parallel()

	text, err := Palette.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "palette", string(text))

	var c Category
	require.NoError(t, c.UnmarshalText([]byte("pattern")))
	assert.Equal(t, Pattern, c)

	require.Error(t, c.UnmarshalText([]byte("nope")))
	_, err = Category(99).MarshalText()
	require.Error(t, err)
}
