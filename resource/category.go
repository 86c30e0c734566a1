// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnknownCategory is returned when a category name is not recognised.
var ErrUnknownCategory = errors.New("unknown resource category")

// Category identifies the kind of a bundled resource.
type Category int

// Categories in rank order.
const (
	Brush Category = iota
	Gradient
	Paintop
	Palette
	Pattern
	Template
	Workspace
	Reference
	Other
)

type categoryInfo struct {
	name string
	dir  string
	icon string
	exts []string
}

var categories = [...]categoryInfo{
	Brush:     {"brush", "brushes", "paintbrush", []string{".gbr", ".gih", ".abr", ".png", ".svg"}},
	Gradient:  {"gradient", "gradients", "gradient", []string{".ggr", ".svg", ".kgr"}},
	Paintop:   {"paintop", "paintoppresets", "paintop_settings_01", []string{".kpp"}},
	Palette:   {"palette", "palettes", "palette-library", []string{".gpl", ".pal", ".act", ".aco", ".colors", ".kpl", ".sbz", ".xml"}},
	Pattern:   {"pattern", "patterns", "pattern", []string{".pat", ".jpg", ".gif", ".png", ".tif", ".xpm", ".bmp"}},
	Template:  {"template", "templates", "document-new", []string{".kra"}},
	Workspace: {"workspace", "workspaces", "workspace-chooser", []string{".kws"}},
	Reference: {"reference", "references", "view-preview", nil},
	Other:     {"other", "other", "document-multiple", nil},
}

// All returns every category in rank order.
func All() []Category {
	all := make([]Category, 0, len(categories))
	for c := range categories {
		all = append(all, Category(c))
	}
	return all
}

// ParseCategory maps a manifest element name onto its category.
func ParseCategory(name string) (Category, error) {
	for c, info := range categories {
		if info.name == name {
			return Category(c), nil
		}
	}
	return Other, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= Brush && c <= Other
}

// Rank is the category's position in canonical manifest order.
func (c Category) Rank() int {
	return int(c)
}

// String returns the manifest element name.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categories[c].name
}

// Dir returns the per-category directory below an install root.
func (c Category) Dir() string {
	if !c.Valid() {
		return ""
	}
	return categories[c].dir
}

// Icon names the icon used to display resources of this category.
func (c Category) Icon() string {
	if !c.Valid() {
		return ""
	}
	return categories[c].icon
}

// Extensions lists the file extensions recognised for the category.
// A nil result means any extension is accepted.
func (c Category) Extensions() []string {
	if !c.Valid() {
		return nil
	}
	return categories[c].exts
}

// Installable reports whether files of this category are extracted on install.
func (c Category) Installable() bool {
	return c.Valid() && c != Other
}

// Accepts reports whether filename carries an extension the category recognises.
func (c Category) Accepts(filename string) bool {
	exts := c.Extensions()
	if exts == nil {
		return c.Valid()
	}
	ext := strings.ToLower(path.Ext(filename))
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
