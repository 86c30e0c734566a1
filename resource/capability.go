// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
)

// Capability is the per-category behaviour a resource browser needs.
type Capability interface {
	// ListAvailable returns the resources present for the category,
	// as slash-separated paths relative to the category directory.
	ListAvailable() ([]string, error)

	// IconFor returns the icon name used to display the given resource.
	IconFor(resource string) string
}

// Compile-time interface check.
var _ Capability = (*DirectoryCapability)(nil)

// DirectoryCapability lists the resources stored below <root>/<category dir>.
type DirectoryCapability struct {
	fs       billy.Filesystem
	root     string
	category Category
}

// NewDirectoryCapability creates a capability scanning category's directory below root.
func NewDirectoryCapability(fs billy.Filesystem, root string, category Category) *DirectoryCapability {
	return &DirectoryCapability{fs: fs, root: root, category: category}
}

// Capabilities returns the capability table for every category in root.
func Capabilities(fs billy.Filesystem, root string) map[Category]Capability {
	table := make(map[Category]Capability, len(categories))
	for _, c := range All() {
		table[c] = NewDirectoryCapability(fs, root, c)
	}
	return table
}

// Category returns the category the capability serves.
func (d *DirectoryCapability) Category() Category {
	return d.category
}

// Dir returns the directory scanned by ListAvailable.
func (d *DirectoryCapability) Dir() string {
	return d.fs.Join(d.root, d.category.Dir())
}

// ListAvailable walks the category directory, including bundle subdirectories.
// A missing category directory yields an empty list.
func (d *DirectoryCapability) ListAvailable() ([]string, error) {
	var found []string
	if err := d.walk(d.Dir(), "", &found); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s resources: %w", d.category, err)
	}
	sort.Strings(found)
	return found, nil
}

func (d *DirectoryCapability) walk(dir, rel string, found *[]string) error {
	entries, err := d.fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		childRel := path.Join(rel, name)
		if entry.IsDir() {
			if err := d.walk(d.fs.Join(dir, name), childRel, found); err != nil {
				return err
			}
			continue
		}
		if d.category.Accepts(name) {
			*found = append(*found, childRel)
		}
	}
	return nil
}

// IconFor returns the category icon; individual resources share it.
func (d *DirectoryCapability) IconFor(_ string) string {
	return d.category.Icon()
}
