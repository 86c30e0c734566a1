// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package tagsync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/KDE/krita-sub040/resource"
)

// Compile-time interface checks.
var (
	_ Registry = (*DirectoryRegistry)(nil)
	_ Flusher  = (*DirectoryRegistry)(nil)
)

// tagFile is the on-disk layout of a DirectoryRegistry.
type tagFile struct {
	Category  string              `yaml:"category"`
	Resources map[string][]string `yaml:"resources"`
}

// DirectoryRegistry resolves resources through a resource.Capability and
// keeps tag assignments in a YAML file. Assignments are written by Flush.
// It is safe for concurrent use from multiple goroutines.
type DirectoryRegistry struct {
	capability resource.Capability
	category   resource.Category
	fs         billy.Filesystem
	file       string

	mu    sync.Mutex
	tags  map[string][]string
	dirty bool
}

// NewDirectoryRegistry opens the registry persisted at file, which need not exist yet.
func NewDirectoryRegistry(
	category resource.Category, capability resource.Capability, fs billy.Filesystem, file string,
) (*DirectoryRegistry, error) {
	r := &DirectoryRegistry{
		capability: capability,
		category:   category,
		fs:         fs,
		file:       file,
		tags:       make(map[string][]string),
	}

	data, err := util.ReadFile(fs, file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("reading tag file %s: %w", file, err)
	}

	var tf tagFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing tag file %s: %w", file, err)
	}
	if tf.Category != "" && tf.Category != category.String() {
		return nil, fmt.Errorf("tag file %s belongs to category %q, not %q", file, tf.Category, category)
	}
	for id, tags := range tf.Resources {
		r.tags[id] = slices.Clone(tags)
	}
	return r, nil
}

// DirectoryRegistries builds a registry for every installable category,
// storing tag files as <tagDir>/<category>.yaml.
func DirectoryRegistries(caps map[resource.Category]resource.Capability, fs billy.Filesystem, tagDir string) (Registries, error) {
	regs := make(Registries, len(caps))
	for _, c := range resource.All() {
		capability, ok := caps[c]
		if !ok || !c.Installable() {
			continue
		}
		reg, err := NewDirectoryRegistry(c, capability, fs, filepath.Join(tagDir, c.String()+".yaml"))
		if err != nil {
			return nil, err
		}
		regs[c] = reg
	}
	return regs, nil
}

// Lookup lists the category's available resources and matches filename against them.
func (r *DirectoryRegistry) Lookup(filename string) (string, bool) {
	available, err := r.capability.ListAvailable()
	if err != nil {
		return "", false
	}
	return lookup(available, filename)
}

// AssignTag adds tag to id.
func (r *DirectoryRegistry) AssignTag(id, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.tags[id], tag) {
		r.tags[id] = append(r.tags[id], tag)
		r.dirty = true
	}
	return nil
}

// UnassignTag removes tag from id.
func (r *DirectoryRegistry) UnassignTag(id, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.tags[id], tag) {
		return nil
	}
	r.tags[id] = slices.DeleteFunc(r.tags[id], func(t string) bool { return t == tag })
	if len(r.tags[id]) == 0 {
		delete(r.tags, id)
	}
	r.dirty = true
	return nil
}

// TagsFor returns the tags assigned to id.
func (r *DirectoryRegistry) TagsFor(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.tags[id])
}

// Flush writes pending assignments to the tag file.
func (r *DirectoryRegistry) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return nil
	}

	data, err := yaml.Marshal(tagFile{Category: r.category.String(), Resources: r.tags})
	if err != nil {
		return fmt.Errorf("encoding tag file: %w", err)
	}
	if err := r.fs.MkdirAll(filepath.Dir(r.file), 0o755); err != nil {
		return fmt.Errorf("creating tag directory: %w", err)
	}
	if err := util.WriteFile(r.fs, r.file, data, 0o644); err != nil {
		return fmt.Errorf("writing tag file %s: %w", r.file, err)
	}
	r.dirty = false
	return nil
}
