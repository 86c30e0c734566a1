// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"path"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/KDE/krita-sub040/resource"
)

// FileEntry is one file listed in a manifest.
type FileEntry struct {
	Category resource.Category
	// Path is the slash-separated path of the file inside the archive.
	Path string
	// Tags is an ordered set; comparisons are case-sensitive.
	Tags []string
	// Digest is the content digest, empty when unknown.
	Digest digest.Digest
}

// Name returns the base file name of the entry.
func (e *FileEntry) Name() string {
	return path.Base(e.Path)
}

// InstallPath returns the entry's path below its category's install
// directory: the archive path without the leading category directory, or the
// base name for files stored elsewhere. ok is false when the result would
// leave that directory.
func (e *FileEntry) InstallPath() (rel string, ok bool) {
	rel = strings.TrimPrefix(e.Path, e.Category.Dir()+"/")
	if rel == e.Path {
		rel = path.Base(e.Path)
	}
	rel = path.Clean(rel)
	if rel == "." || rel == ".." || path.IsAbs(rel) || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// HasTag reports whether the entry carries tag.
func (e *FileEntry) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

// AddTag adds tag unless already present and reports whether it was added.
func (e *FileEntry) AddTag(tag string) bool {
	if tag == "" || e.HasTag(tag) {
		return false
	}
	e.Tags = append(e.Tags, tag)
	return true
}

// RemoveTag removes tag and reports whether it was present.
func (e *FileEntry) RemoveTag(tag string) bool {
	i := slices.Index(e.Tags, tag)
	if i < 0 {
		return false
	}
	e.Tags = slices.Delete(e.Tags, i, i+1)
	return true
}

func (e *FileEntry) clone() *FileEntry {
	c := *e
	c.Tags = slices.Clone(e.Tags)
	return &c
}

// Manifest is the in-memory index of a bundle's files.
// The zero value is not usable; call New.
type Manifest struct {
	files map[resource.Category][]*FileEntry
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{files: make(map[resource.Category][]*FileEntry)}
}

// AddFile registers filePath under category and returns its entry. Adding a
// path already present in the category returns the existing entry.
func (m *Manifest) AddFile(category resource.Category, filePath string) *FileEntry {
	if e := m.find(category, filePath); e != nil {
		return e
	}
	e := &FileEntry{Category: category, Path: filePath}
	m.files[category] = append(m.files[category], e)
	return e
}

// AddResource registers a file together with its tags and digest.
func (m *Manifest) AddResource(category resource.Category, filePath string, tags []string, d digest.Digest) *FileEntry {
	e := m.AddFile(category, filePath)
	for _, t := range tags {
		e.AddTag(t)
	}
	if d != "" {
		e.Digest = d
	}
	return e
}

// Lookup finds an entry by archive path or, failing that, by base file name.
func (m *Manifest) Lookup(name string) (*FileEntry, bool) {
	for _, e := range m.Entries() {
		if e.Path == name {
			return e, true
		}
	}
	for _, e := range m.Entries() {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// AddFileTag tags the named file and reports whether the tag was added.
func (m *Manifest) AddFileTag(name, tag string) bool {
	e, ok := m.Lookup(name)
	if !ok {
		return false
	}
	return e.AddTag(tag)
}

// RemoveFileTag untags the named file and reports whether the tag was removed.
func (m *Manifest) RemoveFileTag(name, tag string) bool {
	e, ok := m.Lookup(name)
	if !ok {
		return false
	}
	return e.RemoveTag(tag)
}

// RemoveFile deletes the named file and returns the tags it carried, so the
// caller can purge tags that are no longer used by any file.
// It returns nil if no file matched.
func (m *Manifest) RemoveFile(name string) []string {
	e, ok := m.Lookup(name)
	if !ok {
		return nil
	}
	entries := m.files[e.Category]
	i := slices.Index(entries, e)
	m.files[e.Category] = slices.Delete(entries, i, i+1)
	if len(m.files[e.Category]) == 0 {
		delete(m.files, e.Category)
	}
	tags := slices.Clone(e.Tags)
	if tags == nil {
		tags = []string{}
	}
	return tags
}

// Files returns the entries of a category in insertion order.
func (m *Manifest) Files(category resource.Category) []*FileEntry {
	return slices.Clone(m.files[category])
}

// Categories returns the categories holding at least one file, in rank order.
func (m *Manifest) Categories() []resource.Category {
	var cats []resource.Category
	for _, c := range resource.All() {
		if len(m.files[c]) > 0 {
			cats = append(cats, c)
		}
	}
	return cats
}

// Entries returns every entry in canonical order.
func (m *Manifest) Entries() []*FileEntry {
	var all []*FileEntry
	for _, c := range m.Categories() {
		all = append(all, m.files[c]...)
	}
	return all
}

// Len returns the number of file entries.
func (m *Manifest) Len() int {
	n := 0
	for _, entries := range m.files {
		n += len(entries)
	}
	return n
}

// Tags returns the union of all file tags in first-seen order.
func (m *Manifest) Tags() []string {
	var tags []string
	for _, e := range m.Entries() {
		for _, t := range e.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// TagUsed reports whether any file carries tag.
func (m *Manifest) TagUsed(tag string) bool {
	for _, e := range m.Entries() {
		if e.HasTag(tag) {
			return true
		}
	}
	return false
}

// FileList returns the archive path of every file.
func (m *Manifest) FileList() []string {
	entries := m.Entries()
	list := make([]string, 0, len(entries))
	for _, e := range entries {
		list = append(list, e.Path)
	}
	return list
}

// FilesToExtract returns the entries that are copied into the install root.
func (m *Manifest) FilesToExtract() []*FileEntry {
	var list []*FileEntry
	for _, e := range m.Entries() {
		if e.Category.Installable() {
			list = append(list, e)
		}
	}
	return list
}

// DirList returns the distinct install directories used by FilesToExtract.
func (m *Manifest) DirList() []string {
	var dirs []string
	for _, e := range m.FilesToExtract() {
		d := e.Category.Dir()
		if !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// CheckSort canonicalizes the manifest: files of a category keep their
// order, repeated paths within a category are merged into the first
// occurrence, empty tags and empty categories are dropped.
// Calling it twice has the same effect as calling it once.
func (m *Manifest) CheckSort() {
	for c, entries := range m.files {
		merged := make([]*FileEntry, 0, len(entries))
		byPath := make(map[string]*FileEntry, len(entries))
		for _, e := range entries {
			if e.Path == "" {
				continue
			}
			if first, dup := byPath[e.Path]; dup {
				for _, t := range e.Tags {
					first.AddTag(t)
				}
				if first.Digest == "" {
					first.Digest = e.Digest
				}
				continue
			}
			tags := e.Tags[:0:0]
			for _, t := range e.Tags {
				if t != "" && !slices.Contains(tags, t) {
					tags = append(tags, t)
				}
			}
			e.Tags = tags
			byPath[e.Path] = e
			merged = append(merged, e)
		}
		if len(merged) == 0 {
			delete(m.files, c)
			continue
		}
		m.files[c] = merged
	}
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	c := New()
	for cat, entries := range m.files {
		cloned := make([]*FileEntry, 0, len(entries))
		for _, e := range entries {
			cloned = append(cloned, e.clone())
		}
		c.files[cat] = cloned
	}
	return c
}

func (m *Manifest) find(category resource.Category, filePath string) *FileEntry {
	for _, e := range m.files[category] {
		if e.Path == filePath {
			return e
		}
	}
	return nil
}
