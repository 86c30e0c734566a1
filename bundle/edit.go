// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"

	"github.com/KDE/krita-sub040/manifest"
	"github.com/KDE/krita-sub040/meta"
	"github.com/KDE/krita-sub040/resource"
	"github.com/KDE/krita-sub040/validation/name"
)

// Rename sets the declared bundle name. Installed files are not moved: they
// stay below the previous short name, where Uninstall removes them.
func (b *Bundle) Rename(newName string) error {
	if err := b.usable(); err != nil {
		return err
	}
	if err := name.ValidateBundleName(newName); err != nil {
		return err
	}
	if b.installed && name.SanitizeSegment(newName) != b.ShortName() {
		b.opts.logger.Warn("renamed bundle is installed under its previous name",
			"old", b.Name(), "new", newName)
	}
	b.meta.AddTag(meta.FieldName, newName, false)
	return nil
}

// AddResource adds the host file localPath to the bundle under category
// and returns its archive path. The content is read when the bundle is saved.
// Adding the same host file again only merges its tags; a different file
// with the same base name fails with ErrDuplicateResource.
func (b *Bundle) AddResource(category resource.Category, localPath string, tags ...string) (string, error) {
	if err := b.usable(); err != nil {
		return "", err
	}
	if !category.Valid() {
		return "", fmt.Errorf("%w: %d", resource.ErrUnknownCategory, int(category))
	}
	for _, t := range tags {
		if err := name.ValidateTag(t); err != nil {
			return "", err
		}
	}

	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", &FilesystemError{Op: "stat", Path: localPath, Err: err}
	}
	info, err := b.opts.fs.Stat(abs)
	if err != nil {
		return "", &FilesystemError{Op: "stat", Path: abs, Err: err}
	}
	if info.IsDir() {
		return "", &FilesystemError{Op: "stat", Path: abs, Err: fmt.Errorf("is a directory")}
	}

	archivePath := path.Join(category.Dir(), filepath.Base(abs))
	if existing := b.manifest.Files(category); slices.ContainsFunc(existing, func(e *manifest.FileEntry) bool {
		return e.Path == archivePath
	}) && b.sources[archivePath] != abs {
		return "", fmt.Errorf("%w: %s is already stored as %s", ErrDuplicateResource, abs, archivePath)
	}
	e := b.manifest.AddResource(category, archivePath, tags, "")
	e.Digest = ""
	b.sources[archivePath] = abs
	return archivePath, nil
}

// RemoveResource removes the named file, matched by archive path or base
// name, and returns the tags no file carries any more. Those tags are also
// removed from the bundle's tag list.
func (b *Bundle) RemoveResource(resourceName string) ([]string, error) {
	if err := b.usable(); err != nil {
		return nil, err
	}
	e, ok := b.manifest.Lookup(resourceName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoResource, resourceName)
	}
	archivePath := e.Path
	tags := b.manifest.RemoveFile(archivePath)
	delete(b.sources, archivePath)

	orphaned := []string{}
	for _, t := range tags {
		if b.manifest.TagUsed(t) {
			continue
		}
		orphaned = append(orphaned, t)
		b.meta.RemoveFirstTag(meta.FieldTag, t)
	}
	for t, granted := range b.grants {
		b.grants[t] = slices.DeleteFunc(granted, func(p string) bool { return p == archivePath })
	}
	return orphaned, nil
}

// AddTag adds tag to the bundle and to every file that lacks it.
func (b *Bundle) AddTag(tag string) error {
	if err := b.usable(); err != nil {
		return err
	}
	if err := name.ValidateTag(tag); err != nil {
		return err
	}

	b.meta.AddTag(meta.FieldTag, tag, false)
	if _, ok := b.grants[tag]; !ok {
		b.grants[tag] = []string{}
	}
	for _, e := range b.manifest.Entries() {
		if e.AddTag(tag) && !slices.Contains(b.grants[tag], e.Path) {
			b.grants[tag] = append(b.grants[tag], e.Path)
		}
	}
	return nil
}

// RemoveTag removes tag from the bundle. Files that received the tag from
// AddTag lose it again; if AddTag was not used for tag since the bundle was
// loaded, every file loses it.
func (b *Bundle) RemoveTag(tag string) error {
	if err := b.usable(); err != nil {
		return err
	}

	b.meta.RemoveFirstTag(meta.FieldTag, tag)
	if granted, ok := b.grants[tag]; ok {
		for _, p := range granted {
			b.manifest.RemoveFileTag(p, tag)
		}
		delete(b.grants, tag)
		return nil
	}
	for _, e := range b.manifest.Entries() {
		e.RemoveTag(tag)
	}
	return nil
}

// Tags returns the bundle tag list.
func (b *Bundle) Tags() []string {
	return b.meta.Tags()
}
