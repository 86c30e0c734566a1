// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/opencontainers/go-digest"

	"github.com/KDE/krita-sub040/manifest"
	"github.com/KDE/krita-sub040/meta"
	"github.com/KDE/krita-sub040/store"
)

const (
	fieldGenerator     = "generator"
	fieldBundleVersion = "bundle-version"
	bundleVersion      = "1"
)

// Save writes the bundle to its archive path and reloads it.
//
// A bundle that was never loaded is new: Save fails with ErrNameCollision
// if its archive path is taken, and merges the manifest's file tags into the
// metadata tag list. Files come from the host files given to AddResource or,
// for files already in the bundle, from the current archive. Files that were
// already missing from the archive when it was loaded are dropped from the
// saved manifest. Nothing is replaced on disk, and the in-memory bundle is
// left as it was, unless the whole archive is written.
func (b *Bundle) Save(ctx context.Context) error {
	if err := b.usable(); err != nil {
		return err
	}

	fresh := !b.everLoaded
	if fresh {
		if _, err := b.opts.fs.Stat(b.path); err == nil {
			return fmt.Errorf("%w: %s", ErrNameCollision, b.path)
		} else if !isNotExist(err) {
			return &FilesystemError{Op: "stat", Path: b.path, Err: err}
		}
	}

	man := b.manifest.Clone()
	man.CheckSort()

	var old *store.Handle
	if !fresh && b.needsArchive() {
		h, err := store.OpenForRead(b.path, b.storeOptions()...)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMissingSource, err)
		}
		old = h
		defer func() { _ = old.Finalize() }()
	}
	for _, e := range man.Entries() {
		if _, ok := b.sources[e.Path]; ok {
			continue
		}
		if old != nil && old.HasFile(e.Path) {
			continue
		}
		if !slices.Contains(b.missing, e.Path) {
			return fmt.Errorf("%w: %s", ErrMissingSource, e.Path)
		}
		b.opts.logger.Warn("dropping file missing from the archive", "path", b.path, "file", e.Path)
		man.RemoveFile(e.Path)
	}
	entries := man.Entries()

	md := b.meta.Clone()
	if fresh {
		md.AddTags(man.Tags())
	}
	b.stamp(md)

	w, err := store.OpenForWrite(b.path, b.storeOptions()...)
	if err != nil {
		return err
	}

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			_ = w.Abort()
			return err
		}
		d, err := b.writeEntry(w, old, e)
		if err != nil {
			_ = w.Abort()
			return fmt.Errorf("writing %s: %w", e.Path, err)
		}
		e.Digest = d
		b.opts.logger.Debug("packed file", "path", e.Path)
		b.opts.report(Progress{Op: "save", Path: e.Path, Done: i + 1, Total: len(entries)})
	}

	if err := b.writeDocuments(w, man, md); err != nil {
		_ = w.Abort()
		return err
	}

	if old != nil {
		_ = old.Finalize()
	}
	if err := w.Finalize(); err != nil {
		return err
	}
	b.manifest, b.meta = man, md

	b.opts.logger.Info("saved bundle", "path", b.path, "files", len(entries))
	return b.Load()
}

// needsArchive reports whether any file must be copied from the current archive.
func (b *Bundle) needsArchive() bool {
	for _, p := range b.manifest.FileList() {
		if _, ok := b.sources[p]; !ok {
			return true
		}
	}
	return false
}

// stamp sets the fields maintained by Save on md.
func (b *Bundle) stamp(md *meta.Metadata) {
	today := b.opts.now().Format(meta.DateLayout)
	md.AddTag(meta.FieldUpdated, today, false)
	if !md.Has(meta.FieldCreated) {
		md.AddTag(meta.FieldCreated, today, false)
	}
	if !md.Has(fieldGenerator) {
		md.AddTag(fieldGenerator, b.opts.generator, false)
	}
	if !md.Has(fieldBundleVersion) {
		md.AddTag(fieldBundleVersion, bundleVersion, false)
	}
}

// writeEntry copies one file into w and returns the digest of its content.
func (b *Bundle) writeEntry(w, old *store.Handle, e *manifest.FileEntry) (digest.Digest, error) {
	if src, ok := b.sources[e.Path]; ok {
		if !w.AddLocalFile(src, e.Path) {
			return "", w.Err()
		}
		return b.fileDigest(src)
	}

	if err := old.Open(e.Path); err != nil {
		return "", err
	}
	defer func() { _ = old.Close() }()
	if err := w.Open(e.Path); err != nil {
		return "", err
	}

	digester := digest.Canonical.Digester()
	if _, err := io.Copy(io.MultiWriter(w, digester.Hash()), old); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return digester.Digest(), nil
}

func (b *Bundle) writeDocuments(w *store.Handle, man *manifest.Manifest, md *meta.Metadata) error {
	if len(b.thumbnail) > 0 {
		if err := w.WriteFile(ThumbnailName, b.thumbnail); err != nil {
			return err
		}
	}

	doc, err := man.MarshalDocument()
	if err != nil {
		return err
	}
	if err := w.WriteFile(manifest.FileName, doc); err != nil {
		return err
	}

	doc, err = md.MarshalDocument()
	if err != nil {
		return err
	}
	return w.WriteFile(meta.FileName, doc)
}

// fileDigest digests a host file.
func (b *Bundle) fileDigest(p string) (digest.Digest, error) {
	f, err := b.opts.fs.Open(p)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return digest.FromReader(f)
}
