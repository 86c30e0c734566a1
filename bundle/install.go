// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/go-git/go-billy/v5/util"

	"github.com/KDE/krita-sub040/manifest"
	"github.com/KDE/krita-sub040/store"
	"github.com/KDE/krita-sub040/tagsync"
)

// Target is where Install and Uninstall operate.
type Target struct {
	// Root is the install root holding one directory per resource category.
	Root string
	// Registries receive the manifest's tags after install. Categories
	// without a registry are skipped.
	Registries tagsync.Registries
}

// Report describes the outcome of Install, Uninstall or Delete.
type Report struct {
	Op string
	// Files lists the host paths written or removed.
	Files []string
	// Failures lists the steps that failed without aborting the operation.
	Failures []*FilesystemError
	// Mismatches lists archive paths whose extracted content does not match
	// the digest recorded in the manifest.
	Mismatches []string
	// Tags is the tag export report of an install.
	Tags *tagsync.Report
}

// OK reports whether every step succeeded.
func (r *Report) OK() bool {
	return len(r.Failures) == 0 && len(r.Mismatches) == 0 && (r.Tags == nil || r.Tags.OK())
}

func (r *Report) fail(op, p string, err error) {
	r.Failures = append(r.Failures, &FilesystemError{Op: op, Path: p, Err: err})
}

// Install extracts the bundle's installable files below t.Root and exports
// the manifest's tags to t.Registries.
//
// A file whose parent directory is missing is retried once after creating
// the directory. Other per-file failures are recorded in the report and the
// install continues. If a directory cannot be created the install stops and
// returns an error together with the report so far.
func (b *Bundle) Install(ctx context.Context, t Target) (*Report, error) {
	report := &Report{Op: "install"}
	if err := b.usable(); err != nil {
		return report, err
	}
	if !b.valid {
		return report, ErrInvalid
	}
	short := b.ShortName()
	if short == "" {
		return report, fmt.Errorf("%w: bundle has no name", ErrInvalid)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	h, err := store.OpenForRead(b.path, b.storeOptions()...)
	if err != nil {
		return report, err
	}
	defer func() { _ = h.Finalize() }()

	logger := b.opts.logger.With("bundle", b.Name())
	files := b.manifest.FilesToExtract()
	created := slices.Clone(b.createdDirs)
	defer func() { b.createdDirs = created }()
	// partial marks an interrupted install as installed if it left anything
	// behind, so that Uninstall cleans up.
	partial := func() {
		if len(report.Files) > 0 || len(created) > len(b.createdDirs) {
			b.markInstalled(short)
		}
	}

	if err := b.ensureDir(t.Root, &created); err != nil {
		report.fail("mkdir", t.Root, err)
		partial()
		return report, err
	}

	for i, e := range files {
		if err := ctx.Err(); err != nil {
			partial()
			return report, err
		}

		dest, err := installPath(t.Root, short, e)
		if err != nil {
			logger.Warn("refusing to install file", "path", e.Path, "error", err)
			report.fail("extract", e.Path, err)
			continue
		}
		ok := h.ExtractFile(e.Path, dest)
		if !ok && errors.Is(h.Err(), store.ErrNoParent) {
			if err := b.ensureDir(filepath.Dir(dest), &created); err != nil {
				report.fail("mkdir", filepath.Dir(dest), err)
				partial()
				return report, err
			}
			ok = h.ExtractFile(e.Path, dest)
		}
		if !ok {
			logger.Warn("could not install file", "path", e.Path, "error", h.Err())
			report.fail("extract", dest, h.Err())
			continue
		}

		report.Files = append(report.Files, dest)
		b.verify(e, dest, report)
		logger.Debug("installed file", "path", e.Path, "dest", dest)
		b.opts.report(Progress{Op: "install", Path: dest, Done: i + 1, Total: len(files)})
	}

	b.markInstalled(short)
	logger.Info("installed bundle", "root", t.Root, "files", len(report.Files), "failures", len(report.Failures))

	tags, err := tagsync.ExportTags(ctx, b.manifest, t.Registries,
		tagsync.WithLogger(logger), tagsync.WithInstallName(short))
	report.Tags = tags
	if err != nil {
		return report, err
	}
	return report, nil
}

// verify compares an extracted file with the digest recorded in the manifest.
func (b *Bundle) verify(e *manifest.FileEntry, dest string, report *Report) {
	if e.Digest == "" {
		return
	}
	got, err := b.fileDigest(dest)
	if err != nil {
		report.fail("digest", dest, err)
		return
	}
	if got != e.Digest {
		b.opts.logger.Warn("installed file does not match manifest digest",
			"path", e.Path, "want", e.Digest.String(), "got", got.String())
		report.Mismatches = append(report.Mismatches, e.Path)
	}
}

// Uninstall removes <root>/<dir>/<short name> for every install directory
// of the bundle, using the short name and directories of the last install
// when they are known, then removes any directory created by Install that is now
// empty. Failures are recorded and do not stop the remaining steps. The
// bundle is always left not installed.
func (b *Bundle) Uninstall(ctx context.Context, t Target) (*Report, error) {
	report := &Report{Op: "uninstall"}
	if err := b.usable(); err != nil {
		return report, err
	}
	if !b.installed {
		return report, nil
	}
	defer func() {
		b.installed = false
		b.createdDirs = nil
		b.installedAs = ""
		b.installedDirs = nil
	}()

	short, dirs := b.ShortName(), b.manifest.DirList()
	if b.installedAs != "" {
		short, dirs = b.installedAs, b.installedDirs
	}
	for i, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if short == "" {
			break
		}
		target := filepath.Join(t.Root, dir, short)
		if err := util.RemoveAll(b.opts.fs, target); err != nil {
			b.opts.logger.Warn("could not remove install directory", "path", target, "error", err)
			report.fail("remove", target, err)
			continue
		}
		report.Files = append(report.Files, target)
		b.opts.report(Progress{Op: "uninstall", Path: target, Done: i + 1, Total: len(dirs)})
	}

	b.prune(report)
	b.opts.logger.Info("uninstalled bundle", "bundle", b.Name(), "failures", len(report.Failures))
	return report, nil
}

// prune removes the directories recorded by Install, deepest first, if empty.
func (b *Bundle) prune(report *Report) {
	for _, dir := range slices.Backward(b.createdDirs) {
		entries, err := b.opts.fs.ReadDir(dir)
		if err != nil {
			if !isNotExist(err) {
				report.fail("readdir", dir, err)
			}
			continue
		}
		if len(entries) > 0 {
			continue
		}
		if err := b.opts.fs.Remove(dir); err != nil && !isNotExist(err) {
			report.fail("remove", dir, err)
		}
	}
}

// Delete uninstalls the bundle if needed and removes its archive.
func (b *Bundle) Delete(ctx context.Context, t Target) (*Report, error) {
	report := &Report{Op: "delete"}
	if err := b.usable(); err != nil {
		return report, err
	}
	if b.installed {
		r, err := b.Uninstall(ctx, t)
		report.Files = append(report.Files, r.Files...)
		report.Failures = append(report.Failures, r.Failures...)
		if err != nil {
			return report, err
		}
	}

	if err := b.opts.fs.Remove(b.path); err != nil && !isNotExist(err) {
		return report, &FilesystemError{Op: "remove", Path: b.path, Err: err}
	}
	report.Files = append(report.Files, b.path)
	b.state = StateDeleted
	b.valid = false
	b.opts.logger.Info("deleted bundle", "path", b.path)
	return report, nil
}

func (b *Bundle) markInstalled(short string) {
	b.installed = true
	b.installedAs = short
	b.installedDirs = b.manifest.DirList()
}

// ensureDir creates dir and its missing parents, appending each created
// directory to created.
func (b *Bundle) ensureDir(dir string, created *[]string) error {
	var missing []string
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		info, err := b.opts.fs.Stat(d)
		if err == nil {
			if !info.IsDir() {
				return &FilesystemError{Op: "mkdir", Path: d, Err: fmt.Errorf("not a directory")}
			}
			break
		}
		if !isNotExist(err) {
			return &FilesystemError{Op: "stat", Path: d, Err: err}
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := b.opts.fs.MkdirAll(dir, 0o755); err != nil {
		return &FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}
	for _, d := range slices.Backward(missing) {
		if !slices.Contains(*created, d) {
			*created = append(*created, d)
		}
	}
	return nil
}

// installPath maps a manifest entry to its host path:
// <root>/<category dir>/<short name>/<path below the category dir>.
func installPath(root, short string, e *manifest.FileEntry) (string, error) {
	rel, ok := e.InstallPath()
	if !ok {
		return "", fmt.Errorf("%w: %s leaves the install directory", ErrUnsafePath, e.Path)
	}
	return filepath.Join(root, e.Category.Dir(), short, filepath.FromSlash(rel)), nil
}
