// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/KDE/krita-sub040/bundle"
)

// Registry tracks the bundle archives stored in one directory and which of
// them are installed. It is safe for concurrent use from multiple goroutines.
type Registry struct {
	dir    string
	target bundle.Target
	fs     billy.Filesystem
	logger *slog.Logger
	extra  []bundle.Option

	mu      sync.Mutex
	bundles map[string]*bundle.Bundle
	state   *stateFile
}

type options struct {
	fs     billy.Filesystem
	logger *slog.Logger
	extra  []bundle.Option
}

// Option configures a Registry.
type Option func(*options)

// WithFilesystem sets the filesystem holding the bundle directory and the
// install root. The default is the local filesystem.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithLogger sets the logger for the registry and the bundles it opens.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBundleOptions adds options applied to every bundle the registry opens.
func WithBundleOptions(opts ...bundle.Option) Option {
	return func(o *options) {
		o.extra = append(o.extra, opts...)
	}
}

// New creates a registry for the bundles in dir, creating dir if needed.
// Bundles are installed into target. Call Refresh to scan the directory.
func New(dir string, target bundle.Target, opts ...Option) (*Registry, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving bundle directory: %w", err)
	}
	if err := o.fs.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating bundle directory %s: %w", abs, err)
	}

	state, err := loadState(o.fs, filepath.Join(abs, StateFileName))
	if err != nil {
		return nil, err
	}

	return &Registry{
		dir:     abs,
		target:  target,
		fs:      o.fs,
		logger:  o.logger,
		extra:   o.extra,
		bundles: make(map[string]*bundle.Bundle),
		state:   state,
	}, nil
}

// Dir returns the bundle directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Target returns the install target.
func (r *Registry) Target() bundle.Target {
	return r.target
}

// Refresh rescans the bundle directory. Broken archives are listed as
// invalid bundles. Bundles recorded as installed are marked installed.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.fs.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading bundle directory %s: %w", r.dir, err)
	}

	found := make(map[string]*bundle.Bundle, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), bundle.FileExtension) {
			continue
		}
		b := bundle.Open(filepath.Join(r.dir, entry.Name()), r.bundleOptions()...)
		if rec, ok := r.state.Installed[entry.Name()]; ok {
			b.MarkInstalled(rec.CreatedDirs)
		}
		if !b.Valid() {
			r.logger.Warn("bundle is not valid", "file", entry.Name())
		}
		found[entry.Name()] = b
	}

	for file := range r.state.Installed {
		if _, ok := found[file]; !ok {
			r.logger.Warn("installed bundle archive is gone", "file", file)
		}
	}

	r.bundles = found
	r.logger.Debug("refreshed bundle registry", "dir", r.dir, "bundles", len(found))
	return nil
}

// List returns every bundle ordered by archive file name.
func (r *Registry) List() []*bundle.Bundle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked()
}

func (r *Registry) listLocked() []*bundle.Bundle {
	files := make([]string, 0, len(r.bundles))
	for f := range r.bundles {
		files = append(files, f)
	}
	slices.Sort(files)
	list := make([]*bundle.Bundle, 0, len(files))
	for _, f := range files {
		list = append(list, r.bundles[f])
	}
	return list
}

// Get finds a bundle by archive file name, by file name without extension
// or by declared name, in that order.
func (r *Registry) Get(name string) (*bundle.Bundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, b, err := r.getLocked(name)
	return b, err
}

func (r *Registry) getLocked(name string) (string, *bundle.Bundle, error) {
	if b, ok := r.bundles[name]; ok {
		return name, b, nil
	}
	if b, ok := r.bundles[name+bundle.FileExtension]; ok {
		return name + bundle.FileExtension, b, nil
	}
	for _, b := range r.listLocked() {
		if b.Name() == name {
			return filepath.Base(b.Path()), b, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Filter returns the bundles matching expr, ordered by archive file name.
func (r *Registry) Filter(expr string) ([]*bundle.Bundle, error) {
	f, err := CompileFilter(expr)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*bundle.Bundle
	for _, b := range r.listLocked() {
		ok, err := f.Match(b)
		if err != nil {
			return nil, fmt.Errorf("filtering %s: %w", filepath.Base(b.Path()), err)
		}
		if ok {
			matched = append(matched, b)
		}
	}
	return matched, nil
}

// Import copies the archive at src into the bundle directory and loads it.
// It fails with bundle.ErrNameCollision if the directory already holds an
// archive of that name and with bundle.ErrInvalid if the copy does not load.
func (r *Registry) Import(ctx context.Context, src string) (*bundle.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := filepath.Base(src)
	if !strings.EqualFold(filepath.Ext(file), bundle.FileExtension) {
		file += bundle.FileExtension
	}
	dst := filepath.Join(r.dir, file)

	if err := r.copyFile(src, dst); err != nil {
		return nil, err
	}

	b := bundle.New(dst, r.bundleOptions()...)
	if err := b.Load(); err != nil {
		_ = r.fs.Remove(dst)
		return nil, fmt.Errorf("%w: %w", bundle.ErrInvalid, err)
	}
	r.bundles[file] = b
	r.logger.Info("imported bundle", "file", file, "name", b.Name())
	return b, nil
}

func (r *Registry) copyFile(src, dst string) error {
	in, err := r.fs.Open(src)
	if err != nil {
		return &bundle.FilesystemError{Op: "open", Path: src, Err: err}
	}
	defer func() { _ = in.Close() }()

	out, err := r.fs.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", bundle.ErrNameCollision, dst)
		}
		return &bundle.FilesystemError{Op: "create", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = r.fs.Remove(dst)
		return &bundle.FilesystemError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		_ = r.fs.Remove(dst)
		return &bundle.FilesystemError{Op: "close", Path: dst, Err: err}
	}
	return nil
}

// Install installs the named bundle and records it as installed.
func (r *Registry) Install(ctx context.Context, name string) (*bundle.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, b, err := r.getLocked(name)
	if err != nil {
		return nil, err
	}
	report, installErr := b.Install(ctx, r.target)
	if b.Installed() {
		r.state.Installed[file] = installRecord{Name: b.Name(), CreatedDirs: b.CreatedDirs()}
		if err := r.saveStateLocked(); err != nil {
			return report, errors.Join(installErr, err)
		}
	}
	return report, installErr
}

// Uninstall uninstalls the named bundle and forgets that it was installed.
func (r *Registry) Uninstall(ctx context.Context, name string) (*bundle.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, b, err := r.getLocked(name)
	if err != nil {
		return nil, err
	}
	report, uninstallErr := b.Uninstall(ctx, r.target)
	delete(r.state.Installed, file)
	if err := r.saveStateLocked(); err != nil {
		return report, errors.Join(uninstallErr, err)
	}
	return report, uninstallErr
}

// Remove deletes the named bundle, uninstalling it first if needed.
func (r *Registry) Remove(ctx context.Context, name string) (*bundle.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, b, err := r.getLocked(name)
	if err != nil {
		return nil, err
	}
	report, deleteErr := b.Delete(ctx, r.target)
	if b.State() == bundle.StateDeleted {
		delete(r.bundles, file)
	}
	if !b.Installed() {
		delete(r.state.Installed, file)
	}
	if err := r.saveStateLocked(); err != nil {
		return report, errors.Join(deleteErr, err)
	}
	return report, deleteErr
}

// Restore reinstalls every bundle recorded as installed, for example after
// the install root was wiped. Bundles that are no longer valid are skipped.
func (r *Registry) Restore(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, b := range r.listLocked() {
		file := filepath.Base(b.Path())
		if _, ok := r.state.Installed[file]; !ok {
			continue
		}
		if !b.Valid() {
			r.logger.Warn("skipping invalid installed bundle", "file", file)
			continue
		}
		report, err := b.Install(ctx, r.target)
		if err != nil {
			errs = append(errs, fmt.Errorf("restoring %s: %w", file, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if !report.OK() {
			r.logger.Warn("bundle restored with failures", "file", file, "failures", len(report.Failures))
		}
		r.state.Installed[file] = installRecord{Name: b.Name(), CreatedDirs: b.CreatedDirs()}
	}

	if err := r.saveStateLocked(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Registry) bundleOptions() []bundle.Option {
	opts := []bundle.Option{bundle.WithHostFS(r.fs), bundle.WithLogger(r.logger)}
	return append(opts, r.extra...)
}

func (r *Registry) saveStateLocked() error {
	return r.state.save(r.fs, filepath.Join(r.dir, StateFileName))
}
