// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/KDE/krita-sub040/manifest"
	"github.com/KDE/krita-sub040/meta"
	"github.com/KDE/krita-sub040/store"
)

// FileExtension is the conventional extension of bundle archives.
const FileExtension = ".bundle"

// ThumbnailName is the archive entry holding the preview image.
const ThumbnailName = "thumbnail.jpg"

// State is the lifecycle state of a Bundle.
type State int

const (
	// StateUnloaded is the state of a bundle that has not been read.
	StateUnloaded State = iota
	// StateLoaded is the state after Load, valid or not.
	StateLoaded
	// StateDeleted is terminal.
	StateDeleted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateDeleted:
		return "deleted"
	default:
		return "unloaded"
	}
}

// Bundle is one bundle archive and its in-memory model.
// A Bundle is not safe for concurrent use.
type Bundle struct {
	path string
	opts options

	state     State
	valid     bool
	installed bool
	// everLoaded is set once the archive has been read successfully.
	everLoaded bool

	manifest  *manifest.Manifest
	meta      *meta.Metadata
	thumbnail []byte

	// sources maps archive paths to host files not yet written to the archive.
	sources map[string]string
	// missing lists manifest files absent from the archive at load time.
	missing []string
	// grants maps a bundle tag to the files AddTag newly assigned it to.
	grants map[string][]string
	// createdDirs lists directories created by Install, parents first.
	createdDirs []string
	// installedAs and installedDirs record the short name and category
	// directories of the last install, so Uninstall still works after a
	// rename or a failed reload.
	installedAs   string
	installedDirs []string
}

// New returns an Unloaded bundle for the archive at path. The archive does
// not need to exist; a bundle that is never loaded is saved as new.
func New(path string, opts ...Option) *Bundle {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	b := &Bundle{
		path:    path,
		opts:    newOptions(opts),
		sources: make(map[string]string),
		grants:  make(map[string][]string),
	}
	b.reset()
	return b
}

// Open returns the bundle at path after loading it. Load failures are
// logged and leave the bundle invalid rather than being returned.
func Open(path string, opts ...Option) *Bundle {
	b := New(path, opts...)
	if err := b.Load(); err != nil {
		b.opts.logger.Warn("could not load bundle", "path", b.path, "error", err)
	}
	return b
}

// Load reads the archive. On failure the bundle becomes an invalid stub
// with an empty manifest and a name derived from the archive file name.
// Files listed in the manifest but absent from the archive are logged and
// reported by Missing; they do not make the bundle invalid.
func (b *Bundle) Load() error {
	if b.state == StateDeleted {
		return ErrDeleted
	}

	h, err := store.OpenForRead(b.path, b.storeOptions()...)
	if err != nil {
		b.stub()
		return err
	}
	defer func() { _ = h.Finalize() }()

	if err := b.read(h); err != nil {
		b.stub()
		return fmt.Errorf("loading %s: %w", b.path, err)
	}

	b.state = StateLoaded
	b.valid = true
	b.everLoaded = true
	clear(b.sources)
	clear(b.grants)

	b.opts.logger.Debug("loaded bundle", "path", b.path, "files", b.manifest.Len())
	return nil
}

func (b *Bundle) read(h *store.Handle) error {
	data, err := h.ReadFile(manifest.FileName)
	if err != nil {
		return err
	}
	man, err := manifest.ParseBytes(data)
	if err != nil {
		return err
	}

	data, err = h.ReadFile(meta.FileName)
	if err != nil {
		return err
	}
	md, err := meta.ParseBytes(data)
	if err != nil {
		return err
	}

	var thumb []byte
	if h.HasFile(ThumbnailName) {
		if thumb, err = h.ReadFile(ThumbnailName); err != nil {
			b.opts.logger.Warn("could not read bundle thumbnail", "path", b.path, "error", err)
			thumb = nil
		}
	}

	var missing []string
	for _, p := range man.FileList() {
		if !h.HasFile(p) {
			b.opts.logger.Warn("bundle is broken, file is missing", "path", b.path, "file", p)
			missing = append(missing, p)
		}
	}

	b.manifest = man
	b.meta = md
	b.thumbnail = thumb
	b.missing = missing
	return nil
}

// stub puts the bundle into the invalid loaded state. The installed state
// is kept so that an installed bundle can still be uninstalled.
func (b *Bundle) stub() {
	b.reset()
	b.state = StateLoaded
	b.valid = false
}

func (b *Bundle) reset() {
	b.manifest = manifest.New()
	b.meta = meta.New()
	b.meta.AddTag(meta.FieldName, StubName(b.path), true)
	b.thumbnail = nil
	b.missing = nil
	clear(b.sources)
	clear(b.grants)
}

// StubName returns the bundle name derived from an archive path.
func StubName(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Path returns the absolute archive path.
func (b *Bundle) Path() string {
	return b.path
}

// State returns the lifecycle state.
func (b *Bundle) State() State {
	return b.state
}

// Valid reports whether the archive was loaded successfully.
func (b *Bundle) Valid() bool {
	return b.valid
}

// Installed reports whether the bundle's files are installed.
func (b *Bundle) Installed() bool {
	return b.installed
}

// Name returns the declared bundle name.
func (b *Bundle) Name() string {
	return b.meta.Get(meta.FieldName)
}

// ShortName returns the directory name used when installing.
func (b *Bundle) ShortName() string {
	return b.meta.ShortPackName()
}

// InstalledAs returns the short name the bundle's files are installed
// under. It differs from ShortName after renaming an installed bundle.
func (b *Bundle) InstalledAs() string {
	if b.installedAs != "" {
		return b.installedAs
	}
	return b.ShortName()
}

// Manifest returns the bundle's manifest. Changes made through the returned
// value are saved with the bundle.
func (b *Bundle) Manifest() *manifest.Manifest {
	return b.manifest
}

// Metadata returns the bundle's metadata. Changes made through the returned
// value are saved with the bundle.
func (b *Bundle) Metadata() *meta.Metadata {
	return b.meta
}

// Missing returns the manifest files that were absent from the archive.
func (b *Bundle) Missing() []string {
	return slices.Clone(b.missing)
}

// CreatedDirs returns the directories the last install created.
func (b *Bundle) CreatedDirs() []string {
	return slices.Clone(b.createdDirs)
}

// MarkInstalled restores the installed state recorded by a previous
// process, so that a later Uninstall removes the bundle's files.
func (b *Bundle) MarkInstalled(createdDirs []string) {
	if b.state == StateDeleted {
		return
	}
	b.installed = true
	b.createdDirs = slices.Clone(createdDirs)
}

func (b *Bundle) storeOptions() []store.Option {
	return []store.Option{store.WithFilesystem(b.opts.fs)}
}

func (b *Bundle) usable() error {
	if b.state == StateDeleted {
		return ErrDeleted
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
