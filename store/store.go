// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/klauspost/compress/zip"
	"github.com/opencontainers/go-digest"
)

// MimeType identifies a resource bundle container in its "mimetype" entry.
const MimeType = "application/x-krita-resourcebundle"

// MimeTypeEntry is the name of the entry carrying MimeType.
const MimeTypeEntry = "mimetype"

// MaxEntrySize is the default maximum uncompressed size of a single entry (100MB).
const MaxEntrySize int64 = 100 * 1024 * 1024

// Mode is the access mode of a Handle.
type Mode int

const (
	// ModeRead opens an existing archive for reading.
	ModeRead Mode = iota
	// ModeWrite creates a new archive.
	ModeWrite
)

// String returns "read" or "write".
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

type options struct {
	fs           billy.Filesystem
	epoch        time.Time
	maxEntrySize int64
	mimeType     string
}

// Option configures a Handle.
type Option func(*options)

// WithFilesystem sets the filesystem holding the archive and the host files
// used by ExtractFile and AddLocalFile. The default is the local filesystem.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithEpoch sets the modification time stamped on written entries.
// The default is the Unix epoch, which keeps archives reproducible.
func WithEpoch(t time.Time) Option {
	return func(o *options) {
		o.epoch = t
	}
}

// WithMaxEntrySize sets the largest entry the handle will read.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) {
		o.maxEntrySize = n
	}
}

// WithMimeType overrides the content of the "mimetype" entry written first.
// An empty value suppresses the entry.
func WithMimeType(mt string) Option {
	return func(o *options) {
		o.mimeType = mt
	}
}

func newOptions(opts []Option) options {
	o := options{
		epoch:        time.Unix(0, 0).UTC(),
		maxEntrySize: MaxEntrySize,
		mimeType:     MimeType,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
	}
	return o
}

// Handle is an open archive session.
// A Handle is not safe for concurrent use.
type Handle struct {
	path string
	mode Mode
	opts options

	file   billy.File
	reader *zip.Reader
	index  map[string]*zip.File

	tmpName string
	writer  *zip.Writer
	written map[string]struct{}
	order   []string

	cwd   string
	entry string
	rc    io.ReadCloser
	w     io.Writer

	done bool
	err  error
}

// OpenForRead opens an existing archive.
func OpenForRead(archivePath string, opts ...Option) (*Handle, error) {
	o := newOptions(opts)
	p, err := hostPath(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveOpen, archivePath, err)
	}

	f, err := o.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveOpen, archivePath, err)
	}

	info, err := o.fs.Stat(p)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveOpen, archivePath, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrArchiveOpen, archivePath)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveOpen, archivePath, err)
	}

	index := make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			continue
		}
		index[path.Clean(zf.Name)] = zf
	}

	return &Handle{
		path:   p,
		mode:   ModeRead,
		opts:   o,
		file:   f,
		reader: zr,
		index:  index,
	}, nil
}

// OpenForWrite starts writing a new archive at archivePath. Nothing is
// visible at archivePath until Finalize succeeds. The parent directory must exist.
func OpenForWrite(archivePath string, opts ...Option) (*Handle, error) {
	o := newOptions(opts)
	p, err := hostPath(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveOpen, archivePath, err)
	}

	dir := filepath.Dir(p)
	info, err := o.fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveOpen, archivePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrArchiveOpen, dir)
	}

	tmp, err := o.fs.TempFile(dir, "."+filepath.Base(p)+".tmp-")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveOpen, archivePath, err)
	}

	h := &Handle{
		path:    p,
		mode:    ModeWrite,
		opts:    o,
		file:    tmp,
		tmpName: tmp.Name(),
		writer:  zip.NewWriter(tmp),
		written: make(map[string]struct{}),
	}

	if o.mimeType != "" {
		if err := h.writeMimeType(); err != nil {
			_ = h.Abort()
			return nil, fmt.Errorf("%w: %s: %w", ErrArchiveOpen, archivePath, err)
		}
	}

	return h, nil
}

// Path returns the absolute archive path.
func (h *Handle) Path() string {
	return h.path
}

// Mode returns the handle's access mode.
func (h *Handle) Mode() Mode {
	return h.mode
}

// Err returns the cause of the most recent failed operation, including
// failures reported only as false by ExtractFile and AddLocalFile.
func (h *Handle) Err() error {
	return h.err
}

// ToRoot resets the current directory to the archive root.
func (h *Handle) ToRoot() {
	h.cwd = ""
}

// EnterDirectory makes relative entry names resolve below dir.
func (h *Handle) EnterDirectory(dir string) error {
	resolved, err := h.resolve(dir)
	if err != nil {
		return h.fail(err)
	}
	h.cwd = resolved
	return nil
}

// HasFile reports whether the archive contains the named entry.
func (h *Handle) HasFile(name string) bool {
	resolved, err := h.resolve(name)
	if err != nil {
		return false
	}
	if h.mode == ModeWrite {
		_, ok := h.written[resolved]
		return ok
	}
	_, ok := h.index[resolved]
	return ok
}

// Entries lists the entry names in archive order.
func (h *Handle) Entries() []string {
	if h.mode == ModeWrite {
		return append([]string(nil), h.order...)
	}
	names := make([]string, 0, len(h.reader.File))
	for _, zf := range h.reader.File {
		if strings.HasSuffix(zf.Name, "/") {
			continue
		}
		names = append(names, path.Clean(zf.Name))
	}
	return names
}

// Open opens the named entry for Read (read mode) or Write (write mode).
func (h *Handle) Open(name string) error {
	if err := h.usable(); err != nil {
		return h.fail(err)
	}
	if h.entry != "" {
		return h.fail(fmt.Errorf("%w: %s", ErrEntryOpen, h.entry))
	}

	resolved, err := h.resolve(name)
	if err != nil {
		return h.fail(err)
	}

	if h.mode == ModeRead {
		rc, err := h.openEntry(resolved)
		if err != nil {
			return h.fail(err)
		}
		h.rc = rc
	} else {
		w, err := h.createEntry(resolved, zip.Deflate)
		if err != nil {
			return h.fail(err)
		}
		h.w = w
	}

	h.entry = resolved
	return nil
}

// Close ends the current entry.
func (h *Handle) Close() error {
	if h.entry == "" {
		return h.fail(ErrNoEntry)
	}
	var err error
	if h.rc != nil {
		err = h.rc.Close()
	}
	h.entry, h.rc, h.w = "", nil, nil
	if err != nil {
		return h.fail(fmt.Errorf("%w: %w", ErrArchiveIO, err))
	}
	return nil
}

// Read reads from the current entry. It returns io.EOF at the end of the entry.
func (h *Handle) Read(p []byte) (int, error) {
	if h.rc == nil {
		if h.mode == ModeWrite {
			return 0, h.fail(ErrWrongMode)
		}
		return 0, h.fail(ErrNoEntry)
	}
	n, err := h.rc.Read(p)
	if err != nil && err != io.EOF {
		return n, h.fail(fmt.Errorf("%w: reading %s: %w", ErrArchiveIO, h.entry, err))
	}
	return n, err
}

// ReadAll reads the remainder of the current entry.
func (h *Handle) ReadAll() ([]byte, error) {
	return io.ReadAll(h)
}

// Write writes to the current entry.
func (h *Handle) Write(p []byte) (int, error) {
	if h.w == nil {
		if h.mode == ModeRead {
			return 0, h.fail(ErrWrongMode)
		}
		return 0, h.fail(ErrNoEntry)
	}
	n, err := h.w.Write(p)
	if err != nil {
		return n, h.fail(fmt.Errorf("%w: writing %s: %w", ErrArchiveIO, h.entry, err))
	}
	return n, nil
}

// ReadFile returns the content of the named entry.
func (h *Handle) ReadFile(name string) ([]byte, error) {
	if err := h.Open(name); err != nil {
		return nil, err
	}
	data, err := h.ReadAll()
	closeErr := h.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return data, nil
}

// WriteFile adds an entry with the given content.
func (h *Handle) WriteFile(name string, data []byte) error {
	if err := h.Open(name); err != nil {
		return err
	}
	if _, err := h.Write(data); err != nil {
		_ = h.Close()
		return err
	}
	return h.Close()
}

// Digest computes the SHA-256 digest of the named entry's content.
func (h *Handle) Digest(name string) (digest.Digest, error) {
	if h.mode != ModeRead {
		return "", h.fail(ErrWrongMode)
	}
	if err := h.Open(name); err != nil {
		return "", err
	}
	d, err := digest.FromReader(h)
	closeErr := h.Close()
	if err != nil {
		return "", h.fail(fmt.Errorf("%w: digesting %s: %w", ErrArchiveIO, name, err))
	}
	if closeErr != nil {
		return "", closeErr
	}
	return d, nil
}

// ExtractFile copies the entry archivePath to the host file destPath.
// The parent directory of destPath must already exist. ExtractFile reports
// failure by returning false; Err holds the cause.
func (h *Handle) ExtractFile(archivePath, destPath string) bool {
	if h.mode != ModeRead {
		h.fail(ErrWrongMode)
		return false
	}
	if err := h.usable(); err != nil {
		h.fail(err)
		return false
	}
	if h.entry != "" {
		h.fail(fmt.Errorf("%w: %s", ErrEntryOpen, h.entry))
		return false
	}

	dest, err := hostPath(destPath)
	if err != nil {
		h.fail(err)
		return false
	}
	if info, err := h.opts.fs.Stat(filepath.Dir(dest)); err != nil || !info.IsDir() {
		h.fail(fmt.Errorf("%w: %s", ErrNoParent, filepath.Dir(dest)))
		return false
	}

	resolved, err := h.resolve(archivePath)
	if err != nil {
		h.fail(err)
		return false
	}
	rc, err := h.openEntry(resolved)
	if err != nil {
		h.fail(err)
		return false
	}
	defer func() { _ = rc.Close() }()

	out, err := h.opts.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		h.fail(fmt.Errorf("%w: creating %s: %w", ErrArchiveIO, dest, err))
		return false
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		_ = h.opts.fs.Remove(dest)
		h.fail(fmt.Errorf("%w: extracting %s: %w", ErrArchiveIO, resolved, err))
		return false
	}
	if err := out.Close(); err != nil {
		_ = h.opts.fs.Remove(dest)
		h.fail(fmt.Errorf("%w: closing %s: %w", ErrArchiveIO, dest, err))
		return false
	}

	h.err = nil
	return true
}

// AddLocalFile copies the host file localPath into the archive as archivePath.
// It reports failure by returning false; Err holds the cause.
func (h *Handle) AddLocalFile(localPath, archivePath string) bool {
	if h.mode != ModeWrite {
		h.fail(ErrWrongMode)
		return false
	}
	if err := h.usable(); err != nil {
		h.fail(err)
		return false
	}
	if h.entry != "" {
		h.fail(fmt.Errorf("%w: %s", ErrEntryOpen, h.entry))
		return false
	}

	src, err := hostPath(localPath)
	if err != nil {
		h.fail(err)
		return false
	}
	in, err := h.opts.fs.Open(src)
	if err != nil {
		h.fail(fmt.Errorf("%w: opening %s: %w", ErrArchiveIO, src, err))
		return false
	}
	defer func() { _ = in.Close() }()

	resolved, err := h.resolve(archivePath)
	if err != nil {
		h.fail(err)
		return false
	}
	w, err := h.createEntry(resolved, zip.Deflate)
	if err != nil {
		h.fail(err)
		return false
	}
	if _, err := io.Copy(w, in); err != nil {
		h.fail(fmt.Errorf("%w: adding %s: %w", ErrArchiveIO, src, err))
		return false
	}

	h.err = nil
	return true
}

// Finalize completes the session. In write mode the archive is flushed and
// moved onto the target path; in read mode the archive is released.
func (h *Handle) Finalize() error {
	if h.done {
		return ErrFinalized
	}
	h.done = true

	if h.rc != nil {
		_ = h.rc.Close()
	}
	h.entry, h.rc, h.w = "", nil, nil

	if h.mode == ModeRead {
		if err := h.file.Close(); err != nil {
			return h.fail(fmt.Errorf("%w: %w", ErrArchiveIO, err))
		}
		return nil
	}

	if err := h.writer.Close(); err != nil {
		h.discard()
		return h.fail(fmt.Errorf("%w: finishing %s: %w", ErrArchiveIO, h.path, err))
	}
	if err := h.file.Close(); err != nil {
		_ = h.opts.fs.Remove(h.tmpName)
		return h.fail(fmt.Errorf("%w: closing %s: %w", ErrArchiveIO, h.path, err))
	}
	if err := h.opts.fs.Rename(h.tmpName, h.path); err != nil {
		_ = h.opts.fs.Remove(h.tmpName)
		return h.fail(fmt.Errorf("%w: replacing %s: %w", ErrArchiveIO, h.path, err))
	}
	return nil
}

// Abort ends the session without publishing anything written.
func (h *Handle) Abort() error {
	if h.done {
		return nil
	}
	h.done = true
	if h.rc != nil {
		_ = h.rc.Close()
	}
	h.entry, h.rc, h.w = "", nil, nil

	if h.mode == ModeRead {
		return h.file.Close()
	}
	h.discard()
	return nil
}

func (h *Handle) discard() {
	_ = h.writer.Close()
	_ = h.file.Close()
	_ = h.opts.fs.Remove(h.tmpName)
}

func (h *Handle) writeMimeType() error {
	w, err := h.createEntry(MimeTypeEntry, zip.Store)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader([]byte(h.opts.mimeType)))
	return err
}

func (h *Handle) openEntry(name string) (io.ReadCloser, error) {
	zf, ok := h.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveIO, name, os.ErrNotExist)
	}
	if limit := h.opts.maxEntrySize; limit > 0 && zf.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrEntryTooLarge, name, zf.UncompressedSize64, limit)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrArchiveIO, name, err)
	}
	if h.opts.maxEntrySize <= 0 {
		return rc, nil
	}
	// Read with a limit to defend against lying headers
	return &limitedReadCloser{
		Reader: io.LimitReader(rc, h.opts.maxEntrySize+1),
		closer: rc,
		limit:  h.opts.maxEntrySize,
		name:   name,
	}, nil
}

func (h *Handle) createEntry(name string, method uint16) (io.Writer, error) {
	if _, dup := h.written[name]; dup {
		return nil, fmt.Errorf("%w: duplicate entry %s", ErrArchiveIO, name)
	}
	w, err := h.writer.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: h.opts.epoch,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", ErrArchiveIO, name, err)
	}
	h.written[name] = struct{}{}
	h.order = append(h.order, name)
	return w, nil
}

// resolve joins name onto the current directory and rejects escaping paths.
func (h *Handle) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	name = filepath.ToSlash(name)
	if path.IsAbs(name) {
		return "", fmt.Errorf("%w: absolute path %s", ErrInvalidPath, name)
	}
	// path.Clean resolves all ".." segments; any remaining leading ".."
	// means the path escapes the archive root.
	cleaned := path.Clean(path.Join(h.cwd, name))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: path traversal in %s", ErrInvalidPath, name)
	}
	return cleaned, nil
}

func (h *Handle) usable() error {
	if h.done {
		return ErrFinalized
	}
	return nil
}

func (h *Handle) fail(err error) error {
	h.err = err
	return err
}

func hostPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Abs(p)
}

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
	limit  int64
	name   string
	read   int64
}

func (l *limitedReadCloser) Read(p []byte) (int, error) {
	n, err := l.Reader.Read(p)
	l.read += int64(n)
	if l.read > l.limit {
		return n, fmt.Errorf("%w: %s", ErrEntryTooLarge, l.name)
	}
	return n, err
}

func (l *limitedReadCloser) Close() error {
	return l.closer.Close()
}
