// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Generator is recorded in the metadata of saved bundles that do not name one.
const Generator = "bundlectl"

// Progress describes one completed step of a long-running operation.
type Progress struct {
	// Op is "save", "install" or "uninstall".
	Op    string
	Path  string
	Done  int
	Total int
}

type options struct {
	logger    *slog.Logger
	progress  func(Progress)
	now       func() time.Time
	fs        billy.Filesystem
	generator string
}

// Option configures a Bundle.
type Option func(*options)

// WithLogger sets the logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithProgress registers a callback invoked after every file processed by
// Save, Install and Uninstall. The callback runs synchronously.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithClock sets the time source used for the created and updated fields.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithHostFS sets the filesystem holding the archive, the local files added
// to it and the install root. The default is the local filesystem.
func WithHostFS(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithGenerator overrides the generator recorded on save.
func WithGenerator(g string) Option {
	return func(o *options) {
		o.generator = g
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:       time.Now,
		generator: Generator,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
	}
	return o
}

func (o *options) report(p Progress) {
	if o.progress != nil {
		o.progress(p)
	}
}
