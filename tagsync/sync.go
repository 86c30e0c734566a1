// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package tagsync

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/KDE/krita-sub040/manifest"
)

// Skip records a manifest entry that could not be matched to a registry resource.
type Skip struct {
	Path   string
	Reason string
}

// Failure records a registry call that returned an error.
type Failure struct {
	Path string
	Tag  string
	Err  error
}

// Error implements the error interface for Failure.
func (f *Failure) Error() string {
	if f.Tag == "" {
		return fmt.Sprintf("%s: %v", f.Path, f.Err)
	}
	return fmt.Sprintf("%s: tag %q: %v", f.Path, f.Tag, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Report summarises a synchronization run.
type Report struct {
	// Calls is the number of AssignTag or UnassignTag calls that succeeded.
	Calls    int
	Skipped  []Skip
	Failures []*Failure
}

// OK reports whether every registry call succeeded.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

type config struct {
	logger      *slog.Logger
	installName string
}

// Option configures ExportTags and RevokeTags.
type Option func(*config)

// WithLogger sets the logger used to report skipped entries and failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithInstallName makes lookups try the path a file was installed to,
// <name>/<path below the category directory>, before its bare file name,
// and never resolve to a file installed under another name. Without it a
// file name shipped by several bundles resolves to whichever copy the
// registry lists first.
func WithInstallName(name string) Option {
	return func(c *config) {
		c.installName = name
	}
}

// ExportTags assigns every tag of every manifest entry to the matching
// resource in its category's registry. Failures and unmatched entries are
// recorded in the report; the returned error is non-nil only if ctx is done.
func ExportTags(ctx context.Context, m *manifest.Manifest, regs Registries, opts ...Option) (*Report, error) {
	return apply(ctx, m, regs, "assign", Registry.AssignTag, opts)
}

// RevokeTags is the inverse of ExportTags.
func RevokeTags(ctx context.Context, m *manifest.Manifest, regs Registries, opts ...Option) (*Report, error) {
	return apply(ctx, m, regs, "unassign", Registry.UnassignTag, opts)
}

func apply(
	ctx context.Context,
	m *manifest.Manifest,
	regs Registries,
	verb string,
	call func(Registry, string, string) error,
	opts []Option,
) (*Report, error) {
	cfg := &config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(cfg)
	}

	report := &Report{}
	touched := make([]Registry, 0, len(regs))

	for _, e := range m.Entries() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if len(e.Tags) == 0 {
			continue
		}

		reg, ok := regs[e.Category]
		if !ok || reg == nil {
			report.Skipped = append(report.Skipped, Skip{Path: e.Path, Reason: "no registry for " + e.Category.String()})
			continue
		}

		id, found := lookupEntry(reg, e, cfg.installName)
		if !found {
			cfg.logger.Warn("resource not found in registry", "path", e.Path, "category", e.Category.String())
			report.Skipped = append(report.Skipped, Skip{Path: e.Path, Reason: "resource not found"})
			continue
		}

		for _, tag := range e.Tags {
			if err := call(reg, id, tag); err != nil {
				cfg.logger.Warn("tag "+verb+" failed", "path", e.Path, "tag", tag, "error", err)
				report.Failures = append(report.Failures, &Failure{Path: e.Path, Tag: tag, Err: err})
				continue
			}
			report.Calls++
		}

		if !containsRegistry(touched, reg) {
			touched = append(touched, reg)
		}
	}

	for _, reg := range touched {
		if f, ok := reg.(Flusher); ok {
			if err := f.Flush(); err != nil {
				cfg.logger.Warn("flushing tag registry failed", "error", err)
				report.Failures = append(report.Failures, &Failure{Path: "registry", Err: err})
			}
		}
	}

	return report, nil
}

// lookupEntry resolves e in reg. With an install name, a match by bare file
// name is rejected when its ID is a path below another install directory.
func lookupEntry(reg Registry, e *manifest.FileEntry, installName string) (string, bool) {
	if installName == "" {
		return reg.Lookup(e.Name())
	}
	if rel, ok := e.InstallPath(); ok {
		if id, found := reg.Lookup(path.Join(installName, rel)); found {
			return id, true
		}
	}
	id, found := reg.Lookup(e.Name())
	if !found {
		return "", false
	}
	if dir, _, nested := strings.Cut(id, "/"); nested && dir != installName {
		return "", false
	}
	return id, true
}

func containsRegistry(list []Registry, reg Registry) bool {
	for _, r := range list {
		if r == reg {
			return true
		}
	}
	return false
}
