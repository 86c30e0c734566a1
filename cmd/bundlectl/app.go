// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/KDE/krita-sub040/bundle"
	"github.com/KDE/krita-sub040/config"
	"github.com/KDE/krita-sub040/env"
	"github.com/KDE/krita-sub040/logging"
	"github.com/KDE/krita-sub040/oci/bundles"
	"github.com/KDE/krita-sub040/registry"
	"github.com/KDE/krita-sub040/resource"
	"github.com/KDE/krita-sub040/tagsync"
)

// app carries the state shared by all commands.
type app struct {
	out    io.Writer
	errOut io.Writer
	env    env.Reader
	fs     billy.Filesystem
	// dataHome overrides the XDG data home when set.
	dataHome string

	newRegistryClient func(plainHTTP bool) (bundles.RegistryClient, error)
	newPackager       func(store *bundles.Store, fs billy.Filesystem) bundles.BundlePackager

	// Global flags.
	cfgFile   string
	logFormat string
	logLevel  string

	cfg    *config.Config
	logger *slog.Logger
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		env:    &env.OSReader{},
		fs:     osfs.New("/"),
		newRegistryClient: func(plainHTTP bool) (bundles.RegistryClient, error) {
			return bundles.NewRegistry(bundles.WithPlainHTTP(plainHTTP))
		},
		newPackager: defaultPackager,
	}
}

func defaultPackager(store *bundles.Store, fs billy.Filesystem) bundles.BundlePackager {
	return bundles.NewPackager(store, bundles.WithPackagerFilesystem(fs))
}

// setup loads the configuration and builds the logger. Flags win over the
// configuration file and the environment.
func (a *app) setup() error {
	opts := []config.Option{
		config.WithFilesystem(a.fs),
		config.WithEnv(a.env),
		config.WithFile(a.cfgFile),
	}
	if a.dataHome != "" {
		opts = append(opts, config.WithDataHome(a.dataHome))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logOpts, err := cfg.LoggingOptions()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(append(logOpts, logging.WithOutput(a.errOut))...)
	return nil
}

func (a *app) target() (bundle.Target, error) {
	regs, err := tagsync.DirectoryRegistries(resource.Capabilities(a.fs, a.cfg.InstallRoot), a.fs, a.cfg.TagDir)
	if err != nil {
		return bundle.Target{}, fmt.Errorf("opening tag registries: %w", err)
	}
	return bundle.Target{Root: a.cfg.InstallRoot, Registries: regs}, nil
}

// registry opens and scans the configured bundle directory.
func (a *app) registry(ctx context.Context) (*registry.Registry, error) {
	t, err := a.target()
	if err != nil {
		return nil, err
	}
	r, err := registry.New(a.cfg.BundleDir, t,
		registry.WithFilesystem(a.fs),
		registry.WithLogger(a.logger),
		registry.WithBundleOptions(bundle.WithProgress(a.progress)),
	)
	if err != nil {
		return nil, err
	}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (a *app) bundleOptions() []bundle.Option {
	return []bundle.Option{
		bundle.WithHostFS(a.fs),
		bundle.WithLogger(a.logger),
		bundle.WithProgress(a.progress),
	}
}

func (a *app) progress(p bundle.Progress) {
	a.logger.Debug("progress", "op", p.Op, "path", p.Path, "done", p.Done, "total", p.Total)
}

// printReport writes a one-line summary of r and one line per problem.
func (a *app) printReport(name string, r *bundle.Report) {
	if r == nil {
		return
	}
	status := successStyle.Render("ok")
	if !r.OK() {
		status = warningStyle.Render("completed with problems")
	}
	fmt.Fprintf(a.out, "%s %s: %d files, %s\n", r.Op, name, len(r.Files), status)
	for _, f := range r.Failures {
		fmt.Fprintf(a.out, "  %s %s\n", errorStyle.Render("failed:"), f.Error())
	}
	for _, m := range r.Mismatches {
		fmt.Fprintf(a.out, "  %s %s\n", errorStyle.Render("digest mismatch:"), m)
	}
	if r.Tags != nil {
		for _, f := range r.Tags.Failures {
			fmt.Fprintf(a.out, "  %s %s\n", errorStyle.Render("tag failed:"), f.Error())
		}
	}
}
