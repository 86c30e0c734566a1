// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KDE/krita-sub040/bundle"
	"github.com/KDE/krita-sub040/manifest"
	"github.com/KDE/krita-sub040/meta"
	"github.com/KDE/krita-sub040/registry"
	"github.com/KDE/krita-sub040/resource"
	"github.com/KDE/krita-sub040/tagsync"
)

type createFlags struct {
	name        string
	author      string
	license     string
	description string
	website     string
	thumbnail   string
	resources   []string
	tags        []string
	importAfter bool
}

func newCreateCommand(a *app) *cobra.Command {
	var f createFlags
	cmd := &cobra.Command{
		Use:   "create <archive>",
		Short: "Create a bundle archive from local resource files",
		Long: `Create a bundle archive from local resource files.

Each --resource takes category=path, where category is one of brush,
gradient, paintop, palette, pattern, template, workspace, reference or
other.
The archive must not exist yet.

Examples:
  bundlectl create Inks.bundle --resource brush=round.gbr --resource pattern=dots.pat
  bundlectl create Inks.bundle --name "Inks" --author Jane --tag ink --resource brush=round.gbr --import`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd.Context(), a, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.name, "name", "", "bundle name (default is the archive file name)")
	cmd.Flags().StringVar(&f.author, "author", "", "bundle author")
	cmd.Flags().StringVar(&f.license, "license", "", "bundle license")
	cmd.Flags().StringVar(&f.description, "description", "", "bundle description")
	cmd.Flags().StringVar(&f.website, "website", "", "bundle website")
	cmd.Flags().StringVar(&f.thumbnail, "thumbnail", "", "PNG, JPEG or GIF image used as the bundle thumbnail")
	cmd.Flags().StringArrayVar(&f.resources, "resource", nil, "resource to add as category=path (repeatable)")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "tag assigned to the bundle and all its files")
	cmd.Flags().BoolVar(&f.importAfter, "import", false, "import the archive into the bundle directory after saving")
	return cmd
}

func runCreate(ctx context.Context, a *app, archive string, f createFlags) error {
	if len(f.resources) == 0 {
		return fmt.Errorf("at least one --resource is required")
	}

	b := bundle.New(archive, a.bundleOptions()...)
	if f.name != "" {
		if err := b.Rename(f.name); err != nil {
			return err
		}
	}
	md := b.Metadata()
	md.AddTag(meta.FieldAuthor, f.author, false)
	md.AddTag(meta.FieldLicense, f.license, false)
	md.AddTag(meta.FieldDescription, f.description, false)
	md.AddTag(meta.FieldWebsite, f.website, false)

	for _, spec := range f.resources {
		category, p, err := parseResourceFlag(spec)
		if err != nil {
			return err
		}
		if _, err := b.AddResource(category, p); err != nil {
			return err
		}
	}
	for _, t := range f.tags {
		if err := b.AddTag(t); err != nil {
			return err
		}
	}
	if f.thumbnail != "" {
		if err := b.SetThumbnail(f.thumbnail); err != nil {
			return err
		}
	}

	if err := b.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %s (%d files)\n", b.Path(), b.Manifest().Len())

	if !f.importAfter {
		return nil
	}
	r, err := a.registry(ctx)
	if err != nil {
		return err
	}
	imported, err := r.Import(ctx, b.Path())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %s\n", imported.Path())
	return nil
}

func parseResourceFlag(spec string) (resource.Category, string, error) {
	cat, p, ok := strings.Cut(spec, "=")
	if !ok || p == "" {
		return 0, "", fmt.Errorf("invalid --resource %q: expected category=path", spec)
	}
	category, err := resource.ParseCategory(strings.ToLower(strings.TrimSpace(cat)))
	if err != nil {
		return 0, "", fmt.Errorf("invalid --resource %q: %w", spec, err)
	}
	return category, p, nil
}

func newRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <bundle> <new-name>",
		Short: "Change a bundle's declared name",
		Long: `Change a bundle's declared name and save the archive.

An installed bundle keeps its files below the previous name until it is
uninstalled and installed again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editBundle(cmd.Context(), a, args[0], func(_ *registry.Registry, b *bundle.Bundle) error {
				return b.Rename(args[1])
			})
		},
	}
}

func newTagCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <bundle> <tag>...",
		Short: "Add tags to a bundle and all its files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return editBundle(ctx, a, args[0], func(r *registry.Registry, b *bundle.Bundle) error {
				for _, t := range args[1:] {
					if err := b.AddTag(t); err != nil {
						return err
					}
				}
				if !b.Installed() {
					return nil
				}
				report, err := tagsync.ExportTags(ctx, b.Manifest(), r.Target().Registries,
					tagsync.WithLogger(a.logger), tagsync.WithInstallName(b.InstalledAs()))
				return syncResult("export", report, err)
			})
		},
	}
}

func newUntagCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "untag <bundle> <tag>...",
		Short: "Remove tags from a bundle",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return editBundle(ctx, a, args[0], func(r *registry.Registry, b *bundle.Bundle) error {
				before := b.Manifest().Clone()
				for _, t := range args[1:] {
					if err := b.RemoveTag(t); err != nil {
						return err
					}
				}
				if !b.Installed() {
					return nil
				}
				removed := removedTags(before, b.Manifest())
				report, err := tagsync.RevokeTags(ctx, removed, r.Target().Registries,
					tagsync.WithLogger(a.logger), tagsync.WithInstallName(b.InstalledAs()))
				return syncResult("revoke", report, err)
			})
		},
	}
}

// editBundle applies fn to the named bundle and saves it.
func editBundle(ctx context.Context, a *app, name string, fn func(*registry.Registry, *bundle.Bundle) error) error {
	r, err := a.registry(ctx)
	if err != nil {
		return err
	}
	b, err := r.Get(name)
	if err != nil {
		return err
	}
	if err := fn(r, b); err != nil {
		return err
	}
	if err := b.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %s\n", b.Path())
	return nil
}

// removedTags returns a manifest holding, for every file of before, the
// tags after no longer assigns to it.
func removedTags(before, after *manifest.Manifest) *manifest.Manifest {
	diff := manifest.New()
	for _, e := range before.Entries() {
		var current []string
		if now, ok := after.Lookup(e.Path); ok {
			current = now.Tags
		}
		var gone []string
		for _, t := range e.Tags {
			if !slices.Contains(current, t) {
				gone = append(gone, t)
			}
		}
		if len(gone) > 0 {
			diff.AddResource(e.Category, e.Path, gone, "")
		}
	}
	return diff
}

func syncResult(op string, report *tagsync.Report, err error) error {
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("tag %s: %d registry calls failed", op, len(report.Failures))
	}
	return nil
}
