// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/util"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/spf13/cobra"

	"github.com/KDE/krita-sub040/bundle"
	"github.com/KDE/krita-sub040/oci/bundles"
	"github.com/KDE/krita-sub040/validation/name"
)

// stagingDir holds pulled archives until they are imported.
const stagingDir = "staging"

func newPushCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push <bundle> <reference>",
		Short: "Package a bundle as an OCI artifact and push it to a registry",
		Long: `Package a bundle as an OCI artifact and push it to a registry.

The artifact is also kept in the local OCI store, tagged with the reference.
SOURCE_DATE_EPOCH sets the creation time recorded in the artifact.

Examples:
  bundlectl push Inks ghcr.io/me/inks:v1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.registry(ctx)
			if err != nil {
				return err
			}
			b, err := r.Get(args[0])
			if err != nil {
				return err
			}
			store, client, err := a.oci()
			if err != nil {
				return err
			}

			result, err := a.newPackager(store, a.fs).Package(ctx, b.Path(), bundles.DefaultPackageOptions())
			if err != nil {
				return err
			}
			if err := store.Tag(ctx, result.ManifestDigest, args[1]); err != nil {
				return err
			}
			if err := client.Push(ctx, store, result.ManifestDigest, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "pushed %s to %s@%s\n", b.Name(), args[1], result.ManifestDigest)
			return nil
		},
	}
}

func newPullCommand(a *app) *cobra.Command {
	var install bool
	cmd := &cobra.Command{
		Use:   "pull <reference>",
		Short: "Pull a bundle artifact and import it into the bundle directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd.Context(), a, args[0], install)
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "install the bundle after importing it")
	return cmd
}

func runPull(ctx context.Context, a *app, ref string, install bool) error {
	store, client, err := a.oci()
	if err != nil {
		return err
	}
	d, err := client.Pull(ctx, store, ref)
	if err != nil {
		return err
	}

	m, err := store.GetManifest(ctx, d)
	if err != nil {
		return err
	}
	file, err := archiveFileName(m)
	if err != nil {
		return err
	}

	staged := filepath.Join(a.cfg.OCIStore, stagingDir, file)
	if err := a.fs.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
		return err
	}
	_ = util.RemoveAll(a.fs, staged)
	defer func() { _ = a.fs.Remove(staged) }()

	if _, err := bundles.Extract(ctx, store, d, a.fs, staged); err != nil {
		return err
	}

	r, err := a.registry(ctx)
	if err != nil {
		return err
	}
	b, err := r.Import(ctx, staged)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "pulled %s as %s\n", ref, b.Path())
	if !install {
		return nil
	}
	report, err := r.Install(ctx, b.Name())
	a.printReport(b.Name(), report)
	return err
}

// archiveFileName picks the file name a pulled archive is imported under.
func archiveFileName(m *ocispec.Manifest) (string, error) {
	candidate := ""
	if len(m.Layers) == 1 {
		candidate = m.Layers[0].Annotations[ocispec.AnnotationTitle]
	}
	if candidate == "" {
		candidate = m.Annotations[bundles.AnnotationBundleName]
	}
	if candidate == "" {
		return "", fmt.Errorf("%w: artifact carries no bundle name", bundles.ErrNotBundle)
	}
	candidate = name.SanitizeSegment(filepath.Base(candidate))
	if filepath.Ext(candidate) != bundle.FileExtension {
		candidate += bundle.FileExtension
	}
	return candidate, nil
}

func (a *app) oci() (*bundles.Store, bundles.RegistryClient, error) {
	store, err := bundles.NewStore(a.cfg.OCIStore)
	if err != nil {
		return nil, nil, err
	}
	client, err := a.newRegistryClient(a.cfg.Registry.PlainHTTP)
	if err != nil {
		return nil, nil, err
	}
	return store, client, nil
}
