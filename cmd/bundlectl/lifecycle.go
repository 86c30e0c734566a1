// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KDE/krita-sub040/tagsync"
)

func newImportCommand(a *app) *cobra.Command {
	var install bool
	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Copy a bundle archive into the bundle directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.registry(ctx)
			if err != nil {
				return err
			}
			b, err := r.Import(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "imported %s as %s\n", b.Name(), b.Path())
			if !install {
				return nil
			}
			report, err := r.Install(ctx, b.Name())
			a.printReport(b.Name(), report)
			return err
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "install the bundle after importing it")
	return cmd
}

func newInstallCommand(a *app) *cobra.Command {
	var restore bool
	cmd := &cobra.Command{
		Use:   "install [bundle]",
		Short: "Extract a bundle into the install root and assign its tags",
		Long: `Extract a bundle into the install root and assign its tags.

With --restore, every bundle recorded as installed is installed again, for
example after the install root was wiped.`,
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if restore == (len(args) == 1) {
				return errors.New("give either a bundle or --restore")
			}
			r, err := a.registry(ctx)
			if err != nil {
				return err
			}
			if restore {
				if err := r.Restore(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "restored installed bundles")
				return nil
			}
			report, err := r.Install(ctx, args[0])
			a.printReport(args[0], report)
			return err
		},
	}
	cmd.Flags().BoolVar(&restore, "restore", false, "reinstall every bundle recorded as installed")
	return cmd
}

func newUninstallCommand(a *app) *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "uninstall <bundle>",
		Short: "Remove a bundle's installed files",
		Long: `Remove a bundle's installed files and the directories the install created.

Tags assigned at install time are kept unless --revoke-tags is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.registry(ctx)
			if err != nil {
				return err
			}
			if revoke {
				b, err := r.Get(args[0])
				if err != nil {
					return err
				}
				// Registries resolve files through the install root, so
				// revoking has to happen while the files are still there.
				report, err := tagsync.RevokeTags(ctx, b.Manifest(), r.Target().Registries,
					tagsync.WithLogger(a.logger), tagsync.WithInstallName(b.InstalledAs()))
				if err := syncResult("revoke", report, err); err != nil {
					return err
				}
			}
			report, err := r.Uninstall(ctx, args[0])
			a.printReport(args[0], report)
			return err
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke-tags", false, "also unassign the bundle's tags from the installed resources")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bundle>",
		Short: "Uninstall a bundle and remove its archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			report, err := r.Remove(cmd.Context(), args[0])
			a.printReport(args[0], report)
			return err
		},
	}
}
