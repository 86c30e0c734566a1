// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "bundlectl",
		Short: "Manage resource bundles",
		Long: titleStyle.Render("bundlectl") + mutedStyle.Render(" - create, install and share resource bundles") + `

A bundle is a zip archive holding brushes, patterns, gradients, palettes and
other resources together with a manifest.xml listing every file and its
tags, and a meta.xml describing the bundle.

Bundles live in the bundle directory. Installing a bundle extracts its
files below the install root, one directory per resource category, and
assigns the manifest tags to the installed resources.

Examples:
  bundlectl create Inks.bundle --resource brush=round.gbr --tag ink
  bundlectl import Inks.bundle
  bundlectl list --filter 'bundle.tags.exists(t, t == "ink")'
  bundlectl install Inks
  bundlectl push Inks ghcr.io/me/inks:v1`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/krita/bundlectl.yaml)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: json or text")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newListCommand(a),
		newInfoCommand(a),
		newCreateCommand(a),
		newImportCommand(a),
		newInstallCommand(a),
		newUninstallCommand(a),
		newDeleteCommand(a),
		newRenameCommand(a),
		newTagCommand(a),
		newUntagCommand(a),
		newPushCommand(a),
		newPullCommand(a),
	)
	return root
}
