// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/KDE/krita-sub040/bundle"
	"github.com/KDE/krita-sub040/meta"
)

func newListCommand(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the bundles in the bundle directory",
		Long: `List the bundles in the bundle directory.

--filter takes a CEL expression over the variable 'bundle', a map with the
keys name, author, license, description, website, created, updated, tags,
categories, files, installed and valid.

Examples:
  bundlectl list
  bundlectl list --filter 'bundle.installed'
  bundlectl list --filter '"brush" in bundle.categories && bundle.license == "CC0"'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			list := r.List()
			if filter != "" {
				if list, err = r.Filter(filter); err != nil {
					return err
				}
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("no bundles"))
				return nil
			}
			fmt.Fprintln(a.out, bundleTable(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "CEL expression selecting bundles")
	return cmd
}

func bundleTable(list []*bundle.Bundle) string {
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		status := "ok"
		switch {
		case !b.Valid():
			status = "invalid"
		case len(b.Missing()) > 0:
			status = strconv.Itoa(len(b.Missing())) + " missing"
		}
		rows = append(rows, []string{
			b.Name(),
			filepath.Base(b.Path()),
			strconv.Itoa(b.Manifest().Len()),
			strings.Join(b.Tags(), ", "),
			strconv.FormatBool(b.Installed()),
			status,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("NAME", "FILE", "FILES", "TAGS", "INSTALLED", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <bundle>",
		Short: "Show a bundle's metadata and files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			b, err := r.Get(args[0])
			if err != nil {
				return err
			}
			printInfo(a, b)
			return nil
		},
	}
}

func printInfo(a *app, b *bundle.Bundle) {
	fmt.Fprintln(a.out, titleStyle.Render(b.Name()))
	fmt.Fprintf(a.out, "  %-12s %s\n", "archive", b.Path())
	fmt.Fprintf(a.out, "  %-12s %t\n", "valid", b.Valid())
	fmt.Fprintf(a.out, "  %-12s %t\n", "installed", b.Installed())
	for _, e := range b.Metadata().Entries() {
		if e.Field == meta.FieldName || e.Field == meta.FieldTag {
			continue
		}
		fmt.Fprintf(a.out, "  %-12s %s\n", e.Field, e.Value)
	}
	if tags := b.Tags(); len(tags) > 0 {
		fmt.Fprintf(a.out, "  %-12s %s\n", "tags", strings.Join(tags, ", "))
	}

	fmt.Fprintln(a.out, titleStyle.Render("Files"))
	for _, e := range b.Manifest().Entries() {
		line := "  " + e.Path
		if len(e.Tags) > 0 {
			line += mutedStyle.Render(" [" + strings.Join(e.Tags, ", ") + "]")
		}
		fmt.Fprintln(a.out, line)
	}
	for _, m := range b.Missing() {
		fmt.Fprintf(a.out, "  %s %s\n", warningStyle.Render("missing:"), m)
	}
}
