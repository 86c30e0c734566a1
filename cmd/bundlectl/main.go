// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command bundlectl creates, installs and distributes resource bundles.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

// version is set via -ldflags.
var version = "dev"

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := fang.Execute(
		context.Background(),
		newRootCommand(a),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
