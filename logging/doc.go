// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package logging provides the [log/slog.Logger] factory used by bundlectl.

# Defaults

  - Format: JSON ([FormatJSON]) via [log/slog.JSONHandler]
  - Level: INFO ([log/slog.LevelInfo])
  - Output: [os.Stderr]
  - Timestamps: [time.RFC3339]

# Configuration

Configuration files and flags carry format and level as strings:

	format, err := logging.ParseFormat(cfg.Log.Format)
	level, err := logging.ParseLevel(cfg.Log.Level)
	logger := logging.New(logging.WithFormat(format), logging.WithLevel(level))

Library packages do not log through a global logger; they take a
*slog.Logger option and discard records by default.
*/
package logging
