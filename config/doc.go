// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config resolves bundlectl settings from built-in defaults rooted at
// the XDG data home, an optional YAML file validated against an embedded JSON
// schema, and KRITA_BUNDLE_* environment variables, in that order.
package config
