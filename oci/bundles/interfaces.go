// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:generate mockgen -copyright_file=../../.github/license-header.txt -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

package bundles

import (
	"context"
	"time"

	"github.com/opencontainers/go-digest"
)

// RegistryClient provides remote OCI registry operations for bundles.
type RegistryClient interface {
	// Push pushes an artifact from the local store to a remote registry.
	Push(ctx context.Context, store *Store, manifestDigest digest.Digest, ref string) error

	// Pull pulls an artifact from a remote registry into the local store.
	Pull(ctx context.Context, store *Store, ref string) (digest.Digest, error)
}

// BundlePackager creates OCI artifacts from bundle archives.
type BundlePackager interface {
	// Package stores the archive at archivePath as an artifact in the local store.
	Package(ctx context.Context, archivePath string, opts PackageOptions) (*PackageResult, error)
}

// PackageOptions configures packaging.
type PackageOptions struct {
	// Epoch is the creation timestamp recorded in the manifest.
	Epoch time.Time
}

// PackageResult contains the result of packaging a bundle.
type PackageResult struct {
	ManifestDigest digest.Digest
	ConfigDigest   digest.Digest
	LayerDigest    digest.Digest
	Config         *BundleConfig
}
