// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/KDE/krita-sub040/bundle"
	"github.com/KDE/krita-sub040/env"
	"github.com/KDE/krita-sub040/meta"
)

// ErrInvalidBundle is returned when the archive to package does not load.
var ErrInvalidBundle = errors.New("archive is not a valid bundle")

// Packager creates OCI artifacts from bundle archives.
type Packager struct {
	store *Store
	fs    billy.Filesystem
}

// Compile-time assertion that Packager implements BundlePackager.
var _ BundlePackager = (*Packager)(nil)

// PackagerOption configures a Packager.
type PackagerOption func(*Packager)

// WithPackagerFilesystem reads archives from fs instead of the local disk.
func WithPackagerFilesystem(fs billy.Filesystem) PackagerOption {
	return func(p *Packager) {
		p.fs = fs
	}
}

// NewPackager creates a new packager with the given store.
// Panics if store is nil.
func NewPackager(store *Store, opts ...PackagerOption) *Packager {
	if store == nil {
		panic("bundles: NewPackager called with nil store")
	}
	p := &Packager{store: store, fs: osfs.New("/")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultPackageOptions returns default packaging options.
// Respects SOURCE_DATE_EPOCH for reproducible builds.
func DefaultPackageOptions() PackageOptions {
	return packageOptionsFrom(&env.OSReader{})
}

func packageOptionsFrom(r env.Reader) PackageOptions {
	epoch := time.Unix(0, 0).UTC()
	if sde, ok := r.LookupEnv("SOURCE_DATE_EPOCH"); ok && sde != "" {
		if ts, err := strconv.ParseInt(sde, 10, 64); err == nil {
			epoch = time.Unix(ts, 0).UTC()
		}
	}
	return PackageOptions{Epoch: epoch}
}

// Package stores the bundle archive at archivePath as a single-layer
// artifact. The archive must load as a valid bundle.
func (p *Packager) Package(ctx context.Context, archivePath string, opts PackageOptions) (*PackageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := bundle.New(archivePath, bundle.WithHostFS(p.fs))
	if err := b.Load(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}

	archive, err := util.ReadFile(p.fs, b.Path())
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	layer, err := p.store.PutBlob(ctx, MediaTypeBundleLayer, archive)
	if err != nil {
		return nil, fmt.Errorf("storing layer blob: %w", err)
	}
	layer.Annotations = map[string]string{
		ocispec.AnnotationTitle: filepath.Base(b.Path()),
	}

	cfg := configFor(b)
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	cfgDesc, err := p.store.PutBlob(ctx, MediaTypeBundleConfig, cfgBytes)
	if err != nil {
		return nil, fmt.Errorf("storing config blob: %w", err)
	}

	manifestDigest, err := p.store.PutManifest(ctx, createManifest(cfgDesc, layer, cfg, opts))
	if err != nil {
		return nil, fmt.Errorf("storing manifest: %w", err)
	}

	return &PackageResult{
		ManifestDigest: manifestDigest,
		ConfigDigest:   cfgDesc.Digest,
		LayerDigest:    layer.Digest,
		Config:         cfg,
	}, nil
}

func configFor(b *bundle.Bundle) *BundleConfig {
	md := b.Metadata()
	files := b.Manifest().FileList()
	if files == nil {
		files = []string{}
	}
	return &BundleConfig{
		Name:        b.Name(),
		Author:      md.Get(meta.FieldAuthor),
		License:     md.Get(meta.FieldLicense),
		Description: md.Get(meta.FieldDescription),
		Website:     md.Get(meta.FieldWebsite),
		Created:     md.Get(meta.FieldCreated),
		Updated:     md.Get(meta.FieldUpdated),
		Tags:        md.Tags(),
		Files:       files,
	}
}

func createManifest(cfg, layer ocispec.Descriptor, bc *BundleConfig, opts PackageOptions) *ocispec.Manifest {
	annotations := map[string]string{
		ocispec.AnnotationCreated: opts.Epoch.Format(time.RFC3339),
		AnnotationBundleName:      bc.Name,
	}
	if bc.Author != "" {
		annotations[AnnotationBundleAuthor] = bc.Author
	}
	if bc.License != "" {
		annotations[AnnotationBundleLicense] = bc.License
	}
	if bc.Description != "" {
		annotations[ocispec.AnnotationDescription] = bc.Description
	}

	return &ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactTypeBundle,
		Config:       cfg,
		Layers:       []ocispec.Descriptor{layer},
		Annotations:  annotations,
	}
}
