// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"
)

// Store is local artifact storage backed by an OCI image layout.
type Store struct {
	root  string
	inner *oci.Store
}

// NewStore opens the image layout at root, creating it if needed.
func NewStore(root string) (*Store, error) {
	inner, err := oci.New(root)
	if err != nil {
		return nil, fmt.Errorf("creating OCI store at %s: %w", root, err)
	}
	return &Store{root: root, inner: inner}, nil
}

// StoreRoot returns the store root within the given data home directory.
func StoreRoot(dataHome string) string {
	return filepath.Join(dataHome, "krita", "oci")
}

// DefaultStoreRoot returns StoreRoot of the XDG data home.
func DefaultStoreRoot() string {
	return StoreRoot(xdg.DataHome)
}

// PutBlob stores a blob of the given media type and returns its descriptor.
// Storing a blob that already exists is not an error.
func (s *Store) PutBlob(ctx context.Context, mediaType string, content []byte) (ocispec.Descriptor, error) {
	desc := ocispec.Descriptor{
		MediaType: mediaType,
		Digest:    digest.FromBytes(content),
		Size:      int64(len(content)),
	}
	if err := s.push(ctx, desc, content); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("writing blob: %w", err)
	}
	return desc, nil
}

// GetBlob retrieves a blob by digest.
func (s *Store) GetBlob(ctx context.Context, d digest.Digest) ([]byte, error) {
	data, err := s.fetchContent(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("blob not found: %s: %w", d, err)
	}
	return data, nil
}

// PutManifest stores an image manifest and returns its digest.
func (s *Store) PutManifest(ctx context.Context, m *ocispec.Manifest) (digest.Digest, error) {
	content, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	desc := ocispec.Descriptor{
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: m.ArtifactType,
		Digest:       digest.FromBytes(content),
		Size:         int64(len(content)),
	}
	if err := s.push(ctx, desc, content); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return desc.Digest, nil
}

// GetManifest retrieves and parses an image manifest by digest.
func (s *Store) GetManifest(ctx context.Context, d digest.Digest) (*ocispec.Manifest, error) {
	data, err := s.fetchContent(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("manifest not found: %s: %w", d, err)
	}
	var m ocispec.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", d, err)
	}
	if m.MediaType != "" && m.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%s is a %s, not an image manifest", d, m.MediaType)
	}
	return &m, nil
}

// Tag associates a tag with a manifest digest.
func (s *Store) Tag(ctx context.Context, d digest.Digest, tag string) error {
	// Manifests are indexed by digest on push, so the full descriptor resolves.
	desc, err := s.inner.Resolve(ctx, d.String())
	if err != nil {
		return fmt.Errorf("resolving digest for tag: %w", err)
	}
	if err := s.inner.Tag(ctx, desc, tag); err != nil {
		return fmt.Errorf("tagging: %w", err)
	}
	return nil
}

// Resolve resolves a tag or digest string to a manifest digest.
func (s *Store) Resolve(ctx context.Context, ref string) (digest.Digest, error) {
	desc, err := s.inner.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("tag not found: %s: %w", ref, err)
	}
	return desc.Digest, nil
}

// ListTags returns all tags in the store.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := s.inner.Tags(ctx, "", func(t []string) error {
		tags = append(tags, t...)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Target returns the underlying oras.Target for registry operations.
func (s *Store) Target() oras.Target {
	return s.inner
}

func (s *Store) push(ctx context.Context, desc ocispec.Descriptor, content []byte) error {
	err := s.inner.Push(ctx, desc, bytes.NewReader(content))
	if err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
		return err
	}
	return nil
}

func (s *Store) fetchContent(ctx context.Context, d digest.Digest) ([]byte, error) {
	// oci.Store locates blobs by digest alone.
	rc, err := s.inner.Fetch(ctx, ocispec.Descriptor{Digest: d})
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
