// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// MaxManifestSize is the maximum size of a bundle manifest (1MB).
const MaxManifestSize int64 = 1 * 1024 * 1024

// MaxConfigSize is the maximum size of a bundle config blob (1MB). The config
// lists every file of the bundle.
const MaxConfigSize int64 = 1 * 1024 * 1024

// MaxBlobSize is the maximum size of a bundle archive layer (512MB). Bundles
// carry brush and pattern images, so the limit is generous.
const MaxBlobSize int64 = 512 * 1024 * 1024

var (
	_ RegistryClient = (*Registry)(nil)
	_ oras.Target    = (*validatingTarget)(nil)
)

// Registry pushes and pulls bundle artifacts to and from OCI registries.
type Registry struct {
	credStore credentials.Store
	plainHTTP bool

	// newTarget creates an oras.Target for the given reference. Tests
	// replace it to inject an in-memory store.
	newTarget func(ref registry.Reference) (oras.Target, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPlainHTTP configures whether the registry client uses plain HTTP (insecure) connections.
func WithPlainHTTP(enabled bool) RegistryOption {
	return func(r *Registry) {
		r.plainHTTP = enabled
	}
}

// WithCredentialStore sets a custom credential store for registry authentication.
// If not provided, the default Docker credential store is used.
func WithCredentialStore(store credentials.Store) RegistryOption {
	return func(r *Registry) {
		r.credStore = store
	}
}

// NewRegistry creates a new registry client with the given options.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}

	if r.credStore == nil {
		credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
		if err != nil {
			return nil, fmt.Errorf("creating credential store: %w", err)
		}
		r.credStore = credStore
	}
	if r.newTarget == nil {
		r.newTarget = r.defaultNewTarget
	}
	return r, nil
}

// Push copies the bundle artifact at manifestDigest from the local store to
// ref. Artifacts that are not bundles are refused with ErrNotBundle.
func (r *Registry) Push(ctx context.Context, store *Store, manifestDigest digest.Digest, ref string) error {
	parsedRef, err := parseReference(ref)
	if err != nil {
		return err
	}

	m, err := store.GetManifest(ctx, manifestDigest)
	if err != nil {
		return fmt.Errorf("reading artifact manifest: %w", err)
	}
	if err := checkBundleManifest(m); err != nil {
		return fmt.Errorf("refusing to push %s: %w", manifestDigest, err)
	}
	desc, err := store.Target().Resolve(ctx, manifestDigest.String())
	if err != nil {
		return fmt.Errorf("resolving artifact descriptor: %w", err)
	}

	target, err := r.newTarget(parsedRef)
	if err != nil {
		return fmt.Errorf("getting repository: %w", err)
	}

	if err := oras.CopyGraph(ctx, store.Target(), target, desc, oras.DefaultCopyGraphOptions); err != nil {
		return fmt.Errorf("pushing to registry: %w", err)
	}
	if err := target.Tag(ctx, desc, parsedRef.Reference); err != nil {
		return fmt.Errorf("tagging remote: %w", err)
	}
	return nil
}

// Pull copies the bundle artifact at ref into the local store, tags it
// locally with ref and returns its manifest digest.
//
// The remote manifest is checked before any blob is copied, so a reference
// to something other than a bundle leaves the local store untouched.
func (r *Registry) Pull(ctx context.Context, store *Store, ref string) (digest.Digest, error) {
	parsedRef, err := parseReference(ref)
	if err != nil {
		return "", err
	}

	target, err := r.newTarget(parsedRef)
	if err != nil {
		return "", fmt.Errorf("getting repository: %w", err)
	}

	desc, data, err := oras.FetchBytes(ctx, target, parsedRef.Reference, oras.FetchBytesOptions{MaxBytes: MaxManifestSize})
	if err != nil {
		return "", fmt.Errorf("fetching manifest: %w", err)
	}
	if err := checkBundleManifestBytes(desc.MediaType, data); err != nil {
		return "", fmt.Errorf("%s: %w", ref, err)
	}

	// Copy the resolved descriptor rather than the tag, which may have moved.
	if err := oras.CopyGraph(ctx, target, newValidatingTarget(store.Target()), desc, oras.DefaultCopyGraphOptions); err != nil {
		return "", fmt.Errorf("pulling from registry: %w", err)
	}

	if err := store.Tag(ctx, desc.Digest, ref); err != nil {
		return "", fmt.Errorf("tagging locally: %w", err)
	}
	return desc.Digest, nil
}

// validatingTarget accepts only the parts of a bundle artifact: its
// manifest, config blob and archive layer. Each is size-limited by media
// type and digest-verified, and manifests must describe a bundle.
type validatingTarget struct {
	inner oras.Target
}

func newValidatingTarget(inner oras.Target) *validatingTarget {
	return &validatingTarget{inner: inner}
}

// Fetch delegates to the inner target.
func (v *validatingTarget) Fetch(ctx context.Context, target ocispec.Descriptor) (io.ReadCloser, error) {
	return v.inner.Fetch(ctx, target)
}

// Exists delegates to the inner target.
func (v *validatingTarget) Exists(ctx context.Context, target ocispec.Descriptor) (bool, error) {
	return v.inner.Exists(ctx, target)
}

// Resolve delegates to the inner target.
func (v *validatingTarget) Resolve(ctx context.Context, reference string) (ocispec.Descriptor, error) {
	return v.inner.Resolve(ctx, reference)
}

// Tag delegates to the inner target.
func (v *validatingTarget) Tag(ctx context.Context, desc ocispec.Descriptor, reference string) error {
	return v.inner.Tag(ctx, desc, reference)
}

// Push checks the descriptor and content before delegating to the inner target.
func (v *validatingTarget) Push(ctx context.Context, desc ocispec.Descriptor, content io.Reader) error {
	maxSize, err := maxSizeFor(desc.MediaType)
	if err != nil {
		return err
	}
	if desc.Size < 0 {
		return fmt.Errorf("invalid negative content size %d", desc.Size)
	}
	if desc.Size > maxSize {
		return fmt.Errorf(
			"content size %d exceeds maximum allowed size %d for media type %q",
			desc.Size, maxSize, desc.MediaType,
		)
	}

	// The descriptor size may lie.
	data, err := io.ReadAll(io.LimitReader(content, maxSize+1))
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > maxSize {
		return fmt.Errorf(
			"actual content size exceeds maximum allowed size %d for media type %q",
			maxSize, desc.MediaType,
		)
	}
	if actual := digest.FromBytes(data); actual != desc.Digest {
		return fmt.Errorf("digest mismatch: expected %s, got %s", desc.Digest, actual)
	}

	if desc.MediaType == ocispec.MediaTypeImageManifest {
		if err := checkBundleManifestBytes(desc.MediaType, data); err != nil {
			return err
		}
	}
	return v.inner.Push(ctx, desc, bytes.NewReader(data))
}

// maxSizeFor returns the size limit of a bundle artifact part.
func maxSizeFor(mediaType string) (int64, error) {
	switch mediaType {
	case ocispec.MediaTypeImageManifest:
		return MaxManifestSize, nil
	case MediaTypeBundleConfig:
		return MaxConfigSize, nil
	case MediaTypeBundleLayer:
		return MaxBlobSize, nil
	default:
		return 0, fmt.Errorf("%w: unexpected content of media type %q", ErrNotBundle, mediaType)
	}
}

// checkBundleManifestBytes decodes a manifest and checks it with checkBundleManifest.
func checkBundleManifestBytes(mediaType string, data []byte) error {
	if mediaType != ocispec.MediaTypeImageManifest {
		return fmt.Errorf("%w: media type %q is not an image manifest", ErrNotBundle, mediaType)
	}
	var m ocispec.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}
	return checkBundleManifest(&m)
}

// parseReference parses an OCI reference and requires a tag or digest.
func parseReference(ref string) (registry.Reference, error) {
	parsedRef, err := registry.ParseReference(ref)
	if err != nil {
		return registry.Reference{}, fmt.Errorf("parsing reference %q: %w", ref, err)
	}
	if parsedRef.Reference == "" {
		return registry.Reference{}, fmt.Errorf("reference %q must include a tag or digest", ref)
	}
	return parsedRef, nil
}

// defaultNewTarget connects to the remote repository of ref, authenticating
// with the configured credential store.
func (r *Registry) defaultNewTarget(ref registry.Reference) (oras.Target, error) {
	repoPath := ref.Registry + "/" + ref.Repository

	repo, err := remote.NewRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("creating repository for %q: %w", repoPath, err)
	}
	repo.Client = &auth.Client{
		Credential: credentials.Credential(r.credStore),
	}
	repo.PlainHTTP = r.plainHTTP
	return repo, nil
}
