// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"fmt"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Media and artifact types of bundle artifacts.
const (
	// ArtifactTypeBundle identifies bundle artifacts in manifests.
	ArtifactTypeBundle = "application/vnd.krita.bundle.v1"

	// MediaTypeBundleConfig is the media type of the BundleConfig blob.
	MediaTypeBundleConfig = "application/vnd.krita.bundle.config.v1+json"

	// MediaTypeBundleLayer is the media type of the archive layer.
	MediaTypeBundleLayer = "application/vnd.krita.bundle.layer.v1+zip"
)

// Manifest annotation keys.
const (
	AnnotationBundleName    = "org.krita.bundle.name"
	AnnotationBundleAuthor  = "org.krita.bundle.author"
	AnnotationBundleLicense = "org.krita.bundle.license"
)

// BundleConfig is the config blob of a bundle artifact.
type BundleConfig struct {
	Name        string   `json:"name"`
	Author      string   `json:"author,omitempty"`
	License     string   `json:"license,omitempty"`
	Description string   `json:"description,omitempty"`
	Website     string   `json:"website,omitempty"`
	Created     string   `json:"created,omitempty"`
	Updated     string   `json:"updated,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Files       []string `json:"files"`
}

// isManifestMediaType returns true if the media type is a manifest or index type.
func isManifestMediaType(mediaType string) bool {
	switch mediaType {
	case ocispec.MediaTypeImageManifest, ocispec.MediaTypeImageIndex,
		"application/vnd.docker.distribution.manifest.v2+json",
		"application/vnd.docker.distribution.manifest.list.v2+json":
		return true
	default:
		return false
	}
}

// checkBundleManifest returns ErrNotBundle unless m describes a bundle: the
// bundle artifact type, a bundle config blob and a single archive layer,
// each within its size limit.
func checkBundleManifest(m *ocispec.Manifest) error {
	switch {
	case m.ArtifactType != ArtifactTypeBundle:
		return fmt.Errorf("%w: artifact type %q", ErrNotBundle, m.ArtifactType)
	case m.Config.MediaType != MediaTypeBundleConfig:
		return fmt.Errorf("%w: config media type %q", ErrNotBundle, m.Config.MediaType)
	case m.Config.Size > MaxConfigSize:
		return fmt.Errorf("config size %d exceeds maximum allowed size %d", m.Config.Size, MaxConfigSize)
	case len(m.Layers) != 1:
		return fmt.Errorf("%w: %d layers, want 1", ErrNotBundle, len(m.Layers))
	case m.Layers[0].MediaType != MediaTypeBundleLayer:
		return fmt.Errorf("%w: layer media type %q", ErrNotBundle, m.Layers[0].MediaType)
	case m.Layers[0].Size > MaxBlobSize:
		return fmt.Errorf("layer size %d exceeds maximum allowed size %d", m.Layers[0].Size, MaxBlobSize)
	}
	return nil
}
