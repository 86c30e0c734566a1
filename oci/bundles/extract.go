// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/opencontainers/go-digest"
)

var (
	// ErrNotBundle is returned when a manifest does not describe a bundle artifact.
	ErrNotBundle = errors.New("artifact is not a bundle")

	// ErrDestinationExists is returned when Extract would overwrite a file.
	ErrDestinationExists = errors.New("destination already exists")
)

// Extract writes the archive of the bundle artifact at manifestDigest to
// destPath on fs and returns the artifact's config. destPath must not exist.
func Extract(
	ctx context.Context, store *Store, manifestDigest digest.Digest, fs billy.Filesystem, destPath string,
) (*BundleConfig, error) {
	m, err := store.GetManifest(ctx, manifestDigest)
	if err != nil {
		return nil, err
	}
	if err := checkBundleManifest(m); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestDigest, err)
	}
	layer := m.Layers[0]

	var cfg BundleConfig
	cfgBytes, err := store.GetBlob(ctx, m.Config.Digest)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfgBytes, &cfg); err != nil {
		return nil, fmt.Errorf("parsing bundle config: %w", err)
	}

	data, err := store.GetBlob(ctx, layer.Digest)
	if err != nil {
		return nil, err
	}
	if actual := digest.FromBytes(data); actual != layer.Digest {
		return nil, fmt.Errorf("digest mismatch: expected %s, got %s", layer.Digest, actual)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeExclusive(fs, destPath, data); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func writeExclusive(fs billy.Filesystem, p string, data []byte) (err error) {
	f, err := fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, p)
		}
		return fmt.Errorf("creating %s: %w", p, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = fs.Remove(p)
		}
	}()
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}
