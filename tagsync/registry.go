// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package tagsync

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=registry.go -destination=mocks/mock_registry.go -package=mocks Registry,Flusher

import (
	"errors"

	"github.com/KDE/krita-sub040/resource"
)

// ErrUnknownResource is returned when tagging a resource the registry does not track.
var ErrUnknownResource = errors.New("unknown resource")

// Registry tracks the tag assignments of one resource category.
type Registry interface {
	// Lookup resolves a resource file name to the registry's resource ID.
	Lookup(filename string) (resourceID string, found bool)

	// AssignTag adds tag to the resource. Assigning a tag twice has no further effect.
	AssignTag(resourceID, tag string) error

	// UnassignTag removes tag from the resource.
	UnassignTag(resourceID, tag string) error
}

// Flusher is implemented by registries that buffer assignments.
type Flusher interface {
	Flush() error
}

// Registries selects the registry of each category.
type Registries map[resource.Category]Registry
