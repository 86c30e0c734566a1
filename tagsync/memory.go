// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package tagsync

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"sync"
)

// Compile-time interface check.
var _ Registry = (*MemoryRegistry)(nil)

// MemoryRegistry is an in-memory Registry whose resource IDs are paths and
// whose lookups match on the base file name.
// It is safe for concurrent use from multiple goroutines.
type MemoryRegistry struct {
	mu        sync.RWMutex
	resources []string
	tags      map[string][]string
}

// NewMemoryRegistry creates a registry tracking the given resource IDs.
func NewMemoryRegistry(resourceIDs ...string) *MemoryRegistry {
	r := &MemoryRegistry{tags: make(map[string][]string)}
	for _, id := range resourceIDs {
		r.AddResource(id)
	}
	return r
}

// AddResource starts tracking id.
func (r *MemoryRegistry) AddResource(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.resources, id) {
		r.resources = append(r.resources, id)
		sort.Strings(r.resources)
	}
}

// Lookup returns the first tracked ID, in sorted order, whose base name is filename.
func (r *MemoryRegistry) Lookup(filename string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.resources, filename)
}

// AssignTag adds tag to id.
func (r *MemoryRegistry) AssignTag(id, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.resources, id) {
		return fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	if !slices.Contains(r.tags[id], tag) {
		r.tags[id] = append(r.tags[id], tag)
	}
	return nil
}

// UnassignTag removes tag from id.
func (r *MemoryRegistry) UnassignTag(id, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.resources, id) {
		return fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	r.tags[id] = slices.DeleteFunc(r.tags[id], func(t string) bool { return t == tag })
	if len(r.tags[id]) == 0 {
		delete(r.tags, id)
	}
	return nil
}

// TagsFor returns the tags assigned to id in assignment order.
func (r *MemoryRegistry) TagsFor(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.tags[id])
}

// Assignments returns a snapshot of every resource's tags.
func (r *MemoryRegistry) Assignments() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string][]string, len(r.tags))
	for id, tags := range r.tags {
		snapshot[id] = slices.Clone(tags)
	}
	return snapshot
}

// lookup prefers an exact ID match, then the first ID whose base name matches.
func lookup(ids []string, filename string) (string, bool) {
	if slices.Contains(ids, filename) {
		return filename, true
	}
	for _, id := range ids {
		if path.Base(id) == filename {
			return id, true
		}
	}
	return "", false
}
