// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package batch

// Registry resolves logical point identifiers to small dense indexes so
// the arena never builds or parses string keys in the hot path. A point is
// registered the first time it is seen; indexes are stable for the life of
// the registry and identifiers come back out in registration order.
//
// Not safe for concurrent writers; a batch and its registry live inside a
// single pipeline stage.
type Registry struct {
	byID []string
	idx  map[string]int
}

// NewRegistry returns an empty point registry.
func NewRegistry() *Registry {
	return &Registry{idx: make(map[string]int)}
}

// Resolve returns the index for pointID, registering it if new.
func (r *Registry) Resolve(pointID string) int {
	if i, ok := r.idx[pointID]; ok {
		return i
	}
	i := len(r.byID)
	r.byID = append(r.byID, pointID)
	r.idx[pointID] = i
	return i
}

// Lookup returns the index for pointID without registering, and whether
// the point is known.
func (r *Registry) Lookup(pointID string) (int, bool) {
	i, ok := r.idx[pointID]
	return i, ok
}

// ID returns the identifier registered at index i.
func (r *Registry) ID(i int) string { return r.byID[i] }

// Len returns the number of registered points.
func (r *Registry) Len() int { return len(r.byID) }

// IDs returns all identifiers in registration order. The slice is a copy.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.byID))
	copy(out, r.byID)
	return out
}
