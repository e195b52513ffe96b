package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// Registry holds every mounted Backend, indexed by its configured label,
// which is how placement rules select a backend. Lookup by stable UUID
// (ByID) asks each backend for its StorageID() on every call rather than
// keeping a second index (spec §4.B, §4.D).
type Registry struct {
	byLabel map[string]Backend
}

// NewRegistry builds a Registry from the given backends, keyed by their
// Label(). A duplicate label is a configuration error.
func NewRegistry(backends ...Backend) (*Registry, error) {
	r := &Registry{byLabel: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		label := b.Label()
		if label == "" {
			return nil, fmt.Errorf("storage: backend has empty label")
		}
		if _, exists := r.byLabel[label]; exists {
			return nil, fmt.Errorf("storage: duplicate backend label %q", label)
		}
		r.byLabel[label] = b
	}
	return r, nil
}

// ByLabel returns the backend mounted under label, if any.
func (r *Registry) ByLabel(label string) (Backend, bool) {
	b, ok := r.byLabel[label]
	return b, ok
}

// ByID resolves a backend by its current storage_id. Backends whose
// StorageID() call fails (e.g. sentinel lock contention) are skipped
// rather than treated as a hard error, since the caller usually has
// other backends to try.
func (r *Registry) ByID(id uuid.UUID) (Backend, bool) {
	for _, b := range r.byLabel {
		bid, err := b.StorageID()
		if err != nil {
			continue
		}
		if bid == id {
			return b, true
		}
	}
	return nil, false
}

// All returns every mounted backend, in no particular order.
func (r *Registry) All() []Backend {
	out := make([]Backend, 0, len(r.byLabel))
	for _, b := range r.byLabel {
		out = append(out, b)
	}
	return out
}

// Available returns every mounted backend currently reporting
// IsAvailable() == true.
func (r *Registry) Available() []Backend {
	out := make([]Backend, 0, len(r.byLabel))
	for _, b := range r.byLabel {
		if b.IsAvailable() {
			out = append(out, b)
		}
	}
	return out
}
