package schema

import "sync/atomic"

// Holder publishes the current Registry snapshot to readers.
type Holder struct {
	current atomic.Pointer[Registry]
}

// NewHolder creates a holder around an initial snapshot.
func NewHolder(r *Registry) *Holder {
	h := &Holder{}
	h.Store(r)
	return h
}

// Load returns the current snapshot.
func (h *Holder) Load() *Registry {
	return h.current.Load()
}

// Store replaces the current snapshot.
func (h *Holder) Store(r *Registry) {
	h.current.Store(r)
}

// Relationships reads from the current snapshot.
func (h *Holder) Relationships(version string) (*RelationshipSchema, error) {
	return h.Load().Relationships(version)
}

// Vertices reads from the current snapshot.
func (h *Holder) Vertices(version string) (*VertexTypeRegistry, error) {
	return h.Load().Vertices(version)
}
