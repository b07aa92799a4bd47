package graph

import (
	"errors"
	"fmt"
)

// Reserved property names.
const (
	// PropNodeType carries the external type label on every stored object
	// and relationship.
	PropNodeType = "aai-node-type"
	// PropLastModTS is the last-modified time in epoch milliseconds.
	PropLastModTS = "aai-last-mod-ts"
	// PropKey requests a specific backend key on create.
	PropKey = "aai-key"
	// PropURI is never stored; rendering adds it.
	PropURI = "aai-uri"
)

// IsReserved reports whether name is one of the reserved property names.
func IsReserved(name string) bool {
	switch name {
	case PropNodeType, PropLastModTS, PropKey, PropURI:
		return true
	}
	return false
}

var ErrIDAlreadySet = errors.New("id is already set")

// Vertex is an immutable typed node. Accessors return copies.
type Vertex struct {
	id    ID
	typ   string
	props map[string]any
}

func (v Vertex) ID() ID       { return v.id }
func (v Vertex) Type() string { return v.typ }

// Properties returns a copy of the property map.
func (v Vertex) Properties() map[string]any { return copyMap(v.props) }

// Property returns one property value.
func (v Vertex) Property(name string) (any, bool) {
	val, ok := v.props[name]
	return val, ok
}

// WithID returns a copy carrying id. An id can be assigned only once.
func (v Vertex) WithID(id ID) (Vertex, error) {
	if !v.id.IsZero() {
		return Vertex{}, ErrIDAlreadySet
	}
	v.id = id
	v.props = copyMap(v.props)
	return v, nil
}

// IsZero reports whether v was never built.
func (v Vertex) IsZero() bool { return v.typ == "" && v.id.IsZero() }

// VertexBuilder assembles a Vertex.
type VertexBuilder struct {
	v Vertex
}

// NewVertexBuilder starts a vertex of the given type.
func NewVertexBuilder(typ string) *VertexBuilder {
	return &VertexBuilder{v: Vertex{typ: typ, props: make(map[string]any)}}
}

func (b *VertexBuilder) ID(id ID) *VertexBuilder {
	b.v.id = id
	return b
}

func (b *VertexBuilder) Property(name string, value any) *VertexBuilder {
	b.v.props[name] = value
	return b
}

// Properties merges props into the vertex.
func (b *VertexBuilder) Properties(props map[string]any) *VertexBuilder {
	for k, val := range props {
		b.v.props[k] = val
	}
	return b
}

// Build returns the vertex. The type is mandatory.
func (b *VertexBuilder) Build() (Vertex, error) {
	if b.v.typ == "" {
		return Vertex{}, errors.New("vertex type is required")
	}
	out := b.v
	out.props = copyMap(b.v.props)
	return out, nil
}

// Edge is an immutable typed relationship between two vertices.
type Edge struct {
	id     ID
	typ    string
	props  map[string]any
	source Vertex
	target Vertex
}

func (e Edge) ID() ID         { return e.id }
func (e Edge) Type() string   { return e.typ }
func (e Edge) Source() Vertex { return e.source }
func (e Edge) Target() Vertex { return e.target }

// Properties returns a copy of the property map.
func (e Edge) Properties() map[string]any { return copyMap(e.props) }

// Property returns one property value.
func (e Edge) Property(name string) (any, bool) {
	val, ok := e.props[name]
	return val, ok
}

// WithID returns a copy carrying id. An id can be assigned only once.
func (e Edge) WithID(id ID) (Edge, error) {
	if !e.id.IsZero() {
		return Edge{}, ErrIDAlreadySet
	}
	e.id = id
	e.props = copyMap(e.props)
	return e, nil
}

// Validate checks the endpoint invariants. Persisted edges must also have
// endpoint ids.
func (e Edge) Validate(persisted bool) error {
	if e.typ == "" {
		return errors.New("edge type is required")
	}
	if e.source.typ == "" || e.target.typ == "" {
		return errors.New("edge source and target must have a type")
	}
	if persisted && (e.source.id.IsZero() || e.target.id.IsZero()) {
		return fmt.Errorf("edge %s: source and target must have an id", e.id)
	}
	return nil
}

// EdgeBuilder assembles an Edge.
type EdgeBuilder struct {
	e Edge
}

// NewEdgeBuilder starts an edge of the given type.
func NewEdgeBuilder(typ string) *EdgeBuilder {
	return &EdgeBuilder{e: Edge{typ: typ, props: make(map[string]any)}}
}

func (b *EdgeBuilder) ID(id ID) *EdgeBuilder {
	b.e.id = id
	return b
}

func (b *EdgeBuilder) Property(name string, value any) *EdgeBuilder {
	b.e.props[name] = value
	return b
}

// Properties merges props into the edge.
func (b *EdgeBuilder) Properties(props map[string]any) *EdgeBuilder {
	for k, val := range props {
		b.e.props[k] = val
	}
	return b
}

func (b *EdgeBuilder) Source(v Vertex) *EdgeBuilder {
	b.e.source = v
	return b
}

func (b *EdgeBuilder) Target(v Vertex) *EdgeBuilder {
	b.e.target = v
	return b
}

// Build returns the edge. The type and both endpoint types are mandatory.
func (b *EdgeBuilder) Build() (Edge, error) {
	out := b.e
	out.props = copyMap(b.e.props)
	if err := out.Validate(false); err != nil {
		return Edge{}, err
	}
	return out, nil
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
