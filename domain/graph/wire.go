package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// WireObject is the JSON form of a vertex on the peer API.
type WireObject struct {
	Key        string         `json:"key,omitempty"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// WireRelationship is the JSON form of an edge on the peer API.
type WireRelationship struct {
	Key        string         `json:"key,omitempty"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Source     WireObject     `json:"source"`
	Target     WireObject     `json:"target"`
}

// WireTransaction is returned when a transaction is opened.
type WireTransaction struct {
	TransactionID string `json:"transactionId"`
}

func ToWireObject(v Vertex) WireObject {
	return WireObject{Key: v.id.String(), Type: v.typ, Properties: v.Properties()}
}

func (w WireObject) Vertex() (Vertex, error) {
	return NewVertexBuilder(w.Type).ID(ParseID(w.Key)).Properties(w.Properties).Build()
}

func ToWireRelationship(e Edge) WireRelationship {
	return WireRelationship{
		Key:        e.id.String(),
		Type:       e.typ,
		Properties: e.Properties(),
		Source:     ToWireObject(e.source),
		Target:     ToWireObject(e.target),
	}
}

func (w WireRelationship) Edge() (Edge, error) {
	src, err := w.Source.Vertex()
	if err != nil {
		return Edge{}, fmt.Errorf("source: %w", err)
	}
	tgt, err := w.Target.Vertex()
	if err != nil {
		return Edge{}, fmt.Errorf("target: %w", err)
	}
	return NewEdgeBuilder(w.Type).
		ID(ParseID(w.Key)).
		Properties(w.Properties).
		Source(src).
		Target(tgt).
		Build()
}

// DecodeJSON decodes r into v keeping integers exact: numbers without a
// fraction become int64, the rest float64.
func DecodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	normalizeInto(v)
	return nil
}

func normalizeInto(v any) {
	switch t := v.(type) {
	case *map[string]any:
		NormalizeNumbers(*t)
	case *WireObject:
		NormalizeNumbers(t.Properties)
	case *WireRelationship:
		normalizeRel(t)
	case *[]WireObject:
		for i := range *t {
			NormalizeNumbers((*t)[i].Properties)
		}
	case *[]WireRelationship:
		for i := range *t {
			normalizeRel(&(*t)[i])
		}
	case interface{ normalize() }:
		t.normalize()
	}
}

func normalizeRel(r *WireRelationship) {
	NormalizeNumbers(r.Properties)
	NormalizeNumbers(r.Source.Properties)
	NormalizeNumbers(r.Target.Properties)
}

// NormalizeNumbers replaces json.Number values in m, recursively.
func NormalizeNumbers(m map[string]any) {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		NormalizeNumbers(t)
		return t
	case []any:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	}
	return v
}
