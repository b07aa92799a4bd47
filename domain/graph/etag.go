package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FilterProperty is excluded from fingerprints because it changes on every write.
const FilterProperty = PropLastModTS

// canonical forms; encoding/json writes map keys sorted
type canonicalVertex struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

type canonicalEdge struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
}

// VertexHash fingerprints a vertex. Property order and the last-modified
// timestamp do not affect the result.
func VertexHash(v Vertex) string {
	return sha256Hex(canonicalVertex{
		ID:         v.id.String(),
		Type:       v.typ,
		Properties: hashable(v.props),
	})
}

// EdgeHash fingerprints an edge including the fingerprints of both endpoints.
func EdgeHash(e Edge) string {
	return sha256Hex(canonicalEdge{
		ID:         e.id.String(),
		Type:       e.typ,
		Properties: hashable(e.props),
		Source:     VertexHash(e.source),
		Target:     VertexHash(e.target),
	})
}

func hashable(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k != FilterProperty {
			out[k] = v
		}
	}
	return out
}

func sha256Hex(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", v))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
