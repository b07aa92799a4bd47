package graph

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

func mustVertex(t *testing.T, typ string, id ID, props map[string]any) Vertex {
	t.Helper()
	v, err := NewVertexBuilder(typ).ID(id).Properties(props).Build()
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestVertexHashIgnoresOrderAndTimestamp(t *testing.T) {
	a := mustVertex(t, "pserver", IntID(1), map[string]any{"a": "1", "b": int64(2), PropLastModTS: int64(100)})

	b, _ := NewVertexBuilder("pserver").ID(IntID(1)).
		Property(PropLastModTS, int64(999)).
		Property("b", int64(2)).
		Property("a", "1").
		Build()

	assert.Equal(t, VertexHash(a), VertexHash(b))
	assert.Len(t, VertexHash(a), 64)
}

func TestVertexHashChangesWithContent(t *testing.T) {
	base := mustVertex(t, "pserver", IntID(1), map[string]any{"a": "1"})
	tests := []struct {
		name string
		v    Vertex
	}{
		{"property value", mustVertex(t, "pserver", IntID(1), map[string]any{"a": "2"})},
		{"extra property", mustVertex(t, "pserver", IntID(1), map[string]any{"a": "1", "b": "x"})},
		{"id", mustVertex(t, "pserver", IntID(2), map[string]any{"a": "1"})},
		{"type", mustVertex(t, "vserver", IntID(1), map[string]any{"a": "1"})},
		{"value type", mustVertex(t, "pserver", IntID(1), map[string]any{"a": int64(1)})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, VertexHash(base), VertexHash(tt.v))
		})
	}
}

func TestEdgeHashDependsOnEndpoints(t *testing.T) {
	src := mustVertex(t, "vserver", IntID(1), map[string]any{"vserver-id": "vs1"})
	tgt := mustVertex(t, "pserver", IntID(2), map[string]any{"hostname": "h1"})
	edge := func(s, d Vertex, props map[string]any) Edge {
		e, err := NewEdgeBuilder("hosted").ID(IntID(3)).Source(s).Target(d).Properties(props).Build()
		if err != nil {
			t.Fatal(err)
		}
		return e
	}

	base := edge(src, tgt, map[string]any{"x": "1"})
	assert.Equal(t, EdgeHash(base), EdgeHash(edge(src, tgt, map[string]any{"x": "1", PropLastModTS: int64(5)})))

	changedTgt := mustVertex(t, "pserver", IntID(2), map[string]any{"hostname": "h2"})
	assert.NotEqual(t, EdgeHash(base), EdgeHash(edge(src, changedTgt, map[string]any{"x": "1"})))

	changedSrc := mustVertex(t, "vserver", IntID(1), map[string]any{"vserver-id": "vs2"})
	assert.NotEqual(t, EdgeHash(base), EdgeHash(edge(changedSrc, tgt, map[string]any{"x": "1"})))

	assert.NotEqual(t, EdgeHash(base), EdgeHash(edge(src, tgt, map[string]any{"x": "2"})))

	srcTS := mustVertex(t, "vserver", IntID(1), map[string]any{"vserver-id": "vs1", PropLastModTS: int64(7)})
	assert.Equal(t, EdgeHash(base), EdgeHash(edge(srcTS, tgt, map[string]any{"x": "1"})),
		"endpoint timestamps are ignored too")
}
