package validation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

const (
	hostedOn  = "tosca.relationships.HostedOn"
	locatedIn = "org.onap.relationships.inventory.LocatedIn"
)

func newEdgeValidator() *EdgeValidator {
	return NewEdgeValidator(schema.NewHolder(schema.TestRegistry()))
}

func TestResolveEdgeType(t *testing.T) {
	v := newEdgeValidator()

	got, err := v.ResolveEdgeType("vserver", "pserver", "v11")
	require.NoError(t, err)
	assert.Equal(t, hostedOn, got)

	_, err = v.ResolveEdgeType("vserver", "complex", "v11")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	assert.Contains(t, apperror.As(err).Message, "no valid relationship type")

	_, err = v.ResolveEdgeType("pserver", "complex", "v11")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	assert.Contains(t, apperror.As(err).Message, "ambiguous relationship type")

	_, err = v.ResolveEdgeType("vserver", "pserver", "v99")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
}

func TestParseVertexURI(t *testing.T) {
	v, err := ParseVertexURI("services/inventory/v11/pserver/123")
	require.NoError(t, err)
	assert.Equal(t, "pserver", v.Type())
	assert.Equal(t, graph.IntID(123), v.ID())

	v, err = ParseVertexURI("http://gizmo:9520/services/inventory/v11/vserver/abc?x=1")
	require.NoError(t, err)
	assert.Equal(t, "vserver", v.Type())
	assert.Equal(t, graph.StringID("abc"), v.ID())

	for _, bad := range []string{"", "pserver", "/", "a//"} {
		_, err := ParseVertexURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateEdgeAddPayload(t *testing.T) {
	v := newEdgeValidator()

	e, err := v.ValidateAddPayload("v11", EdgePayload{
		Source:     "services/inventory/v11/vserver/1",
		Target:     "services/inventory/v11/pserver/2",
		Properties: map[string]any{"contains-other-v": "NONE"},
	})
	require.NoError(t, err)
	assert.Equal(t, hostedOn, e.Type(), "type resolved from the endpoints")
	assert.Equal(t, graph.IntID(1), e.Source().ID())
	assert.Equal(t, "pserver", e.Target().Type())

	e, err = v.ValidateAddPayload("v11", EdgePayload{
		Type:       locatedIn,
		Source:     "services/inventory/v11/pserver/1",
		Target:     "services/inventory/v11/complex/2",
		Properties: map[string]any{"is-directional": "true", "contains-other-v": "OUT"},
	})
	require.NoError(t, err)
	dir, _ := e.Property("is-directional")
	assert.Equal(t, true, dir)

	tests := []struct {
		name    string
		payload EdgePayload
	}{
		{"property not in schema", EdgePayload{
			Source: "a/vserver/1", Target: "a/pserver/2",
			Properties: map[string]any{"is-directional": "true"},
		}},
		{"unknown triple", EdgePayload{
			Type: "bogus", Source: "a/vserver/1", Target: "a/pserver/2",
		}},
		{"coercion failure", EdgePayload{
			Type: locatedIn, Source: "a/pserver/1", Target: "a/complex/2",
			Properties: map[string]any{"is-directional": "maybe"},
		}},
		{"ambiguous without type", EdgePayload{Source: "a/pserver/1", Target: "a/complex/2"}},
		{"missing target", EdgePayload{Source: "a/pserver/1"}},
		{"bad uri", EdgePayload{Source: "pserver", Target: "a/complex/2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateAddPayload("v11", tt.payload)
			assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
		})
	}
}

func existingEdge(t *testing.T) graph.Edge {
	t.Helper()
	src, _ := graph.NewVertexBuilder("pserver").ID(graph.IntID(1)).Build()
	tgt, _ := graph.NewVertexBuilder("complex").ID(graph.IntID(2)).Build()
	e, err := graph.NewEdgeBuilder(locatedIn).ID(graph.IntID(10)).Source(src).Target(tgt).
		Property("contains-other-v", "NONE").
		Property("is-directional", true).
		Property(graph.PropNodeType, locatedIn).
		Property(graph.PropLastModTS, int64(1)).
		Build()
	require.NoError(t, err)
	return e
}

func TestValidateEdgeUpdatePayload(t *testing.T) {
	v := newEdgeValidator()
	existing := existingEdge(t)

	e, err := v.ValidateUpdatePayload(existing, "v11", EdgePayload{
		Source:     "services/inventory/v11/pserver/1",
		Properties: map[string]any{"contains-other-v": "IN"},
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID(), e.ID())
	assert.Equal(t, map[string]any{"contains-other-v": "IN"}, e.Properties(), "update replaces every property")

	_, err = v.ValidateUpdatePayload(existing, "v11", EdgePayload{Source: "x/pserver/99"})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = v.ValidateUpdatePayload(existing, "v11", EdgePayload{Target: "x/complex/99"})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = v.ValidateUpdatePayload(existing, "v11", EdgePayload{Type: "org.onap.relationships.inventory.BelongsTo"})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
}

func TestValidateEdgePatchPayload(t *testing.T) {
	v := newEdgeValidator()
	existing := existingEdge(t)

	e, err := v.ValidatePatchPayload(existing, "v11", EdgePayload{
		Properties: map[string]any{"contains-other-v": nil, "is-directional": "false"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"is-directional": false}, e.Properties())

	_, err = v.ValidatePatchPayload(existing, "v11", EdgePayload{
		Properties: map[string]any{"weight": int64(1)},
	})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
}

func TestValidateEdgeOutgoing(t *testing.T) {
	v := newEdgeValidator()
	existing := existingEdge(t)

	out, err := v.ValidateOutgoing("v11", existing)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"contains-other-v": "NONE", "is-directional": true}, out.Properties())

	src, _ := graph.NewVertexBuilder("vserver").ID(graph.IntID(1)).Build()
	tgt, _ := graph.NewVertexBuilder("complex").ID(graph.IntID(2)).Build()
	unknown, _ := graph.NewEdgeBuilder("x").Source(src).Target(tgt).Build()
	_, err = v.ValidateOutgoing("v11", unknown)
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}
