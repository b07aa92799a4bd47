package graph

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onap/aai-gizmo-sub001/internal/testutil"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore/memstore"
)

func newEmbedded(t *testing.T) *EmbeddedDao {
	t.Helper()
	s := memstore.New()
	t.Cleanup(func() { _ = s.Close() })
	d := NewEmbeddedDao(s, testutil.NewTestLogger())
	d.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return d
}

func TestEmbeddedVertexRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := newEmbedded(t)

	v, err := d.AddVertex(ctx, "Test_Vertex", map[string]any{"p1": "a", "p2": int64(2), PropURI: "/x"}, "v11", "")
	require.NoError(t, err)
	assert.True(t, v.ID().IsInt())

	got, err := d.GetVertex(ctx, v.ID(), "Test_Vertex", "")
	require.NoError(t, err)
	assert.Equal(t, VertexHash(v), VertexHash(got))

	props := got.Properties()
	assert.Equal(t, "a", props["p1"])
	assert.Equal(t, int64(2), props["p2"])
	assert.Equal(t, "Test_Vertex", props[PropNodeType])
	assert.Equal(t, int64(1700000000000), props[PropLastModTS])
	assert.NotContains(t, props, PropURI)

	_, err = d.GetVertex(ctx, v.ID(), "pserver", "")
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err), "type mismatch reads as missing")

	updated, err := d.UpdateVertex(ctx, v.ID(), "Test_Vertex", map[string]any{"p1": "b"}, "v11", "")
	require.NoError(t, err)
	p1, _ := updated.Property("p1")
	assert.Equal(t, "b", p1)
	_, hasP2 := updated.Property("p2")
	assert.False(t, hasP2, "update replaces the property set")
}

func TestEmbeddedStringIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	d := newEmbedded(t)

	_, err := d.GetVertex(ctx, StringID("abc"), "", "")
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))

	_, err = d.GetEdge(ctx, StringID("abc"), "", "")
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))

	err = d.DeleteVertex(ctx, IntID(404), "pserver", "")
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}

func TestEmbeddedAddWithKey(t *testing.T) {
	ctx := context.Background()
	d := newEmbedded(t)

	v, err := d.AddVertex(ctx, "pserver", map[string]any{PropKey: "500", "hostname": "h1"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, IntID(500), v.ID())
	_, hasKey := v.Property(PropKey)
	assert.False(t, hasKey)

	_, err = d.AddVertex(ctx, "pserver", map[string]any{PropKey: int64(500)}, "", "")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = d.AddVertex(ctx, "pserver", map[string]any{PropKey: "not-a-number"}, "", "")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
}

func TestEmbeddedEdgeLifecycle(t *testing.T) {
	ctx := context.Background()
	d := newEmbedded(t)

	vs, err := d.AddVertex(ctx, "vserver", map[string]any{"vserver-id": "vs1"}, "", "")
	require.NoError(t, err)
	ps, err := d.AddVertex(ctx, "pserver", map[string]any{"hostname": "h1"}, "", "")
	require.NoError(t, err)

	e, err := d.AddEdge(ctx, "tosca.relationships.HostedOn", vs, ps, map[string]any{"contains-other-v": "NONE"}, "v11", "")
	require.NoError(t, err)
	assert.Equal(t, vs.ID(), e.Source().ID())
	assert.Equal(t, "pserver", e.Target().Type())

	edges, err := d.GetVertexEdges(ctx, ps.ID(), nil, "")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, e.ID(), edges[0].ID())

	filtered, err := d.GetVertexEdges(ctx, ps.ID(), map[string]string{PropNodeType: "other"}, "")
	require.NoError(t, err)
	assert.Empty(t, filtered)

	byType, err := d.GetEdges(ctx, "tosca.relationships.HostedOn", map[string]string{"contains-other-v": "NONE"}, "")
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	err = d.DeleteVertex(ctx, ps.ID(), "pserver", "")
	require.Error(t, err)
	appErr := apperror.As(err)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, 1, appErr.Details["edges"])

	upd, err := NewEdgeBuilder(e.Type()).ID(e.ID()).Source(vs).Target(ps).Property("contains-other-v", "IN").Build()
	require.NoError(t, err)
	after, err := d.UpdateEdge(ctx, upd, "")
	require.NoError(t, err)
	val, _ := after.Property("contains-other-v")
	assert.Equal(t, "IN", val)

	moved, _ := NewEdgeBuilder(e.Type()).ID(e.ID()).Source(ps).Target(ps).Build()
	_, err = d.UpdateEdge(ctx, moved, "")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	require.NoError(t, d.DeleteEdge(ctx, e.ID(), e.Type(), ""))
	require.NoError(t, d.DeleteVertex(ctx, ps.ID(), "pserver", ""))

	_, err = d.GetVertex(ctx, ps.ID(), "pserver", "")
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}

func TestEmbeddedEdgeEndpointChecks(t *testing.T) {
	ctx := context.Background()
	d := newEmbedded(t)
	vs, err := d.AddVertex(ctx, "vserver", nil, "", "")
	require.NoError(t, err)

	missing, _ := NewVertexBuilder("pserver").ID(IntID(999)).Build()
	_, err = d.AddEdge(ctx, "x", vs, missing, nil, "", "")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	wrongType, _ := NewVertexBuilder("pserver").ID(vs.ID()).Build()
	_, err = d.AddEdge(ctx, "x", wrongType, vs, nil, "", "")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	stringID, _ := NewVertexBuilder("vserver").ID(StringID("abc")).Build()
	_, err = d.AddEdge(ctx, "x", stringID, vs, nil, "", "")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
}

func TestEmbeddedGetVerticesSelectsProperties(t *testing.T) {
	ctx := context.Background()
	d := newEmbedded(t)
	_, err := d.AddVertex(ctx, "pserver", map[string]any{"hostname": "h1", "in-maint": true}, "", "")
	require.NoError(t, err)
	_, err = d.AddVertex(ctx, "pserver", map[string]any{"hostname": "h2", "in-maint": false}, "", "")
	require.NoError(t, err)

	got, err := d.GetVertices(ctx, "pserver", map[string]string{"in-maint": "true"}, []string{"hostname"}, "", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"hostname": "h1"}, got[0].Properties())
}

func TestEmbeddedTransactions(t *testing.T) {
	ctx := context.Background()
	d := newEmbedded(t)

	txID, err := d.OpenTransaction(ctx)
	require.NoError(t, err)
	exists, err := d.TransactionExists(ctx, txID)
	require.NoError(t, err)
	assert.True(t, exists)

	v, err := d.AddVertex(ctx, "pserver", nil, "", txID)
	require.NoError(t, err)
	_, err = d.GetVertex(ctx, v.ID(), "", "")
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))

	require.NoError(t, d.CommitTransaction(ctx, txID))
	_, err = d.GetVertex(ctx, v.ID(), "", "")
	assert.NoError(t, err)

	exists, _ = d.TransactionExists(ctx, txID)
	assert.False(t, exists)
	err = d.CommitTransaction(ctx, txID)
	assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(err))

	tx2, err := d.OpenTransaction(ctx)
	require.NoError(t, err)
	v2, err := d.AddVertex(ctx, "pserver", nil, "", tx2)
	require.NoError(t, err)
	require.NoError(t, d.RollbackTransaction(ctx, tx2))
	_, err = d.GetVertex(ctx, v2.ID(), "", "")
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}

func TestEmbeddedPing(t *testing.T) {
	s := memstore.New()
	d := NewEmbeddedDao(s, testutil.NewTestLogger())
	assert.NoError(t, d.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, d.Ping(context.Background()))

	_, err := d.OpenTransaction(context.Background())
	assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(err))
}
