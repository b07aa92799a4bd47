package events

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/internal/testutil"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore/memstore"
)

func newResponder(t *testing.T) (*Responder, graph.Dao, *MemoryBus) {
	t.Helper()
	log := testutil.NewTestLogger()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })
	dao := graph.NewEmbeddedDao(store, log)
	bus := NewMemoryBus(log)
	t.Cleanup(func() { _ = bus.Close() })
	return NewResponder(bus, dao, "req", "resp", "responder", log), dao, bus
}

func request(t *testing.T, op Operation, en *Entity, edge bool) Envelope {
	t.Helper()
	b := NewBuilder(op)
	if edge {
		b.Edge(en)
	} else {
		b.Vertex(en)
	}
	ev, err := b.Build()
	require.NoError(t, err)
	return NewEnvelope(ev, "gateway")
}

func TestResponderVertexLifecycle(t *testing.T) {
	ctx := context.Background()
	r, dao, _ := newResponder(t)

	create := request(t, OperationCreate, &Entity{
		SchemaVersion: "v11",
		Type:          "pserver",
		Properties:    map[string]any{"hostname": "h1"},
	}, false)
	resp := r.Apply(ctx, create)
	require.Equal(t, ResultSuccess, resp.Body.Result, resp.Body.ErrorMessage)
	assert.Equal(t, create.Header.RequestID, resp.Header.RequestID)
	assert.Equal(t, "responder", resp.Header.SourceName)

	v, err := resp.Body.Vertex.Vertex()
	require.NoError(t, err)
	assert.True(t, v.ID().IsInt())
	stored, err := dao.GetVertex(ctx, v.ID(), "pserver", "")
	require.NoError(t, err)
	assert.Equal(t, "h1", stored.Properties()["hostname"])

	update := request(t, OperationUpdate, &Entity{
		Key:           v.ID().String(),
		SchemaVersion: "v11",
		Type:          "pserver",
		Properties:    map[string]any{"hostname": "h2"},
	}, false)
	resp = r.Apply(ctx, update)
	require.Equal(t, ResultSuccess, resp.Body.Result, resp.Body.ErrorMessage)
	assert.Equal(t, "h2", resp.Body.Vertex.Properties["hostname"])

	del := request(t, OperationDelete, &Entity{Key: v.ID().String(), Type: "pserver"}, false)
	resp = r.Apply(ctx, del)
	require.Equal(t, ResultSuccess, resp.Body.Result, resp.Body.ErrorMessage)

	resp = r.Apply(ctx, del)
	assert.Equal(t, ResultFailure, resp.Body.Result)
	assert.Equal(t, http.StatusNotFound, resp.Body.HTTPErrorStatus)
	assert.NotEmpty(t, resp.Body.ErrorMessage)
}

func TestResponderEdgeCreate(t *testing.T) {
	ctx := context.Background()
	r, dao, _ := newResponder(t)
	vs, err := dao.AddVertex(ctx, "vserver", map[string]any{"vserver-id": "vs1"}, "v11", "")
	require.NoError(t, err)
	ps, err := dao.AddVertex(ctx, "pserver", map[string]any{"hostname": "h1"}, "v11", "")
	require.NoError(t, err)

	en := &Entity{
		SchemaVersion: "v11",
		Type:          "tosca.relationships.HostedOn",
		Properties:    map[string]any{"prevent-delete": "NONE"},
		Source:        &Entity{Key: vs.ID().String(), Type: "vserver"},
		Target:        &Entity{Key: ps.ID().String(), Type: "pserver"},
	}
	resp := r.Apply(ctx, request(t, OperationCreate, en, true))
	require.Equal(t, ResultSuccess, resp.Body.Result, resp.Body.ErrorMessage)
	e, err := resp.Body.Edge.Edge()
	require.NoError(t, err)
	assert.Equal(t, vs.ID(), e.Source().ID())

	edges, err := dao.GetVertexEdges(ctx, ps.ID(), nil, "")
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestResponderHonorsDBTransaction(t *testing.T) {
	ctx := context.Background()
	r, dao, _ := newResponder(t)
	txID, err := dao.OpenTransaction(ctx)
	require.NoError(t, err)

	ev, err := NewBuilder(OperationCreate).
		Vertex(&Entity{SchemaVersion: "v11", Type: "pserver", Properties: map[string]any{"hostname": "h1"}}).
		DBTransactionID(txID).
		Build()
	require.NoError(t, err)
	resp := r.Apply(ctx, NewEnvelope(ev, "gateway"))
	require.Equal(t, ResultSuccess, resp.Body.Result, resp.Body.ErrorMessage)
	v, err := resp.Body.Vertex.Vertex()
	require.NoError(t, err)

	_, err = dao.GetVertex(ctx, v.ID(), "pserver", "")
	assert.Error(t, err, "write stays inside the transaction")
	require.NoError(t, dao.CommitTransaction(ctx, txID))
	_, err = dao.GetVertex(ctx, v.ID(), "pserver", "")
	assert.NoError(t, err)
}

func TestResponderOverBus(t *testing.T) {
	ctx := context.Background()
	r, _, bus := newResponder(t)
	require.NoError(t, r.Start(ctx))
	t.Cleanup(func() { _ = r.Stop(ctx) })

	c := NewCorrelator(5*time.Second, testutil.NewTestLogger())
	_, err := bus.Subscribe(ctx, "resp", func(_ context.Context, env Envelope) { c.Deliver(env) })
	require.NoError(t, err)

	req := request(t, OperationCreate, &Entity{
		SchemaVersion: "v11",
		Type:          "pserver",
		Properties:    map[string]any{"hostname": "h1", "number-of-cpus": int64(4)},
	}, false)
	pending, err := c.Register(req.Header.RequestID)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, "req", req))

	resp, err := c.Wait(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, resp.Body.Result)
	assert.Equal(t, int64(4), resp.Body.Vertex.Properties["number-of-cpus"])
}
