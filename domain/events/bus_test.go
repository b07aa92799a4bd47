package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onap/aai-gizmo-sub001/internal/testutil"
)

func testEnvelope(t *testing.T) Envelope {
	t.Helper()
	ev, err := NewBuilder(OperationCreate).
		Vertex(VertexEntity(testVertex(t, 5, map[string]any{"hostname": "h1", "number-of-cpus": int64(2)}), "v11")).
		Build()
	require.NoError(t, err)
	return NewEnvelope(ev, "test")
}

func receive(t *testing.T, ch <-chan Envelope) Envelope {
	t.Helper()
	select {
	case env := <-ch:
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return Envelope{}
	}
}

func TestMemoryBusDelivers(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(testutil.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })

	got := make(chan Envelope, 2)
	unsubA, err := bus.Subscribe(ctx, "req", func(_ context.Context, env Envelope) { got <- env })
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, "req", func(_ context.Context, env Envelope) { got <- env })
	require.NoError(t, err)
	assert.Equal(t, 2, bus.SubscriberCount("req"))

	sent := testEnvelope(t)
	require.NoError(t, bus.Publish(ctx, "req", sent))

	a, b := receive(t, got), receive(t, got)
	assert.Equal(t, sent.Header.RequestID, a.Header.RequestID)
	assert.Equal(t, int64(2), a.Body.Vertex.Properties["number-of-cpus"])
	a.Body.Vertex.Properties["hostname"] = "mutated"
	assert.Equal(t, "h1", b.Body.Vertex.Properties["hostname"], "each subscriber gets its own copy")

	unsubA()
	assert.Equal(t, 1, bus.SubscriberCount("req"))
	assert.NoError(t, bus.Publish(ctx, "other", sent), "publishing without subscribers is not an error")
}

func TestMemoryBusCloseWaitsForDeliveries(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(testutil.NewTestLogger())

	var mu sync.Mutex
	done := false
	_, err := bus.Subscribe(ctx, "req", func(context.Context, Envelope) {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		done = true
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, "req", testEnvelope(t)))

	require.NoError(t, bus.Close())
	mu.Lock()
	assert.True(t, done)
	mu.Unlock()

	assert.ErrorIs(t, bus.Publish(ctx, "req", testEnvelope(t)), ErrBusClosed)
	assert.ErrorIs(t, bus.Ping(ctx), ErrBusClosed)
	_, err = bus.Subscribe(ctx, "req", func(context.Context, Envelope) {})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestNATSBus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping NATS integration test in short mode")
	}
	ctx := context.Background()
	ctr, err := testutil.StartNATS(ctx)
	if err != nil {
		t.Skipf("nats unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	bus, err := NewNATSBus(ctr.URL, "gizmo-test", testutil.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	require.NoError(t, bus.Ping(ctx))

	got := make(chan Envelope, 1)
	unsub, err := bus.Subscribe(ctx, "gizmo.test.requests", func(_ context.Context, env Envelope) { got <- env })
	require.NoError(t, err)
	require.NoError(t, bus.Ping(ctx))

	sent := testEnvelope(t)
	require.NoError(t, bus.Publish(ctx, "gizmo.test.requests", sent))
	env := receive(t, got)
	assert.Equal(t, sent.Body.TransactionID, env.Body.TransactionID)
	assert.Equal(t, int64(2), env.Body.Vertex.Properties["number-of-cpus"])
	assert.NotNil(t, env.PolicyViolations)

	unsub()
}

func TestBusUnsubscribeThroughInterface(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBus(testutil.NewTestLogger())
	t.Cleanup(func() { _ = mem.Close() })

	var bus Bus = mem
	unsubscribe, err := bus.Subscribe(ctx, "req", func(context.Context, Envelope) {})
	require.NoError(t, err)
	require.NotNil(t, unsubscribe)
	assert.Equal(t, 1, mem.SubscriberCount("req"))

	unsubscribe()
	assert.Equal(t, 0, mem.SubscriberCount("req"))
}
