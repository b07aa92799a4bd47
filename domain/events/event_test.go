package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
)

func testVertex(t *testing.T, id int64, props map[string]any) graph.Vertex {
	t.Helper()
	v, err := graph.NewVertexBuilder("pserver").ID(graph.IntID(id)).Properties(props).Build()
	require.NoError(t, err)
	return v
}

func testEdge(t *testing.T) graph.Edge {
	t.Helper()
	vs, err := graph.NewVertexBuilder("vserver").ID(graph.IntID(1)).Property("vserver-id", "vs1").Build()
	require.NoError(t, err)
	e, err := graph.NewEdgeBuilder("tosca.relationships.HostedOn").
		ID(graph.IntID(10)).
		Source(vs).
		Target(testVertex(t, 2, map[string]any{"hostname": "h1"})).
		Property("prevent-delete", "NONE").
		Build()
	require.NoError(t, err)
	return e
}

func TestBuilderStampsIDAndTime(t *testing.T) {
	before := time.Now().UnixMilli()
	v := testVertex(t, 7, map[string]any{"hostname": "h1"})

	a, err := NewBuilder(OperationCreate).Vertex(VertexEntity(v, "v11")).Build()
	require.NoError(t, err)
	b, err := NewBuilder(OperationCreate).Vertex(VertexEntity(v, "v11")).Build()
	require.NoError(t, err)

	_, err = uuid.Parse(a.TransactionID)
	assert.NoError(t, err)
	assert.NotEqual(t, a.TransactionID, b.TransactionID)
	assert.GreaterOrEqual(t, a.Timestamp, before)
	assert.LessOrEqual(t, a.Timestamp, time.Now().UnixMilli())

	assert.Equal(t, "7", a.ObjectKey())
	assert.Equal(t, "pserver", a.ObjectType())
	assert.Equal(t, "v11", a.Vertex.SchemaVersion)
}

func TestBuilderRejects(t *testing.T) {
	en := VertexEntity(testVertex(t, 1, nil), "v11")

	_, err := NewBuilder(OperationCreate).Build()
	assert.Error(t, err, "no payload")

	_, err = NewBuilder(OperationCreate).Vertex(en).Edge(EdgeEntity(testEdge(t), "v11")).Build()
	assert.Error(t, err, "both payloads")

	_, err = NewBuilder("MERGE").Vertex(en).Build()
	assert.Error(t, err)
}

func TestEventFingerprint(t *testing.T) {
	v := testVertex(t, 7, map[string]any{"hostname": "h1", "number-of-cpus": int64(4)})
	ev, err := NewBuilder(OperationUpdate).Vertex(VertexEntity(v, "v11")).Build()
	require.NoError(t, err)
	fp, err := ev.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, graph.VertexHash(v), fp)

	e := testEdge(t)
	ev, err = NewBuilder(OperationCreate).Edge(EdgeEntity(e, "v11")).Build()
	require.NoError(t, err)
	fp, err = ev.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeHash(e), fp)
	assert.Equal(t, "10", ev.ObjectKey())
	assert.Equal(t, "tosca.relationships.HostedOn", ev.ObjectType())

	empty := GraphEvent{TransactionID: "t"}
	_, err = empty.Fingerprint()
	assert.Error(t, err)
}

func TestEdgeEntityRoundTrip(t *testing.T) {
	e := testEdge(t)
	got, err := EdgeEntity(e, "v11").Edge()
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeHash(e), graph.EdgeHash(got))

	_, err = (&Entity{Key: "1", Type: "x"}).Edge()
	assert.Error(t, err, "edges need both endpoints")
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 42*int(time.Millisecond), time.FixedZone("X", 3600))
	assert.Equal(t, "20240305-06:08:09:042", FormatTimestamp(ts))
}

func TestEnvelopeWireForm(t *testing.T) {
	ev, err := NewBuilder(OperationCreate).Vertex(VertexEntity(testVertex(t, 3, map[string]any{"number-of-cpus": int64(8)}), "v11")).Build()
	require.NoError(t, err)
	env := NewEnvelope(ev, "gizmo")

	assert.Equal(t, ev.TransactionID, env.Header.RequestID)
	assert.Equal(t, DefaultEventType, env.Header.EventType)
	assert.Equal(t, "pserver", env.Header.ValidationEntityType)
	assert.Equal(t, "gizmo", env.Header.SourceName)
	_, err = time.Parse("20060102-15:04:05", env.Header.Timestamp[:17])
	assert.NoError(t, err)

	env.PolicyViolations = nil
	data, err := json.Marshal(env)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw["policyViolations"])
	body := raw["body"].(map[string]any)
	assert.Equal(t, "CREATE", body["operation"])
	assert.Contains(t, body, "transaction-id")

	decoded, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.NotNil(t, decoded.Violations())
	assert.Equal(t, int64(8), decoded.Body.Vertex.Properties["number-of-cpus"])
}

func TestDecodeEnvelopeViolations(t *testing.T) {
	data := []byte(`{
		"header": {"request-id": "r1", "timestamp": "20240101-00:00:00:000", "source-name": "validator", "event-type": "graph-event"},
		"body": {"operation": "CREATE", "transaction-id": "r1", "timestamp": 1, "vertex": {"key": "1", "type": "pserver"}, "result": "SUCCESS"},
		"policyViolations": [{"summary": "hostname too short", "policyName": "hostname-length", "details": {"min": 3}}]
	}`)
	env, err := DecodeEnvelope(data)
	require.NoError(t, err)
	require.Len(t, env.Violations(), 1)
	assert.Equal(t, "hostname-length", env.PolicyViolations[0].PolicyName)
	assert.Equal(t, int64(3), env.PolicyViolations[0].Details["min"])

	_, err = DecodeEnvelope([]byte(`{"header":`))
	assert.Error(t, err)
}
