package events

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/domain/validation"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

func newResponseHandler() *ResponseHandler {
	h := schema.NewHolder(schema.TestRegistry())
	return NewResponseHandler(validation.NewEdgeValidator(h), validation.NewVertexValidator(h))
}

func vertexResponse(t *testing.T, result Result) Envelope {
	t.Helper()
	env := testEnvelope(t)
	env.Body.Vertex.Properties["legacy"] = "dropped on output"
	env.Body.Result = result
	return env
}

func TestClassify(t *testing.T) {
	ok := vertexResponse(t, ResultSuccess)
	assert.Equal(t, StateSuccess, Classify(ok))

	failed := vertexResponse(t, ResultFailure)
	assert.Equal(t, StateOperationFailure, Classify(failed))

	violated := vertexResponse(t, ResultSuccess)
	violated.PolicyViolations = []PolicyViolation{{Summary: "s", PolicyName: "p"}}
	assert.Equal(t, StatePolicyViolation, Classify(violated))
}

func TestHandleVertexResponseSuccess(t *testing.T) {
	v, err := newResponseHandler().HandleVertexResponse("v11", vertexResponse(t, ResultSuccess))
	require.NoError(t, err)
	assert.Equal(t, graph.IntID(5), v.ID())
	assert.Equal(t, map[string]any{"hostname": "h1", "number-of-cpus": int64(2)}, v.Properties())
}

func TestPolicyViolationWinsOverSuccess(t *testing.T) {
	env := vertexResponse(t, ResultSuccess)
	env.PolicyViolations = []PolicyViolation{{Summary: "hostname too short", PolicyName: "hostname-length"}}

	_, err := newResponseHandler().HandleVertexResponse("v11", env)
	require.Error(t, err)
	appErr := apperror.As(err)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Contains(t, appErr.Message, env.Body.TransactionID)
	assert.Contains(t, appErr.Message, "hostname too short")
	assert.Equal(t, env.Body.TransactionID, appErr.Details["transactionId"])
	assert.Equal(t, env.PolicyViolations, appErr.Details["policyViolations"])
}

func TestOperationFailureKeepsStatus(t *testing.T) {
	h := newResponseHandler()

	env := vertexResponse(t, ResultFailure)
	env.Body.HTTPErrorStatus = http.StatusNotFound
	env.Body.ErrorMessage = "pserver '5' not found"
	_, err := h.HandleVertexResponse("v11", env)
	appErr := apperror.As(err)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Equal(t, "pserver '5' not found", appErr.Message)

	env.Body.HTTPErrorStatus = 0
	assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(h.HandleDeleteResponse(env)))
}

func TestHandleEdgeResponse(t *testing.T) {
	h := newResponseHandler()
	e := testEdge(t)
	ev, err := NewBuilder(OperationCreate).Edge(EdgeEntity(e, "v11")).Build()
	require.NoError(t, err)
	env := NewEnvelope(ev, "test")
	env.Body.Result = ResultSuccess

	got, err := h.HandleEdgeResponse("v11", env)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"prevent-delete": "NONE"}, got.Properties())

	_, err = h.HandleVertexResponse("v11", env)
	assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(err), "an edge response has no vertex")
}

func TestHandleDeleteResponseSuccess(t *testing.T) {
	assert.NoError(t, newResponseHandler().HandleDeleteResponse(vertexResponse(t, ResultSuccess)))
}
