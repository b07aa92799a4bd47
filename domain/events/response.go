package events

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/validation"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// State classifies a correlated response.
type State string

const (
	StateAwaitingResponse State = "AWAITING_RESPONSE"
	StateSuccess          State = "SUCCESS"
	StatePolicyViolation  State = "POLICY_VIOLATION"
	StateOperationFailure State = "OPERATION_FAILURE"
)

// Classify returns the terminal state of a response. Policy violations win
// over the body result.
func Classify(env Envelope) State {
	switch {
	case len(env.PolicyViolations) > 0:
		return StatePolicyViolation
	case env.Body.Result == ResultFailure:
		return StateOperationFailure
	}
	return StateSuccess
}

// ResponseHandler turns a received response envelope into the caller's
// result. It never blocks.
type ResponseHandler struct {
	edges    *validation.EdgeValidator
	vertices *validation.VertexValidator
}

func NewResponseHandler(edges *validation.EdgeValidator, vertices *validation.VertexValidator) *ResponseHandler {
	return &ResponseHandler{edges: edges, vertices: vertices}
}

// Check returns the error a terminal non-success state carries.
func (h *ResponseHandler) Check(env Envelope) error {
	switch Classify(env) {
	case StatePolicyViolation:
		return policyViolationError(env)
	case StateOperationFailure:
		status := env.Body.HTTPErrorStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		msg := env.Body.ErrorMessage
		if msg == "" {
			msg = "graph operation failed"
		}
		return apperror.FromStatus(status, msg).
			WithDetails(map[string]any{"transactionId": env.Body.TransactionID})
	}
	return nil
}

func policyViolationError(env Envelope) error {
	summaries := make([]string, 0, len(env.PolicyViolations))
	for _, v := range env.PolicyViolations {
		summaries = append(summaries, v.Summary)
	}
	return apperror.NewBadRequest(fmt.Sprintf("transaction %s rejected by policy: %s",
		env.Body.TransactionID, strings.Join(summaries, "; "))).
		WithDetails(map[string]any{
			"transactionId":    env.Body.TransactionID,
			"policyViolations": env.PolicyViolations,
		})
}

// HandleVertexResponse returns the vertex of a successful response, filtered
// for output.
func (h *ResponseHandler) HandleVertexResponse(version string, env Envelope) (graph.Vertex, error) {
	if err := h.Check(env); err != nil {
		return graph.Vertex{}, err
	}
	if env.Body.Vertex == nil {
		return graph.Vertex{}, apperror.NewInternal("response carries no vertex", nil)
	}
	v, err := env.Body.Vertex.Vertex()
	if err != nil {
		return graph.Vertex{}, apperror.NewInternal("malformed vertex in response", err)
	}
	return h.vertices.ValidateOutgoing(version, v)
}

// HandleEdgeResponse returns the edge of a successful response, filtered for
// output.
func (h *ResponseHandler) HandleEdgeResponse(version string, env Envelope) (graph.Edge, error) {
	if err := h.Check(env); err != nil {
		return graph.Edge{}, err
	}
	if env.Body.Edge == nil {
		return graph.Edge{}, apperror.NewInternal("response carries no edge", nil)
	}
	e, err := env.Body.Edge.Edge()
	if err != nil {
		return graph.Edge{}, apperror.NewInternal("malformed edge in response", err)
	}
	return h.edges.ValidateOutgoing(version, e)
}

// HandleDeleteResponse reports the outcome of a delete.
func (h *ResponseHandler) HandleDeleteResponse(env Envelope) error {
	return h.Check(env)
}
