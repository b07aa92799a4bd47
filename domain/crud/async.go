package crud

import (
	"context"
	"log/slog"

	"github.com/onap/aai-gizmo-sub001/domain/events"
	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/validation"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// AsyncService reads and validates like Service but hands every mutation to
// the event bus as a GraphEvent and answers from the correlated response.
// Batches still run synchronously.
type AsyncService struct {
	*Service
	bus        events.Bus
	correlator *events.Correlator
	responses  *events.ResponseHandler
	subject    string
	sourceName string
}

var _ API = (*AsyncService)(nil)

func NewAsyncService(
	svc *Service,
	bus events.Bus,
	correlator *events.Correlator,
	responses *events.ResponseHandler,
	subject, sourceName string,
) *AsyncService {
	return &AsyncService{
		Service:    svc,
		bus:        bus,
		correlator: correlator,
		responses:  responses,
		subject:    subject,
		sourceName: sourceName,
	}
}

// roundTrip publishes the event b describes and waits for its response.
func (a *AsyncService) roundTrip(ctx context.Context, sc Scope, b *events.Builder) (events.Envelope, error) {
	ev, err := b.DBTransactionID(sc.TxID).Build()
	if err != nil {
		return events.Envelope{}, apperror.NewInternal("build graph event", err)
	}
	env := events.NewEnvelope(ev, a.sourceName)
	pending, err := a.correlator.Register(ev.TransactionID)
	if err != nil {
		return events.Envelope{}, apperror.NewInternal("register graph event", err)
	}
	if err := a.bus.Publish(ctx, a.subject, env); err != nil {
		a.correlator.Cancel(ev.TransactionID)
		return events.Envelope{}, apperror.NewInternal("publish graph event", err)
	}
	a.log.Debug("graph event published",
		slog.String("transaction_id", ev.TransactionID),
		slog.String("operation", string(ev.Operation)),
		slog.String("type", ev.ObjectType()))
	return a.correlator.Wait(ctx, pending)
}

func (a *AsyncService) vertexEvent(ctx context.Context, sc Scope, op events.Operation, v graph.Vertex) (VertexResult, error) {
	resp, err := a.roundTrip(ctx, sc, events.NewBuilder(op).Vertex(events.VertexEntity(v, sc.Version)))
	if err != nil {
		return VertexResult{}, err
	}
	out, err := a.responses.HandleVertexResponse(sc.Version, resp)
	if err != nil {
		return VertexResult{}, err
	}
	stored, err := resp.Body.Vertex.Vertex()
	if err != nil {
		return VertexResult{}, apperror.NewInternal("malformed vertex in response", err)
	}
	return VertexResult{Vertex: out, ETag: graph.VertexHash(stored)}, nil
}

func (a *AsyncService) edgeEvent(ctx context.Context, sc Scope, op events.Operation, e graph.Edge) (EdgeResult, error) {
	resp, err := a.roundTrip(ctx, sc, events.NewBuilder(op).Edge(events.EdgeEntity(e, sc.Version)))
	if err != nil {
		return EdgeResult{}, err
	}
	out, err := a.responses.HandleEdgeResponse(sc.Version, resp)
	if err != nil {
		return EdgeResult{}, err
	}
	stored, err := resp.Body.Edge.Edge()
	if err != nil {
		return EdgeResult{}, apperror.NewInternal("malformed edge in response", err)
	}
	return EdgeResult{Edge: out, ETag: graph.EdgeHash(stored)}, nil
}

func (a *AsyncService) AddVertex(ctx context.Context, sc Scope, typ string, p validation.VertexPayload) (VertexResult, error) {
	v, err := a.prepareAddVertex(sc, typ, p)
	if err != nil {
		return VertexResult{}, err
	}
	return a.vertexEvent(ctx, sc, events.OperationCreate, v)
}

func (a *AsyncService) UpdateVertex(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.VertexPayload) (VertexResult, error) {
	v, err := a.prepareUpdateVertex(ctx, sc, typ, id, p, false)
	if err != nil {
		return VertexResult{}, err
	}
	return a.vertexEvent(ctx, sc, events.OperationUpdate, v)
}

func (a *AsyncService) PatchVertex(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.VertexPayload) (VertexResult, error) {
	v, err := a.prepareUpdateVertex(ctx, sc, typ, id, p, true)
	if err != nil {
		return VertexResult{}, err
	}
	return a.vertexEvent(ctx, sc, events.OperationUpdate, v)
}

func (a *AsyncService) DeleteVertex(ctx context.Context, sc Scope, typ string, id graph.ID) error {
	current, err := a.currentVertex(ctx, sc, typ, id)
	if err != nil {
		return err
	}
	resp, err := a.roundTrip(ctx, sc, events.NewBuilder(events.OperationDelete).Vertex(events.VertexEntity(current, sc.Version)))
	if err != nil {
		return err
	}
	return a.responses.HandleDeleteResponse(resp)
}

func (a *AsyncService) AddEdge(ctx context.Context, sc Scope, typ string, p validation.EdgePayload) (EdgeResult, error) {
	e, err := a.prepareAddEdge(ctx, sc, typ, p)
	if err != nil {
		return EdgeResult{}, err
	}
	return a.edgeEvent(ctx, sc, events.OperationCreate, e)
}

func (a *AsyncService) UpdateEdge(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.EdgePayload) (EdgeResult, error) {
	e, err := a.prepareUpdateEdge(ctx, sc, typ, id, p, false)
	if err != nil {
		return EdgeResult{}, err
	}
	return a.edgeEvent(ctx, sc, events.OperationUpdate, e)
}

func (a *AsyncService) PatchEdge(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.EdgePayload) (EdgeResult, error) {
	e, err := a.prepareUpdateEdge(ctx, sc, typ, id, p, true)
	if err != nil {
		return EdgeResult{}, err
	}
	return a.edgeEvent(ctx, sc, events.OperationUpdate, e)
}

func (a *AsyncService) DeleteEdge(ctx context.Context, sc Scope, typ string, id graph.ID) error {
	current, err := a.currentEdge(ctx, sc, typ, id)
	if err != nil {
		return err
	}
	resp, err := a.roundTrip(ctx, sc, events.NewBuilder(events.OperationDelete).Edge(events.EdgeEntity(current, sc.Version)))
	if err != nil {
		return err
	}
	return a.responses.HandleDeleteResponse(resp)
}
