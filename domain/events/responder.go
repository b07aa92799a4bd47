package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// Responder applies request events to a Dao and publishes the outcome on the
// response subject under the same request id.
type Responder struct {
	bus        Bus
	dao        graph.Dao
	requests   string
	responses  string
	sourceName string
	log        *slog.Logger
	unsub      func()
}

func NewResponder(bus Bus, dao graph.Dao, requests, responses, sourceName string, log *slog.Logger) *Responder {
	return &Responder{
		bus:        bus,
		dao:        dao,
		requests:   requests,
		responses:  responses,
		sourceName: sourceName,
		log:        log.With(logger.Scope("events.responder")),
	}
}

func (r *Responder) Start(ctx context.Context) error {
	unsub, err := r.bus.Subscribe(ctx, r.requests, r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.requests, err)
	}
	r.unsub = unsub
	r.log.Info("responder started", slog.String("subject", r.requests))
	return nil
}

func (r *Responder) Stop(context.Context) error {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
	return nil
}

func (r *Responder) handle(ctx context.Context, env Envelope) {
	resp := r.Apply(ctx, env)
	if err := r.bus.Publish(ctx, r.responses, resp); err != nil {
		r.log.Error("failed to publish response",
			slog.String("request_id", env.Header.RequestID),
			logger.Error(err))
	}
}

// Apply runs the event against the Dao and returns the response envelope.
func (r *Responder) Apply(ctx context.Context, env Envelope) Envelope {
	ev := env.Body
	out, err := r.apply(ctx, ev)
	if err != nil {
		r.log.Debug("graph event failed",
			slog.String("transaction_id", ev.TransactionID),
			slog.String("operation", string(ev.Operation)),
			logger.Error(err))
		ev.Result = ResultFailure
		ev.ErrorMessage = errorMessage(err)
		ev.HTTPErrorStatus = apperror.StatusOf(err)
	} else {
		ev = out
		ev.Result = ResultSuccess
	}

	resp := NewEnvelope(ev, r.sourceName)
	resp.Header.RequestID = env.Header.RequestID
	if resp.Header.RequestID == "" {
		resp.Header.RequestID = ev.TransactionID
	}
	return resp
}

func (r *Responder) apply(ctx context.Context, ev GraphEvent) (GraphEvent, error) {
	switch {
	case ev.Vertex != nil:
		v, err := r.applyVertex(ctx, ev)
		if err != nil {
			return ev, err
		}
		ev.Vertex = VertexEntity(v, ev.Vertex.SchemaVersion)
		return ev, nil
	case ev.Edge != nil:
		e, err := r.applyEdge(ctx, ev)
		if err != nil {
			return ev, err
		}
		ev.Edge = EdgeEntity(e, ev.Edge.SchemaVersion)
		return ev, nil
	}
	return ev, apperror.NewBadRequest("event carries no vertex or edge")
}

// applyVertex returns the vertex to report. Deletes report the request's
// own vertex.
func (r *Responder) applyVertex(ctx context.Context, ev GraphEvent) (graph.Vertex, error) {
	en := ev.Vertex
	v, err := en.Vertex()
	if err != nil {
		return graph.Vertex{}, apperror.NewBadRequest(err.Error())
	}
	tx := ev.DBTransactionID
	switch ev.Operation {
	case OperationCreate:
		return r.dao.AddVertex(ctx, v.Type(), v.Properties(), en.SchemaVersion, tx)
	case OperationUpdate:
		return r.dao.UpdateVertex(ctx, v.ID(), v.Type(), v.Properties(), en.SchemaVersion, tx)
	case OperationDelete:
		return v, r.dao.DeleteVertex(ctx, v.ID(), v.Type(), tx)
	}
	return graph.Vertex{}, apperror.NewBadRequest(fmt.Sprintf("unknown operation %q", ev.Operation))
}

func (r *Responder) applyEdge(ctx context.Context, ev GraphEvent) (graph.Edge, error) {
	en := ev.Edge
	e, err := en.Edge()
	if err != nil {
		return graph.Edge{}, apperror.NewBadRequest(err.Error())
	}
	tx := ev.DBTransactionID
	switch ev.Operation {
	case OperationCreate:
		return r.dao.AddEdge(ctx, e.Type(), e.Source(), e.Target(), e.Properties(), en.SchemaVersion, tx)
	case OperationUpdate:
		return r.dao.UpdateEdge(ctx, e, tx)
	case OperationDelete:
		return e, r.dao.DeleteEdge(ctx, e.ID(), e.Type(), tx)
	}
	return graph.Edge{}, apperror.NewBadRequest(fmt.Sprintf("unknown operation %q", ev.Operation))
}

func errorMessage(err error) string {
	if msg := apperror.As(err).Message; msg != "" {
		return msg
	}
	return err.Error()
}
