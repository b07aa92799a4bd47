package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// Bulk actions and entity kinds.
const (
	BulkAdd    = "add"
	BulkUpdate = "update"
	BulkDelete = "delete"

	KindVertex = "vertex"
	KindEdge   = "edge"
)

// BulkEndpoint names an edge endpoint either by id and type or, with Ref, by
// the ref of a vertex added earlier in the same batch ("$name").
type BulkEndpoint struct {
	Ref  string `json:"$ref,omitempty"`
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
}

// BulkOperation is one mutation of a batch.
type BulkOperation struct {
	// Ref names the vertex this operation adds so later edges can use it.
	Ref        string         `json:"ref,omitempty"`
	Action     string         `json:"action"`
	Kind       string         `json:"kind"`
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Source     *BulkEndpoint  `json:"source,omitempty"`
	Target     *BulkEndpoint  `json:"target,omitempty"`
}

// BulkRequest is an ordered batch applied in one transaction.
type BulkRequest struct {
	Version    string          `json:"version"`
	Operations []BulkOperation `json:"operations"`
}

func (r *BulkRequest) normalize() {
	for i := range r.Operations {
		NormalizeNumbers(r.Operations[i].Properties)
	}
}

// BulkItem is the outcome of one operation. Deletes carry neither entity.
type BulkItem struct {
	Ref    string            `json:"ref,omitempty"`
	Action string            `json:"action"`
	Kind   string            `json:"kind"`
	Vertex *WireObject       `json:"vertex,omitempty"`
	Edge   *WireRelationship `json:"edge,omitempty"`
}

// BulkResult lists the outcomes in request order.
type BulkResult struct {
	Items []BulkItem `json:"items"`
}

func (r *BulkResult) normalize() {
	for i := range r.Items {
		if r.Items[i].Vertex != nil {
			NormalizeNumbers(r.Items[i].Vertex.Properties)
		}
		if r.Items[i].Edge != nil {
			normalizeRel(r.Items[i].Edge)
		}
	}
}

// EdgeCheck vets an edge inside the batch transaction before it is added.
type EdgeCheck func(ctx context.Context, e Edge, txID string) error

// ApplyBulk opens a transaction on dao, applies the operations in order and
// commits. The first failure rolls the transaction back and is returned with
// the index of the failing operation in its details.
func ApplyBulk(ctx context.Context, dao Dao, req BulkRequest, log *slog.Logger, checks ...EdgeCheck) (BulkResult, error) {
	if len(req.Operations) == 0 {
		return BulkResult{}, apperror.NewBadRequest("bulk request has no operations")
	}

	txID, err := dao.OpenTransaction(ctx)
	if err != nil {
		return BulkResult{}, err
	}

	result, err := applyOperations(ctx, dao, req, txID, checks)
	if err != nil {
		if rbErr := dao.RollbackTransaction(ctx, txID); rbErr != nil {
			log.Warn("bulk rollback failed",
				slog.String("transaction_id", txID),
				logger.Error(rbErr))
		}
		return BulkResult{}, err
	}
	if err := dao.CommitTransaction(ctx, txID); err != nil {
		return BulkResult{}, err
	}
	return result, nil
}

func applyOperations(ctx context.Context, dao Dao, req BulkRequest, txID string, checks []EdgeCheck) (BulkResult, error) {
	refs := make(map[string]Vertex)
	result := BulkResult{Items: make([]BulkItem, 0, len(req.Operations))}

	for i, op := range req.Operations {
		item, err := applyOperation(ctx, dao, req.Version, op, refs, txID, checks)
		if err != nil {
			appErr := apperror.As(err)
			details := map[string]any{"operation": i}
			for k, v := range appErr.Details {
				details[k] = v
			}
			return BulkResult{}, appErr.WithDetails(details)
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func applyOperation(ctx context.Context, dao Dao, version string, op BulkOperation, refs map[string]Vertex, txID string, checks []EdgeCheck) (BulkItem, error) {
	item := BulkItem{Ref: op.Ref, Action: op.Action, Kind: op.Kind}
	id := ParseID(op.ID)

	switch op.Kind + "/" + op.Action {
	case KindVertex + "/" + BulkAdd:
		v, err := dao.AddVertex(ctx, op.Type, op.Properties, version, txID)
		if err != nil {
			return item, err
		}
		if op.Ref != "" {
			refs[op.Ref] = v
		}
		w := ToWireObject(v)
		item.Vertex = &w

	case KindVertex + "/" + BulkUpdate:
		v, err := dao.UpdateVertex(ctx, id, op.Type, op.Properties, version, txID)
		if err != nil {
			return item, err
		}
		w := ToWireObject(v)
		item.Vertex = &w

	case KindVertex + "/" + BulkDelete:
		if err := dao.DeleteVertex(ctx, id, op.Type, txID); err != nil {
			return item, err
		}

	case KindEdge + "/" + BulkAdd:
		src, err := resolveEndpoint(op.Source, refs)
		if err != nil {
			return item, err
		}
		tgt, err := resolveEndpoint(op.Target, refs)
		if err != nil {
			return item, err
		}
		if len(checks) > 0 {
			candidate, err := NewEdgeBuilder(op.Type).Properties(op.Properties).Source(src).Target(tgt).Build()
			if err != nil {
				return item, apperror.NewBadRequest(err.Error())
			}
			for _, check := range checks {
				if err := check(ctx, candidate, txID); err != nil {
					return item, err
				}
			}
		}
		e, err := dao.AddEdge(ctx, op.Type, src, tgt, op.Properties, version, txID)
		if err != nil {
			return item, err
		}
		w := ToWireRelationship(e)
		item.Edge = &w

	case KindEdge + "/" + BulkUpdate:
		existing, err := dao.GetEdge(ctx, id, op.Type, txID)
		if err != nil {
			return item, err
		}
		edge, err := NewEdgeBuilder(existing.Type()).
			ID(existing.ID()).
			Properties(op.Properties).
			Source(existing.Source()).
			Target(existing.Target()).
			Build()
		if err != nil {
			return item, apperror.NewBadRequest(err.Error())
		}
		e, err := dao.UpdateEdge(ctx, edge, txID)
		if err != nil {
			return item, err
		}
		w := ToWireRelationship(e)
		item.Edge = &w

	case KindEdge + "/" + BulkDelete:
		if err := dao.DeleteEdge(ctx, id, op.Type, txID); err != nil {
			return item, err
		}

	default:
		return item, apperror.NewBadRequest(fmt.Sprintf("unsupported bulk operation %s %s", op.Action, op.Kind))
	}
	return item, nil
}

func resolveEndpoint(ep *BulkEndpoint, refs map[string]Vertex) (Vertex, error) {
	if ep == nil {
		return Vertex{}, apperror.NewBadRequest("edge operation requires source and target")
	}
	if ep.Ref != "" {
		v, ok := refs[strings.TrimPrefix(ep.Ref, "$")]
		if !ok {
			return Vertex{}, apperror.NewBadRequest(fmt.Sprintf("unknown reference %s", ep.Ref))
		}
		return v, nil
	}
	v, err := NewVertexBuilder(ep.Type).ID(ParseID(ep.ID)).Build()
	if err != nil {
		return Vertex{}, apperror.NewBadRequest("edge endpoint: " + err.Error())
	}
	return v, nil
}
