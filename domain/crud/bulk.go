package crud

import (
	"context"
	"strings"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/validation"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// Bulk validates every operation against the schema, then applies the batch
// in one DAO transaction. Edge cardinality is checked inside that
// transaction so edges added earlier in the batch count.
func (s *Service) Bulk(ctx context.Context, sc Scope, req graph.BulkRequest) (graph.BulkResult, error) {
	req.Version = sc.Version
	if err := s.validateBulk(ctx, &req); err != nil {
		return graph.BulkResult{}, err
	}
	return graph.ApplyBulk(ctx, s.dao, req, s.log, func(ctx context.Context, e graph.Edge, txID string) error {
		return s.multiplicity.Validate(ctx, req.Version, e, txID)
	})
}

func (s *Service) validateBulk(ctx context.Context, req *graph.BulkRequest) error {
	refTypes := make(map[string]string)
	for i := range req.Operations {
		op := &req.Operations[i]
		if err := s.validateBulkOperation(ctx, req.Version, op, refTypes); err != nil {
			appErr := apperror.As(err)
			details := map[string]any{"operation": i}
			for k, v := range appErr.Details {
				details[k] = v
			}
			return appErr.WithDetails(details)
		}
	}
	return nil
}

func (s *Service) validateBulkOperation(ctx context.Context, version string, op *graph.BulkOperation, refTypes map[string]string) error {
	switch op.Kind + "/" + op.Action {
	case graph.KindVertex + "/" + graph.BulkAdd, graph.KindVertex + "/" + graph.BulkUpdate:
		v, err := s.vertices.ValidateAddPayload(version, validation.VertexPayload{Type: op.Type, Properties: op.Properties})
		if err != nil {
			return err
		}
		op.Properties = v.Properties()
		if op.Ref != "" {
			refTypes[op.Ref] = op.Type
		}

	case graph.KindEdge + "/" + graph.BulkAdd:
		srcType, err := endpointType(op.Source, refTypes)
		if err != nil {
			return err
		}
		tgtType, err := endpointType(op.Target, refTypes)
		if err != nil {
			return err
		}
		typ, props, err := s.edges.ValidateProperties(version, srcType, tgtType, op.Type, op.Properties)
		if err != nil {
			return err
		}
		op.Type = typ
		op.Properties = props

	case graph.KindEdge + "/" + graph.BulkUpdate:
		current, err := s.dao.GetEdge(ctx, graph.ParseID(op.ID), op.Type, "")
		if err != nil {
			return err
		}
		e, err := s.edges.ValidateUpdatePayload(current, version, validation.EdgePayload{Properties: op.Properties})
		if err != nil {
			return err
		}
		op.Properties = e.Properties()
	}
	return nil
}

func endpointType(ep *graph.BulkEndpoint, refTypes map[string]string) (string, error) {
	if ep == nil {
		return "", apperror.NewBadRequest("edge operation requires source and target")
	}
	if ep.Ref != "" {
		typ, ok := refTypes[strings.TrimPrefix(ep.Ref, "$")]
		if !ok {
			return "", apperror.NewBadRequest("unknown reference " + ep.Ref)
		}
		return typ, nil
	}
	if ep.Type == "" {
		return "", apperror.NewBadRequest("edge endpoint requires a type")
	}
	return ep.Type, nil
}
