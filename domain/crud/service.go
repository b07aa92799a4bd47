// Package crud serves vertex, edge and batch operations on top of the graph
// DAO, with schema validation and ETag preconditions applied on the way in
// and output filtering on the way out.
package crud

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/validation"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// Scope carries the per-request knobs every operation shares.
type Scope struct {
	Version string
	// TxID runs the operation inside an open DAO transaction.
	TxID string
	// IfMatch is compared against the current ETag before a write.
	IfMatch string
}

// VertexResult is a rendered vertex with the ETag of its stored form. Edges
// is only filled by GetVertex.
type VertexResult struct {
	Vertex graph.Vertex
	ETag   string
	Edges  []graph.Edge
}

// EdgeResult is a rendered edge with the ETag of its stored form.
type EdgeResult struct {
	Edge graph.Edge
	ETag string
}

// API is what the REST handler needs. Service and AsyncService implement it.
type API interface {
	GetVertex(ctx context.Context, sc Scope, typ string, id graph.ID) (VertexResult, error)
	GetVertices(ctx context.Context, sc Scope, typ string, filter map[string]string, properties []string) ([]graph.Vertex, error)
	AddVertex(ctx context.Context, sc Scope, typ string, p validation.VertexPayload) (VertexResult, error)
	UpdateVertex(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.VertexPayload) (VertexResult, error)
	PatchVertex(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.VertexPayload) (VertexResult, error)
	DeleteVertex(ctx context.Context, sc Scope, typ string, id graph.ID) error

	GetEdge(ctx context.Context, sc Scope, typ string, id graph.ID) (EdgeResult, error)
	GetEdges(ctx context.Context, sc Scope, typ string, filter map[string]string) ([]graph.Edge, error)
	AddEdge(ctx context.Context, sc Scope, typ string, p validation.EdgePayload) (EdgeResult, error)
	UpdateEdge(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.EdgePayload) (EdgeResult, error)
	PatchEdge(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.EdgePayload) (EdgeResult, error)
	DeleteEdge(ctx context.Context, sc Scope, typ string, id graph.ID) error

	Bulk(ctx context.Context, sc Scope, req graph.BulkRequest) (graph.BulkResult, error)
}

// Service applies operations directly against the DAO.
type Service struct {
	dao          graph.Dao
	vertices     *validation.VertexValidator
	edges        *validation.EdgeValidator
	multiplicity *validation.MultiplicityValidator
	log          *slog.Logger
}

var _ API = (*Service)(nil)

func NewService(
	dao graph.Dao,
	vertices *validation.VertexValidator,
	edges *validation.EdgeValidator,
	multiplicity *validation.MultiplicityValidator,
	log *slog.Logger,
) *Service {
	return &Service{
		dao:          dao,
		vertices:     vertices,
		edges:        edges,
		multiplicity: multiplicity,
		log:          log.With(logger.Scope("crud")),
	}
}

// checkETag fails with PRECONDITION_FAILED when ifMatch is set and differs
// from current. Quotes and a weak prefix are ignored.
func checkETag(ifMatch, current string) error {
	tag := strings.TrimSpace(ifMatch)
	if tag == "" || tag == "*" {
		return nil
	}
	tag = strings.Trim(strings.TrimPrefix(tag, "W/"), `"`)
	if tag != current {
		return apperror.ErrPreconditionFailed.WithDetails(map[string]any{"etag": current})
	}
	return nil
}

func checkPayloadType(path, body string) error {
	if body != "" && body != path {
		return apperror.NewBadRequest(fmt.Sprintf("payload type %s does not match %s", body, path))
	}
	return nil
}

// vertexResult tags v with the ETag of its stored form, then filters it for
// output.
func (s *Service) vertexResult(version string, v graph.Vertex) (VertexResult, error) {
	etag := graph.VertexHash(v)
	out, err := s.vertices.ValidateOutgoing(version, v)
	if err != nil {
		return VertexResult{}, err
	}
	return VertexResult{Vertex: out, ETag: etag}, nil
}

func (s *Service) edgeResult(version string, e graph.Edge) (EdgeResult, error) {
	etag := graph.EdgeHash(e)
	out, err := s.edges.ValidateOutgoing(version, e)
	if err != nil {
		return EdgeResult{}, err
	}
	return EdgeResult{Edge: out, ETag: etag}, nil
}

func (s *Service) GetVertex(ctx context.Context, sc Scope, typ string, id graph.ID) (VertexResult, error) {
	v, err := s.dao.GetVertex(ctx, id, typ, sc.TxID)
	if err != nil {
		return VertexResult{}, err
	}
	res, err := s.vertexResult(sc.Version, v)
	if err != nil {
		return VertexResult{}, err
	}
	res.Edges, err = s.dao.GetVertexEdges(ctx, id, nil, sc.TxID)
	if err != nil {
		return VertexResult{}, err
	}
	return res, nil
}

func (s *Service) GetVertices(ctx context.Context, sc Scope, typ string, filter map[string]string, properties []string) ([]graph.Vertex, error) {
	if err := s.vertices.Known(sc.Version, typ); err != nil {
		return nil, err
	}
	found, err := s.dao.GetVertices(ctx, typ, filter, properties, sc.Version, sc.TxID)
	if err != nil {
		return nil, err
	}
	out := make([]graph.Vertex, 0, len(found))
	for _, v := range found {
		rendered, err := s.vertices.ValidateOutgoing(sc.Version, v)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

func (s *Service) AddVertex(ctx context.Context, sc Scope, typ string, p validation.VertexPayload) (VertexResult, error) {
	v, err := s.prepareAddVertex(sc, typ, p)
	if err != nil {
		return VertexResult{}, err
	}
	created, err := s.dao.AddVertex(ctx, v.Type(), v.Properties(), sc.Version, sc.TxID)
	if err != nil {
		return VertexResult{}, err
	}
	return s.vertexResult(sc.Version, created)
}

func (s *Service) prepareAddVertex(sc Scope, typ string, p validation.VertexPayload) (graph.Vertex, error) {
	if err := checkPayloadType(typ, p.Type); err != nil {
		return graph.Vertex{}, err
	}
	if p.ID != "" {
		return graph.Vertex{}, apperror.NewBadRequest("vertex id cannot be set on create")
	}
	p.Type = typ
	return s.vertices.ValidateAddPayload(sc.Version, p)
}

// currentVertex loads the vertex a write targets and checks If-Match.
func (s *Service) currentVertex(ctx context.Context, sc Scope, typ string, id graph.ID) (graph.Vertex, error) {
	v, err := s.dao.GetVertex(ctx, id, typ, sc.TxID)
	if err != nil {
		return graph.Vertex{}, err
	}
	if err := checkETag(sc.IfMatch, graph.VertexHash(v)); err != nil {
		return graph.Vertex{}, err
	}
	return v, nil
}

func (s *Service) prepareUpdateVertex(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.VertexPayload, patch bool) (graph.Vertex, error) {
	if err := checkPayloadType(typ, p.Type); err != nil {
		return graph.Vertex{}, err
	}
	if p.ID != "" && graph.ParseID(p.ID) != id {
		return graph.Vertex{}, apperror.NewBadRequest(fmt.Sprintf("payload id %s does not match %s", p.ID, id))
	}
	current, err := s.currentVertex(ctx, sc, typ, id)
	if err != nil {
		return graph.Vertex{}, err
	}
	if patch {
		return s.vertices.ValidatePatchPayload(current, sc.Version, p)
	}
	return s.vertices.ValidateUpdatePayload(current, sc.Version, p)
}

func (s *Service) UpdateVertex(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.VertexPayload) (VertexResult, error) {
	return s.updateVertex(ctx, sc, typ, id, p, false)
}

func (s *Service) PatchVertex(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.VertexPayload) (VertexResult, error) {
	return s.updateVertex(ctx, sc, typ, id, p, true)
}

func (s *Service) updateVertex(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.VertexPayload, patch bool) (VertexResult, error) {
	v, err := s.prepareUpdateVertex(ctx, sc, typ, id, p, patch)
	if err != nil {
		return VertexResult{}, err
	}
	updated, err := s.dao.UpdateVertex(ctx, id, typ, v.Properties(), sc.Version, sc.TxID)
	if err != nil {
		return VertexResult{}, err
	}
	return s.vertexResult(sc.Version, updated)
}

func (s *Service) DeleteVertex(ctx context.Context, sc Scope, typ string, id graph.ID) error {
	if _, err := s.currentVertex(ctx, sc, typ, id); err != nil {
		return err
	}
	return s.dao.DeleteVertex(ctx, id, typ, sc.TxID)
}

func (s *Service) GetEdge(ctx context.Context, sc Scope, typ string, id graph.ID) (EdgeResult, error) {
	e, err := s.dao.GetEdge(ctx, id, typ, sc.TxID)
	if err != nil {
		return EdgeResult{}, err
	}
	return s.edgeResult(sc.Version, e)
}

// GetEdges skips edges the version has no rule for.
func (s *Service) GetEdges(ctx context.Context, sc Scope, typ string, filter map[string]string) ([]graph.Edge, error) {
	found, err := s.dao.GetEdges(ctx, typ, filter, sc.TxID)
	if err != nil {
		return nil, err
	}
	out := make([]graph.Edge, 0, len(found))
	for _, e := range found {
		rendered, err := s.edges.ValidateOutgoing(sc.Version, e)
		if err != nil {
			s.log.Debug("skipping edge without a rule in this version",
				slog.String("edge_id", e.ID().String()),
				slog.String("version", sc.Version))
			continue
		}
		out = append(out, rendered)
	}
	return out, nil
}

func (s *Service) AddEdge(ctx context.Context, sc Scope, typ string, p validation.EdgePayload) (EdgeResult, error) {
	e, err := s.prepareAddEdge(ctx, sc, typ, p)
	if err != nil {
		return EdgeResult{}, err
	}
	created, err := s.dao.AddEdge(ctx, e.Type(), e.Source(), e.Target(), e.Properties(), sc.Version, sc.TxID)
	if err != nil {
		return EdgeResult{}, err
	}
	return s.edgeResult(sc.Version, created)
}

// prepareAddEdge validates p and checks the cardinality of the rule it
// resolves to.
func (s *Service) prepareAddEdge(ctx context.Context, sc Scope, typ string, p validation.EdgePayload) (graph.Edge, error) {
	if err := checkPayloadType(typ, p.Type); err != nil {
		return graph.Edge{}, err
	}
	if p.ID != "" {
		return graph.Edge{}, apperror.NewBadRequest("edge id cannot be set on create")
	}
	p.Type = typ
	e, err := s.edges.ValidateAddPayload(sc.Version, p)
	if err != nil {
		return graph.Edge{}, err
	}
	if err := s.multiplicity.Validate(ctx, sc.Version, e, sc.TxID); err != nil {
		return graph.Edge{}, err
	}
	return e, nil
}

func (s *Service) currentEdge(ctx context.Context, sc Scope, typ string, id graph.ID) (graph.Edge, error) {
	e, err := s.dao.GetEdge(ctx, id, typ, sc.TxID)
	if err != nil {
		return graph.Edge{}, err
	}
	if err := checkETag(sc.IfMatch, graph.EdgeHash(e)); err != nil {
		return graph.Edge{}, err
	}
	return e, nil
}

func (s *Service) prepareUpdateEdge(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.EdgePayload, patch bool) (graph.Edge, error) {
	if p.ID != "" && graph.ParseID(p.ID) != id {
		return graph.Edge{}, apperror.NewBadRequest(fmt.Sprintf("payload id %s does not match %s", p.ID, id))
	}
	current, err := s.currentEdge(ctx, sc, typ, id)
	if err != nil {
		return graph.Edge{}, err
	}
	if patch {
		return s.edges.ValidatePatchPayload(current, sc.Version, p)
	}
	return s.edges.ValidateUpdatePayload(current, sc.Version, p)
}

func (s *Service) UpdateEdge(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.EdgePayload) (EdgeResult, error) {
	return s.updateEdge(ctx, sc, typ, id, p, false)
}

func (s *Service) PatchEdge(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.EdgePayload) (EdgeResult, error) {
	return s.updateEdge(ctx, sc, typ, id, p, true)
}

func (s *Service) updateEdge(ctx context.Context, sc Scope, typ string, id graph.ID, p validation.EdgePayload, patch bool) (EdgeResult, error) {
	e, err := s.prepareUpdateEdge(ctx, sc, typ, id, p, patch)
	if err != nil {
		return EdgeResult{}, err
	}
	updated, err := s.dao.UpdateEdge(ctx, e, sc.TxID)
	if err != nil {
		return EdgeResult{}, err
	}
	return s.edgeResult(sc.Version, updated)
}

func (s *Service) DeleteEdge(ctx context.Context, sc Scope, typ string, id graph.ID) error {
	if _, err := s.currentEdge(ctx, sc, typ, id); err != nil {
		return err
	}
	return s.dao.DeleteEdge(ctx, id, typ, sc.TxID)
}
