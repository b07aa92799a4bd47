package validation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// CheckMultiplicity decides whether a new edge under rule may join vertices
// whose existing incident edges of the same relationship are srcEdges and
// tgtEdges. Direction is not considered.
//
// MANY2ONE checks the source side and ONE2MANY the target side.
func CheckMultiplicity(rule schema.Multiplicity, key string, srcEdges, tgtEdges []graph.Edge) error {
	var reject bool
	switch rule {
	case schema.Many2One:
		reject = len(srcEdges) > 0
	case schema.One2Many:
		reject = len(tgtEdges) > 0
	case schema.One2One:
		reject = len(srcEdges) > 0 || len(tgtEdges) > 0
	}
	if reject {
		return apperror.NewBadRequest(fmt.Sprintf("multiplicity rule %s violated for %s", rule, key)).
			WithDetails(map[string]any{"rule": string(rule), "relationship": key})
	}
	return nil
}

// MultiplicityValidator looks up the existing edges of a candidate through a
// Dao and applies CheckMultiplicity.
type MultiplicityValidator struct {
	schemas RelationshipSource
	dao     graph.Dao
}

func NewMultiplicityValidator(schemas RelationshipSource, dao graph.Dao) *MultiplicityValidator {
	return &MultiplicityValidator{schemas: schemas, dao: dao}
}

// Validate checks candidate, an edge about to be added, inside txID.
func (m *MultiplicityValidator) Validate(ctx context.Context, version string, candidate graph.Edge, txID string) error {
	rels, err := m.schemas.Relationships(version)
	if err != nil {
		return err
	}
	src, tgt := candidate.Source(), candidate.Target()
	key := schema.RelationKey(src.Type(), tgt.Type(), candidate.Type())
	rule, ok := rels.LookupRelationMultiplicity(key)
	if !ok {
		return apperror.NewBadRequest("invalid relationship: " + key)
	}
	if rule == schema.Many2Many {
		return nil
	}

	filter := map[string]string{graph.PropNodeType: candidate.Type()}
	var srcEdges, tgtEdges []graph.Edge
	if rule != schema.One2Many {
		incident, err := m.dao.GetVertexEdges(ctx, src.ID(), filter, txID)
		if err != nil {
			return endpointError("source", src, err)
		}
		srcEdges = towards(incident, src.ID(), tgt.Type())
	}
	if rule != schema.Many2One {
		incident, err := m.dao.GetVertexEdges(ctx, tgt.ID(), filter, txID)
		if err != nil {
			return endpointError("target", tgt, err)
		}
		tgtEdges = towards(incident, tgt.ID(), src.Type())
	}
	return CheckMultiplicity(rule, key, srcEdges, tgtEdges)
}

// towards keeps the edges of id whose other end is a vertex of type other.
func towards(edges []graph.Edge, id graph.ID, other string) []graph.Edge {
	var out []graph.Edge
	for _, e := range edges {
		end := e.Target()
		if end.ID() == id {
			end = e.Source()
		}
		if end.Type() == other {
			out = append(out, e)
		}
	}
	return out
}

// endpointError reports a missing endpoint as the caller's bad reference.
func endpointError(role string, v graph.Vertex, err error) error {
	if apperror.StatusOf(err) == http.StatusNotFound {
		return apperror.NewBadRequest(fmt.Sprintf("%s vertex %s does not exist", role, v.ID())).WithInternal(err)
	}
	return err
}
