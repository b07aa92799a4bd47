package validation

import (
	"fmt"
	"sort"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// RelationshipSource resolves the relationship schema of a version.
// *schema.Holder satisfies it.
type RelationshipSource interface {
	Relationships(version string) (*schema.RelationshipSchema, error)
}

// EdgeValidator checks edge payloads against the relationship schema.
type EdgeValidator struct {
	schemas RelationshipSource
}

func NewEdgeValidator(schemas RelationshipSource) *EdgeValidator {
	return &EdgeValidator{schemas: schemas}
}

// ResolveEdgeType returns the only edge type the schema allows between src
// and tgt. Zero or several candidates are BAD_REQUEST.
func (v *EdgeValidator) ResolveEdgeType(src, tgt, version string) (string, error) {
	rels, err := v.schemas.Relationships(version)
	if err != nil {
		return "", err
	}
	return resolveEdgeType(rels, src, tgt)
}

func resolveEdgeType(rels *schema.RelationshipSchema, src, tgt string) (string, error) {
	types := rels.GetValidRelationTypes(src, tgt)
	switch len(types) {
	case 1:
		return types[0], nil
	case 0:
		return "", apperror.NewBadRequest(
			fmt.Sprintf("no valid relationship type from %s to %s", src, tgt))
	}
	return "", apperror.NewBadRequest(
		fmt.Sprintf("ambiguous relationship type from %s to %s", src, tgt)).
		WithDetails(map[string]any{"candidates": types})
}

// allowed returns the property map of the composite key, failing when the
// triple is not in the schema.
func allowed(rels *schema.RelationshipSchema, src, tgt, edgeType string) (map[string]schema.PropType, error) {
	key := schema.RelationKey(src, tgt, edgeType)
	props, ok := rels.LookupRelation(key)
	if !ok {
		return nil, apperror.NewBadRequest("invalid relationship: " + key)
	}
	return props, nil
}

// ValidateAddPayload builds the edge to create from p.
func (v *EdgeValidator) ValidateAddPayload(version string, p EdgePayload) (graph.Edge, error) {
	rels, err := v.schemas.Relationships(version)
	if err != nil {
		return graph.Edge{}, err
	}
	if p.Source == "" || p.Target == "" {
		return graph.Edge{}, apperror.NewBadRequest("edge source and target are required")
	}
	src, err := ParseVertexURI(p.Source)
	if err != nil {
		return graph.Edge{}, err
	}
	tgt, err := ParseVertexURI(p.Target)
	if err != nil {
		return graph.Edge{}, err
	}

	edgeType := p.Type
	if edgeType == "" {
		if edgeType, err = resolveEdgeType(rels, src.Type(), tgt.Type()); err != nil {
			return graph.Edge{}, err
		}
	}
	schemaProps, err := allowed(rels, src.Type(), tgt.Type(), edgeType)
	if err != nil {
		return graph.Edge{}, err
	}

	props, err := coerceAll(p.Properties, schemaProps, true)
	if err != nil {
		return graph.Edge{}, err
	}
	return buildEdge(edgeType, graph.ID{}, src, tgt, props)
}

// ValidateUpdatePayload builds the replacement for existing from p. The
// property set is replaced as a whole.
func (v *EdgeValidator) ValidateUpdatePayload(existing graph.Edge, version string, p EdgePayload) (graph.Edge, error) {
	schemaProps, err := v.checkUnchanged(existing, version, p)
	if err != nil {
		return graph.Edge{}, err
	}
	props, err := coerceAll(p.Properties, schemaProps, false)
	if err != nil {
		return graph.Edge{}, err
	}
	return buildEdge(existing.Type(), existing.ID(), existing.Source(), existing.Target(), props)
}

// ValidatePatchPayload merges p into existing. A null value removes the
// property.
func (v *EdgeValidator) ValidatePatchPayload(existing graph.Edge, version string, p EdgePayload) (graph.Edge, error) {
	schemaProps, err := v.checkUnchanged(existing, version, p)
	if err != nil {
		return graph.Edge{}, err
	}
	merged, err := mergeAll(existing.Properties(), p.Properties, schemaProps)
	if err != nil {
		return graph.Edge{}, err
	}
	return buildEdge(existing.Type(), existing.ID(), existing.Source(), existing.Target(), merged)
}

func (v *EdgeValidator) checkUnchanged(existing graph.Edge, version string, p EdgePayload) (map[string]schema.PropType, error) {
	rels, err := v.schemas.Relationships(version)
	if err != nil {
		return nil, err
	}
	if p.Type != "" && p.Type != existing.Type() {
		return nil, apperror.NewBadRequest(
			fmt.Sprintf("edge type cannot be changed from %s to %s", existing.Type(), p.Type))
	}
	if p.Source != "" {
		src, err := ParseVertexURI(p.Source)
		if err != nil {
			return nil, err
		}
		if !sameVertex(src, existing.Source()) {
			return nil, apperror.NewBadRequest("edge source cannot be changed")
		}
	}
	if p.Target != "" {
		tgt, err := ParseVertexURI(p.Target)
		if err != nil {
			return nil, err
		}
		if !sameVertex(tgt, existing.Target()) {
			return nil, apperror.NewBadRequest("edge target cannot be changed")
		}
	}
	return allowed(rels, existing.Source().Type(), existing.Target().Type(), existing.Type())
}

// ValidateOutgoing keeps only the properties the schema declares for the
// edge's key.
func (v *EdgeValidator) ValidateOutgoing(version string, e graph.Edge) (graph.Edge, error) {
	rels, err := v.schemas.Relationships(version)
	if err != nil {
		return graph.Edge{}, err
	}
	key := schema.RelationKey(e.Source().Type(), e.Target().Type(), e.Type())
	schemaProps, ok := rels.LookupRelation(key)
	if !ok {
		return graph.Edge{}, apperror.ErrNotFound.WithMessage("invalid relationship type: " + key)
	}
	out := make(map[string]any, len(schemaProps))
	for name, val := range e.Properties() {
		if _, ok := schemaProps[name]; ok {
			out[name] = val
		}
	}
	return buildEdge(e.Type(), e.ID(), e.Source(), e.Target(), out)
}

func buildEdge(typ string, id graph.ID, src, tgt graph.Vertex, props map[string]any) (graph.Edge, error) {
	e, err := graph.NewEdgeBuilder(typ).ID(id).Source(src).Target(tgt).Properties(props).Build()
	if err != nil {
		return graph.Edge{}, apperror.NewBadRequest(err.Error())
	}
	return e, nil
}

// coerceAll validates every property of in against schemaProps. With
// allowKey the create-with-key property passes through untouched.
func coerceAll(in map[string]any, schemaProps map[string]schema.PropType, allowKey bool) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for _, name := range sortedKeys(in) {
		val := in[name]
		if allowKey && name == graph.PropKey {
			out[name] = val
			continue
		}
		t, ok := schemaProps[name]
		if !ok {
			return nil, invalidProperty(name)
		}
		c, err := coerceValue(val, t)
		if err != nil {
			return nil, invalidValue(name, err)
		}
		out[name] = c
	}
	return out, nil
}

// mergeAll applies patch onto base. Nulls remove known properties.
func mergeAll(base, patch map[string]any, schemaProps map[string]schema.PropType) (map[string]any, error) {
	out := stripReserved(base)
	for _, name := range sortedKeys(patch) {
		val := patch[name]
		t, ok := schemaProps[name]
		if !ok {
			return nil, invalidProperty(name)
		}
		if val == nil {
			delete(out, name)
			continue
		}
		c, err := coerceValue(val, t)
		if err != nil {
			return nil, invalidValue(name, err)
		}
		out[name] = c
	}
	return out, nil
}

func invalidProperty(name string) error {
	return apperror.NewBadRequest("invalid property: " + name).
		WithDetails(map[string]any{"property": name})
}

func invalidValue(name string, err error) error {
	return apperror.NewBadRequest(fmt.Sprintf("invalid value for property %s: %v", name, err)).
		WithDetails(map[string]any{"property": name})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateProperties resolves the edge type between two vertex types when
// edgeType is empty and coerces props against the rule. It serves callers
// that know endpoint types but not endpoint URIs, such as batch requests.
func (v *EdgeValidator) ValidateProperties(version, srcType, tgtType, edgeType string, props map[string]any) (string, map[string]any, error) {
	rels, err := v.schemas.Relationships(version)
	if err != nil {
		return "", nil, err
	}
	if edgeType == "" {
		if edgeType, err = resolveEdgeType(rels, srcType, tgtType); err != nil {
			return "", nil, err
		}
	}
	schemaProps, err := allowed(rels, srcType, tgtType, edgeType)
	if err != nil {
		return "", nil, err
	}
	out, err := coerceAll(props, schemaProps, true)
	if err != nil {
		return "", nil, err
	}
	return edgeType, out, nil
}
