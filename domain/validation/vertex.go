package validation

import (
	"fmt"
	"strings"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// VertexSource resolves the vertex-type registry of a version.
// *schema.Holder satisfies it.
type VertexSource interface {
	Vertices(version string) (*schema.VertexTypeRegistry, error)
}

// VertexValidator checks vertex payloads against the vertex-type registry.
type VertexValidator struct {
	schemas VertexSource
}

func NewVertexValidator(schemas VertexSource) *VertexValidator {
	return &VertexValidator{schemas: schemas}
}

func (v *VertexValidator) vertexType(version, typ string) (schema.VertexType, error) {
	reg, err := v.schemas.Vertices(version)
	if err != nil {
		return schema.VertexType{}, err
	}
	if typ == "" {
		return schema.VertexType{}, apperror.NewBadRequest("vertex type is required")
	}
	vt, ok := reg.Vertex(typ)
	if !ok {
		return schema.VertexType{}, apperror.NewBadRequest("invalid vertex type: " + typ)
	}
	return vt, nil
}

func propTypes(vt schema.VertexType) map[string]schema.PropType {
	out := make(map[string]schema.PropType, len(vt.Properties))
	for name, p := range vt.Properties {
		out[name] = p.Type
	}
	return out
}

func checkRequired(vt schema.VertexType, props map[string]any) error {
	var missing []string
	for _, name := range vt.Required() {
		if _, ok := props[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperror.NewBadRequest(
			fmt.Sprintf("missing required properties for %s: %s", vt.Name, strings.Join(missing, ", "))).
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

// ValidateAddPayload builds the vertex to create. aai-key passes through so
// the DAO can create with that key.
func (v *VertexValidator) ValidateAddPayload(version string, p VertexPayload) (graph.Vertex, error) {
	vt, err := v.vertexType(version, p.Type)
	if err != nil {
		return graph.Vertex{}, err
	}
	props, err := coerceAll(p.Properties, propTypes(vt), true)
	if err != nil {
		return graph.Vertex{}, err
	}
	if err := checkRequired(vt, props); err != nil {
		return graph.Vertex{}, err
	}
	return buildVertex(vt.Name, graph.ID{}, props)
}

// ValidateUpdatePayload builds the full replacement of existing.
func (v *VertexValidator) ValidateUpdatePayload(existing graph.Vertex, version string, p VertexPayload) (graph.Vertex, error) {
	vt, err := v.checkType(existing, version, p)
	if err != nil {
		return graph.Vertex{}, err
	}
	props, err := coerceAll(p.Properties, propTypes(vt), false)
	if err != nil {
		return graph.Vertex{}, err
	}
	if err := checkRequired(vt, props); err != nil {
		return graph.Vertex{}, err
	}
	return buildVertex(vt.Name, existing.ID(), props)
}

// ValidatePatchPayload merges p into existing. A null removes the property,
// but the merged result must still carry every required property.
func (v *VertexValidator) ValidatePatchPayload(existing graph.Vertex, version string, p VertexPayload) (graph.Vertex, error) {
	vt, err := v.checkType(existing, version, p)
	if err != nil {
		return graph.Vertex{}, err
	}
	merged, err := mergeAll(existing.Properties(), p.Properties, propTypes(vt))
	if err != nil {
		return graph.Vertex{}, err
	}
	if err := checkRequired(vt, merged); err != nil {
		return graph.Vertex{}, err
	}
	return buildVertex(vt.Name, existing.ID(), merged)
}

func (v *VertexValidator) checkType(existing graph.Vertex, version string, p VertexPayload) (schema.VertexType, error) {
	if p.Type != "" && p.Type != existing.Type() {
		return schema.VertexType{}, apperror.NewBadRequest(
			fmt.Sprintf("vertex type cannot be changed from %s to %s", existing.Type(), p.Type))
	}
	return v.vertexType(version, existing.Type())
}

// ValidateOutgoing keeps the properties the type declares plus the reserved
// markers. An unknown type is NOT_FOUND.
func (v *VertexValidator) ValidateOutgoing(version string, vx graph.Vertex) (graph.Vertex, error) {
	reg, err := v.schemas.Vertices(version)
	if err != nil {
		return graph.Vertex{}, err
	}
	vt, ok := reg.Vertex(vx.Type())
	if !ok {
		return graph.Vertex{}, apperror.ErrNotFound.WithMessage("invalid vertex type: " + vx.Type())
	}
	out := make(map[string]any)
	for name, val := range vx.Properties() {
		if _, ok := vt.Properties[name]; ok || name == graph.PropNodeType || name == graph.PropLastModTS {
			out[name] = val
		}
	}
	return buildVertex(vx.Type(), vx.ID(), out)
}

func buildVertex(typ string, id graph.ID, props map[string]any) (graph.Vertex, error) {
	vx, err := graph.NewVertexBuilder(typ).ID(id).Properties(props).Build()
	if err != nil {
		return graph.Vertex{}, apperror.NewBadRequest(err.Error())
	}
	return vx, nil
}

// Known reports NOT_FOUND when version declares no vertex type typ.
func (v *VertexValidator) Known(version, typ string) error {
	reg, err := v.schemas.Vertices(version)
	if err != nil {
		return err
	}
	if _, ok := reg.Vertex(typ); !ok {
		return apperror.ErrNotFound.WithMessage("invalid vertex type: " + typ)
	}
	return nil
}
