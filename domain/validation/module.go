package validation

import (
	"go.uber.org/fx"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/schema"
)

// Module provides the validators over the live schema Holder.
var Module = fx.Module("validation",
	fx.Provide(func(h *schema.Holder) *EdgeValidator { return NewEdgeValidator(h) }),
	fx.Provide(func(h *schema.Holder) *VertexValidator { return NewVertexValidator(h) }),
	fx.Provide(func(h *schema.Holder, dao graph.Dao) *MultiplicityValidator {
		return NewMultiplicityValidator(h, dao)
	}),
)
