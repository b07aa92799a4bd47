package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// VertexPayload is a vertex as submitted by an API caller.
type VertexPayload struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// EdgePayload is an edge as submitted by an API caller. Source and Target are
// vertex URIs ending in <vertex-type>/<id>.
type EdgePayload struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type,omitempty"`
	Source     string         `json:"source,omitempty"`
	Target     string         `json:"target,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// ParseVertexURI extracts the vertex type and id from the last two path
// segments of uri.
func ParseVertexURI(uri string) (graph.Vertex, error) {
	path := uri
	if u, err := url.Parse(uri); err == nil {
		path = u.Path
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-1] == "" || segments[len(segments)-2] == "" {
		return graph.Vertex{}, apperror.NewBadRequest(fmt.Sprintf("invalid vertex uri %q", uri))
	}
	typ := segments[len(segments)-2]
	id := graph.ParseID(segments[len(segments)-1])
	v, err := graph.NewVertexBuilder(typ).ID(id).Build()
	if err != nil {
		return graph.Vertex{}, apperror.NewBadRequest(fmt.Sprintf("invalid vertex uri %q", uri))
	}
	return v, nil
}

func sameVertex(a, b graph.Vertex) bool {
	return a.Type() == b.Type() && a.ID() == b.ID()
}

// stripReserved drops the properties the DAO owns.
func stripReserved(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if !graph.IsReserved(k) {
			out[k] = v
		}
	}
	return out
}
