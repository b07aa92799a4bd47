package crud

import (
	"fmt"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
)

// BasePath is the root of the inventory API.
const BasePath = "/services/inventory"

// VertexURL is the self URI of a vertex.
func VertexURL(version, typ string, id graph.ID) string {
	return fmt.Sprintf("%s/%s/%s/%s", BasePath, version, typ, id)
}

// EdgeURL is the self URI of an edge.
func EdgeURL(version, typ string, id graph.ID) string {
	return fmt.Sprintf("%s/relationships/%s/%s/%s", BasePath, version, typ, id)
}

// EdgeLink summarizes an incident edge on a vertex response. Only the far
// endpoint is set.
type EdgeLink struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	URL    string `json:"url"`
	Source string `json:"source-vertex,omitempty"`
	Target string `json:"target-vertex,omitempty"`
}

type VertexResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	URL        string         `json:"url"`
	Properties map[string]any `json:"properties"`
	In         []EdgeLink     `json:"in,omitempty"`
	Out        []EdgeLink     `json:"out,omitempty"`
}

type EdgeResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	URL        string         `json:"url"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Properties map[string]any `json:"properties"`
}

func renderVertex(version string, v graph.Vertex, edges []graph.Edge) VertexResponse {
	out := VertexResponse{
		ID:         v.ID().String(),
		Type:       v.Type(),
		URL:        VertexURL(version, v.Type(), v.ID()),
		Properties: v.Properties(),
	}
	for _, e := range edges {
		link := EdgeLink{
			ID:   e.ID().String(),
			Type: e.Type(),
			URL:  EdgeURL(version, e.Type(), e.ID()),
		}
		if e.Target().ID() == v.ID() {
			link.Source = VertexURL(version, e.Source().Type(), e.Source().ID())
			out.In = append(out.In, link)
		}
		if e.Source().ID() == v.ID() {
			link.Source = ""
			link.Target = VertexURL(version, e.Target().Type(), e.Target().ID())
			out.Out = append(out.Out, link)
		}
	}
	return out
}

func renderVertices(version string, vs []graph.Vertex) []VertexResponse {
	out := make([]VertexResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, renderVertex(version, v, nil))
	}
	return out
}

func renderEdge(version string, e graph.Edge) EdgeResponse {
	return EdgeResponse{
		ID:         e.ID().String(),
		Type:       e.Type(),
		URL:        EdgeURL(version, e.Type(), e.ID()),
		Source:     VertexURL(version, e.Source().Type(), e.Source().ID()),
		Target:     VertexURL(version, e.Target().Type(), e.Target().ID()),
		Properties: e.Properties(),
	}
}

func renderEdges(version string, es []graph.Edge) []EdgeResponse {
	out := make([]EdgeResponse, 0, len(es))
	for _, e := range es {
		out = append(out, renderEdge(version, e))
	}
	return out
}
