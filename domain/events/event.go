package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
)

// Operation is the mutation a GraphEvent requests.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// Result is stamped on an event by whoever applied it.
type Result string

const (
	ResultSuccess Result = "SUCCESS"
	ResultFailure Result = "FAILURE"
)

// Entity is the schema-version tagged vertex or edge carried in events.
// Edges nest their endpoints in Source and Target.
type Entity struct {
	Key           string         `json:"key,omitempty"`
	SchemaVersion string         `json:"schema-version,omitempty"`
	Type          string         `json:"type"`
	Properties    map[string]any `json:"properties,omitempty"`
	Source        *Entity        `json:"source,omitempty"`
	Target        *Entity        `json:"target,omitempty"`
}

// VertexEntity converts v for an event of the given schema version.
func VertexEntity(v graph.Vertex, version string) *Entity {
	return &Entity{
		Key:           v.ID().String(),
		SchemaVersion: version,
		Type:          v.Type(),
		Properties:    v.Properties(),
	}
}

// EdgeEntity converts e for an event of the given schema version.
func EdgeEntity(e graph.Edge, version string) *Entity {
	return &Entity{
		Key:           e.ID().String(),
		SchemaVersion: version,
		Type:          e.Type(),
		Properties:    e.Properties(),
		Source:        VertexEntity(e.Source(), version),
		Target:        VertexEntity(e.Target(), version),
	}
}

// Vertex converts the entity back into a graph vertex.
func (en *Entity) Vertex() (graph.Vertex, error) {
	return graph.NewVertexBuilder(en.Type).ID(graph.ParseID(en.Key)).Properties(en.Properties).Build()
}

// Edge converts the entity back into a graph edge.
func (en *Entity) Edge() (graph.Edge, error) {
	if en.Source == nil || en.Target == nil {
		return graph.Edge{}, fmt.Errorf("edge %s has no source or target", en.Key)
	}
	src, err := en.Source.Vertex()
	if err != nil {
		return graph.Edge{}, fmt.Errorf("source: %w", err)
	}
	tgt, err := en.Target.Vertex()
	if err != nil {
		return graph.Edge{}, fmt.Errorf("target: %w", err)
	}
	return graph.NewEdgeBuilder(en.Type).
		ID(graph.ParseID(en.Key)).
		Properties(en.Properties).
		Source(src).
		Target(tgt).
		Build()
}

func (en *Entity) normalize() {
	if en == nil {
		return
	}
	graph.NormalizeNumbers(en.Properties)
	en.Source.normalize()
	en.Target.normalize()
}

// GraphEvent is a requested mutation and, once applied, its outcome.
// DBTransactionID scopes the mutation to an open DAO transaction.
type GraphEvent struct {
	Operation       Operation `json:"operation"`
	TransactionID   string    `json:"transaction-id"`
	DBTransactionID string    `json:"database-transaction-id,omitempty"`
	Timestamp       int64     `json:"timestamp"`
	Vertex          *Entity   `json:"vertex,omitempty"`
	Edge            *Entity   `json:"edge,omitempty"`
	Result          Result    `json:"result,omitempty"`
	ErrorMessage    string    `json:"error-message,omitempty"`
	HTTPErrorStatus int       `json:"http-error-status,omitempty"`
}

func (ev *GraphEvent) payload() *Entity {
	if ev.Vertex != nil {
		return ev.Vertex
	}
	return ev.Edge
}

// ObjectKey is the key of the carried vertex or edge.
func (ev *GraphEvent) ObjectKey() string {
	if p := ev.payload(); p != nil {
		return p.Key
	}
	return ""
}

// ObjectType is the type of the carried vertex or edge.
func (ev *GraphEvent) ObjectType() string {
	if p := ev.payload(); p != nil {
		return p.Type
	}
	return ""
}

// Fingerprint is the ETag of the carried entity.
func (ev *GraphEvent) Fingerprint() (string, error) {
	switch {
	case ev.Vertex != nil:
		v, err := ev.Vertex.Vertex()
		if err != nil {
			return "", err
		}
		return graph.VertexHash(v), nil
	case ev.Edge != nil:
		e, err := ev.Edge.Edge()
		if err != nil {
			return "", err
		}
		return graph.EdgeHash(e), nil
	}
	return "", fmt.Errorf("event %s carries no entity", ev.TransactionID)
}

// Builder assembles a GraphEvent. Build stamps a fresh transaction id and
// the current time.
type Builder struct {
	ev  GraphEvent
	now func() time.Time
}

func NewBuilder(op Operation) *Builder {
	return &Builder{ev: GraphEvent{Operation: op}, now: time.Now}
}

func (b *Builder) Vertex(en *Entity) *Builder {
	b.ev.Vertex = en
	return b
}

func (b *Builder) Edge(en *Entity) *Builder {
	b.ev.Edge = en
	return b
}

func (b *Builder) DBTransactionID(txID string) *Builder {
	b.ev.DBTransactionID = txID
	return b
}

func (b *Builder) Build() (GraphEvent, error) {
	switch b.ev.Operation {
	case OperationCreate, OperationUpdate, OperationDelete:
	default:
		return GraphEvent{}, fmt.Errorf("unknown operation %q", b.ev.Operation)
	}
	if (b.ev.Vertex == nil) == (b.ev.Edge == nil) {
		return GraphEvent{}, fmt.Errorf("event needs exactly one of vertex or edge")
	}
	ev := b.ev
	ev.TransactionID = uuid.NewString()
	ev.Timestamp = b.now().UnixMilli()
	return ev, nil
}
