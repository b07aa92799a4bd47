package graph

import (
	"context"
)

// Dao is the backend-agnostic graph access contract. Every call accepts an
// optional transaction id; "" runs the call outside any transaction.
//
// Failures are *apperror.Error values: NOT_FOUND for absent entities or a
// type mismatch, BAD_REQUEST for bad references and integrity violations,
// INTERNAL_SERVER_ERROR for backend failures. The remote adapter passes the
// peer's status through unchanged.
type Dao interface {
	GetVertex(ctx context.Context, id ID, typ string, txID string) (Vertex, error)
	// GetVertexEdges returns the edges incident to a vertex. Filter keys
	// match edge properties; PropNodeType matches the edge type.
	GetVertexEdges(ctx context.Context, id ID, filter map[string]string, txID string) ([]Edge, error)
	// GetVertices scans vertices of a type. A non-empty properties list
	// restricts the returned property names.
	GetVertices(ctx context.Context, typ string, filter map[string]string, properties []string, version string, txID string) ([]Vertex, error)
	GetEdge(ctx context.Context, id ID, typ string, txID string) (Edge, error)
	GetEdges(ctx context.Context, typ string, filter map[string]string, txID string) ([]Edge, error)

	AddVertex(ctx context.Context, typ string, props map[string]any, version string, txID string) (Vertex, error)
	AddEdge(ctx context.Context, typ string, source, target Vertex, props map[string]any, version string, txID string) (Edge, error)
	UpdateVertex(ctx context.Context, id ID, typ string, props map[string]any, version string, txID string) (Vertex, error)
	UpdateEdge(ctx context.Context, edge Edge, txID string) (Edge, error)
	DeleteVertex(ctx context.Context, id ID, typ string, txID string) error
	DeleteEdge(ctx context.Context, id ID, typ string, txID string) error

	OpenTransaction(ctx context.Context) (string, error)
	CommitTransaction(ctx context.Context, txID string) error
	RollbackTransaction(ctx context.Context, txID string) error
	TransactionExists(ctx context.Context, txID string) (bool, error)

	BulkOperation(ctx context.Context, req BulkRequest) (BulkResult, error)
}
