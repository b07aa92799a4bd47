package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
	"github.com/onap/aai-gizmo-sub001/pkg/tracing"
)

// EmbeddedDao drives an in-process graphstore.Store.
type EmbeddedDao struct {
	store graphstore.Store
	log   *slog.Logger
	now   func() time.Time
}

var _ Dao = (*EmbeddedDao)(nil)

// NewEmbeddedDao creates a DAO over store.
func NewEmbeddedDao(store graphstore.Store, log *slog.Logger) *EmbeddedDao {
	return &EmbeddedDao{
		store: store,
		log:   log.With(logger.Scope("graph.embedded")),
		now:   time.Now,
	}
}

// storeKey maps an ID onto the store's numeric key space. String ids can
// never exist there.
func storeKey(id ID, kind string) (int64, error) {
	if n, ok := id.Int64(); ok {
		return n, nil
	}
	return 0, apperror.NewNotFound(kind, id.String())
}

// mapStoreError translates the library's typed errors at the adapter boundary.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var (
		txErr     *graphstore.TransactionError
		marshErr  *graphstore.MarshallingError
		notFound  *graphstore.NotFoundError
		exists    *graphstore.AlreadyExistsError
		violation *graphstore.SchemaViolationError
		appErr    *apperror.Error
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &txErr):
		return apperror.NewInternal(txErr.Error(), err)
	case errors.As(err, &marshErr):
		return apperror.NewInternal("failed to marshal properties", err)
	case errors.As(err, &notFound):
		return apperror.NewNotFound(notFound.Kind, strconv.FormatInt(notFound.Key, 10)).WithInternal(err)
	case errors.As(err, &exists):
		return apperror.NewBadRequest(exists.Error()).WithInternal(err)
	case errors.As(err, &violation):
		return apperror.NewBadRequest(violation.Error()).WithInternal(err)
	}
	return apperror.NewInternal("graph store failure", err)
}

func (d *EmbeddedDao) stamp(typ string, props map[string]any) map[string]any {
	out := copyMap(props)
	delete(out, PropKey)
	delete(out, PropURI)
	out[PropNodeType] = typ
	out[PropLastModTS] = d.now().UnixMilli()
	return out
}

func toVertex(obj graphstore.Object) Vertex {
	return Vertex{id: IntID(obj.Key), typ: obj.Type, props: copyMap(obj.Properties)}
}

func toEdge(rel graphstore.Relationship) Edge {
	return Edge{
		id:     IntID(rel.Key),
		typ:    rel.Type,
		props:  copyMap(rel.Properties),
		source: toVertex(rel.Source),
		target: toVertex(rel.Target),
	}
}

func toFilter(typ string, filter map[string]string) graphstore.Filter {
	f := make(graphstore.Filter, len(filter)+1)
	for k, v := range filter {
		if k == PropNodeType {
			f[graphstore.TypeKey] = v
			continue
		}
		f[k] = v
	}
	if typ != "" {
		f[graphstore.TypeKey] = typ
	}
	return f
}

// requestedKey extracts a create-with-key request from props.
func requestedKey(props map[string]any) (int64, error) {
	raw, ok := props[PropKey]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v == math.Trunc(v) && v > 0 && v < math.MaxInt64 {
			return int64(v), nil
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, apperror.NewBadRequest(fmt.Sprintf("%s must be an integer, got %v", PropKey, raw))
}

func (d *EmbeddedDao) GetVertex(ctx context.Context, id ID, typ, txID string) (_ Vertex, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.get_vertex",
		attribute.String("gizmo.vertex.id", id.String()),
		attribute.String("gizmo.vertex.type", typ))
	defer func() { tracing.Finish(span, err) }()

	obj, err := d.retrieveObject(ctx, id, typ, txID)
	if err != nil {
		return Vertex{}, err
	}
	return toVertex(obj), nil
}

func (d *EmbeddedDao) retrieveObject(ctx context.Context, id ID, typ, txID string) (graphstore.Object, error) {
	key, err := storeKey(id, "vertex")
	if err != nil {
		return graphstore.Object{}, err
	}
	obj, err := d.store.RetrieveObject(ctx, txID, key)
	if err != nil {
		return graphstore.Object{}, mapStoreError(err)
	}
	if typ != "" && obj.Type != typ {
		return graphstore.Object{}, apperror.NewNotFound(typ, id.String())
	}
	return obj, nil
}

func (d *EmbeddedDao) GetVertexEdges(ctx context.Context, id ID, filter map[string]string, txID string) (_ []Edge, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.get_vertex_edges",
		attribute.String("gizmo.vertex.id", id.String()))
	defer func() { tracing.Finish(span, err) }()

	key, err := storeKey(id, "vertex")
	if err != nil {
		return nil, err
	}
	rels, err := d.store.RetrieveRelationships(ctx, txID, key)
	if err != nil {
		return nil, mapStoreError(err)
	}
	f := toFilter("", filter)
	out := make([]Edge, 0, len(rels))
	for _, rel := range rels {
		if f.Match(rel.Type, rel.Properties) {
			out = append(out, toEdge(rel))
		}
	}
	return out, nil
}

func (d *EmbeddedDao) GetVertices(ctx context.Context, typ string, filter map[string]string, properties []string, version, txID string) (_ []Vertex, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.get_vertices",
		attribute.String("gizmo.vertex.type", typ),
		attribute.String("gizmo.schema.version", version))
	defer func() { tracing.Finish(span, err) }()

	objs, err := d.store.QueryObjects(ctx, txID, toFilter(typ, filter))
	if err != nil {
		return nil, mapStoreError(err)
	}
	out := make([]Vertex, 0, len(objs))
	for _, obj := range objs {
		v := toVertex(obj)
		if len(properties) > 0 {
			v.props = selectProps(v.props, properties)
		}
		out = append(out, v)
	}
	return out, nil
}

func selectProps(props map[string]any, names []string) map[string]any {
	out := make(map[string]any, len(names))
	for _, name := range names {
		if val, ok := props[name]; ok {
			out[name] = val
		}
	}
	return out
}

func (d *EmbeddedDao) GetEdge(ctx context.Context, id ID, typ, txID string) (_ Edge, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.get_edge",
		attribute.String("gizmo.edge.id", id.String()),
		attribute.String("gizmo.edge.type", typ))
	defer func() { tracing.Finish(span, err) }()

	rel, err := d.retrieveRelationship(ctx, id, typ, txID)
	if err != nil {
		return Edge{}, err
	}
	return toEdge(rel), nil
}

func (d *EmbeddedDao) retrieveRelationship(ctx context.Context, id ID, typ, txID string) (graphstore.Relationship, error) {
	key, err := storeKey(id, "edge")
	if err != nil {
		return graphstore.Relationship{}, err
	}
	rel, err := d.store.RetrieveRelationship(ctx, txID, key)
	if err != nil {
		return graphstore.Relationship{}, mapStoreError(err)
	}
	if typ != "" && rel.Type != typ {
		return graphstore.Relationship{}, apperror.NewNotFound(typ, id.String())
	}
	return rel, nil
}

func (d *EmbeddedDao) GetEdges(ctx context.Context, typ string, filter map[string]string, txID string) (_ []Edge, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.get_edges",
		attribute.String("gizmo.edge.type", typ))
	defer func() { tracing.Finish(span, err) }()

	rels, err := d.store.QueryRelationships(ctx, txID, toFilter(typ, filter))
	if err != nil {
		return nil, mapStoreError(err)
	}
	out := make([]Edge, 0, len(rels))
	for _, rel := range rels {
		out = append(out, toEdge(rel))
	}
	return out, nil
}

func (d *EmbeddedDao) AddVertex(ctx context.Context, typ string, props map[string]any, version, txID string) (_ Vertex, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.add_vertex",
		attribute.String("gizmo.vertex.type", typ),
		attribute.String("gizmo.schema.version", version))
	defer func() { tracing.Finish(span, err) }()

	if typ == "" {
		return Vertex{}, apperror.NewBadRequest("vertex type is required")
	}
	key, err := requestedKey(props)
	if err != nil {
		return Vertex{}, err
	}
	obj, err := d.store.StoreObject(ctx, txID, graphstore.Object{
		Key:        key,
		Type:       typ,
		Properties: d.stamp(typ, props),
	})
	if err != nil {
		return Vertex{}, mapStoreError(err)
	}
	d.log.Debug("vertex added",
		slog.Int64("key", obj.Key),
		slog.String("type", typ),
		slog.String("transaction_id", txID))
	return toVertex(obj), nil
}

// checkEndpoint confirms that v exists with its declared type. A bad
// reference is the caller's fault, so it is BAD_REQUEST rather than NOT_FOUND.
func (d *EmbeddedDao) checkEndpoint(ctx context.Context, role string, v Vertex, txID string) (graphstore.Object, error) {
	key, ok := v.id.Int64()
	if !ok {
		return graphstore.Object{}, apperror.NewBadRequest(fmt.Sprintf("%s vertex %s does not exist", role, v.id))
	}
	obj, err := d.store.RetrieveObject(ctx, txID, key)
	if err != nil {
		var nf *graphstore.NotFoundError
		if errors.As(err, &nf) {
			return graphstore.Object{}, apperror.NewBadRequest(fmt.Sprintf("%s vertex %s does not exist", role, v.id))
		}
		return graphstore.Object{}, mapStoreError(err)
	}
	if obj.Type != v.typ {
		return graphstore.Object{}, apperror.NewBadRequest(
			fmt.Sprintf("%s vertex %s has type %s, not %s", role, v.id, obj.Type, v.typ))
	}
	return obj, nil
}

func (d *EmbeddedDao) AddEdge(ctx context.Context, typ string, source, target Vertex, props map[string]any, version, txID string) (_ Edge, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.add_edge",
		attribute.String("gizmo.edge.type", typ),
		attribute.String("gizmo.schema.version", version))
	defer func() { tracing.Finish(span, err) }()

	if typ == "" {
		return Edge{}, apperror.NewBadRequest("edge type is required")
	}
	src, err := d.checkEndpoint(ctx, "source", source, txID)
	if err != nil {
		return Edge{}, err
	}
	tgt, err := d.checkEndpoint(ctx, "target", target, txID)
	if err != nil {
		return Edge{}, err
	}
	key, err := requestedKey(props)
	if err != nil {
		return Edge{}, err
	}

	rel, err := d.store.StoreRelationship(ctx, txID, graphstore.Relationship{
		Key:        key,
		Type:       typ,
		Source:     src,
		Target:     tgt,
		Properties: d.stamp(typ, props),
	})
	if err != nil {
		return Edge{}, mapStoreError(err)
	}
	d.log.Debug("edge added",
		slog.Int64("key", rel.Key),
		slog.String("type", typ),
		slog.Int64("source", src.Key),
		slog.Int64("target", tgt.Key),
		slog.String("transaction_id", txID))
	return toEdge(rel), nil
}

func (d *EmbeddedDao) UpdateVertex(ctx context.Context, id ID, typ string, props map[string]any, version, txID string) (_ Vertex, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.update_vertex",
		attribute.String("gizmo.vertex.id", id.String()),
		attribute.String("gizmo.vertex.type", typ),
		attribute.String("gizmo.schema.version", version))
	defer func() { tracing.Finish(span, err) }()

	obj, err := d.retrieveObject(ctx, id, typ, txID)
	if err != nil {
		return Vertex{}, err
	}
	obj.Properties = d.stamp(obj.Type, props)
	updated, err := d.store.ReplaceObject(ctx, txID, obj)
	if err != nil {
		return Vertex{}, mapStoreError(err)
	}
	return toVertex(updated), nil
}

func (d *EmbeddedDao) UpdateEdge(ctx context.Context, edge Edge, txID string) (_ Edge, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.update_edge",
		attribute.String("gizmo.edge.id", edge.id.String()),
		attribute.String("gizmo.edge.type", edge.typ))
	defer func() { tracing.Finish(span, err) }()

	rel, err := d.retrieveRelationship(ctx, edge.id, edge.typ, txID)
	if err != nil {
		return Edge{}, err
	}
	if k, ok := edge.source.id.Int64(); ok && k != rel.Source.Key {
		return Edge{}, apperror.NewBadRequest("edge source cannot be changed")
	}
	if k, ok := edge.target.id.Int64(); ok && k != rel.Target.Key {
		return Edge{}, apperror.NewBadRequest("edge target cannot be changed")
	}
	rel.Properties = d.stamp(rel.Type, edge.props)
	updated, err := d.store.ReplaceRelationship(ctx, txID, rel)
	if err != nil {
		return Edge{}, mapStoreError(err)
	}
	return toEdge(updated), nil
}

func (d *EmbeddedDao) DeleteVertex(ctx context.Context, id ID, typ, txID string) (err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.delete_vertex",
		attribute.String("gizmo.vertex.id", id.String()),
		attribute.String("gizmo.vertex.type", typ))
	defer func() { tracing.Finish(span, err) }()

	obj, err := d.retrieveObject(ctx, id, typ, txID)
	if err != nil {
		return err
	}
	rels, err := d.store.RetrieveRelationships(ctx, txID, obj.Key)
	if err != nil {
		return mapStoreError(err)
	}
	if len(rels) > 0 {
		return apperror.NewBadRequest(fmt.Sprintf("vertex %s still has %d edge(s)", id, len(rels))).
			WithDetails(map[string]any{"edges": len(rels)})
	}
	if err := d.store.DeleteObject(ctx, txID, obj.Key); err != nil {
		return mapStoreError(err)
	}
	d.log.Debug("vertex deleted", slog.Int64("key", obj.Key), slog.String("transaction_id", txID))
	return nil
}

func (d *EmbeddedDao) DeleteEdge(ctx context.Context, id ID, typ, txID string) (err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.delete_edge",
		attribute.String("gizmo.edge.id", id.String()),
		attribute.String("gizmo.edge.type", typ))
	defer func() { tracing.Finish(span, err) }()

	rel, err := d.retrieveRelationship(ctx, id, typ, txID)
	if err != nil {
		return err
	}
	if err := d.store.DeleteRelationship(ctx, txID, rel.Key); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (d *EmbeddedDao) OpenTransaction(ctx context.Context) (string, error) {
	txID, err := d.store.OpenTransaction(ctx)
	if err != nil || txID == "" {
		return "", apperror.NewInternal("failed to open transaction", err)
	}
	d.log.Debug("transaction opened", slog.String("transaction_id", txID))
	return txID, nil
}

func (d *EmbeddedDao) CommitTransaction(ctx context.Context, txID string) error {
	if err := d.store.Commit(ctx, txID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (d *EmbeddedDao) RollbackTransaction(ctx context.Context, txID string) error {
	if err := d.store.Rollback(ctx, txID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (d *EmbeddedDao) TransactionExists(ctx context.Context, txID string) (bool, error) {
	return d.store.TransactionExists(ctx, txID), nil
}

func (d *EmbeddedDao) BulkOperation(ctx context.Context, req BulkRequest) (_ BulkResult, err error) {
	ctx, span := tracing.Start(ctx, "graph.embedded.bulk",
		attribute.Int("gizmo.bulk.operations", len(req.Operations)))
	defer func() { tracing.Finish(span, err) }()

	return ApplyBulk(ctx, d, req, d.log)
}
