// Package pgstore is a graphstore.Store persisted in PostgreSQL through bun.
// Objects and relationships live in graph_objects and graph_relationships
// (see migrations); properties are stored as jsonb.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"github.com/onap/aai-gizmo-sub001/internal/database"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
	"github.com/onap/aai-gizmo-sub001/pkg/pgutils"
)

type objectRow struct {
	bun.BaseModel `bun:"table:graph_objects,alias:o"`

	Key        int64          `bun:"key,pk,autoincrement"`
	Type       string         `bun:"type,notnull"`
	Properties map[string]any `bun:"properties,type:jsonb,notnull"`
	CreatedAt  time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

type relationshipRow struct {
	bun.BaseModel `bun:"table:graph_relationships,alias:r"`

	Key        int64          `bun:"key,pk,autoincrement"`
	Type       string         `bun:"type,notnull"`
	SourceKey  int64          `bun:"source_key,notnull"`
	TargetKey  int64          `bun:"target_key,notnull"`
	Properties map[string]any `bun:"properties,type:jsonb,notnull"`
	CreatedAt  time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time      `bun:"updated_at,notnull,default:current_timestamp"`

	Source *objectRow `bun:"rel:belongs-to,join:source_key=key"`
	Target *objectRow `bun:"rel:belongs-to,join:target_key=key"`
}

type pgTx struct {
	mu sync.Mutex
	tx *database.SafeTx
}

// Store is a PostgreSQL backed graph store.
type Store struct {
	db  *bun.DB
	txs *graphstore.TxTracker[*pgTx]
	log *slog.Logger
}

var _ graphstore.Store = (*Store)(nil)
var _ graphstore.IdleReaper = (*Store)(nil)

// New creates a store over an already migrated database.
func New(db *bun.DB, log *slog.Logger) *Store {
	return &Store{
		db:  db,
		txs: graphstore.NewTxTracker[*pgTx](),
		log: log.With(logger.Scope("graphstore.pg")),
	}
}

// conn resolves txID to the query target and returns a release func that
// must be called when the statement finishes.
func (s *Store) conn(txID string) (bun.IDB, func(), error) {
	if txID == "" {
		return s.db, func() {}, nil
	}
	t, ok := s.txs.Get(txID)
	if !ok {
		return nil, nil, graphstore.ErrUnknownTx(txID)
	}
	t.mu.Lock()
	return t.tx, t.mu.Unlock, nil
}

func (s *Store) StoreObject(ctx context.Context, txID string, obj graphstore.Object) (graphstore.Object, error) {
	if err := checkEncodable(obj.Properties); err != nil {
		return graphstore.Object{}, err
	}
	db, release, err := s.conn(txID)
	if err != nil {
		return graphstore.Object{}, err
	}
	defer release()

	row := &objectRow{Key: obj.Key, Type: obj.Type, Properties: props(obj.Properties)}
	if _, err := db.NewInsert().Model(row).Returning("*").Exec(ctx); err != nil {
		return graphstore.Object{}, translate(err, graphstore.KindObject, obj.Key)
	}
	if obj.Key != 0 {
		// explicit keys bypass the sequence; move it past them
		if _, err := db.NewRaw(
			"SELECT setval(pg_get_serial_sequence('graph_objects', 'key'), (SELECT MAX(key) FROM graph_objects))",
		).Exec(ctx); err != nil {
			return graphstore.Object{}, fmt.Errorf("advance object sequence: %w", err)
		}
	}
	return row.toObject(), nil
}

func (s *Store) ReplaceObject(ctx context.Context, txID string, obj graphstore.Object) (graphstore.Object, error) {
	if err := checkEncodable(obj.Properties); err != nil {
		return graphstore.Object{}, err
	}
	db, release, err := s.conn(txID)
	if err != nil {
		return graphstore.Object{}, err
	}
	defer release()

	row := &objectRow{Key: obj.Key, Type: obj.Type, Properties: props(obj.Properties), UpdatedAt: time.Now()}
	res, err := db.NewUpdate().Model(row).
		Column("type", "properties", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err != nil {
		return graphstore.Object{}, translate(err, graphstore.KindObject, obj.Key)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return graphstore.Object{}, &graphstore.NotFoundError{Kind: graphstore.KindObject, Key: obj.Key}
	}
	return row.toObject(), nil
}

func (s *Store) RetrieveObject(ctx context.Context, txID string, key int64) (graphstore.Object, error) {
	db, release, err := s.conn(txID)
	if err != nil {
		return graphstore.Object{}, err
	}
	defer release()
	return s.retrieveObject(ctx, db, key)
}

func (s *Store) retrieveObject(ctx context.Context, db bun.IDB, key int64) (graphstore.Object, error) {
	row := new(objectRow)
	if err := db.NewSelect().Model(row).Where("o.key = ?", key).Scan(ctx); err != nil {
		return graphstore.Object{}, translate(err, graphstore.KindObject, key)
	}
	return row.toObject(), nil
}

func (s *Store) QueryObjects(ctx context.Context, txID string, filter graphstore.Filter) ([]graphstore.Object, error) {
	db, release, err := s.conn(txID)
	if err != nil {
		return nil, err
	}
	defer release()

	var rows []objectRow
	q := db.NewSelect().Model(&rows).OrderExpr("o.key ASC")
	applyFilter(q, "o", filter)
	if err := q.Scan(ctx); err != nil {
		return nil, translate(err, graphstore.KindObject, 0)
	}
	out := make([]graphstore.Object, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toObject())
	}
	return out, nil
}

func (s *Store) DeleteObject(ctx context.Context, txID string, key int64) error {
	db, release, err := s.conn(txID)
	if err != nil {
		return err
	}
	defer release()

	res, err := db.NewDelete().Model((*objectRow)(nil)).Where("key = ?", key).Exec(ctx)
	if err != nil {
		return translate(err, graphstore.KindObject, key)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &graphstore.NotFoundError{Kind: graphstore.KindObject, Key: key}
	}
	return nil
}

func (s *Store) StoreRelationship(ctx context.Context, txID string, rel graphstore.Relationship) (graphstore.Relationship, error) {
	if err := checkEncodable(rel.Properties); err != nil {
		return graphstore.Relationship{}, err
	}
	db, release, err := s.conn(txID)
	if err != nil {
		return graphstore.Relationship{}, err
	}
	defer release()

	row := &relationshipRow{
		Key:        rel.Key,
		Type:       rel.Type,
		SourceKey:  rel.Source.Key,
		TargetKey:  rel.Target.Key,
		Properties: props(rel.Properties),
	}
	if _, err := db.NewInsert().Model(row).Returning("*").Exec(ctx); err != nil {
		return graphstore.Relationship{}, translate(err, graphstore.KindRelationship, rel.Key)
	}
	return s.retrieveRelationship(ctx, db, row.Key)
}

func (s *Store) ReplaceRelationship(ctx context.Context, txID string, rel graphstore.Relationship) (graphstore.Relationship, error) {
	if err := checkEncodable(rel.Properties); err != nil {
		return graphstore.Relationship{}, err
	}
	db, release, err := s.conn(txID)
	if err != nil {
		return graphstore.Relationship{}, err
	}
	defer release()

	row := &relationshipRow{
		Key:        rel.Key,
		Type:       rel.Type,
		SourceKey:  rel.Source.Key,
		TargetKey:  rel.Target.Key,
		Properties: props(rel.Properties),
		UpdatedAt:  time.Now(),
	}
	res, err := db.NewUpdate().Model(row).
		Column("type", "source_key", "target_key", "properties", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return graphstore.Relationship{}, translate(err, graphstore.KindRelationship, rel.Key)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return graphstore.Relationship{}, &graphstore.NotFoundError{Kind: graphstore.KindRelationship, Key: rel.Key}
	}
	return s.retrieveRelationship(ctx, db, rel.Key)
}

func (s *Store) RetrieveRelationship(ctx context.Context, txID string, key int64) (graphstore.Relationship, error) {
	db, release, err := s.conn(txID)
	if err != nil {
		return graphstore.Relationship{}, err
	}
	defer release()
	return s.retrieveRelationship(ctx, db, key)
}

func (s *Store) retrieveRelationship(ctx context.Context, db bun.IDB, key int64) (graphstore.Relationship, error) {
	row := new(relationshipRow)
	err := db.NewSelect().Model(row).
		Relation("Source").
		Relation("Target").
		Where("r.key = ?", key).
		Scan(ctx)
	if err != nil {
		return graphstore.Relationship{}, translate(err, graphstore.KindRelationship, key)
	}
	return row.toRelationship(), nil
}

func (s *Store) RetrieveRelationships(ctx context.Context, txID string, objectKey int64) ([]graphstore.Relationship, error) {
	db, release, err := s.conn(txID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.retrieveObject(ctx, db, objectKey); err != nil {
		return nil, err
	}

	var rows []relationshipRow
	err = db.NewSelect().Model(&rows).
		Relation("Source").
		Relation("Target").
		Where("r.source_key = ? OR r.target_key = ?", objectKey, objectKey).
		OrderExpr("r.key ASC").
		Scan(ctx)
	if err != nil {
		return nil, translate(err, graphstore.KindRelationship, 0)
	}
	return toRelationships(rows), nil
}

func (s *Store) QueryRelationships(ctx context.Context, txID string, filter graphstore.Filter) ([]graphstore.Relationship, error) {
	db, release, err := s.conn(txID)
	if err != nil {
		return nil, err
	}
	defer release()

	var rows []relationshipRow
	q := db.NewSelect().Model(&rows).
		Relation("Source").
		Relation("Target").
		OrderExpr("r.key ASC")
	applyFilter(q, "r", filter)
	if err := q.Scan(ctx); err != nil {
		return nil, translate(err, graphstore.KindRelationship, 0)
	}
	return toRelationships(rows), nil
}

func (s *Store) DeleteRelationship(ctx context.Context, txID string, key int64) error {
	db, release, err := s.conn(txID)
	if err != nil {
		return err
	}
	defer release()

	res, err := db.NewDelete().Model((*relationshipRow)(nil)).Where("key = ?", key).Exec(ctx)
	if err != nil {
		return translate(err, graphstore.KindRelationship, key)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &graphstore.NotFoundError{Kind: graphstore.KindRelationship, Key: key}
	}
	return nil
}

func (s *Store) OpenTransaction(ctx context.Context) (string, error) {
	// The transaction outlives the request that opened it.
	tx, err := database.BeginSafeTx(context.WithoutCancel(ctx), s.db)
	if err != nil {
		return "", &graphstore.TransactionError{Reason: "begin", Err: err}
	}
	return s.txs.Add(&pgTx{tx: tx}), nil
}

func (s *Store) Commit(_ context.Context, txID string) error {
	t, ok := s.txs.Remove(txID)
	if !ok {
		return graphstore.ErrUnknownTx(txID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.tx.Rollback()
	if err := t.tx.Commit(); err != nil {
		return &graphstore.TransactionError{TxID: txID, Reason: "commit", Err: err}
	}
	return nil
}

func (s *Store) Rollback(_ context.Context, txID string) error {
	t, ok := s.txs.Remove(txID)
	if !ok {
		return graphstore.ErrUnknownTx(txID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return &graphstore.TransactionError{TxID: txID, Reason: "rollback", Err: err}
	}
	return nil
}

func (s *Store) TransactionExists(_ context.Context, txID string) bool {
	return s.txs.Exists(txID)
}

// RollbackIdle rolls back transactions untouched for longer than idle.
func (s *Store) RollbackIdle(ctx context.Context, idle time.Duration) ([]string, error) {
	var rolled []string
	var errs []error
	for _, id := range s.txs.Idle(idle) {
		if err := s.Rollback(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		rolled = append(rolled, id)
	}
	return rolled, errors.Join(errs...)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close rolls back every open transaction. The database itself is owned by
// whoever opened it.
func (s *Store) Close() error {
	for _, t := range s.txs.Drain() {
		t.mu.Lock()
		if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Warn("rollback on close failed", logger.Error(err))
		}
		t.mu.Unlock()
	}
	return nil
}

func applyFilter(q *bun.SelectQuery, alias string, filter graphstore.Filter) {
	for _, k := range filter.Keys() {
		want := graphstore.Text(filter[k])
		if k == graphstore.TypeKey {
			q.Where("?.type = ?", bun.Ident(alias), want)
			continue
		}
		q.Where("?.properties ->> ? = ?", bun.Ident(alias), k, want)
	}
}

func translate(err error, kind string, key int64) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &graphstore.NotFoundError{Kind: kind, Key: key}
	case pgutils.IsUniqueViolation(err):
		return &graphstore.AlreadyExistsError{Kind: kind, Key: key}
	case pgutils.IsForeignKeyViolation(err):
		return &graphstore.SchemaViolationError{Reason: "referential integrity", Err: err}
	case pgutils.IsNotNullViolation(err):
		return &graphstore.SchemaViolationError{Reason: "missing required column", Err: err}
	case pgutils.IsInvalidTextRepresentation(err):
		return &graphstore.MarshallingError{Err: err}
	case errors.Is(err, sql.ErrTxDone):
		return &graphstore.TransactionError{Reason: "transaction already finished", Err: err}
	}
	return fmt.Errorf("pgstore %s: %w", kind, err)
}

func checkEncodable(p map[string]any) error {
	if _, err := json.Marshal(p); err != nil {
		return &graphstore.MarshallingError{Err: err}
	}
	return nil
}

func props(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}

func (r *objectRow) toObject() graphstore.Object {
	return graphstore.Object{Key: r.Key, Type: r.Type, Properties: r.Properties}.Clone()
}

func (r *relationshipRow) toRelationship() graphstore.Relationship {
	rel := graphstore.Relationship{
		Key:        r.Key,
		Type:       r.Type,
		Source:     graphstore.Object{Key: r.SourceKey},
		Target:     graphstore.Object{Key: r.TargetKey},
		Properties: r.Properties,
	}
	if r.Source != nil {
		rel.Source = r.Source.toObject()
	}
	if r.Target != nil {
		rel.Target = r.Target.toObject()
	}
	return rel.Clone()
}

func toRelationships(rows []relationshipRow) []graphstore.Relationship {
	out := make([]graphstore.Relationship, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toRelationship())
	}
	return out
}
