// Package memstore is an in-process graphstore.Store. Transactions work on a
// private snapshot and record a journal; commit replays the journal against
// the live state and swaps it in only when every operation still applies.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onap/aai-gizmo-sub001/pkg/graphstore"
)

var errClosed = errors.New("memstore: store closed")

type state struct {
	objects map[int64]graphstore.Object
	rels    map[int64]graphstore.Relationship
}

func newState() *state {
	return &state{
		objects: make(map[int64]graphstore.Object),
		rels:    make(map[int64]graphstore.Relationship),
	}
}

// clone copies the maps. Entries are replaced, never mutated, so sharing the
// entry values between states is safe.
func (s *state) clone() *state {
	c := &state{
		objects: make(map[int64]graphstore.Object, len(s.objects)),
		rels:    make(map[int64]graphstore.Relationship, len(s.rels)),
	}
	for k, v := range s.objects {
		c.objects[k] = v
	}
	for k, v := range s.rels {
		c.rels[k] = v
	}
	return c
}

type op func(*state) error

type tx struct {
	mu       sync.Mutex
	snapshot *state
	journal  []op
}

// Store is an in-memory graph store safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	live    *state
	nextKey atomic.Int64
	txs     *graphstore.TxTracker[*tx]
	closed  atomic.Bool
}

var _ graphstore.Store = (*Store)(nil)
var _ graphstore.IdleReaper = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		live: newState(),
		txs:  graphstore.NewTxTracker[*tx](),
	}
}

// SetClock overrides the clock used for transaction idle tracking.
func (s *Store) SetClock(now func() time.Time) {
	s.txs.SetClock(now)
}

func (s *Store) allocate(requested int64) int64 {
	if requested == 0 {
		return s.nextKey.Add(1)
	}
	for {
		cur := s.nextKey.Load()
		if requested <= cur || s.nextKey.CompareAndSwap(cur, requested) {
			return requested
		}
	}
}

// write runs fn against the live state or the transaction snapshot.
func (s *Store) write(txID string, fn op) error {
	if s.closed.Load() {
		return errClosed
	}
	if txID == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.live)
	}
	t, ok := s.txs.Get(txID)
	if !ok {
		return graphstore.ErrUnknownTx(txID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := fn(t.snapshot); err != nil {
		return err
	}
	t.journal = append(t.journal, fn)
	return nil
}

// read runs fn against the live state or the transaction snapshot.
func (s *Store) read(txID string, fn func(*state) error) error {
	if s.closed.Load() {
		return errClosed
	}
	if txID == "" {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(s.live)
	}
	t, ok := s.txs.Get(txID)
	if !ok {
		return graphstore.ErrUnknownTx(txID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.snapshot)
}

func (s *Store) StoreObject(_ context.Context, txID string, obj graphstore.Object) (graphstore.Object, error) {
	obj = obj.Clone()
	obj.Key = s.allocate(obj.Key)
	err := s.write(txID, func(st *state) error {
		if _, exists := st.objects[obj.Key]; exists {
			return &graphstore.AlreadyExistsError{Kind: graphstore.KindObject, Key: obj.Key}
		}
		st.objects[obj.Key] = obj
		return nil
	})
	if err != nil {
		return graphstore.Object{}, err
	}
	return obj.Clone(), nil
}

func (s *Store) ReplaceObject(_ context.Context, txID string, obj graphstore.Object) (graphstore.Object, error) {
	obj = obj.Clone()
	err := s.write(txID, func(st *state) error {
		if _, exists := st.objects[obj.Key]; !exists {
			return &graphstore.NotFoundError{Kind: graphstore.KindObject, Key: obj.Key}
		}
		st.objects[obj.Key] = obj
		return nil
	})
	if err != nil {
		return graphstore.Object{}, err
	}
	return obj.Clone(), nil
}

func (s *Store) RetrieveObject(_ context.Context, txID string, key int64) (graphstore.Object, error) {
	var out graphstore.Object
	err := s.read(txID, func(st *state) error {
		obj, ok := st.objects[key]
		if !ok {
			return &graphstore.NotFoundError{Kind: graphstore.KindObject, Key: key}
		}
		out = obj.Clone()
		return nil
	})
	return out, err
}

func (s *Store) QueryObjects(_ context.Context, txID string, filter graphstore.Filter) ([]graphstore.Object, error) {
	var out []graphstore.Object
	err := s.read(txID, func(st *state) error {
		for _, obj := range st.objects {
			if filter.Match(obj.Type, obj.Properties) {
				out = append(out, obj.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, err
}

func (s *Store) DeleteObject(_ context.Context, txID string, key int64) error {
	return s.write(txID, func(st *state) error {
		if _, ok := st.objects[key]; !ok {
			return &graphstore.NotFoundError{Kind: graphstore.KindObject, Key: key}
		}
		for _, rel := range st.rels {
			if rel.Source.Key == key || rel.Target.Key == key {
				return &graphstore.SchemaViolationError{Reason: "object still has relationships"}
			}
		}
		delete(st.objects, key)
		return nil
	})
}

func (s *Store) StoreRelationship(_ context.Context, txID string, rel graphstore.Relationship) (graphstore.Relationship, error) {
	rel = rel.Clone()
	rel.Key = s.allocate(rel.Key)
	var out graphstore.Relationship
	err := s.write(txID, func(st *state) error {
		if _, exists := st.rels[rel.Key]; exists {
			return &graphstore.AlreadyExistsError{Kind: graphstore.KindRelationship, Key: rel.Key}
		}
		if err := checkEndpoints(st, rel); err != nil {
			return err
		}
		st.rels[rel.Key] = stripEndpoints(rel)
		out = resolve(st, st.rels[rel.Key])
		return nil
	})
	return out, err
}

func (s *Store) ReplaceRelationship(_ context.Context, txID string, rel graphstore.Relationship) (graphstore.Relationship, error) {
	rel = rel.Clone()
	var out graphstore.Relationship
	err := s.write(txID, func(st *state) error {
		if _, exists := st.rels[rel.Key]; !exists {
			return &graphstore.NotFoundError{Kind: graphstore.KindRelationship, Key: rel.Key}
		}
		if err := checkEndpoints(st, rel); err != nil {
			return err
		}
		st.rels[rel.Key] = stripEndpoints(rel)
		out = resolve(st, st.rels[rel.Key])
		return nil
	})
	return out, err
}

func (s *Store) RetrieveRelationship(_ context.Context, txID string, key int64) (graphstore.Relationship, error) {
	var out graphstore.Relationship
	err := s.read(txID, func(st *state) error {
		rel, ok := st.rels[key]
		if !ok {
			return &graphstore.NotFoundError{Kind: graphstore.KindRelationship, Key: key}
		}
		out = resolve(st, rel)
		return nil
	})
	return out, err
}

func (s *Store) RetrieveRelationships(_ context.Context, txID string, objectKey int64) ([]graphstore.Relationship, error) {
	var out []graphstore.Relationship
	err := s.read(txID, func(st *state) error {
		if _, ok := st.objects[objectKey]; !ok {
			return &graphstore.NotFoundError{Kind: graphstore.KindObject, Key: objectKey}
		}
		for _, rel := range st.rels {
			if rel.Source.Key == objectKey || rel.Target.Key == objectKey {
				out = append(out, resolve(st, rel))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, err
}

func (s *Store) QueryRelationships(_ context.Context, txID string, filter graphstore.Filter) ([]graphstore.Relationship, error) {
	var out []graphstore.Relationship
	err := s.read(txID, func(st *state) error {
		for _, rel := range st.rels {
			if filter.Match(rel.Type, rel.Properties) {
				out = append(out, resolve(st, rel))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, err
}

func (s *Store) DeleteRelationship(_ context.Context, txID string, key int64) error {
	return s.write(txID, func(st *state) error {
		if _, ok := st.rels[key]; !ok {
			return &graphstore.NotFoundError{Kind: graphstore.KindRelationship, Key: key}
		}
		delete(st.rels, key)
		return nil
	})
}

func (s *Store) OpenTransaction(_ context.Context) (string, error) {
	if s.closed.Load() {
		return "", errClosed
	}
	s.mu.RLock()
	snapshot := s.live.clone()
	s.mu.RUnlock()
	return s.txs.Add(&tx{snapshot: snapshot}), nil
}

func (s *Store) Commit(_ context.Context, txID string) error {
	t, ok := s.txs.Remove(txID)
	if !ok {
		return graphstore.ErrUnknownTx(txID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.live.clone()
	for _, fn := range t.journal {
		if err := fn(work); err != nil {
			return &graphstore.TransactionError{TxID: txID, Reason: "commit conflict", Err: err}
		}
	}
	s.live = work
	return nil
}

func (s *Store) Rollback(_ context.Context, txID string) error {
	if _, ok := s.txs.Remove(txID); !ok {
		return graphstore.ErrUnknownTx(txID)
	}
	return nil
}

func (s *Store) TransactionExists(_ context.Context, txID string) bool {
	return s.txs.Exists(txID)
}

// RollbackIdle discards transactions untouched for longer than idle.
func (s *Store) RollbackIdle(ctx context.Context, idle time.Duration) ([]string, error) {
	var rolled []string
	for _, id := range s.txs.Idle(idle) {
		if err := s.Rollback(ctx, id); err == nil {
			rolled = append(rolled, id)
		}
	}
	return rolled, nil
}

func (s *Store) Ping(context.Context) error {
	if s.closed.Load() {
		return errClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.closed.Store(true)
	s.txs.Drain()
	return nil
}

func checkEndpoints(st *state, rel graphstore.Relationship) error {
	if _, ok := st.objects[rel.Source.Key]; !ok {
		return &graphstore.SchemaViolationError{Reason: "relationship source does not exist"}
	}
	if _, ok := st.objects[rel.Target.Key]; !ok {
		return &graphstore.SchemaViolationError{Reason: "relationship target does not exist"}
	}
	return nil
}

func stripEndpoints(rel graphstore.Relationship) graphstore.Relationship {
	rel.Source = graphstore.Object{Key: rel.Source.Key}
	rel.Target = graphstore.Object{Key: rel.Target.Key}
	return rel
}

func resolve(st *state, rel graphstore.Relationship) graphstore.Relationship {
	rel.Source = st.objects[rel.Source.Key]
	rel.Target = st.objects[rel.Target.Key]
	return rel.Clone()
}
