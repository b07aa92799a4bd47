// Package graphstore defines the embedded graph storage library: objects and
// relationships keyed by backend assigned int64 keys, explicit transaction
// handles and a typed error hierarchy. Implementations live in memstore and
// pgstore.
package graphstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"
)

// TypeKey is the reserved filter key matching an object's or relationship's
// Type instead of one of its properties.
const TypeKey = "@type"

// Object is a stored vertex.
type Object struct {
	Key        int64
	Type       string
	Properties map[string]any
}

// Clone returns a copy with its own property map.
func (o Object) Clone() Object {
	o.Properties = maps.Clone(o.Properties)
	if o.Properties == nil {
		o.Properties = map[string]any{}
	}
	return o
}

// Relationship is a stored directed edge. On reads Source and Target carry the
// full endpoint objects; on writes only their keys are used.
type Relationship struct {
	Key        int64
	Type       string
	Source     Object
	Target     Object
	Properties map[string]any
}

// Clone returns a deep copy of the relationship and its endpoints.
func (r Relationship) Clone() Relationship {
	r.Properties = maps.Clone(r.Properties)
	if r.Properties == nil {
		r.Properties = map[string]any{}
	}
	r.Source = r.Source.Clone()
	r.Target = r.Target.Clone()
	return r
}

// Filter selects objects or relationships by property equality. Values
// are compared by their textual form so "5" matches 5. TypeKey matches Type.
type Filter map[string]any

// Keys returns the filter keys in sorted order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Match reports whether a stored entity with the given type and properties
// satisfies every filter entry.
func (f Filter) Match(typ string, props map[string]any) bool {
	for k, want := range f {
		if k == TypeKey {
			if typ != Text(want) {
				return false
			}
			continue
		}
		got, ok := props[k]
		if !ok || Text(got) != Text(want) {
			return false
		}
	}
	return true
}

// Text renders a scalar in the form used for filter comparison.
func Text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Store is the embedded graph storage API. An empty txID runs the call
// outside any transaction; otherwise the call joins the open transaction.
type Store interface {
	// StoreObject creates an object. A zero Key asks the store to assign one.
	StoreObject(ctx context.Context, txID string, obj Object) (Object, error)
	// ReplaceObject replaces the type and properties of an existing object.
	ReplaceObject(ctx context.Context, txID string, obj Object) (Object, error)
	RetrieveObject(ctx context.Context, txID string, key int64) (Object, error)
	QueryObjects(ctx context.Context, txID string, filter Filter) ([]Object, error)
	DeleteObject(ctx context.Context, txID string, key int64) error

	StoreRelationship(ctx context.Context, txID string, rel Relationship) (Relationship, error)
	ReplaceRelationship(ctx context.Context, txID string, rel Relationship) (Relationship, error)
	RetrieveRelationship(ctx context.Context, txID string, key int64) (Relationship, error)
	// RetrieveRelationships returns every relationship incident to the object.
	RetrieveRelationships(ctx context.Context, txID string, objectKey int64) ([]Relationship, error)
	QueryRelationships(ctx context.Context, txID string, filter Filter) ([]Relationship, error)
	DeleteRelationship(ctx context.Context, txID string, key int64) error

	OpenTransaction(ctx context.Context) (string, error)
	Commit(ctx context.Context, txID string) error
	Rollback(ctx context.Context, txID string) error
	TransactionExists(ctx context.Context, txID string) bool

	Ping(ctx context.Context) error
	Close() error
}

// IdleReaper is implemented by stores that can roll back transactions nobody
// has touched for a while.
type IdleReaper interface {
	RollbackIdle(ctx context.Context, idle time.Duration) ([]string, error)
}
