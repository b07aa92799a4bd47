// Package schema holds the per-version relationship schema and vertex-type
// registry that the validators consult. Both are immutable once built; a
// Holder swaps whole Registry snapshots when the schema is reloaded.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// PropType is the declared scalar type of a property.
type PropType string

const (
	PropString  PropType = "string"
	PropInteger PropType = "integer"
	PropLong    PropType = "long"
	PropFloat   PropType = "float"
	PropDouble  PropType = "double"
	PropBoolean PropType = "boolean"
)

// ParsePropType accepts the lowercase type names used in schema files.
func ParsePropType(s string) (PropType, error) {
	switch t := PropType(strings.ToLower(strings.TrimSpace(s))); t {
	case PropString, PropInteger, PropLong, PropFloat, PropDouble, PropBoolean:
		return t, nil
	}
	return "", fmt.Errorf("unknown property type %q", s)
}

// Multiplicity is the cardinality rule attached to a relationship.
type Multiplicity string

const (
	Many2Many Multiplicity = "MANY2MANY"
	Many2One  Multiplicity = "MANY2ONE"
	One2Many  Multiplicity = "ONE2MANY"
	One2One   Multiplicity = "ONE2ONE"
)

// ParseMultiplicity maps a rule tag to a Multiplicity; empty means MANY2MANY.
func ParseMultiplicity(s string) (Multiplicity, error) {
	if strings.TrimSpace(s) == "" {
		return Many2Many, nil
	}
	switch m := Multiplicity(strings.ToUpper(strings.TrimSpace(s))); m {
	case Many2Many, Many2One, One2Many, One2One:
		return m, nil
	}
	return "", fmt.Errorf("unknown multiplicity %q", s)
}

// RelationKey builds the composite lookup key "src:tgt:edgeType".
func RelationKey(src, tgt, edgeType string) string {
	return src + ":" + tgt + ":" + edgeType
}

// Rule declares one legal (source type, target type, edge type) triple.
type Rule struct {
	From         string
	To           string
	Label        string
	Multiplicity Multiplicity
	Properties   map[string]PropType
}

type relation struct {
	props        map[string]PropType
	multiplicity Multiplicity
}

// RelationshipSchema answers which edges are legal for one API version.
type RelationshipSchema struct {
	relations map[string]relation
	types     map[string]map[string]PropType
}

// NewRelationshipSchema indexes rules. A triple declared twice is an error.
func NewRelationshipSchema(rules []Rule) (*RelationshipSchema, error) {
	s := &RelationshipSchema{
		relations: make(map[string]relation, len(rules)),
		types:     make(map[string]map[string]PropType),
	}
	for _, r := range rules {
		if r.From == "" || r.To == "" || r.Label == "" {
			return nil, fmt.Errorf("rule %q -> %q (%q): from, to and label are required", r.From, r.To, r.Label)
		}
		key := RelationKey(r.From, r.To, r.Label)
		if _, dup := s.relations[key]; dup {
			return nil, fmt.Errorf("duplicate relationship rule %s", key)
		}
		m := r.Multiplicity
		if m == "" {
			m = Many2Many
		}
		props := copyProps(r.Properties)
		s.relations[key] = relation{props: props, multiplicity: m}

		byType, ok := s.types[r.Label]
		if !ok {
			byType = make(map[string]PropType)
			s.types[r.Label] = byType
		}
		for name, t := range props {
			byType[name] = t
		}
	}
	return s, nil
}

// LookupRelation returns the allowed properties for a composite key.
func (s *RelationshipSchema) LookupRelation(key string) (map[string]PropType, bool) {
	rel, ok := s.relations[key]
	if !ok {
		return nil, false
	}
	return copyProps(rel.props), true
}

// LookupRelationType returns the properties any rule with this edge type allows.
func (s *RelationshipSchema) LookupRelationType(edgeType string) (map[string]PropType, bool) {
	props, ok := s.types[edgeType]
	if !ok {
		return nil, false
	}
	return copyProps(props), true
}

// IsValidType reports whether some rule uses edgeType.
func (s *RelationshipSchema) IsValidType(edgeType string) bool {
	_, ok := s.types[edgeType]
	return ok
}

// GetValidRelationTypes lists, sorted, the edge types allowed from srcType to tgtType.
func (s *RelationshipSchema) GetValidRelationTypes(srcType, tgtType string) []string {
	prefix := srcType + ":" + tgtType + ":"
	var out []string
	for key := range s.relations {
		if rest, ok := strings.CutPrefix(key, prefix); ok && !strings.Contains(rest, ":") {
			out = append(out, rest)
		}
	}
	sort.Strings(out)
	return out
}

// LookupRelationMultiplicity returns the cardinality rule for a composite key.
func (s *RelationshipSchema) LookupRelationMultiplicity(key string) (Multiplicity, bool) {
	rel, ok := s.relations[key]
	if !ok {
		return "", false
	}
	return rel.multiplicity, true
}

// Len is the number of rules.
func (s *RelationshipSchema) Len() int { return len(s.relations) }

func copyProps(in map[string]PropType) map[string]PropType {
	out := make(map[string]PropType, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// VertexProperty describes one property of a vertex type.
type VertexProperty struct {
	Type     PropType
	Required bool
	Key      bool
}

// VertexType is the property schema of one vertex type.
type VertexType struct {
	Name       string
	Properties map[string]VertexProperty
}

// Property looks up a property definition.
func (v VertexType) Property(name string) (VertexProperty, bool) {
	p, ok := v.Properties[name]
	return p, ok
}

// Required lists the required property names, sorted.
func (v VertexType) Required() []string {
	var out []string
	for name, p := range v.Properties {
		if p.Required {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Keys lists the key property names, sorted.
func (v VertexType) Keys() []string {
	var out []string
	for name, p := range v.Properties {
		if p.Key {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// VertexTypeRegistry maps vertex type names to their property schemas.
type VertexTypeRegistry struct {
	types map[string]VertexType
}

// NewVertexTypeRegistry indexes the given types by name.
func NewVertexTypeRegistry(types ...VertexType) *VertexTypeRegistry {
	r := &VertexTypeRegistry{types: make(map[string]VertexType, len(types))}
	for _, t := range types {
		r.types[t.Name] = t
	}
	return r
}

// Vertex returns the schema of a vertex type.
func (r *VertexTypeRegistry) Vertex(name string) (VertexType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns the known vertex type names, sorted.
func (r *VertexTypeRegistry) Types() []string {
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Version bundles the schemas of one API version.
type Version struct {
	Name          string
	Relationships *RelationshipSchema
	Vertices      *VertexTypeRegistry
}

// Registry maps API versions to their schemas.
type Registry struct {
	versions map[string]Version
	order    []string
}

// NewRegistry builds a registry. Missing halves of a version are filled with
// empty schemas.
func NewRegistry(versions ...Version) (*Registry, error) {
	r := &Registry{versions: make(map[string]Version, len(versions))}
	for _, v := range versions {
		if v.Name == "" {
			return nil, fmt.Errorf("schema version name is required")
		}
		if _, dup := r.versions[v.Name]; dup {
			return nil, fmt.Errorf("duplicate schema version %s", v.Name)
		}
		if v.Relationships == nil {
			v.Relationships, _ = NewRelationshipSchema(nil)
		}
		if v.Vertices == nil {
			v.Vertices = NewVertexTypeRegistry()
		}
		r.versions[v.Name] = v
		r.order = append(r.order, v.Name)
	}
	sort.Slice(r.order, func(i, j int) bool { return versionLess(r.order[i], r.order[j]) })
	return r, nil
}

func (r *Registry) version(name string) (Version, error) {
	v, ok := r.versions[name]
	if !ok {
		return Version{}, apperror.NewBadRequest("invalid version").
			WithDetails(map[string]any{"version": name})
	}
	return v, nil
}

// Relationships returns the relationship schema of a version.
func (r *Registry) Relationships(version string) (*RelationshipSchema, error) {
	v, err := r.version(version)
	if err != nil {
		return nil, err
	}
	return v.Relationships, nil
}

// Vertices returns the vertex-type registry of a version.
func (r *Registry) Vertices(version string) (*VertexTypeRegistry, error) {
	v, err := r.version(version)
	if err != nil {
		return nil, err
	}
	return v.Vertices, nil
}

// Versions lists known versions oldest first.
func (r *Registry) Versions() []string {
	return append([]string(nil), r.order...)
}

// Latest returns the newest version, or "" for an empty registry.
func (r *Registry) Latest() string {
	if len(r.order) == 0 {
		return ""
	}
	return r.order[len(r.order)-1]
}

// versionLess orders "v9" before "v10"; names without a numeric suffix sort
// lexically before numbered ones.
func versionLess(a, b string) bool {
	na, aok := versionNumber(a)
	nb, bok := versionNumber(b)
	switch {
	case aok && bok && na != nb:
		return na < nb
	case aok != bok:
		return bok
	}
	return a < b
}

func versionNumber(v string) (int, bool) {
	s := strings.TrimPrefix(strings.ToLower(v), "v")
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
