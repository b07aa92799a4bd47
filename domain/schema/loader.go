package schema

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

var fileNamePattern = regexp.MustCompile(`^(relationships|vertices)_(.+)\.ya?ml$`)

type relationshipsFile struct {
	Properties map[string]string `yaml:"properties"`
	Rules      []struct {
		From         string   `yaml:"from"`
		To           string   `yaml:"to"`
		Label        string   `yaml:"label"`
		Multiplicity string   `yaml:"multiplicity"`
		Properties   []string `yaml:"properties"`
	} `yaml:"rules"`
}

type verticesFile struct {
	Vertices map[string]struct {
		Properties map[string]struct {
			Type     string `yaml:"type"`
			Required bool   `yaml:"required"`
			Key      bool   `yaml:"key"`
		} `yaml:"properties"`
	} `yaml:"vertices"`
}

// Source produces a complete Registry snapshot.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Registry, error)
}

// Parse builds a Registry from schema files keyed by base name. Names that do
// not look like relationships_<version>.yaml or vertices_<version>.yaml are
// ignored.
func Parse(files map[string][]byte) (*Registry, error) {
	rels := make(map[string]*RelationshipSchema)
	verts := make(map[string]*VertexTypeRegistry)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := fileNamePattern.FindStringSubmatch(path.Base(name))
		if m == nil {
			continue
		}
		kind, version := m[1], m[2]
		switch kind {
		case "relationships":
			if _, dup := rels[version]; dup {
				return nil, fmt.Errorf("%s: relationships for %s declared twice", name, version)
			}
			s, err := parseRelationships(files[name])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			rels[version] = s
		case "vertices":
			if _, dup := verts[version]; dup {
				return nil, fmt.Errorf("%s: vertices for %s declared twice", name, version)
			}
			r, err := parseVertices(files[name])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			verts[version] = r
		}
	}

	seen := make(map[string]bool)
	var versions []Version
	for v := range rels {
		seen[v] = true
	}
	for v := range verts {
		seen[v] = true
	}
	for v := range seen {
		versions = append(versions, Version{Name: v, Relationships: rels[v], Vertices: verts[v]})
	}
	return NewRegistry(versions...)
}

func parseRelationships(data []byte) (*RelationshipSchema, error) {
	var f relationshipsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse relationships: %w", err)
	}

	shared := make(map[string]PropType, len(f.Properties))
	for name, raw := range f.Properties {
		t, err := ParsePropType(raw)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		shared[name] = t
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, r := range f.Rules {
		m, err := ParseMultiplicity(r.Multiplicity)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		props := shared
		if r.Properties != nil {
			props = make(map[string]PropType, len(r.Properties))
			for _, name := range r.Properties {
				t, ok := shared[name]
				if !ok {
					return nil, fmt.Errorf("rule %d: property %s is not declared", i, name)
				}
				props[name] = t
			}
		}
		rules = append(rules, Rule{
			From:         r.From,
			To:           r.To,
			Label:        r.Label,
			Multiplicity: m,
			Properties:   props,
		})
	}
	return NewRelationshipSchema(rules)
}

func parseVertices(data []byte) (*VertexTypeRegistry, error) {
	var f verticesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vertices: %w", err)
	}

	types := make([]VertexType, 0, len(f.Vertices))
	for name, def := range f.Vertices {
		vt := VertexType{Name: name, Properties: make(map[string]VertexProperty, len(def.Properties))}
		for pname, p := range def.Properties {
			t := PropString
			if p.Type != "" {
				var err error
				if t, err = ParsePropType(p.Type); err != nil {
					return nil, fmt.Errorf("vertex %s property %s: %w", name, pname, err)
				}
			}
			vt.Properties[pname] = VertexProperty{Type: t, Required: p.Required, Key: p.Key}
		}
		types = append(types, vt)
	}
	return NewVertexTypeRegistry(types...), nil
}

// FSSource reads schema files from the top level of a file system.
type FSSource struct {
	fsys fs.FS
	name string
}

// NewFSSource reads from fsys; name labels the source in logs.
func NewFSSource(fsys fs.FS, name string) *FSSource {
	return &FSSource{fsys: fsys, name: name}
}

func (s *FSSource) Name() string { return s.name }

func (s *FSSource) Load(_ context.Context) (*Registry, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read schema dir %s: %w", s.name, err)
	}
	files := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !fileNamePattern.MatchString(e.Name()) {
			continue
		}
		data, err := fs.ReadFile(s.fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read schema file %s: %w", e.Name(), err)
		}
		files[e.Name()] = data
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no schema files found in %s", s.name)
	}
	return Parse(files)
}

// ObjectStore is the slice of object storage the S3 source needs.
type ObjectStore interface {
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3Source reads schema files stored under a bucket prefix.
type S3Source struct {
	store  ObjectStore
	bucket string
	prefix string
}

func NewS3Source(store ObjectStore, bucket, prefix string) *S3Source {
	return &S3Source{store: store, bucket: bucket, prefix: prefix}
}

func (s *S3Source) Name() string { return "s3://" + s.bucket + "/" + s.prefix }

func (s *S3Source) Load(ctx context.Context) (*Registry, error) {
	keys, err := s.store.ListKeys(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list schema objects: %w", err)
	}
	files := make(map[string][]byte)
	for _, key := range keys {
		base := path.Base(key)
		if !fileNamePattern.MatchString(base) {
			continue
		}
		data, err := s.store.GetObject(ctx, s.bucket, key)
		if err != nil {
			return nil, fmt.Errorf("get schema object %s: %w", key, err)
		}
		files[base] = data
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no schema files found in %s", s.Name())
	}
	return Parse(files)
}
