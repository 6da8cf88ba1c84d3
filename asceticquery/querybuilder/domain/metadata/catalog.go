package metadata

import (
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Catalog is a set of entities that may reference each other through relations.
type Catalog struct {
	entities map[string]*Entity
}

func NewCatalog() *Catalog {
	return &Catalog{
		entities: make(map[string]*Entity),
	}
}

func (c *Catalog) Add(entity *Entity) *Catalog {
	c.entities[entity.Name()] = entity
	return c
}

func (c *Catalog) Entity(name string) (*Entity, bool) {
	entity, ok := c.entities[name]
	return entity, ok
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entities))
	for name := range c.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type catalogFile struct {
	Entities map[string]entityDecl `yaml:"entities"`
}

type entityDecl struct {
	Table      string                  `yaml:"table"`
	Identifier string                  `yaml:"identifier"`
	Fields     map[string]fieldDecl    `yaml:"fields"`
	Relations  map[string]relationDecl `yaml:"relations"`
}

type fieldDecl struct {
	Column string `yaml:"column"`
	Type   Type   `yaml:"type"`
}

type relationDecl struct {
	Kind         string           `yaml:"kind"`
	Target       string           `yaml:"target"`
	ChildColumn  string           `yaml:"childColumn"`
	ParentColumn string           `yaml:"parentColumn"`
	ForeignKeys  []foreignKeyDecl `yaml:"foreignKeys"`
}

type foreignKeyDecl struct {
	Child  string `yaml:"child"`
	Parent string `yaml:"parent"`
}

var knownTypes = map[Type]bool{
	TypeAny:      true,
	TypeString:   true,
	TypeInteger:  true,
	TypeFloat:    true,
	TypeBoolean:  true,
	TypeUUID:     true,
	TypeULID:     true,
	TypeDate:     true,
	TypeDateTime: true,
}

// LoadCatalog reads entity declarations from YAML:
//
//	entities:
//	  artist:
//	    table: artist
//	    fields:
//	      id: {type: integer}
//	      createdAt: {column: created_at, type: datetime}
//	    relations:
//	      albums: {kind: collection, target: album, childColumn: artist_id, parentColumn: id}
//
// Every invalid declaration is reported, not only the first one.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return NewCatalog(), nil
		}
		return nil, errors.Wrap(err, "decode catalog")
	}

	catalog := NewCatalog()
	for name, decl := range file.Entities {
		entity := NewEntity(name)
		if decl.Table != "" {
			entity.WithTable(decl.Table)
		}
		if decl.Identifier != "" {
			entity.WithIdentifier(decl.Identifier)
		}
		catalog.Add(entity)
	}

	var result error
	for _, name := range sortedKeys(file.Entities) {
		decl := file.Entities[name]
		entity := catalog.entities[name]
		for _, fieldName := range sortedKeys(decl.Fields) {
			field := decl.Fields[fieldName]
			if !knownTypes[field.Type] {
				result = multierror.Append(result, fmt.Errorf("%s.%s: unknown type %q", name, fieldName, field.Type))
				continue
			}
			column := field.Column
			if column == "" {
				column = fieldName
			}
			entity.AddColumn(fieldName, column, field.Type)
		}
		for _, relName := range sortedKeys(decl.Relations) {
			rel := decl.Relations[relName]
			if err := addRelation(catalog, entity, relName, rel); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	if result != nil {
		return nil, result
	}
	return catalog, nil
}

func addRelation(catalog *Catalog, entity *Entity, name string, rel relationDecl) error {
	target, ok := catalog.Entity(rel.Target)
	if !ok {
		return fmt.Errorf("%s.%s: unknown target entity %q", entity.Name(), name, rel.Target)
	}
	keys := make([]ForeignKeyPair, 0, len(rel.ForeignKeys)+1)
	if rel.ChildColumn != "" || rel.ParentColumn != "" {
		keys = append(keys, ForeignKeyPair{ChildColumn: rel.ChildColumn, ParentColumn: rel.ParentColumn})
	}
	for _, fk := range rel.ForeignKeys {
		keys = append(keys, ForeignKeyPair{ChildColumn: fk.Child, ParentColumn: fk.Parent})
	}
	if len(keys) == 0 {
		return fmt.Errorf("%s.%s: relation needs at least one foreign key", entity.Name(), name)
	}
	for _, fk := range keys {
		if fk.ChildColumn == "" || fk.ParentColumn == "" {
			return fmt.Errorf("%s.%s: foreign key needs both columns", entity.Name(), name)
		}
	}

	field := Field{
		Name:        name,
		Target:      target,
		ForeignKeys: keys,
	}
	switch rel.Kind {
	case "association":
		field.Kind = KindAssociation
		field.Column = keys[0].ChildColumn
	case "collection":
		field.Kind = KindCollection
		field.Column = name
	default:
		return fmt.Errorf("%s.%s: unknown relation kind %q", entity.Name(), name, rel.Kind)
	}
	entity.Register(field)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
