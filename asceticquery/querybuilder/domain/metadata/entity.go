package metadata

// Entity holds field mappings for a specific entity
type Entity struct {
	name       string
	table      string
	identifier string
	fields     map[string]Field
}

// NewEntity creates entity metadata stored under the same table name with an "id" identifier
func NewEntity(name string) *Entity {
	return &Entity{
		name:       name,
		table:      name,
		identifier: "id",
		fields:     make(map[string]Field),
	}
}

// WithTable sets the table or document collection name
func (e *Entity) WithTable(table string) *Entity {
	e.table = table
	return e
}

// WithIdentifier sets the name of the identifier field
func (e *Entity) WithIdentifier(name string) *Entity {
	e.identifier = name
	return e
}

// AddField registers a scalar or temporal field stored under its own name
func (e *Entity) AddField(name string, typ Type) *Entity {
	return e.AddColumn(name, name, typ)
}

// AddColumn registers a scalar or temporal field stored under a different name
func (e *Entity) AddColumn(name, column string, typ Type) *Entity {
	e.fields[name] = Field{
		Name:   name,
		Column: column,
		Kind:   typ.kind(),
		Type:   typ,
	}
	return e
}

// AddAssociation registers a single-valued relation: childColumn lives on this
// entity and references parentColumn of target
func (e *Entity) AddAssociation(name string, target Metadata, childColumn, parentColumn string) *Entity {
	e.fields[name] = Field{
		Name:   name,
		Column: childColumn,
		Kind:   KindAssociation,
		Target: target,
		ForeignKeys: []ForeignKeyPair{
			{ChildColumn: childColumn, ParentColumn: parentColumn},
		},
	}
	return e
}

// AddCollection registers a to-many relation: childColumn lives on target and
// references parentColumn of this entity
func (e *Entity) AddCollection(name string, target Metadata, childColumn, parentColumn string) *Entity {
	e.fields[name] = Field{
		Name:   name,
		Column: name,
		Kind:   KindCollection,
		Target: target,
		ForeignKeys: []ForeignKeyPair{
			{ChildColumn: childColumn, ParentColumn: parentColumn},
		},
	}
	return e
}

// Register registers a field with full mapping configuration
func (e *Entity) Register(field Field) *Entity {
	e.fields[field.Name] = field
	return e
}

func (e *Entity) Name() string {
	return e.name
}

func (e *Entity) Table() string {
	return e.table
}

func (e *Entity) Identifier() Field {
	field, ok := e.fields[e.identifier]
	if !ok {
		return Field{Name: e.identifier, Column: e.identifier, Kind: KindScalar}
	}
	return field
}

func (e *Entity) Field(name string) (Field, bool) {
	field, ok := e.fields[name]
	return field, ok
}

// Fields returns the registered field names; order is unspecified.
func (e *Entity) Fields() []string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	return names
}
