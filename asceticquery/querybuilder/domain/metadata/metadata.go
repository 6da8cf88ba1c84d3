package metadata

// Kind is the semantic category of a field.
type Kind int

const (
	KindUnknown Kind = iota
	KindScalar
	KindTemporal
	// KindAssociation is a single-valued relation; the foreign key lives on the owning entity
	KindAssociation
	// KindCollection is a to-many relation; the foreign key lives on the target entity
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindTemporal:
		return "temporal"
	case KindAssociation:
		return "association"
	case KindCollection:
		return "collection"
	}
	return "unknown"
}

func (k Kind) IsRelation() bool {
	return k == KindAssociation || k == KindCollection
}

// Type refines a scalar or temporal field for value coercion.
type Type string

const (
	TypeAny      Type = ""
	TypeString   Type = "string"
	TypeInteger  Type = "integer"
	TypeFloat    Type = "float"
	TypeBoolean  Type = "boolean"
	TypeUUID     Type = "uuid"
	TypeULID     Type = "ulid"
	TypeDate     Type = "date"
	TypeDateTime Type = "datetime"
)

func (t Type) kind() Kind {
	if t == TypeDate || t == TypeDateTime {
		return KindTemporal
	}
	return KindScalar
}

// ForeignKeyPair represents a single FK column mapping
type ForeignKeyPair struct {
	// ChildColumn is the column in the child table (e.g., "artist_id")
	ChildColumn string
	// ParentColumn is the column in the parent table (e.g., "id")
	ParentColumn string
}

// Field describes one field of an entity and how it is stored.
type Field struct {
	Name string
	// Column is the storage name: a table column or a document key
	Column string
	Kind   Kind
	Type   Type
	// Target is the related entity of an association or collection
	Target Metadata
	// ForeignKeys links the entity to Target (supports composite keys)
	ForeignKeys []ForeignKeyPair
}

func (f Field) StorageName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// Metadata is the read-only schema description of one entity.
type Metadata interface {
	Name() string
	Table() string
	Identifier() Field
	Field(name string) (Field, bool)
}

// Resolution is the outcome of looking a field name up in entity metadata.
type Resolution struct {
	Exists bool
	Kind   Kind
	Field  Field
}

// Resolve never fails: an unknown field yields Exists == false.
func Resolve(entity Metadata, name string) Resolution {
	if entity == nil {
		return Resolution{Kind: KindUnknown}
	}
	field, ok := entity.Field(name)
	if !ok {
		return Resolution{Kind: KindUnknown}
	}
	return Resolution{
		Exists: true,
		Kind:   field.Kind,
		Field:  field,
	}
}
