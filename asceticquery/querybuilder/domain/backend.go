package querybuilder

import (
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

// Join is a resolved join registration.
type Join struct {
	Kind JoinKind
	// ParentAlias is the canonical alias of the joined-from entity
	ParentAlias string
	Alias       string
	// Field is the relation of the parent entity being joined
	Field         metadata.Field
	ConditionType ConditionType
	Condition     string
}

// Backend binds the compilers to one query handle of a concrete store.
// A Backend is owned by a single compile call at a time.
type Backend interface {
	// RootAlias names the query root; "" when the store has no aliases.
	RootAlias() string
	// Lookup reports aliases joined onto the query before compilation.
	Lookup(alias string) (metadata.Metadata, bool)
	FieldRef(alias string, field metadata.Field) (string, error)
	AddPredicate(predicate Visitable, connective Connective) error
	AddJoin(join Join) error
	AddOrdering(ref string, direction Direction) error
}

// JoinCapability is implemented by backends that know up front whether
// they can join at all. Joins against a backend reporting false fail with
// ErrUnsupportedBackendOperation before any metadata is consulted.
type JoinCapability interface {
	SupportsJoins() bool
}
