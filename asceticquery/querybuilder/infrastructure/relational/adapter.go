package relational

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	qb "github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

type AdapterOption func(*Adapter)

// WithTemporalLayout binds time values as strings in the given layout, for
// stores that keep dates as text.
func WithTemporalLayout(layout string) AdapterOption {
	return func(a *Adapter) {
		a.temporalLayout = layout
	}
}

func WithLogger(logger zerolog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// Adapter applies compiled filters, joins and orderings to a Query.
type Adapter struct {
	query          *Query
	temporalLayout string
	logger         zerolog.Logger
	// subqueryCounter keeps EXISTS aliases unique within the query
	subqueryCounter int
}

func NewAdapter(query *Query, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		query:  query,
		logger: zerolog.Nop(),
	}
	for i := range opts {
		opts[i](a)
	}
	return a
}

func (a *Adapter) Query() *Query {
	return a.query
}

func (a *Adapter) RootAlias() string {
	return a.query.rootAlias
}

func (a *Adapter) Lookup(alias string) (metadata.Metadata, bool) {
	entity, ok := a.query.scopes[alias]
	return entity, ok
}

func (a *Adapter) FieldRef(alias string, field metadata.Field) (string, error) {
	if _, ok := a.query.scope(alias); !ok {
		return "", errors.Wrapf(qb.ErrUnresolvableAlias, "%q", alias)
	}
	if alias == "" {
		alias = a.query.rootAlias
	}
	return a.column(alias, field.StorageName()), nil
}

func (a *Adapter) column(alias, column string) string {
	d := a.query.dialect
	return d.Quote(alias) + "." + d.Quote(column)
}

func (a *Adapter) AddPredicate(predicate qb.Visitable, connective qb.Connective) error {
	v := newSqlVisitor(a)
	if err := predicate.Accept(v); err != nil {
		return err
	}
	a.query.combine(v.result, connective == qb.ConnectiveOr)
	return nil
}

func (a *Adapter) AddJoin(join qb.Join) error {
	if _, ok := a.query.scope(join.Alias); ok {
		return errors.Wrapf(qb.ErrDuplicateAlias, "%q", join.Alias)
	}
	if !join.Field.Kind.IsRelation() || join.Field.Target == nil {
		return errors.Wrapf(qb.ErrInvalidDescriptor, "%q is not a relation", join.Field.Name)
	}
	parent := join.ParentAlias
	if parent == "" {
		parent = a.query.rootAlias
	}

	var condition string
	switch join.ConditionType {
	case qb.ConditionOn:
		condition = join.Condition
	case qb.ConditionWith:
		condition = a.relationKey(parent, join.Alias, join.Field) + " AND (" + join.Condition + ")"
	default:
		condition = a.relationKey(parent, join.Alias, join.Field)
	}

	d := a.query.dialect
	clause := d.Quote(join.Field.Target.Table()) + " AS " + d.Quote(join.Alias) + " ON " + condition
	if join.Kind == qb.JoinLeft {
		a.query.builder = a.query.builder.LeftJoin(clause)
	} else {
		a.query.builder = a.query.builder.InnerJoin(clause)
	}
	a.query.scopes[join.Alias] = join.Field.Target

	a.logger.Debug().
		Str("kind", string(join.Kind)).
		Str("clause", clause).
		Msg("add join")
	return nil
}

// relationKey renders the natural join condition between parent and the
// alias bound to the relation's target.
func (a *Adapter) relationKey(parent, alias string, field metadata.Field) string {
	parts := make([]string, 0, len(field.ForeignKeys))
	for _, fk := range field.ForeignKeys {
		if field.Kind == metadata.KindAssociation {
			parts = append(parts, a.column(alias, fk.ParentColumn)+" = "+a.column(parent, fk.ChildColumn))
		} else {
			parts = append(parts, a.column(alias, fk.ChildColumn)+" = "+a.column(parent, fk.ParentColumn))
		}
	}
	return strings.Join(parts, " AND ")
}

func (a *Adapter) AddOrdering(ref string, direction qb.Direction) error {
	keyword := "ASC"
	if direction == qb.DirectionDesc {
		keyword = "DESC"
	}
	a.query.builder = a.query.builder.OrderBy(ref + " " + keyword)
	return nil
}

// bind converts coerced values to driver-friendly arguments. Array-backed
// identifiers would otherwise be expanded into value lists.
func (a *Adapter) bind(value any) any {
	switch v := value.(type) {
	case time.Time:
		if a.temporalLayout != "" {
			return v.Format(a.temporalLayout)
		}
	case uuid.UUID:
		return v.String()
	case ulid.ULID:
		return v.String()
	}
	return value
}

func (a *Adapter) bindAll(values []any) []any {
	result := make([]any, len(values))
	for i := range values {
		result[i] = a.bind(values[i])
	}
	return result
}
