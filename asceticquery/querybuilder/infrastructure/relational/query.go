package relational

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

const DefaultRootAlias = "row"

type QueryOption func(*Query)

func WithDialect(dialect Dialect) QueryOption {
	return func(q *Query) {
		q.dialect = dialect
	}
}

func WithRootAlias(alias string) QueryOption {
	return func(q *Query) {
		q.rootAlias = alias
	}
}

// WithColumns replaces the default `"row".*` projection. Columns are used verbatim.
func WithColumns(columns ...string) QueryOption {
	return func(q *Query) {
		q.columns = columns
	}
}

// Query is a SELECT over one entity that filters and orderings are applied to.
type Query struct {
	entity    metadata.Metadata
	rootAlias string
	dialect   Dialect
	columns   []string
	builder   sq.SelectBuilder
	where     sq.Sqlizer
	scopes    map[string]metadata.Metadata
}

func NewQuery(entity metadata.Metadata, opts ...QueryOption) *Query {
	q := &Query{
		entity:    entity,
		rootAlias: DefaultRootAlias,
		dialect:   PostgreSQL,
		scopes:    make(map[string]metadata.Metadata),
	}
	for i := range opts {
		opts[i](q)
	}
	columns := q.columns
	if len(columns) == 0 {
		columns = []string{q.dialect.Quote(q.rootAlias) + ".*"}
	}
	q.builder = sq.Select(columns...).
		From(q.dialect.Quote(entity.Table()) + " AS " + q.dialect.Quote(q.rootAlias))
	return q
}

func (q *Query) Entity() metadata.Metadata {
	return q.entity
}

func (q *Query) RootAlias() string {
	return q.rootAlias
}

func (q *Query) Dialect() Dialect {
	return q.dialect
}

// Where adds a condition with AND, outside of any compiled filter.
func (q *Query) Where(pred sq.Sqlizer) *Query {
	q.combine(pred, false)
	return q
}

func (q *Query) combine(pred sq.Sqlizer, disjunction bool) {
	switch {
	case q.where == nil:
		q.where = pred
	case disjunction:
		q.where = sq.Or{q.where, pred}
	default:
		q.where = sq.And{q.where, pred}
	}
}

func (q *Query) scope(alias string) (metadata.Metadata, bool) {
	if alias == "" || alias == q.rootAlias {
		return q.entity, true
	}
	entity, ok := q.scopes[alias]
	return entity, ok
}

// Builder returns the statement with the accumulated conditions applied.
func (q *Query) Builder() sq.SelectBuilder {
	b := q.builder
	if q.where != nil {
		b = b.Where(q.where)
	}
	return b.PlaceholderFormat(q.dialect.Placeholder)
}

func (q *Query) ToSql() (string, []any, error) {
	return q.Builder().ToSql()
}
