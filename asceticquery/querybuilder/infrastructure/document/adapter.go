package document

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	qb "github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

type AdapterOption func(*Adapter)

func WithLogger(logger zerolog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// Adapter applies compiled filters and orderings to a Query. Documents are
// addressed by key only, so the root is the single alias and joins are
// rejected.
type Adapter struct {
	query  *Query
	logger zerolog.Logger
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
	return DefaultRootAlias
}

func (a *Adapter) Lookup(alias string) (metadata.Metadata, bool) {
	return nil, false
}

func (a *Adapter) SupportsJoins() bool {
	return false
}

func (a *Adapter) FieldRef(alias string, field metadata.Field) (string, error) {
	if alias != "" && alias != DefaultRootAlias {
		return "", errors.Wrapf(qb.ErrUnresolvableAlias, "%q", alias)
	}
	return field.StorageName(), nil
}

func (a *Adapter) AddPredicate(predicate qb.Visitable, connective qb.Connective) error {
	v := newFilterVisitor(a)
	if err := predicate.Accept(v); err != nil {
		return err
	}
	a.query.combine(v.result, connective == qb.ConnectiveOr)
	return nil
}

func (a *Adapter) AddJoin(join qb.Join) error {
	return errors.Wrapf(qb.ErrUnsupportedBackendOperation, "%s join on collection %q", join.Kind, a.query.Collection())
}

func (a *Adapter) AddOrdering(ref string, direction qb.Direction) error {
	order := 1
	if direction == qb.DirectionDesc {
		order = -1
	}
	a.query.sort = append(a.query.sort, SortField{Key: ref, Order: order})
	a.logger.Debug().
		Str("key", ref).
		Int("order", order).
		Msg("add sort key")
	return nil
}
