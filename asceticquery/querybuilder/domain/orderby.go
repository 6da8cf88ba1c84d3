package querybuilder

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

type OrderByCompiler struct {
	options
}

func NewOrderByCompiler(opts ...Option) *OrderByCompiler {
	return &OrderByCompiler{options: newOptions(opts)}
}

// Compile appends one ordering clause per descriptor, first descriptor as the
// primary key. Fields missing from the schema are skipped. Nothing is applied
// when any descriptor fails to resolve.
func (c *OrderByCompiler) Compile(backend Backend, entity metadata.Metadata, descriptors []OrderByDescriptor) error {
	type ordering struct {
		ref       string
		direction Direction
	}
	aliases := NewAliasTable(backend, entity)
	orderings := make([]ordering, 0, len(descriptors))
	for i, d := range descriptors {
		ref, err := c.resolve(backend, aliases, d)
		if err != nil {
			return errors.Wrapf(err, "orderBy %d", i)
		}
		if ref == "" {
			continue
		}
		direction, ok := ParseDirection(string(d.Direction))
		if !ok {
			return errors.Wrapf(ErrInvalidDescriptor, "orderBy %d: direction %q", i, d.Direction)
		}
		orderings = append(orderings, ordering{ref: ref, direction: direction})
	}
	for _, o := range orderings {
		c.logger.Debug().
			Str("ref", o.ref).
			Str("direction", string(o.direction)).
			Msg("add ordering")
		if err := backend.AddOrdering(o.ref, o.direction); err != nil {
			return err
		}
	}
	return nil
}

func (c *OrderByCompiler) resolve(backend Backend, aliases *AliasTable, d OrderByDescriptor) (string, error) {
	if d.Field == "" {
		return "", errors.Wrap(ErrInvalidDescriptor, "field is required")
	}
	alias, entity, err := aliases.Resolve(d.Alias)
	if err != nil {
		return "", err
	}
	res := metadata.Resolve(entity, d.Field)
	if !res.Exists {
		c.logger.Debug().
			Str("entity", entity.Name()).
			Str("field", d.Field).
			Msg("field is not mapped, ordering skipped")
		return "", nil
	}
	if res.Kind == metadata.KindCollection {
		return "", errors.Wrapf(ErrInvalidDescriptor, "cannot order by collection %q", d.Field)
	}
	return backend.FieldRef(alias, res.Field)
}
