package main

import (
	"encoding/json"
	"io"

	qb "github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/infrastructure/document"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/infrastructure/relational"
)

type relationalOutput struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

type documentOutput struct {
	Collection string               `json:"collection"`
	Filter     document.Document    `json:"filter"`
	Sort       []document.SortField `json:"sort,omitempty"`
}

// target is the query a command compiles into, together with the way to print it.
type target struct {
	backend qb.Backend
	render  func() (any, error)
}

func (o *RootOptions) newTarget(entity metadata.Metadata) target {
	if o.Backend == BackendDocument {
		q := document.NewQuery(entity)
		return target{
			backend: document.NewAdapter(q, document.WithLogger(o.logger)),
			render: func() (any, error) {
				return documentOutput{
					Collection: q.Collection(),
					Filter:     q.Filter(),
					Sort:       q.Sort(),
				}, nil
			},
		}
	}

	dialect, _ := relational.DialectByName(o.Dialect)
	q := relational.NewQuery(entity,
		relational.WithDialect(dialect),
		relational.WithRootAlias(o.RootAlias),
	)
	adapterOpts := []relational.AdapterOption{relational.WithLogger(o.logger)}
	if o.TemporalLayout != "" {
		adapterOpts = append(adapterOpts, relational.WithTemporalLayout(o.TemporalLayout))
	}
	return target{
		backend: relational.NewAdapter(q, adapterOpts...),
		render: func() (any, error) {
			sql, args, err := q.ToSql()
			if err != nil {
				return nil, err
			}
			if args == nil {
				args = []any{}
			}
			return relationalOutput{SQL: sql, Args: args}, nil
		},
	}
}

func (t target) write(w io.Writer) error {
	out, err := t.render()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
