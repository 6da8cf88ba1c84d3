package document

import (
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

const DefaultRootAlias = "row"

// Document is a filter expression or a stored document.
type Document = map[string]any

// SortField is one key of a sort specification; Order is 1 or -1.
type SortField struct {
	Key   string `json:"key"`
	Order int    `json:"order"`
}

// Query is a find over one document collection.
type Query struct {
	entity metadata.Metadata
	filter Document
	sort   []SortField
}

func NewQuery(entity metadata.Metadata) *Query {
	return &Query{entity: entity}
}

func (q *Query) Entity() metadata.Metadata {
	return q.entity
}

// Collection is the name of the stored collection.
func (q *Query) Collection() string {
	return q.entity.Table()
}

// Filter returns the accumulated filter; an empty document matches everything.
func (q *Query) Filter() Document {
	if q.filter == nil {
		return Document{}
	}
	return q.filter
}

func (q *Query) Sort() []SortField {
	return q.sort
}

// Where adds a filter with $and, outside of any compiled filter.
func (q *Query) Where(filter Document) *Query {
	q.combine(filter, false)
	return q
}

func (q *Query) combine(filter Document, disjunction bool) {
	if q.filter == nil {
		q.filter = filter
		return
	}
	op := "$and"
	if disjunction {
		op = "$or"
	}
	if operands, ok := soleOperands(q.filter, op); ok {
		q.filter = Document{op: append(operands, filter)}
		return
	}
	q.filter = Document{op: []any{q.filter, filter}}
}

// soleOperands returns the operands of a document holding nothing but op.
func soleOperands(filter Document, op string) ([]any, bool) {
	if len(filter) != 1 {
		return nil, false
	}
	operands, ok := filter[op].([]any)
	if !ok {
		return nil, false
	}
	return append([]any(nil), operands...), true
}
