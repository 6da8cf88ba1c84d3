package relational

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jinzhu/inflection"
	"github.com/pkg/errors"

	qb "github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/operators"
)

// sqlVisitor renders a predicate tree into squirrel expressions.
type sqlVisitor struct {
	adapter *Adapter
	result  sq.Sqlizer
}

func newSqlVisitor(adapter *Adapter) *sqlVisitor {
	return &sqlVisitor{adapter: adapter}
}

func (v *sqlVisitor) ref(n qb.FieldNode) (string, error) {
	return v.adapter.FieldRef(n.Alias(), n.Field())
}

func (v *sqlVisitor) VisitConstant(n qb.ConstantNode) error {
	if n.Value() {
		v.result = sq.Expr("1 = 1")
	} else {
		v.result = sq.Expr("1 = 0")
	}
	return nil
}

func (v *sqlVisitor) VisitComparison(n qb.ComparisonNode) error {
	col, err := v.ref(n.Field())
	if err != nil {
		return err
	}
	value := v.adapter.bind(n.Value())
	switch n.Operator() {
	case operators.OperatorEq:
		v.result = sq.Eq{col: value}
	case operators.OperatorNeq:
		v.result = sq.NotEq{col: value}
	case operators.OperatorLt:
		v.result = sq.Lt{col: value}
	case operators.OperatorLte:
		v.result = sq.LtOrEq{col: value}
	case operators.OperatorGt:
		v.result = sq.Gt{col: value}
	case operators.OperatorGte:
		v.result = sq.GtOrEq{col: value}
	default:
		return errors.Wrapf(qb.ErrUnknownOperator, "%q", n.Operator())
	}
	return nil
}

func (v *sqlVisitor) VisitNullCheck(n qb.NullCheckNode) error {
	col, err := v.ref(n.Field())
	if err != nil {
		return err
	}
	if n.Negated() {
		v.result = sq.NotEq{col: nil}
	} else {
		v.result = sq.Eq{col: nil}
	}
	return nil
}

// VisitMembership relies on SQL three-valued logic: NULL is neither IN nor NOT IN a list.
func (v *sqlVisitor) VisitMembership(n qb.MembershipNode) error {
	col, err := v.ref(n.Field())
	if err != nil {
		return err
	}
	values := v.adapter.bindAll(n.Values())
	if n.Negated() {
		v.result = sq.NotEq{col: values}
	} else {
		v.result = sq.Eq{col: values}
	}
	return nil
}

func (v *sqlVisitor) VisitPattern(n qb.PatternNode) error {
	col, err := v.ref(n.Field())
	if err != nil {
		return err
	}
	if n.Negated() {
		v.result = sq.NotLike{col: n.Pattern()}
	} else {
		v.result = sq.Like{col: n.Pattern()}
	}
	return nil
}

func (v *sqlVisitor) VisitRegex(n qb.RegexNode) error {
	col, err := v.ref(n.Field())
	if err != nil {
		return err
	}
	op, pattern := v.adapter.query.dialect.Regex(n.Pattern(), n.CaseInsensitive())
	v.result = sq.Expr(col+" "+op+" ?", pattern)
	return nil
}

func (v *sqlVisitor) VisitRange(n qb.RangeNode) error {
	col, err := v.ref(n.Field())
	if err != nil {
		return err
	}
	v.result = sq.Expr(col+" BETWEEN ? AND ?", v.adapter.bind(n.From()), v.adapter.bind(n.To()))
	return nil
}

// VisitMemberOf generates an EXISTS sub-query over the collection's table:
// EXISTS (SELECT 1 FROM album AS album_1 WHERE album_1.artist_id = row.id AND album_1.id = ?)
func (v *sqlVisitor) VisitMemberOf(n qb.MemberOfNode) error {
	collection := n.Collection()
	field := collection.Field()
	if field.Target == nil {
		return errors.Wrapf(qb.ErrInvalidDescriptor, "%q has no target entity", field.Name)
	}
	parent := collection.Alias()
	if parent == "" {
		parent = v.adapter.query.rootAlias
	}
	if _, ok := v.adapter.query.scope(parent); !ok {
		return errors.Wrapf(qb.ErrUnresolvableAlias, "%q", parent)
	}

	v.adapter.subqueryCounter++
	table := field.Target.Table()
	alias := fmt.Sprintf("%s_%d", strings.ToLower(inflection.Singular(table)), v.adapter.subqueryCounter)

	d := v.adapter.query.dialect
	conditions := make([]string, 0, len(field.ForeignKeys)+1)
	for _, fk := range field.ForeignKeys {
		conditions = append(conditions, v.adapter.column(alias, fk.ChildColumn)+" = "+v.adapter.column(parent, fk.ParentColumn))
	}
	conditions = append(conditions, v.adapter.column(alias, identifierColumn(field.Target))+" = ?")

	v.result = sq.Expr(
		"EXISTS (SELECT 1 FROM "+d.Quote(table)+" AS "+d.Quote(alias)+" WHERE "+strings.Join(conditions, " AND ")+")",
		v.adapter.bind(n.Value()),
	)
	return nil
}

func identifierColumn(entity metadata.Metadata) string {
	return entity.Identifier().StorageName()
}

func (v *sqlVisitor) VisitInfix(n qb.InfixNode) error {
	// flatten left-associative chains of the same connective
	operands := []qb.Visitable{n.Right()}
	left := n.Left()
	for {
		infix, ok := left.(qb.InfixNode)
		if !ok || infix.Connective() != n.Connective() {
			break
		}
		operands = append(operands, infix.Right())
		left = infix.Left()
	}
	operands = append(operands, left)

	parts := make([]sq.Sqlizer, 0, len(operands))
	for i := len(operands) - 1; i >= 0; i-- {
		if err := operands[i].Accept(v); err != nil {
			return err
		}
		parts = append(parts, v.result)
	}
	if n.Connective() == qb.ConnectiveOr {
		v.result = sq.Or(parts)
	} else {
		v.result = sq.And(parts)
	}
	return nil
}
