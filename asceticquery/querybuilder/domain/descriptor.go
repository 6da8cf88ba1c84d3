package querybuilder

import (
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/operators"
)

// FilterDescriptor is one entry of a filter list. The concrete variants are
// ComparisonFilter, NullFilter, SetFilter, PatternFilter, RegexFilter,
// RangeFilter, MemberOfFilter, GroupFilter and JoinFilter.
type FilterDescriptor interface {
	Operator() operators.Operator
	filter()
}

// Connected is implemented by every descriptor that yields a predicate.
// An empty Connective defers to the enclosing level: "or" inside orx,
// "and" everywhere else.
type Connected interface {
	FilterDescriptor
	Connective() Connective
}

// Target names a field, optionally on a joined alias.
type Target struct {
	Alias string
	Field string
}

// ComparisonFilter covers eq, neq, lt, lte, gt and gte.
type ComparisonFilter struct {
	Target
	Where  Connective
	Op     operators.Operator
	Value  any
	Format string
}

func (d ComparisonFilter) Operator() operators.Operator {
	return d.Op
}

func (d ComparisonFilter) Connective() Connective {
	return d.Where
}

func (ComparisonFilter) filter() {}

type NullFilter struct {
	Target
	Where   Connective
	Negated bool
}

func (d NullFilter) Operator() operators.Operator {
	if d.Negated {
		return operators.OperatorIsNotNull
	}
	return operators.OperatorIsNull
}

func (d NullFilter) Connective() Connective {
	return d.Where
}

func (NullFilter) filter() {}

// SetFilter covers in and notin.
type SetFilter struct {
	Target
	Where   Connective
	Negated bool
	Values  []any
	Format  string
}

func (d SetFilter) Operator() operators.Operator {
	if d.Negated {
		return operators.OperatorNotIn
	}
	return operators.OperatorIn
}

func (d SetFilter) Connective() Connective {
	return d.Where
}

func (SetFilter) filter() {}

// PatternFilter covers like and notlike. The pattern is passed through verbatim.
type PatternFilter struct {
	Target
	Where   Connective
	Negated bool
	Pattern string
}

func (d PatternFilter) Operator() operators.Operator {
	if d.Negated {
		return operators.OperatorNotLike
	}
	return operators.OperatorLike
}

func (d PatternFilter) Connective() Connective {
	return d.Where
}

func (PatternFilter) filter() {}

// RegexFilter takes either a bare pattern or a delimited literal like "/^a/i".
type RegexFilter struct {
	Target
	Where   Connective
	Pattern string
}

func (d RegexFilter) Operator() operators.Operator {
	return operators.OperatorRegex
}

func (d RegexFilter) Connective() Connective {
	return d.Where
}

func (RegexFilter) filter() {}

type RangeFilter struct {
	Target
	Where  Connective
	From   any
	To     any
	Format string
}

func (d RangeFilter) Operator() operators.Operator {
	return operators.OperatorBetween
}

func (d RangeFilter) Connective() Connective {
	return d.Where
}

func (RangeFilter) filter() {}

// MemberOfFilter matches when the collection Field contains the entity identified by Value.
type MemberOfFilter struct {
	Target
	Where Connective
	Value any
}

func (d MemberOfFilter) Operator() operators.Operator {
	return operators.OperatorIsMemberOf
}

func (d MemberOfFilter) Connective() Connective {
	return d.Where
}

func (MemberOfFilter) filter() {}

// GroupFilter is andx (Disjunction == false) or orx. Conditions are folded
// by their own connectives; Disjunction supplies the connective of
// conditions that leave it empty.
type GroupFilter struct {
	Where       Connective
	Disjunction bool
	Conditions  []FilterDescriptor
}

func (d GroupFilter) Operator() operators.Operator {
	if d.Disjunction {
		return operators.OperatorOrX
	}
	return operators.OperatorAndX
}

func (d GroupFilter) Connective() Connective {
	return d.Where
}

func (GroupFilter) filter() {}

type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
)

type ConditionType string

const (
	// ConditionWith adds the condition to the relationship key.
	ConditionWith ConditionType = "WITH"
	// ConditionOn replaces the relationship key with the condition.
	ConditionOn ConditionType = "ON"
)

// JoinFilter registers Alias for the relation Field of ParentAlias.
// It yields no predicate.
type JoinFilter struct {
	Kind          JoinKind
	Field         string
	Alias         string
	ParentAlias   string
	ConditionType ConditionType
	Condition     string
}

func (d JoinFilter) Operator() operators.Operator {
	if d.Kind == JoinLeft {
		return operators.OperatorLeftJoin
	}
	return operators.OperatorInnerJoin
}

func (JoinFilter) filter() {}

type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// OrderByDescriptor orders by one field; the only ordering type is "field".
type OrderByDescriptor struct {
	Target
	Direction Direction
}
