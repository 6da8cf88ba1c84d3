package querybuilder

import (
	"strings"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/operators"
)

type Associativity string

const (
	LeftAssociative Associativity = "LEFT"
	NonAssociative  Associativity = "NON"
)

type Connective string

const (
	ConnectiveAnd Connective = "and"
	ConnectiveOr  Connective = "or"
)

// ParseConnective reads a "where" value; an empty value means "and".
func ParseConnective(s string) (Connective, bool) {
	switch Connective(strings.ToLower(s)) {
	case "", ConnectiveAnd:
		return ConnectiveAnd, true
	case ConnectiveOr:
		return ConnectiveOr, true
	}
	return "", false
}

type Operable interface {
	Associativity() Associativity
	Operator() operators.Operator
}

type Visitable interface {
	Accept(Visitor) error
}

type Visitor interface {
	VisitConstant(ConstantNode) error
	VisitComparison(ComparisonNode) error
	VisitNullCheck(NullCheckNode) error
	VisitMembership(MembershipNode) error
	VisitPattern(PatternNode) error
	VisitRegex(RegexNode) error
	VisitRange(RangeNode) error
	VisitMemberOf(MemberOfNode) error
	VisitInfix(InfixNode) error
}

func True() ConstantNode {
	return ConstantNode{value: true}
}

func False() ConstantNode {
	return ConstantNode{value: false}
}

// ConstantNode matches every record or none.
type ConstantNode struct {
	value bool
}

func (n ConstantNode) Value() bool {
	return n.value
}

func (n ConstantNode) Accept(v Visitor) error {
	return v.VisitConstant(n)
}

func Field(alias string, field metadata.Field) FieldNode {
	return FieldNode{
		alias: alias,
		field: field,
	}
}

// FieldNode addresses a field of the entity bound to alias.
type FieldNode struct {
	alias string
	field metadata.Field
}

func (n FieldNode) Alias() string {
	return n.alias
}

func (n FieldNode) Field() metadata.Field {
	return n.field
}

func (n FieldNode) Name() string {
	return n.field.Name
}

func Compare(field FieldNode, operator operators.Operator, value any) ComparisonNode {
	return ComparisonNode{
		field:    field,
		operator: operator,
		value:    value,
	}
}

type ComparisonNode struct {
	field    FieldNode
	operator operators.Operator
	value    any
}

func (n ComparisonNode) Field() FieldNode {
	return n.field
}

func (n ComparisonNode) Operator() operators.Operator {
	return n.operator
}

func (n ComparisonNode) Associativity() Associativity {
	return NonAssociative
}

func (n ComparisonNode) Value() any {
	return n.value
}

func (n ComparisonNode) Accept(v Visitor) error {
	return v.VisitComparison(n)
}

func IsNull(field FieldNode) NullCheckNode {
	return NullCheckNode{field: field}
}

func IsNotNull(field FieldNode) NullCheckNode {
	return NullCheckNode{field: field, negated: true}
}

type NullCheckNode struct {
	field   FieldNode
	negated bool
}

func (n NullCheckNode) Field() FieldNode {
	return n.field
}

// Negated reports an "is not null" check.
func (n NullCheckNode) Negated() bool {
	return n.negated
}

func (n NullCheckNode) Operator() operators.Operator {
	if n.negated {
		return operators.OperatorIsNotNull
	}
	return operators.OperatorIsNull
}

func (n NullCheckNode) Accept(v Visitor) error {
	return v.VisitNullCheck(n)
}

func In(field FieldNode, values []any) MembershipNode {
	return MembershipNode{field: field, values: values}
}

func NotIn(field FieldNode, values []any) MembershipNode {
	return MembershipNode{field: field, values: values, negated: true}
}

// MembershipNode never matches a null field, negated or not.
type MembershipNode struct {
	field   FieldNode
	values  []any
	negated bool
}

func (n MembershipNode) Field() FieldNode {
	return n.field
}

func (n MembershipNode) Values() []any {
	return n.values
}

func (n MembershipNode) Negated() bool {
	return n.negated
}

func (n MembershipNode) Operator() operators.Operator {
	if n.negated {
		return operators.OperatorNotIn
	}
	return operators.OperatorIn
}

func (n MembershipNode) Accept(v Visitor) error {
	return v.VisitMembership(n)
}

func Like(field FieldNode, pattern string) PatternNode {
	return PatternNode{field: field, pattern: pattern}
}

func NotLike(field FieldNode, pattern string) PatternNode {
	return PatternNode{field: field, pattern: pattern, negated: true}
}

// PatternNode is a LIKE match with "%" and "_" wildcards.
type PatternNode struct {
	field   FieldNode
	pattern string
	negated bool
}

func (n PatternNode) Field() FieldNode {
	return n.field
}

func (n PatternNode) Pattern() string {
	return n.pattern
}

func (n PatternNode) Negated() bool {
	return n.negated
}

func (n PatternNode) Operator() operators.Operator {
	if n.negated {
		return operators.OperatorNotLike
	}
	return operators.OperatorLike
}

func (n PatternNode) Accept(v Visitor) error {
	return v.VisitPattern(n)
}

func Regex(field FieldNode, pattern, flags string) RegexNode {
	return RegexNode{field: field, pattern: pattern, flags: flags}
}

type RegexNode struct {
	field   FieldNode
	pattern string
	flags   string
}

func (n RegexNode) Field() FieldNode {
	return n.field
}

func (n RegexNode) Pattern() string {
	return n.pattern
}

// Flags are the single-letter options of a delimited literal, e.g. "i".
func (n RegexNode) Flags() string {
	return n.flags
}

func (n RegexNode) CaseInsensitive() bool {
	return strings.Contains(n.flags, "i")
}

func (n RegexNode) Accept(v Visitor) error {
	return v.VisitRegex(n)
}

func Between(field FieldNode, from, to any) RangeNode {
	return RangeNode{field: field, from: from, to: to}
}

// RangeNode is inclusive at both ends.
type RangeNode struct {
	field FieldNode
	from  any
	to    any
}

func (n RangeNode) Field() FieldNode {
	return n.field
}

func (n RangeNode) From() any {
	return n.from
}

func (n RangeNode) To() any {
	return n.to
}

func (n RangeNode) Accept(v Visitor) error {
	return v.VisitRange(n)
}

func MemberOf(collection FieldNode, value any) MemberOfNode {
	return MemberOfNode{collection: collection, value: value}
}

// MemberOfNode holds when the collection contains the entity identified by value.
type MemberOfNode struct {
	collection FieldNode
	value      any
}

func (n MemberOfNode) Collection() FieldNode {
	return n.collection
}

func (n MemberOfNode) Value() any {
	return n.value
}

func (n MemberOfNode) Accept(v Visitor) error {
	return v.VisitMemberOf(n)
}

func And(left Visitable, rights ...Visitable) InfixNode {
	left, right := foldRights(And, left, rights...)
	return InfixNode{
		left:       left,
		connective: ConnectiveAnd,
		right:      right,
	}
}

func Or(left Visitable, rights ...Visitable) InfixNode {
	left, right := foldRights(Or, left, rights...)
	return InfixNode{
		left:       left,
		connective: ConnectiveOr,
		right:      right,
	}
}

// Combine joins right to left with the given connective.
func Combine(left Visitable, connective Connective, right Visitable) InfixNode {
	if connective == ConnectiveOr {
		return Or(left, right)
	}
	return And(left, right)
}

func foldRights(
	aCallable func(Visitable, ...Visitable) InfixNode,
	aLeft Visitable,
	aRights ...Visitable,
) (left, right Visitable) {
	for len(aRights) > 1 {
		aLeft = aCallable(aLeft, aRights[0])
		aRights = aRights[1:]
	}
	return aLeft, aRights[0]
}

type InfixNode struct {
	left       Visitable
	connective Connective
	right      Visitable
}

func (n InfixNode) Left() Visitable {
	return n.left
}

func (n InfixNode) Connective() Connective {
	return n.connective
}

func (n InfixNode) Right() Visitable {
	return n.right
}

func (n InfixNode) Operator() operators.Operator {
	if n.connective == ConnectiveOr {
		return operators.OperatorOrX
	}
	return operators.OperatorAndX
}

func (n InfixNode) Associativity() Associativity {
	return LeftAssociative
}

func (n InfixNode) Accept(v Visitor) error {
	return v.VisitInfix(n)
}
