package operators

// Operator is the tag carried by the "type" key of a filter descriptor.
type Operator string

const (
	// Comparison

	OperatorEq  Operator = "eq"
	OperatorNeq Operator = "neq"
	OperatorLt  Operator = "lt"
	OperatorLte Operator = "lte"
	OperatorGt  Operator = "gt"
	OperatorGte Operator = "gte"

	// Null checks

	OperatorIsNull    Operator = "isnull"
	OperatorIsNotNull Operator = "isnotnull"

	// Set membership

	OperatorIn    Operator = "in"
	OperatorNotIn Operator = "notin"

	// Pattern matching

	OperatorLike    Operator = "like"
	OperatorNotLike Operator = "notlike"
	OperatorRegex   Operator = "regex"

	OperatorBetween    Operator = "between"
	OperatorIsMemberOf Operator = "ismemberof"

	// Grouping

	OperatorAndX Operator = "andx"
	OperatorOrX  Operator = "orx"

	// Joins

	OperatorInnerJoin Operator = "innerjoin"
	OperatorLeftJoin  Operator = "leftjoin"
)

var known = map[Operator]struct{}{
	OperatorEq: {}, OperatorNeq: {}, OperatorLt: {}, OperatorLte: {}, OperatorGt: {}, OperatorGte: {},
	OperatorIsNull: {}, OperatorIsNotNull: {},
	OperatorIn: {}, OperatorNotIn: {},
	OperatorLike: {}, OperatorNotLike: {}, OperatorRegex: {},
	OperatorBetween: {}, OperatorIsMemberOf: {},
	OperatorAndX: {}, OperatorOrX: {},
	OperatorInnerJoin: {}, OperatorLeftJoin: {},
}

// Parse matches tag case-sensitively against the known operator tags.
func Parse(tag string) (Operator, bool) {
	op := Operator(tag)
	_, ok := known[op]
	return op, ok
}

func (o Operator) IsComparison() bool {
	switch o {
	case OperatorEq, OperatorNeq, OperatorLt, OperatorLte, OperatorGt, OperatorGte:
		return true
	}
	return false
}

func (o Operator) IsGroup() bool {
	return o == OperatorAndX || o == OperatorOrX
}

func (o Operator) IsJoin() bool {
	return o == OperatorInnerJoin || o == OperatorLeftJoin
}
