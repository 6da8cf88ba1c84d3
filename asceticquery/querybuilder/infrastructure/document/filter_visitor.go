package document

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	qb "github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/operators"
)

var comparisonOperators = map[operators.Operator]string{
	operators.OperatorEq:  "$eq",
	operators.OperatorNeq: "$ne",
	operators.OperatorLt:  "$lt",
	operators.OperatorLte: "$lte",
	operators.OperatorGt:  "$gt",
	operators.OperatorGte: "$gte",
}

// filterVisitor renders a predicate tree into a filter document.
type filterVisitor struct {
	adapter *Adapter
	result  Document
}

func newFilterVisitor(adapter *Adapter) *filterVisitor {
	return &filterVisitor{adapter: adapter}
}

func (v *filterVisitor) key(n qb.FieldNode) (string, error) {
	return v.adapter.FieldRef(n.Alias(), n.Field())
}

func (v *filterVisitor) VisitConstant(n qb.ConstantNode) error {
	v.result = Document{"$expr": n.Value()}
	return nil
}

func (v *filterVisitor) VisitComparison(n qb.ComparisonNode) error {
	key, err := v.key(n.Field())
	if err != nil {
		return err
	}
	op, ok := comparisonOperators[n.Operator()]
	if !ok {
		return errors.Wrapf(qb.ErrUnknownOperator, "%q", n.Operator())
	}
	v.result = Document{key: Document{op: n.Value()}}
	return nil
}

// VisitNullCheck follows the store's notion of null: a missing key is null.
func (v *filterVisitor) VisitNullCheck(n qb.NullCheckNode) error {
	key, err := v.key(n.Field())
	if err != nil {
		return err
	}
	op := "$eq"
	if n.Negated() {
		op = "$ne"
	}
	v.result = Document{key: Document{op: nil}}
	return nil
}

// VisitMembership excludes null from $nin explicitly, matching the
// relational result.
func (v *filterVisitor) VisitMembership(n qb.MembershipNode) error {
	key, err := v.key(n.Field())
	if err != nil {
		return err
	}
	values := append([]any(nil), n.Values()...)
	if n.Negated() {
		v.result = Document{key: Document{"$nin": values, "$ne": nil}}
	} else {
		v.result = Document{key: Document{"$in": values}}
	}
	return nil
}

func (v *filterVisitor) VisitPattern(n qb.PatternNode) error {
	key, err := v.key(n.Field())
	if err != nil {
		return err
	}
	regex := Document{"$regex": LikeToRegex(n.Pattern())}
	if n.Negated() {
		v.result = Document{key: Document{"$not": regex, "$ne": nil}}
	} else {
		v.result = Document{key: regex}
	}
	return nil
}

func (v *filterVisitor) VisitRegex(n qb.RegexNode) error {
	key, err := v.key(n.Field())
	if err != nil {
		return err
	}
	regex := Document{"$regex": n.Pattern()}
	if n.Flags() != "" {
		regex["$options"] = n.Flags()
	}
	v.result = Document{key: regex}
	return nil
}

func (v *filterVisitor) VisitRange(n qb.RangeNode) error {
	key, err := v.key(n.Field())
	if err != nil {
		return err
	}
	v.result = Document{key: Document{"$gte": n.From(), "$lte": n.To()}}
	return nil
}

// VisitMemberOf relies on array matching: {albums: {$eq: 3}} holds when
// the albums array contains 3.
func (v *filterVisitor) VisitMemberOf(n qb.MemberOfNode) error {
	key, err := v.key(n.Collection())
	if err != nil {
		return err
	}
	v.result = Document{key: Document{"$eq": n.Value()}}
	return nil
}

func (v *filterVisitor) VisitInfix(n qb.InfixNode) error {
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

	parts := make([]any, 0, len(operands))
	for i := len(operands) - 1; i >= 0; i-- {
		if err := operands[i].Accept(v); err != nil {
			return err
		}
		parts = append(parts, v.result)
	}
	op := "$and"
	if n.Connective() == qb.ConnectiveOr {
		op = "$or"
	}
	v.result = Document{op: parts}
	return nil
}

// LikeToRegex translates a LIKE pattern into an anchored regular expression.
// % and _ are wildcards; a backslash makes the next character literal.
func LikeToRegex(pattern string) string {
	var (
		b       strings.Builder
		literal strings.Builder
		escaped bool
	)
	flush := func() {
		b.WriteString(regexp.QuoteMeta(literal.String()))
		literal.Reset()
	}
	b.WriteByte('^')
	for _, r := range pattern {
		switch {
		case escaped:
			literal.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			flush()
			b.WriteString(".*")
		case r == '_':
			flush()
			b.WriteByte('.')
		default:
			literal.WriteRune(r)
		}
	}
	if escaped {
		literal.WriteRune('\\')
	}
	flush()
	b.WriteByte('$')
	return b.String()
}
