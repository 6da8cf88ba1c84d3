package querybuilder

import (
	"fmt"
	"strings"
	"time"
)

// Describe renders a predicate as compact text, e.g. `(row.name eq "A" and row.id gt 1) or a.id isnull`.
// Nested groups are parenthesised unless they continue a left-associative chain.
func Describe(p Visitable) string {
	if p == nil {
		return ""
	}
	v := &describeVisitor{}
	_ = p.Accept(v)
	return v.b.String()
}

type describeVisitor struct {
	b strings.Builder
}

func (v *describeVisitor) field(n FieldNode) {
	if n.Alias() != "" {
		v.b.WriteString(n.Alias())
		v.b.WriteByte('.')
	}
	v.b.WriteString(n.Name())
}

func (v *describeVisitor) literal(value any) {
	switch x := value.(type) {
	case string:
		fmt.Fprintf(&v.b, "%q", x)
	case time.Time:
		v.b.WriteString(x.Format(time.RFC3339))
	case []any:
		v.b.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				v.b.WriteString(", ")
			}
			v.literal(item)
		}
		v.b.WriteByte(']')
	default:
		fmt.Fprintf(&v.b, "%v", x)
	}
}

func (v *describeVisitor) VisitConstant(n ConstantNode) error {
	fmt.Fprintf(&v.b, "%t", n.Value())
	return nil
}

func (v *describeVisitor) VisitComparison(n ComparisonNode) error {
	v.field(n.Field())
	fmt.Fprintf(&v.b, " %s ", n.Operator())
	v.literal(n.Value())
	return nil
}

func (v *describeVisitor) VisitNullCheck(n NullCheckNode) error {
	v.field(n.Field())
	fmt.Fprintf(&v.b, " %s", n.Operator())
	return nil
}

func (v *describeVisitor) VisitMembership(n MembershipNode) error {
	v.field(n.Field())
	fmt.Fprintf(&v.b, " %s ", n.Operator())
	v.literal(n.Values())
	return nil
}

func (v *describeVisitor) VisitPattern(n PatternNode) error {
	v.field(n.Field())
	fmt.Fprintf(&v.b, " %s ", n.Operator())
	v.literal(n.Pattern())
	return nil
}

func (v *describeVisitor) VisitRegex(n RegexNode) error {
	v.field(n.Field())
	fmt.Fprintf(&v.b, " regex /%s/%s", n.Pattern(), n.Flags())
	return nil
}

func (v *describeVisitor) VisitRange(n RangeNode) error {
	v.field(n.Field())
	v.b.WriteString(" between ")
	v.literal(n.From())
	v.b.WriteString(" and ")
	v.literal(n.To())
	return nil
}

func (v *describeVisitor) VisitMemberOf(n MemberOfNode) error {
	v.literal(n.Value())
	v.b.WriteString(" ismemberof ")
	v.field(n.Collection())
	return nil
}

func (v *describeVisitor) VisitInfix(n InfixNode) error {
	if left, ok := n.Left().(InfixNode); ok && left.Connective() == n.Connective() {
		_ = left.Accept(v)
	} else {
		v.operand(n.Left())
	}
	fmt.Fprintf(&v.b, " %s ", n.Connective())
	v.operand(n.Right())
	return nil
}

func (v *describeVisitor) operand(p Visitable) {
	if _, ok := p.(InfixNode); ok {
		v.b.WriteByte('(')
		_ = p.Accept(v)
		v.b.WriteByte(')')
		return
	}
	_ = p.Accept(v)
}
