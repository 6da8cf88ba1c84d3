package querybuilder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/operators"
)

// DecodeFilters converts wire records (as produced by encoding/json or yaml.v3)
// into typed descriptors. Unknown keys are ignored. All malformed entries are
// reported together.
func DecodeFilters(entries []map[string]any) ([]FilterDescriptor, error) {
	return decodeFilterList("", entries)
}

func decodeFilterList(path string, entries []map[string]any) ([]FilterDescriptor, error) {
	var result error
	descriptors := make([]FilterDescriptor, 0, len(entries))
	for i, entry := range entries {
		d, err := decodeFilter(fmt.Sprintf("%s[%d]", path, i), entry)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		descriptors = append(descriptors, d)
	}
	if result != nil {
		return nil, result
	}
	return descriptors, nil
}

func decodeFilter(path string, entry map[string]any) (FilterDescriptor, error) {
	r := &record{kind: "filter", path: path, entry: entry}
	tag := r.str("type")
	op, ok := operators.Parse(tag)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOperator, "filter%s: %q", path, tag)
	}

	if op.IsJoin() {
		return r.join(op)
	}

	var where Connective
	if raw := r.str("where"); raw != "" {
		if where, ok = ParseConnective(raw); !ok {
			r.invalid("where must be \"and\" or \"or\", got %q", raw)
		}
	}

	if op.IsGroup() {
		conditions, err := r.conditions()
		if err != nil {
			return nil, err
		}
		return r.result(GroupFilter{
			Where:       where,
			Disjunction: op == operators.OperatorOrX,
			Conditions:  conditions,
		})
	}

	target := Target{Alias: r.str("alias"), Field: r.str("field")}
	if target.Field == "" {
		r.invalid("field is required")
	}
	format := r.str("format")

	switch op {
	case operators.OperatorEq, operators.OperatorNeq,
		operators.OperatorLt, operators.OperatorLte,
		operators.OperatorGt, operators.OperatorGte:
		return r.result(ComparisonFilter{Target: target, Where: where, Op: op, Value: r.required("value"), Format: format})
	case operators.OperatorIsNull, operators.OperatorIsNotNull:
		return r.result(NullFilter{Target: target, Where: where, Negated: op == operators.OperatorIsNotNull})
	case operators.OperatorIn, operators.OperatorNotIn:
		return r.result(SetFilter{Target: target, Where: where, Negated: op == operators.OperatorNotIn, Values: r.list("values"), Format: format})
	case operators.OperatorLike, operators.OperatorNotLike:
		return r.result(PatternFilter{Target: target, Where: where, Negated: op == operators.OperatorNotLike, Pattern: r.requiredString("value")})
	case operators.OperatorRegex:
		return r.result(RegexFilter{Target: target, Where: where, Pattern: r.requiredString("value")})
	case operators.OperatorBetween:
		return r.result(RangeFilter{Target: target, Where: where, From: r.required("from"), To: r.required("to"), Format: format})
	case operators.OperatorIsMemberOf:
		return r.result(MemberOfFilter{Target: target, Where: where, Value: r.required("value")})
	}
	return nil, errors.Wrapf(ErrUnknownOperator, "filter%s: %q", path, tag)
}

func (r *record) join(op operators.Operator) (FilterDescriptor, error) {
	d := JoinFilter{
		Kind:        JoinInner,
		Field:       r.str("field"),
		Alias:       r.str("alias"),
		ParentAlias: r.str("parentAlias"),
		Condition:   r.str("condition"),
	}
	if op == operators.OperatorLeftJoin {
		d.Kind = JoinLeft
	}
	if d.Field == "" {
		r.invalid("field is required")
	}
	if d.Alias == "" {
		r.invalid("alias is required")
	}
	switch ConditionType(strings.ToUpper(r.str("conditionType"))) {
	case "":
		if d.Condition != "" {
			d.ConditionType = ConditionWith
		}
	case ConditionWith:
		d.ConditionType = ConditionWith
	case ConditionOn:
		d.ConditionType = ConditionOn
	default:
		r.invalid("conditionType must be WITH or ON, got %q", r.str("conditionType"))
	}
	if d.ConditionType != "" && d.Condition == "" {
		r.invalid("conditionType %s needs a condition", d.ConditionType)
	}
	return r.result(d)
}

// DecodeOrderBy converts wire records into ordering descriptors.
func DecodeOrderBy(entries []map[string]any) ([]OrderByDescriptor, error) {
	var result error
	descriptors := make([]OrderByDescriptor, 0, len(entries))
	for i, entry := range entries {
		r := &record{kind: "orderBy", path: fmt.Sprintf("[%d]", i), entry: entry}
		if tag := r.str("type"); tag != "field" && tag != "" {
			result = multierror.Append(result, errors.Wrapf(ErrUnknownOperator, "orderBy%s: %q", r.path, tag))
			continue
		}
		d := OrderByDescriptor{
			Target: Target{Alias: r.str("alias"), Field: r.str("field")},
		}
		if d.Field == "" {
			r.invalid("field is required")
		}
		direction, ok := ParseDirection(r.str("direction"))
		if !ok {
			r.invalid("direction must be \"asc\" or \"desc\", got %q", r.str("direction"))
		}
		d.Direction = direction
		if r.err != nil {
			result = multierror.Append(result, r.err)
			continue
		}
		descriptors = append(descriptors, d)
	}
	if result != nil {
		return nil, result
	}
	return descriptors, nil
}

// ParseDirection is case-insensitive; an empty value means ascending.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(s)) {
	case "", DirectionAsc:
		return DirectionAsc, true
	case DirectionDesc:
		return DirectionDesc, true
	}
	return "", false
}

// record reads one wire entry and keeps the first structural problem found.
type record struct {
	kind  string
	path  string
	entry map[string]any
	err   error
}

func (r *record) invalid(format string, args ...any) {
	if r.err == nil {
		r.err = errors.Wrapf(ErrInvalidDescriptor, "%s%s: %s", r.kind, r.path, fmt.Sprintf(format, args...))
	}
}

func (r *record) result(d FilterDescriptor) (FilterDescriptor, error) {
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

func (r *record) str(key string) string {
	v, ok := r.entry[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.invalid("%s must be a string, got %T", key, v)
		return ""
	}
	return s
}

func (r *record) required(key string) any {
	v, ok := r.entry[key]
	if !ok {
		r.invalid("%s is required", key)
	}
	return v
}

func (r *record) requiredString(key string) string {
	if _, ok := r.entry[key]; !ok {
		r.invalid("%s is required", key)
		return ""
	}
	return r.str(key)
}

func (r *record) list(key string) []any {
	v, ok := r.entry[key]
	if !ok {
		r.invalid("%s is required", key)
		return nil
	}
	items, ok := toSlice(v)
	if !ok {
		r.invalid("%s must be a list, got %T", key, v)
	}
	return items
}

func (r *record) conditions() ([]FilterDescriptor, error) {
	v, ok := r.entry["conditions"]
	if !ok || v == nil {
		return nil, r.err
	}
	items, ok := toSlice(v)
	if !ok {
		r.invalid("conditions must be a list, got %T", v)
		return nil, r.err
	}
	entries := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			r.invalid("conditions[%d] must be a map, got %T", i, item)
			return nil, r.err
		}
		entries = append(entries, m)
	}
	conditions, err := decodeFilterList(r.path+".conditions", entries)
	if err != nil {
		if r.err != nil {
			return nil, multierror.Append(r.err, err)
		}
		return nil, err
	}
	return conditions, r.err
}

func toSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	if maps, ok := v.([]map[string]any); ok {
		items := make([]any, len(maps))
		for i := range maps {
			items[i] = maps[i]
		}
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
