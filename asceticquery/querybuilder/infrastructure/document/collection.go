package document

import (
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"

	qb "github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/operators"
)

var ErrMalformedFilter = errors.New("malformed filter")

var orderingOperators = map[string]operators.Operator{
	"$lt":  operators.OperatorLt,
	"$lte": operators.OperatorLte,
	"$gt":  operators.OperatorGt,
	"$gte": operators.OperatorGte,
}

// Collection is an in-memory document store evaluating filter documents
// with document-store semantics: a missing key reads as null, comparisons
// against null or mismatched types never hold, and array values match
// when any element does.
type Collection struct {
	mu        sync.RWMutex
	documents []Document
	registry  *operators.OperatorRegistry
}

func NewCollection(docs ...Document) *Collection {
	return &Collection{
		documents: append([]Document(nil), docs...),
		registry:  operators.NewDefaultRegistry(),
	}
}

func (c *Collection) Insert(docs ...Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.documents = append(c.documents, docs...)
}

// Find returns the documents matching the query's filter in the query's
// sort order; insertion order breaks ties.
func (c *Collection) Find(q *Query) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	filter := q.Filter()
	var found []Document
	for _, doc := range c.documents {
		ok, err := c.Match(filter, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, doc)
		}
	}
	if sortFields := q.Sort(); len(sortFields) > 0 {
		slices.SortStableFunc(found, func(a, b Document) int {
			for _, f := range sortFields {
				if r := c.order(a[f.Key], b[f.Key]); r != 0 {
					return r * f.Order
				}
			}
			return 0
		})
	}
	return found, nil
}

func (c *Collection) Count(q *Query) (int, error) {
	found, err := c.Find(q)
	if err != nil {
		return 0, err
	}
	return len(found), nil
}

// Match reports whether doc satisfies every clause of filter.
func (c *Collection) Match(filter Document, doc Document) (bool, error) {
	for key, cond := range filter {
		var (
			ok  bool
			err error
		)
		switch key {
		case "$and":
			ok, err = c.matchAll(cond, doc, true)
		case "$or":
			ok, err = c.matchAll(cond, doc, false)
		case "$expr":
			b, isBool := cond.(bool)
			if !isBool {
				return false, errors.Wrapf(ErrMalformedFilter, "$expr takes a constant, got %T", cond)
			}
			ok = b
		default:
			if strings.HasPrefix(key, "$") {
				return false, errors.Wrapf(qb.ErrUnsupportedBackendOperation, "top-level operator %q", key)
			}
			ok, err = c.matchField(doc[key], cond)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c *Collection) matchAll(operands any, doc Document, all bool) (bool, error) {
	list, ok := operands.([]any)
	if !ok {
		return false, errors.Wrapf(ErrMalformedFilter, "logical operator takes a list, got %T", operands)
	}
	for _, operand := range list {
		filter, ok := operand.(Document)
		if !ok {
			return false, errors.Wrapf(ErrMalformedFilter, "logical operand must be a document, got %T", operand)
		}
		matched, err := c.Match(filter, doc)
		if err != nil {
			return false, err
		}
		if matched != all {
			return matched, nil
		}
	}
	return all, nil
}

func (c *Collection) matchField(value, cond any) (bool, error) {
	ops, ok := cond.(Document)
	if !ok || !isOperatorDocument(ops) {
		return c.equal(value, cond), nil
	}
	for op, operand := range ops {
		var matched bool
		switch op {
		case "$eq":
			matched = c.equal(value, operand)
		case "$ne":
			matched = !c.equal(value, operand)
		case "$lt", "$lte", "$gt", "$gte":
			matched = c.anyElement(value, func(v any) bool {
				left, right := normalizePair(v, operand)
				return c.registry.Holds(left, orderingOperators[op], right)
			})
		case "$in", "$nin":
			list, isList := operand.([]any)
			if !isList {
				return false, errors.Wrapf(ErrMalformedFilter, "%s takes a list, got %T", op, operand)
			}
			matched = slices.ContainsFunc(list, func(item any) bool {
				return c.equal(value, item)
			})
			if op == "$nin" {
				matched = !matched
			}
		case "$regex":
			options, _ := ops["$options"].(string)
			re, err := compileRegex(operand, options)
			if err != nil {
				return false, err
			}
			matched = c.anyElement(value, func(v any) bool {
				s, isString := v.(string)
				return isString && re.MatchString(s)
			})
		case "$options":
			continue
		case "$not":
			inner, err := c.matchField(value, operand)
			if err != nil {
				return false, err
			}
			matched = !inner
		default:
			return false, errors.Wrapf(qb.ErrUnsupportedBackendOperation, "operator %q", op)
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func isOperatorDocument(d Document) bool {
	if len(d) == 0 {
		return false
	}
	for key := range d {
		if !strings.HasPrefix(key, "$") {
			return false
		}
	}
	return true
}

// equal treats null and missing alike and matches arrays by element.
func (c *Collection) equal(value, operand any) bool {
	if operand == nil {
		return value == nil
	}
	if value == nil {
		return false
	}
	if c.equalScalar(value, operand) {
		return true
	}
	return c.anyElement(value, func(v any) bool {
		return c.equalScalar(v, operand)
	})
}

func (c *Collection) equalScalar(a, b any) bool {
	a, b = normalizePair(a, b)
	if c.registry.Supports(a, operators.OperatorEq, b) {
		return c.registry.Holds(a, operators.OperatorEq, b)
	}
	return reflect.DeepEqual(a, b)
}

// anyElement applies fn to value, or to each element when value is an array.
func (c *Collection) anyElement(value any, fn func(any) bool) bool {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fn(value)
	}
	for i := 0; i < rv.Len(); i++ {
		if fn(rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// order sorts null and missing values first.
func (c *Collection) order(a, b any) int {
	a, b = normalizePair(a, b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	result, _ := c.registry.Compare(a, b)
	return result
}

// normalize widens numbers so that values from different sources compare.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}

// normalizePair also promotes an integer compared with a float.
func normalizePair(a, b any) (any, any) {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case int64:
		if _, ok := b.(float64); ok {
			return float64(x), b
		}
	case float64:
		if y, ok := b.(int64); ok {
			return a, float64(y)
		}
	}
	return a, b
}

func compileRegex(pattern any, options string) (*regexp.Regexp, error) {
	s, ok := pattern.(string)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedFilter, "$regex takes a string, got %T", pattern)
	}
	var flags strings.Builder
	for _, o := range options {
		switch o {
		case 'i', 'm', 's':
			flags.WriteRune(o)
		case 'u':
			// patterns are always UTF-8
		default:
			return nil, errors.Wrapf(qb.ErrUnsupportedBackendOperation, "regex option %q", o)
		}
	}
	if flags.Len() > 0 {
		s = "(?" + flags.String() + ")" + s
	}
	re, err := regexp.Compile(s)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedFilter, err.Error())
	}
	return re, nil
}
