package operators

import (
	"fmt"
	"reflect"
)

type BinaryOp func(left, right any) (any, error)

type binaryKey struct {
	left  reflect.Type
	op    Operator
	right reflect.Type
}

// OperatorRegistry evaluates comparison operators over typed Go values.
// It backs in-memory matching of compiled predicates.
type OperatorRegistry struct {
	binary map[binaryKey]BinaryOp
}

func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{
		binary: make(map[binaryKey]BinaryOp),
	}
}

func RegisterBinary[L, R any](reg *OperatorRegistry, op Operator, fn func(L, R) (any, error)) {
	var zeroL L
	var zeroR R
	key := binaryKey{
		left:  reflect.TypeOf(zeroL),
		op:    op,
		right: reflect.TypeOf(zeroR),
	}
	reg.binary[key] = func(left, right any) (any, error) {
		return fn(left.(L), right.(R))
	}
}

// ExecBinary executes a comparison with SQL NULL semantics: a nil operand
// yields nil (unknown) rather than true or false.
func (r *OperatorRegistry) ExecBinary(left any, op Operator, right any) (any, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	fn, err := r.lookupBinary(left, op, right)
	if err != nil {
		return nil, err
	}
	return fn(left, right)
}

// Holds reports whether the comparison is definitely true.
// Unknown results and unsupported operand types both count as false.
func (r *OperatorRegistry) Holds(left any, op Operator, right any) bool {
	result, err := r.ExecBinary(left, op, right)
	if err != nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

func (r *OperatorRegistry) Supports(left any, op Operator, right any) bool {
	_, err := r.lookupBinary(left, op, right)
	return err == nil
}

func (r *OperatorRegistry) lookupBinary(left any, op Operator, right any) (BinaryOp, error) {
	key := binaryKey{
		left:  reflect.TypeOf(left),
		op:    op,
		right: reflect.TypeOf(right),
	}
	fn, ok := r.binary[key]
	if !ok {
		return nil, fmt.Errorf("operator \"%s\" is not supported for %T and %T", op, left, right)
	}
	return fn, nil
}

// Compare orders two values of the same registered type. ok is false when
// either value is nil or the type has no ordering.
func (r *OperatorRegistry) Compare(left, right any) (result int, ok bool) {
	if !r.Supports(left, OperatorLt, right) || !r.Supports(left, OperatorGt, right) {
		return 0, false
	}
	switch {
	case r.Holds(left, OperatorLt, right):
		return -1, true
	case r.Holds(left, OperatorGt, right):
		return 1, true
	}
	return 0, true
}
