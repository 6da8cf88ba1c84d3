package operators

import (
	"cmp"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func registerComparison[T cmp.Ordered](reg *OperatorRegistry) {
	RegisterBinary[T, T](reg, OperatorEq, func(a, b T) (any, error) { return a == b, nil })
	RegisterBinary[T, T](reg, OperatorNeq, func(a, b T) (any, error) { return a != b, nil })
	RegisterBinary[T, T](reg, OperatorGt, func(a, b T) (any, error) { return a > b, nil })
	RegisterBinary[T, T](reg, OperatorGte, func(a, b T) (any, error) { return a >= b, nil })
	RegisterBinary[T, T](reg, OperatorLt, func(a, b T) (any, error) { return a < b, nil })
	RegisterBinary[T, T](reg, OperatorLte, func(a, b T) (any, error) { return a <= b, nil })
}

func registerEquality[T comparable](reg *OperatorRegistry) {
	RegisterBinary[T, T](reg, OperatorEq, func(a, b T) (any, error) { return a == b, nil })
	RegisterBinary[T, T](reg, OperatorNeq, func(a, b T) (any, error) { return a != b, nil })
}

// registerCompareFunc wires the ordering operators for types that only
// expose a three-way comparison.
func registerCompareFunc[T any](reg *OperatorRegistry, compare func(a, b T) int) {
	checks := map[Operator]func(int) bool{
		OperatorEq:  func(c int) bool { return c == 0 },
		OperatorNeq: func(c int) bool { return c != 0 },
		OperatorGt:  func(c int) bool { return c > 0 },
		OperatorGte: func(c int) bool { return c >= 0 },
		OperatorLt:  func(c int) bool { return c < 0 },
		OperatorLte: func(c int) bool { return c <= 0 },
	}
	for op, check := range checks {
		check := check
		RegisterBinary[T, T](reg, op, func(a, b T) (any, error) { return check(compare(a, b)), nil })
	}
}

// NewDefaultRegistry creates a registry for the value types produced by
// value coercion.
func NewDefaultRegistry() *OperatorRegistry {
	reg := NewOperatorRegistry()

	registerComparison[int](reg)
	registerComparison[int64](reg)
	registerComparison[float64](reg)
	registerComparison[string](reg)

	registerEquality[bool](reg)
	registerEquality[uuid.UUID](reg)

	registerCompareFunc(reg, func(a, b time.Time) int { return a.Compare(b) })
	// ULIDs sort by their timestamp prefix
	registerCompareFunc(reg, func(a, b ulid.ULID) int { return a.Compare(b) })

	return reg
}
