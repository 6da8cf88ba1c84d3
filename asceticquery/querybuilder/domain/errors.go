package querybuilder

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/coercion"
)

var (
	ErrUnknownOperator             = errors.New("unknown operator")
	ErrUnresolvableAlias           = errors.New("unresolvable alias")
	ErrDuplicateAlias              = errors.New("duplicate alias")
	ErrValueCoercionFailure        = coercion.ErrValueCoercionFailure
	ErrUnsupportedBackendOperation = errors.New("unsupported backend operation")
	// ErrInvalidDescriptor reports a descriptor whose shape does not fit its
	// operator or the field it addresses.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)
