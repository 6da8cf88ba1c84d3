package coercion

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

var ErrValueCoercionFailure = errors.New("value coercion failure")

// DefaultLayouts are tried in order when a temporal literal comes without a format.
var DefaultLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type Option func(*Coercer)

// WithLocation sets the location of temporal literals that carry no zone.
func WithLocation(loc *time.Location) Option {
	return func(c *Coercer) {
		c.location = loc
	}
}

func WithDefaultLayouts(layouts ...string) Option {
	return func(c *Coercer) {
		c.layouts = layouts
	}
}

// Coercer converts descriptor literals into typed values according to the
// field they are compared with.
type Coercer struct {
	location *time.Location
	layouts  []string
}

func NewCoercer(opts ...Option) *Coercer {
	c := &Coercer{
		location: time.UTC,
		layouts:  DefaultLayouts,
	}
	for i := range opts {
		opts[i](c)
	}
	return c
}

// Coerce converts value for comparison with field. The format applies to
// temporal fields only; see Layout for the accepted notations.
func (c *Coercer) Coerce(field metadata.Field, value any, format string) (any, error) {
	if value == nil {
		return nil, fail(field, "null literal")
	}
	switch field.Kind {
	case metadata.KindTemporal:
		return c.coerceTime(field, value, format)
	case metadata.KindAssociation, metadata.KindCollection:
		if field.Target == nil {
			return value, nil
		}
		id := field.Target.Identifier()
		result, err := c.Coerce(id, value, format)
		if err != nil {
			return nil, errors.Wrapf(err, "identifier of %q", field.Name)
		}
		return result, nil
	}
	return coerceScalar(field, value)
}

// CoerceAll coerces every element independently; one failing element rejects the set.
func (c *Coercer) CoerceAll(field metadata.Field, values []any, format string) ([]any, error) {
	result := make([]any, 0, len(values))
	for i, value := range values {
		v, err := c.Coerce(field, value, format)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		result = append(result, v)
	}
	return result, nil
}

func (c *Coercer) coerceTime(field metadata.Field, value any, format string) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if format == UnixTimestamp {
			sec, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fail(field, "%q is not a unix timestamp", v)
			}
			return time.Unix(sec, 0).In(c.location), nil
		}
		layouts := c.layouts
		if format != "" {
			layouts = []string{Layout(format)}
		}
		for _, layout := range layouts {
			t, err := time.ParseInLocation(layout, v, c.location)
			if err == nil {
				return t, nil
			}
		}
		if format != "" {
			return nil, fail(field, "%q does not match format %q", v, format)
		}
		return nil, fail(field, "%q is not a date", v)
	}
	return nil, fail(field, "unsupported temporal literal %T", value)
}

func coerceScalar(field metadata.Field, value any) (any, error) {
	switch field.Type {
	case metadata.TypeString:
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
	case metadata.TypeInteger:
		switch v := value.(type) {
		case string:
			i, err := strconv.ParseInt(v, 10, 64)
			if err == nil {
				return i, nil
			}
		case float64:
			// float64(math.MaxInt64) rounds up to 2^63, which is out of range
			if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
				return int64(v), nil
			}
		default:
			if i, ok := asInt64(value); ok {
				return i, nil
			}
		}
	case metadata.TypeFloat:
		switch v := value.(type) {
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err == nil {
				return f, nil
			}
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		default:
			if i, ok := asInt64(value); ok {
				return float64(i), nil
			}
		}
	case metadata.TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err == nil {
				return b, nil
			}
		}
	case metadata.TypeUUID:
		switch v := value.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			id, err := uuid.Parse(v)
			if err == nil {
				return id, nil
			}
		}
	case metadata.TypeULID:
		switch v := value.(type) {
		case ulid.ULID:
			return v, nil
		case string:
			id, err := ulid.Parse(v)
			if err == nil {
				return id, nil
			}
		}
	default:
		return value, nil
	}
	return nil, fail(field, "cannot use %#v as %s", value, field.Type)
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	}
	return 0, false
}

func fail(field metadata.Field, format string, args ...any) error {
	return errors.Wrapf(ErrValueCoercionFailure, "field %q: %s", field.Name, fmt.Sprintf(format, args...))
}
