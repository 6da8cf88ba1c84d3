package querybuilder

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/coercion"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/operators"
)

type options struct {
	logger  zerolog.Logger
	coercer *coercion.Coercer
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithCoercer(coercer *coercion.Coercer) Option {
	return func(o *options) {
		o.coercer = coercer
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:  zerolog.Nop(),
		coercer: coercion.NewCoercer(),
	}
	for i := range opts {
		opts[i](&o)
	}
	return o
}

// Compilation is the result of folding a filter list: the joins to register
// and the single predicate to attach (nil when the list yields none).
type Compilation struct {
	Joins     []Join
	Predicate Visitable
}

// FilterCompiler folds filter descriptors into a predicate tree and applies
// it to a Backend. It holds no per-call state and is safe for concurrent use.
type FilterCompiler struct {
	options
}

func NewFilterCompiler(opts ...Option) *FilterCompiler {
	return &FilterCompiler{options: newOptions(opts)}
}

// Compile applies descriptors to the query behind backend. Joins are added
// first, then the folded predicate with "and" relative to whatever the query
// already holds. Build validates every descriptor before anything is
// applied, so a failing list leaves the query as it was.
func (c *FilterCompiler) Compile(backend Backend, entity metadata.Metadata, descriptors []FilterDescriptor) error {
	compiled, err := c.Build(backend, entity, descriptors)
	if err != nil {
		return err
	}
	for _, join := range compiled.Joins {
		if err := backend.AddJoin(join); err != nil {
			return errors.Wrapf(err, "join %q", join.Alias)
		}
	}
	if compiled.Predicate == nil {
		return nil
	}
	c.logger.Debug().
		Str("entity", entity.Name()).
		Str("predicate", Describe(compiled.Predicate)).
		Msg("attach predicate")
	return backend.AddPredicate(compiled.Predicate, ConnectiveAnd)
}

// Build compiles descriptors without touching the query.
func (c *FilterCompiler) Build(scope Scope, entity metadata.Metadata, descriptors []FilterDescriptor) (Compilation, error) {
	state := &compileState{
		scope:   scope,
		aliases: NewAliasTable(scope, entity),
	}
	predicate, err := c.fold(state, descriptors, ConnectiveAnd)
	if err != nil {
		return Compilation{}, err
	}
	return Compilation{
		Joins:     state.joins,
		Predicate: predicate,
	}, nil
}

type compileState struct {
	scope   Scope
	aliases *AliasTable
	joins   []Join
}

// fold combines one nesting level strictly left to right. The first
// predicate seeds the accumulation; joins and empty groups take no part.
// Descriptors without a connective are combined with fallback.
func (c *FilterCompiler) fold(state *compileState, descriptors []FilterDescriptor, fallback Connective) (Visitable, error) {
	var acc Visitable
	for i, d := range descriptors {
		var (
			p   Visitable
			err error
		)
		switch d := d.(type) {
		case JoinFilter:
			err = c.join(state, d)
		case GroupFilter:
			inner := ConnectiveAnd
			if d.Disjunction {
				inner = ConnectiveOr
			}
			p, err = c.fold(state, d.Conditions, inner)
		case nil:
			err = errors.Wrap(ErrUnknownOperator, "nil descriptor")
		default:
			p, err = c.leaf(state, d)
		}
		if err != nil {
			if d == nil {
				return nil, errors.Wrapf(err, "filter %d", i)
			}
			return nil, errors.Wrapf(err, "filter %d (%s)", i, d.Operator())
		}
		if p == nil {
			continue
		}
		if acc == nil {
			acc = p
			continue
		}
		where := fallback
		if cd, ok := d.(Connected); ok && cd.Connective() != "" {
			where = cd.Connective()
		}
		acc = Combine(acc, where, p)
	}
	return acc, nil
}

func (c *FilterCompiler) join(state *compileState, d JoinFilter) error {
	if jc, ok := state.scope.(JoinCapability); ok && !jc.SupportsJoins() {
		return errors.Wrapf(ErrUnsupportedBackendOperation, "%s", d.Operator())
	}
	if d.Field == "" || d.Alias == "" {
		return errors.Wrap(ErrInvalidDescriptor, "join needs a field and an alias")
	}
	parent, entity, err := state.aliases.Resolve(d.ParentAlias)
	if err != nil {
		return err
	}
	res := metadata.Resolve(entity, d.Field)
	if !res.Exists {
		return errors.Wrapf(ErrInvalidDescriptor, "%q has no relation %q", entity.Name(), d.Field)
	}
	if err := state.aliases.Register(d.Alias, parent, res.Field); err != nil {
		return err
	}
	conditionType := d.ConditionType
	if conditionType == "" && d.Condition != "" {
		conditionType = ConditionWith
	}
	kind := d.Kind
	if kind == "" {
		kind = JoinInner
	}
	state.joins = append(state.joins, Join{
		Kind:          kind,
		ParentAlias:   parent,
		Alias:         d.Alias,
		Field:         res.Field,
		ConditionType: conditionType,
		Condition:     d.Condition,
	})
	c.logger.Debug().
		Str("alias", d.Alias).
		Str("parent", parent).
		Str("field", d.Field).
		Msg("register alias")
	return nil
}

type targeted interface {
	target() Target
}

func (t Target) target() Target {
	return t
}

func (c *FilterCompiler) leaf(state *compileState, d FilterDescriptor) (Visitable, error) {
	t, ok := d.(targeted)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOperator, "%T", d)
	}
	target := t.target()
	if target.Field == "" {
		return nil, errors.Wrap(ErrInvalidDescriptor, "field is required")
	}
	alias, entity, err := state.aliases.Resolve(target.Alias)
	if err != nil {
		return nil, err
	}

	res := metadata.Resolve(entity, target.Field)
	if !res.Exists {
		return c.unknownField(entity, target, d)
	}
	field := Field(alias, res.Field)
	if res.Kind == metadata.KindCollection && d.Operator() != operators.OperatorIsMemberOf {
		return nil, errors.Wrapf(ErrInvalidDescriptor, "%q is a collection", target.Field)
	}

	switch d := d.(type) {
	case ComparisonFilter:
		if !d.Op.IsComparison() {
			return nil, errors.Wrapf(ErrUnknownOperator, "%q is not a comparison", d.Op)
		}
		value, err := c.coercer.Coerce(res.Field, d.Value, d.Format)
		if err != nil {
			return nil, err
		}
		return Compare(field, d.Op, value), nil
	case NullFilter:
		if d.Negated {
			return IsNotNull(field), nil
		}
		return IsNull(field), nil
	case SetFilter:
		if len(d.Values) == 0 {
			if d.Negated {
				return IsNotNull(field), nil
			}
			return False(), nil
		}
		values, err := c.coercer.CoerceAll(res.Field, d.Values, d.Format)
		if err != nil {
			return nil, err
		}
		if d.Negated {
			return NotIn(field, values), nil
		}
		return In(field, values), nil
	case PatternFilter:
		if d.Negated {
			return NotLike(field, d.Pattern), nil
		}
		return Like(field, d.Pattern), nil
	case RegexFilter:
		pattern, flags := ParseRegexLiteral(d.Pattern)
		return Regex(field, pattern, flags), nil
	case RangeFilter:
		from, err := c.coercer.Coerce(res.Field, d.From, d.Format)
		if err != nil {
			return nil, errors.Wrap(err, "from")
		}
		to, err := c.coercer.Coerce(res.Field, d.To, d.Format)
		if err != nil {
			return nil, errors.Wrap(err, "to")
		}
		return Between(field, from, to), nil
	case MemberOfFilter:
		if res.Kind != metadata.KindCollection {
			return nil, errors.Wrapf(ErrInvalidDescriptor, "%q is not a collection", target.Field)
		}
		if res.Field.Target == nil {
			return nil, errors.Wrapf(ErrInvalidDescriptor, "%q has no target entity", target.Field)
		}
		value, err := c.coercer.Coerce(res.Field, d.Value, "")
		if err != nil {
			return nil, err
		}
		return MemberOf(field, value), nil
	}
	return nil, errors.Wrapf(ErrUnknownOperator, "%T", d)
}

// unknownField folds a field missing from the schema into a constant:
// isnull matches everything, every other operator matches nothing.
func (c *FilterCompiler) unknownField(entity metadata.Metadata, target Target, d FilterDescriptor) (Visitable, error) {
	c.logger.Debug().
		Str("entity", entity.Name()).
		Str("field", target.Field).
		Str("operator", string(d.Operator())).
		Msg("field is not mapped")
	if d.Operator() == operators.OperatorIsNull {
		return True(), nil
	}
	return False(), nil
}

const regexFlags = "imsxu"

// ParseRegexLiteral splits "/pattern/flags" into its parts. Anything that is
// not a delimited literal is returned as the pattern itself.
func ParseRegexLiteral(s string) (pattern, flags string) {
	if len(s) < 2 || s[0] != '/' {
		return s, ""
	}
	end := strings.LastIndexByte(s, '/')
	if end == 0 {
		return s, ""
	}
	flags = s[end+1:]
	for _, f := range flags {
		if !strings.ContainsRune(regexFlags, f) {
			return s, ""
		}
	}
	return s[1:end], flags
}
