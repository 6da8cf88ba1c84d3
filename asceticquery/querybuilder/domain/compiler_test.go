package querybuilder

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/operators"
)

func newMusicSchema() (artist, album *metadata.Entity) {
	artist = metadata.NewEntity("artist")
	album = metadata.NewEntity("album")
	artist.
		AddField("id", metadata.TypeInteger).
		AddField("name", metadata.TypeString).
		AddColumn("createdAt", "created_at", metadata.TypeDateTime).
		AddCollection("albums", album, "artist_id", "id")
	album.
		AddField("id", metadata.TypeInteger).
		AddField("name", metadata.TypeString).
		AddColumn("createdAt", "created_at", metadata.TypeDateTime).
		AddAssociation("artist", artist, "artist_id", "id")
	return artist, album
}

// backendStub records every call instead of building a query.
type backendStub struct {
	root       string
	joined     map[string]metadata.Metadata
	rejectJoin bool
	calls      []string
	predicates []Visitable
	joins      []Join
}

func newBackendStub() *backendStub {
	return &backendStub{root: "row", joined: map[string]metadata.Metadata{}}
}

func (b *backendStub) RootAlias() string {
	return b.root
}

func (b *backendStub) Lookup(alias string) (metadata.Metadata, bool) {
	entity, ok := b.joined[alias]
	return entity, ok
}

func (b *backendStub) FieldRef(alias string, field metadata.Field) (string, error) {
	return alias + "." + field.StorageName(), nil
}

func (b *backendStub) AddPredicate(predicate Visitable, connective Connective) error {
	b.calls = append(b.calls, "predicate "+string(connective))
	b.predicates = append(b.predicates, predicate)
	return nil
}

func (b *backendStub) AddJoin(join Join) error {
	if b.rejectJoin {
		return errors.Wrap(ErrUnsupportedBackendOperation, "join")
	}
	b.calls = append(b.calls, "join "+join.Alias)
	b.joins = append(b.joins, join)
	return nil
}

func (b *backendStub) AddOrdering(ref string, direction Direction) error {
	b.calls = append(b.calls, "order "+ref+" "+string(direction))
	return nil
}

func eq(field string, value any) ComparisonFilter {
	return ComparisonFilter{Target: Target{Field: field}, Op: operators.OperatorEq, Value: value}
}

func or(d ComparisonFilter) ComparisonFilter {
	d.Where = ConnectiveOr
	return d
}

func build(t *testing.T, entity metadata.Metadata, descriptors ...FilterDescriptor) string {
	t.Helper()
	compiled, err := NewFilterCompiler().Build(newBackendStub(), entity, descriptors)
	require.NoError(t, err)
	return Describe(compiled.Predicate)
}

func TestFold_LeftToRight(t *testing.T) {
	artist, _ := newMusicSchema()

	// the connective of the first descriptor is ignored
	got := build(t, artist, or(eq("name", "A")), eq("name", "B"), or(eq("name", "C")))
	assert.Equal(t, `(row.name eq "A" and row.name eq "B") or row.name eq "C"`, got)

	got = build(t, artist, eq("name", "A"), or(eq("name", "B")), eq("name", "C"))
	assert.Equal(t, `(row.name eq "A" or row.name eq "B") and row.name eq "C"`, got)

	got = build(t, artist, eq("name", "A"), eq("name", "B"), eq("name", "C"))
	assert.Equal(t, `row.name eq "A" and row.name eq "B" and row.name eq "C"`, got)
}

func TestFold_GroupIsTransparent(t *testing.T) {
	artist, _ := newMusicSchema()

	flat := build(t, artist, eq("name", "A"), or(eq("name", "B")))
	grouped := build(t, artist,
		eq("name", "A"),
		GroupFilter{Where: ConnectiveOr, Conditions: []FilterDescriptor{eq("name", "B")}},
	)
	assert.Equal(t, flat, grouped)

	nested := build(t, artist,
		eq("name", "A"),
		GroupFilter{
			Where:       ConnectiveOr,
			Disjunction: true,
			Conditions:  []FilterDescriptor{or(eq("name", "B")), or(eq("name", "C"))},
		},
	)
	assert.Equal(t, `row.name eq "A" or (row.name eq "B" or row.name eq "C")`, nested)
}

func TestFold_GroupSuppliesDefaultConnective(t *testing.T) {
	artist, _ := newMusicSchema()

	got := build(t, artist, GroupFilter{
		Disjunction: true,
		Conditions:  []FilterDescriptor{eq("name", "ArtistOne"), eq("name", "ArtistTwo")},
	})
	assert.Equal(t, `row.name eq "ArtistOne" or row.name eq "ArtistTwo"`, got)

	got = build(t, artist,
		GroupFilter{
			Disjunction: true,
			Conditions: []FilterDescriptor{
				eq("name", "ArtistOne"),
				ComparisonFilter{Target: Target{Field: "id"}, Where: ConnectiveAnd, Op: operators.OperatorGt, Value: 1},
				eq("name", "ArtistTwo"),
			},
		},
		eq("id", 2),
	)
	assert.Equal(t, `((row.name eq "ArtistOne" and row.id gt 1) or row.name eq "ArtistTwo") and row.id eq 2`, got)
}

func TestFold_EmptyGroupsAreSkipped(t *testing.T) {
	artist, _ := newMusicSchema()

	got := build(t, artist,
		GroupFilter{Disjunction: true},
		eq("name", "A"),
		GroupFilter{Where: ConnectiveOr},
	)
	assert.Equal(t, `row.name eq "A"`, got)

	compiled, err := NewFilterCompiler().Build(newBackendStub(), artist, []FilterDescriptor{GroupFilter{}})
	require.NoError(t, err)
	assert.Nil(t, compiled.Predicate)
}

func TestCompile_EmptyListIsNoop(t *testing.T) {
	artist, _ := newMusicSchema()
	backend := newBackendStub()

	require.NoError(t, NewFilterCompiler().Compile(backend, artist, nil))
	assert.Empty(t, backend.calls)
}

func TestCompile_AttachesWithAnd(t *testing.T) {
	artist, _ := newMusicSchema()
	backend := newBackendStub()

	err := NewFilterCompiler().Compile(backend, artist, []FilterDescriptor{or(eq("name", "A"))})
	require.NoError(t, err)
	assert.Equal(t, []string{"predicate and"}, backend.calls)
}

func TestCompile_UnknownField(t *testing.T) {
	artist, _ := newMusicSchema()

	tests := []struct {
		name       string
		descriptor FilterDescriptor
		expected   string
	}{
		{"isnull matches all", NullFilter{Target: Target{Field: "nonExistentField"}}, "true"},
		{"isnotnull matches none", NullFilter{Target: Target{Field: "nonExistentField"}, Negated: true}, "false"},
		{"eq matches none", eq("nonExistentField", "x"), "false"},
		{"in matches none", SetFilter{Target: Target{Field: "nonExistentField"}, Values: []any{1}}, "false"},
		{"notin matches none", SetFilter{Target: Target{Field: "nonExistentField"}, Values: []any{1}, Negated: true}, "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, build(t, artist, tt.descriptor))
		})
	}
}

func TestCompile_Operators(t *testing.T) {
	artist, _ := newMusicSchema()
	target := Target{Field: "createdAt"}

	tests := []struct {
		name       string
		descriptor FilterDescriptor
		expected   string
	}{
		{
			"comparison with format",
			ComparisonFilter{Target: target, Op: operators.OperatorLt, Value: "2014-01-01", Format: "Y-m-d"},
			"row.createdAt lt 2014-01-01T00:00:00Z",
		},
		{
			"between",
			RangeFilter{Target: target, From: "2012-01-01", To: "2013-01-01", Format: "Y-m-d"},
			"row.createdAt between 2012-01-01T00:00:00Z and 2013-01-01T00:00:00Z",
		},
		{
			"in",
			SetFilter{Target: Target{Field: "id"}, Values: []any{"1", 2}},
			"row.id in [1, 2]",
		},
		{
			"empty notin keeps null exclusion",
			SetFilter{Target: Target{Field: "id"}, Negated: true},
			"row.id isnotnull",
		},
		{
			"empty in",
			SetFilter{Target: Target{Field: "id"}},
			"false",
		},
		{
			"like is passed through",
			PatternFilter{Target: Target{Field: "name"}, Pattern: "%Art_st%"},
			`row.name like "%Art_st%"`,
		},
		{
			"notlike",
			PatternFilter{Target: Target{Field: "name"}, Pattern: "A%", Negated: true},
			`row.name notlike "A%"`,
		},
		{
			"delimited regex",
			RegexFilter{Target: Target{Field: "name"}, Pattern: "/.*T.*$/i"},
			"row.name regex /.*T.*$/i",
		},
		{
			"memberof",
			MemberOfFilter{Target: Target{Field: "albums"}, Value: "3"},
			"3 ismemberof row.albums",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, build(t, artist, tt.descriptor))
		})
	}
}

func TestCompile_CoercedValues(t *testing.T) {
	artist, _ := newMusicSchema()
	compiled, err := NewFilterCompiler().Build(newBackendStub(), artist, []FilterDescriptor{
		ComparisonFilter{Target: Target{Field: "createdAt"}, Op: operators.OperatorEq, Value: "2014-12-18 13:17:17", Format: "Y-m-d H:i:s"},
	})
	require.NoError(t, err)

	node, ok := compiled.Predicate.(ComparisonNode)
	require.True(t, ok)
	assert.Equal(t, time.Date(2014, 12, 18, 13, 17, 17, 0, time.UTC), node.Value())
	assert.Equal(t, "created_at", node.Field().Field().StorageName())
}

func TestCompile_Joins(t *testing.T) {
	_, album := newMusicSchema()
	backend := newBackendStub()

	err := NewFilterCompiler().Compile(backend, album, []FilterDescriptor{
		or(eq("name", "AlbumOne")),
		JoinFilter{Kind: JoinLeft, Field: "artist", Alias: "a", ParentAlias: "row"},
		ComparisonFilter{Target: Target{Alias: "a", Field: "name"}, Where: ConnectiveOr, Op: operators.OperatorEq, Value: "ArtistOne"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"join a", "predicate and"}, backend.calls)
	require.Len(t, backend.joins, 1)
	join := backend.joins[0]
	assert.Equal(t, JoinLeft, join.Kind)
	assert.Equal(t, "row", join.ParentAlias)
	assert.Equal(t, "artist", join.Field.Name)
	assert.Equal(t, `row.name eq "AlbumOne" or a.name eq "ArtistOne"`, Describe(backend.predicates[0]))
}

func TestCompile_JoinOnlyListAddsNoPredicate(t *testing.T) {
	_, album := newMusicSchema()
	backend := newBackendStub()

	err := NewFilterCompiler().Compile(backend, album, []FilterDescriptor{
		JoinFilter{Field: "artist", Alias: "a", Condition: "a.name = 'ArtistTwo'"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"join a"}, backend.calls)
	assert.Equal(t, JoinInner, backend.joins[0].Kind)
	assert.Equal(t, ConditionWith, backend.joins[0].ConditionType)
}

func TestCompile_NestedJoinResolvesAgainstJoinedEntity(t *testing.T) {
	_, album := newMusicSchema()
	got := build(t, album,
		JoinFilter{Field: "artist", Alias: "a"},
		JoinFilter{Field: "albums", Alias: "other", ParentAlias: "a"},
		NullFilter{Target: Target{Alias: "other", Field: "createdAt"}, Negated: true},
		// "albums" only exists on the joined artist
		NullFilter{Target: Target{Field: "albums"}},
	)
	assert.Equal(t, "other.createdAt isnotnull and true", got)
}

func TestCompile_PreexistingAlias(t *testing.T) {
	artist, album := newMusicSchema()
	backend := newBackendStub()
	backend.joined["b"] = artist

	compiled, err := NewFilterCompiler().Build(backend, album, []FilterDescriptor{
		ComparisonFilter{Target: Target{Alias: "b", Field: "id"}, Op: operators.OperatorGt, Value: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "b.id gt 1", Describe(compiled.Predicate))

	_, err = NewFilterCompiler().Build(backend, album, []FilterDescriptor{
		JoinFilter{Field: "artist", Alias: "b"},
	})
	assert.True(t, errors.Is(err, ErrDuplicateAlias))
}

func TestCompile_Errors(t *testing.T) {
	artist, album := newMusicSchema()

	tests := []struct {
		name        string
		entity      metadata.Metadata
		descriptors []FilterDescriptor
		expected    error
	}{
		{
			"unresolvable alias",
			album,
			[]FilterDescriptor{ComparisonFilter{Target: Target{Alias: "a", Field: "name"}, Op: operators.OperatorEq, Value: "x"}},
			ErrUnresolvableAlias,
		},
		{
			"unresolvable parent alias",
			album,
			[]FilterDescriptor{JoinFilter{Field: "artist", Alias: "a", ParentAlias: "p"}},
			ErrUnresolvableAlias,
		},
		{
			"duplicate alias",
			album,
			[]FilterDescriptor{
				JoinFilter{Field: "artist", Alias: "a"},
				JoinFilter{Field: "artist", Alias: "a"},
			},
			ErrDuplicateAlias,
		},
		{
			"root alias is taken",
			album,
			[]FilterDescriptor{JoinFilter{Field: "artist", Alias: "row"}},
			ErrDuplicateAlias,
		},
		{
			"comparison with a set operator",
			artist,
			[]FilterDescriptor{ComparisonFilter{Target: Target{Field: "name"}, Op: operators.OperatorIn, Value: "x"}},
			ErrUnknownOperator,
		},
		{
			"coercion failure inside a group",
			artist,
			[]FilterDescriptor{GroupFilter{Conditions: []FilterDescriptor{
				ComparisonFilter{Target: Target{Field: "createdAt"}, Op: operators.OperatorEq, Value: "2014-12-18", Format: "Y-m-d H:i:s"},
			}}},
			ErrValueCoercionFailure,
		},
		{
			"null in a value set",
			artist,
			[]FilterDescriptor{SetFilter{Target: Target{Field: "id"}, Values: []any{1, nil}}},
			ErrValueCoercionFailure,
		},
		{
			"memberof on a scalar",
			artist,
			[]FilterDescriptor{MemberOfFilter{Target: Target{Field: "name"}, Value: 1}},
			ErrInvalidDescriptor,
		},
		{
			"comparison on a collection",
			artist,
			[]FilterDescriptor{eq("albums", 1)},
			ErrInvalidDescriptor,
		},
		{
			"join on a scalar",
			album,
			[]FilterDescriptor{JoinFilter{Field: "name", Alias: "a"}},
			ErrInvalidDescriptor,
		},
		{
			"join on an unknown field",
			album,
			[]FilterDescriptor{JoinFilter{Field: "label", Alias: "l"}},
			ErrInvalidDescriptor,
		},
		{
			"missing field",
			artist,
			[]FilterDescriptor{NullFilter{}},
			ErrInvalidDescriptor,
		},
		{
			"nil descriptor",
			artist,
			[]FilterDescriptor{nil},
			ErrUnknownOperator,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newBackendStub()
			err := NewFilterCompiler().Compile(backend, tt.entity, tt.descriptors)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
			assert.Empty(t, backend.calls, "query must stay untouched")
		})
	}
}

func TestCompile_ErrorNamesDescriptor(t *testing.T) {
	artist, _ := newMusicSchema()
	err := NewFilterCompiler().Compile(newBackendStub(), artist, []FilterDescriptor{
		eq("name", "A"),
		ComparisonFilter{Target: Target{Field: "id"}, Op: operators.OperatorGt, Value: "many"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter 1 (gt)")
}

func TestCompile_UnsupportedJoin(t *testing.T) {
	_, album := newMusicSchema()
	backend := newBackendStub()
	backend.rejectJoin = true

	err := NewFilterCompiler().Compile(backend, album, []FilterDescriptor{
		JoinFilter{Field: "artist", Alias: "a"},
		ComparisonFilter{Target: Target{Alias: "a", Field: "name"}, Op: operators.OperatorEq, Value: "ArtistOne"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedBackendOperation))
	assert.Empty(t, backend.predicates)
}

func TestCompile_MemberOfWithoutTargetAppliesNothing(t *testing.T) {
	_, album := newMusicSchema()
	album.Register(metadata.Field{Name: "tags", Kind: metadata.KindCollection})
	backend := newBackendStub()

	err := NewFilterCompiler().Compile(backend, album, []FilterDescriptor{
		JoinFilter{Field: "artist", Alias: "a"},
		MemberOfFilter{Target: Target{Field: "tags"}, Value: 1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDescriptor))
	assert.Contains(t, err.Error(), `"tags" has no target entity`)
	assert.Empty(t, backend.calls)
}

type joinlessStub struct {
	*backendStub
}

func (joinlessStub) SupportsJoins() bool {
	return false
}

func TestBuild_JoinlessBackendFailsBeforeMetadata(t *testing.T) {
	artist, _ := newMusicSchema()
	backend := joinlessStub{newBackendStub()}

	_, err := NewFilterCompiler().Build(backend, artist, []FilterDescriptor{
		eq("name", "ArtistOne"),
		JoinFilter{Field: "noSuchRelation", Alias: "a"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedBackendOperation))
	assert.False(t, errors.Is(err, ErrInvalidDescriptor))
}

func TestParseRegexLiteral(t *testing.T) {
	tests := []struct {
		literal string
		pattern string
		flags   string
	}{
		{"/.*T.*$/", ".*T.*$", ""},
		{"/^artist/i", "^artist", "i"},
		{"/a/b/", "a/b", ""},
		{"^plain$", "^plain$", ""},
		{"/unterminated", "/unterminated", ""},
		{"/path/to", "/path/to", ""},
		{"/", "/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			pattern, flags := ParseRegexLiteral(tt.literal)
			assert.Equal(t, tt.pattern, pattern)
			assert.Equal(t, tt.flags, flags)
		})
	}
}

func TestParseConnective(t *testing.T) {
	for in, expected := range map[string]Connective{"": ConnectiveAnd, "and": ConnectiveAnd, "OR": ConnectiveOr} {
		c, ok := ParseConnective(in)
		assert.True(t, ok)
		assert.Equal(t, expected, c)
	}
	_, ok := ParseConnective("xor")
	assert.False(t, ok)
}
