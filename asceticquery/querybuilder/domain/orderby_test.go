package querybuilder

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderBy_ListOrder(t *testing.T) {
	artist, _ := newMusicSchema()
	backend := newBackendStub()

	err := NewOrderByCompiler().Compile(backend, artist, []OrderByDescriptor{
		{Target: Target{Field: "createdAt"}, Direction: DirectionDesc},
		{Target: Target{Alias: "row", Field: "name"}, Direction: "ASC"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"order row.created_at desc", "order row.name asc"}, backend.calls)
}

func TestOrderBy_UnknownFieldIsSkipped(t *testing.T) {
	artist, _ := newMusicSchema()
	backend := newBackendStub()

	err := NewOrderByCompiler().Compile(backend, artist, []OrderByDescriptor{
		{Target: Target{Field: "nonExistentField"}, Direction: DirectionAsc},
		{Target: Target{Field: "id"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"order row.id asc"}, backend.calls)
}

func TestOrderBy_JoinedAlias(t *testing.T) {
	artist, album := newMusicSchema()
	backend := newBackendStub()
	backend.joined["a"] = artist

	err := NewOrderByCompiler().Compile(backend, album, []OrderByDescriptor{
		{Target: Target{Alias: "a", Field: "name"}, Direction: DirectionDesc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"order a.name desc"}, backend.calls)
}

func TestOrderBy_Errors(t *testing.T) {
	artist, _ := newMusicSchema()

	tests := []struct {
		name        string
		descriptors []OrderByDescriptor
		expected    error
	}{
		{"unresolvable alias", []OrderByDescriptor{
			{Target: Target{Field: "name"}},
			{Target: Target{Alias: "a", Field: "name"}},
		}, ErrUnresolvableAlias},
		{"bad direction", []OrderByDescriptor{{Target: Target{Field: "name"}, Direction: "sideways"}}, ErrInvalidDescriptor},
		{"collection", []OrderByDescriptor{{Target: Target{Field: "albums"}}}, ErrInvalidDescriptor},
		{"missing field", []OrderByDescriptor{{Direction: DirectionAsc}}, ErrInvalidDescriptor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newBackendStub()
			err := NewOrderByCompiler().Compile(backend, artist, tt.descriptors)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
			assert.Empty(t, backend.calls)
		})
	}
}

func TestAliasTable(t *testing.T) {
	artist, album := newMusicSchema()
	table := NewAliasTable(newBackendStub(), album)

	alias, entity, err := table.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "row", alias)
	assert.Same(t, album, entity)

	field, _ := album.Field("artist")
	require.NoError(t, table.Register("a", "", field))
	parent, ok := table.Parent("a")
	assert.True(t, ok)
	assert.Equal(t, "row", parent)

	alias, entity, err = table.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, "a", alias)
	assert.Same(t, artist, entity)

	albums, _ := artist.Field("albums")
	require.NoError(t, table.Register("b", "a", albums))
	assert.Equal(t, []string{"a", "b"}, table.Aliases())

	assert.True(t, errors.Is(table.Register("a", "", field), ErrDuplicateAlias))
	_, _, err = table.Resolve("c")
	assert.True(t, errors.Is(err, ErrUnresolvableAlias))
}
