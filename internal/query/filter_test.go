package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

func usersTable() *dbschema.TableInfo {
	return &dbschema.TableInfo{
		Name: "users",
		Columns: []dbschema.ColumnInfo{
			{Name: "id", Type: dbschema.TypeInteger, IsPrimaryKey: true},
			{Name: "name", Type: dbschema.TypeString},
			{Name: "age", Type: dbschema.TypeInteger},
			{Name: "active", Type: dbschema.TypeBoolean},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestParseFilters(t *testing.T) {
	params := url.Values{}
	params.Set("age.gte", "21")
	params.Set("name", "Bob")

	clauses, err := ParseFilters(params, usersTable())
	require.NoError(t, err)
	require.Len(t, clauses, 2)

	// Keys are sorted, so age.gte comes first.
	assert.Equal(t, FilterClause{Field: "age", Op: OpGte, Values: []any{int64(21)}}, clauses[0])
	assert.Equal(t, FilterClause{Field: "name", Op: OpEq, Values: []any{"Bob"}}, clauses[1])
}

func TestParseFilters_InSplitsOnComma(t *testing.T) {
	params := url.Values{}
	params.Set("id.in", "1,2,3")

	clauses, err := ParseFilters(params, usersTable())
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, clauses[0].Values)
}

func TestParseFilters_LikeWrapsWildcards(t *testing.T) {
	params := url.Values{}
	params.Set("name.like", "ob")

	clauses, err := ParseFilters(params, usersTable())
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	assert.Equal(t, []any{"%ob%"}, clauses[0].Values)
}

// Unknown operators are ignored, not errors: newer clients may send
// operators this deployment does not know yet.
func TestParseFilters_UnknownOperatorIgnored(t *testing.T) {
	params := url.Values{}
	params.Set("age.between", "1,99")
	params.Set("age.gte", "21")

	clauses, err := ParseFilters(params, usersTable())
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	assert.Equal(t, OpGte, clauses[0].Op)
}

func TestParseFilters_UnknownFieldRejected(t *testing.T) {
	params := url.Values{}
	params.Set("no_such_column", "x")

	_, err := ParseFilters(params, usersTable())
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestParseFilters_BadOperandRejected(t *testing.T) {
	params := url.Values{}
	params.Set("age.gte", "twenty")

	_, err := ParseFilters(params, usersTable())
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestParseFilters_SkipsReservedAndInternalKeys(t *testing.T) {
	params := url.Values{}
	params.Set("limit", "10")
	params.Set("offset", "5")
	params.Set("order", "id")
	params.Set("order_direction", "desc")
	params.Set("_trace", "on")

	clauses, err := ParseFilters(params, usersTable())
	require.NoError(t, err)
	assert.Empty(t, clauses)
}

func TestParseFilters_BooleanCoercion(t *testing.T) {
	params := url.Values{}
	params.Set("active.eq", "true")

	clauses, err := ParseFilters(params, usersTable())
	require.NoError(t, err)
	assert.Equal(t, []any{true}, clauses[0].Values)
}
