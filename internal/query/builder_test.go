package query

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

// Operand values must never appear in the rendered SQL text — only in the
// ordered bind-value sequence.
func TestBuilder_WhereNeverInterpolates(t *testing.T) {
	params := url.Values{}
	params.Set("age.gte", "21")
	params.Set("name", "Bob")

	clauses, err := ParseFilters(params, usersTable())
	require.NoError(t, err)

	b := NewBuilder(dbschema.DialectPostgres)
	where := b.Where(clauses)

	assert.Equal(t, ` WHERE "age" >= $1 AND "name" = $2`, where)
	assert.Equal(t, []any{int64(21), "Bob"}, b.Args())
	assert.NotContains(t, where, "21")
	assert.NotContains(t, where, "Bob")
}

func TestBuilder_WhereMySQLPlaceholders(t *testing.T) {
	clauses := []FilterClause{
		{Field: "age", Op: OpGte, Values: []any{int64(21)}},
		{Field: "name", Op: OpEq, Values: []any{"Bob"}},
	}

	b := NewBuilder(dbschema.DialectMySQL)
	where := b.Where(clauses)

	assert.Equal(t, " WHERE `age` >= ? AND `name` = ?", where)
	assert.Equal(t, []any{int64(21), "Bob"}, b.Args())
}

func TestBuilder_InExpandsPlaceholders(t *testing.T) {
	clauses := []FilterClause{
		{Field: "id", Op: OpIn, Values: []any{int64(1), int64(2), int64(3)}},
	}

	b := NewBuilder(dbschema.DialectPostgres)
	where := b.Where(clauses)

	assert.Equal(t, ` WHERE "id" IN ($1, $2, $3)`, where)
	assert.Len(t, b.Args(), 3)
}

// LIMIT/OFFSET continue the positional numbering started by WHERE.
func TestBuilder_NumberingContinues(t *testing.T) {
	clauses := []FilterClause{{Field: "name", Op: OpEq, Values: []any{"Bob"}}}

	b := NewBuilder(dbschema.DialectPostgres)
	where := b.Where(clauses)
	page := b.LimitOffset(10, 20)

	assert.Equal(t, ` WHERE "name" = $1`, where)
	assert.Equal(t, " LIMIT $2 OFFSET $3", page)
	assert.Equal(t, []any{"Bob", 10, 20}, b.Args())
}

func TestBuilder_OrderByRestrictedToRealColumns(t *testing.T) {
	b := NewBuilder(dbschema.DialectPostgres)

	order, err := b.OrderBy(usersTable(), "name", "desc")
	require.NoError(t, err)
	assert.Equal(t, ` ORDER BY "name" DESC`, order)

	_, err = b.OrderBy(usersTable(), `id"; DROP TABLE users; --`, "asc")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name                   string
		limit, offset          int
		wantLimit, wantOffset  int
	}{
		{"defaults applied", 0, 0, 20, 0},
		{"over max clamped", 5000, 0, 1000, 0},
		{"negative offset clamped", 10, -5, 10, 0},
		{"negative limit uses default", -1, 3, 20, 3},
		{"in range untouched", 50, 100, 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := ClampPage(tt.limit, tt.offset, 20, 1000)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestBuildList_CountSharesWhereSnapshot(t *testing.T) {
	spec := ListSpec{
		Table:   usersTable(),
		Filters: []FilterClause{{Field: "active", Op: OpEq, Values: []any{true}}},
		Order:   "id",
		Limit:   10,
		Offset:  0,
	}

	dataSQL, countSQL, dataArgs, countArgs, err := BuildList(dbschema.DialectPostgres, spec)
	require.NoError(t, err)

	assert.Equal(t, `SELECT * FROM "users" WHERE "active" = $1 ORDER BY "id" ASC LIMIT $2 OFFSET $3`, dataSQL)
	assert.Equal(t, `SELECT COUNT(*) FROM "users" WHERE "active" = $1`, countSQL)
	assert.Equal(t, []any{true, 10, 0}, dataArgs)
	assert.Equal(t, []any{true}, countArgs)
}

func TestBuildInsert(t *testing.T) {
	sql, args := BuildInsert(dbschema.DialectPostgres, usersTable(),
		[]string{"name", "age"}, []any{"Ada", int64(36)})

	assert.Equal(t, `INSERT INTO "users" ("name", "age") VALUES ($1, $2) RETURNING *`, sql)
	assert.Equal(t, []any{"Ada", int64(36)}, args)

	sql, _ = BuildInsert(dbschema.DialectMySQL, usersTable(),
		[]string{"name"}, []any{"Ada"})
	assert.Equal(t, "INSERT INTO `users` (`name`) VALUES (?)", sql)
	assert.False(t, strings.Contains(sql, "RETURNING"))
}

func TestBuildBulkInsert_SingleStatement(t *testing.T) {
	sql, args := BuildBulkInsert(dbschema.DialectPostgres, usersTable(),
		[]string{"name"}, [][]any{{"Ada"}, {"Grace"}})

	assert.Equal(t, `INSERT INTO "users" ("name") VALUES ($1), ($2) RETURNING *`, sql)
	assert.Equal(t, []any{"Ada", "Grace"}, args)
}

func TestBuildUpdate(t *testing.T) {
	sql, args := BuildUpdate(dbschema.DialectPostgres, usersTable(),
		[]string{"name"}, []any{"Ada"}, "id", int64(7))

	assert.Equal(t, `UPDATE "users" SET "name" = $1 WHERE "id" = $2 RETURNING *`, sql)
	assert.Equal(t, []any{"Ada", int64(7)}, args)
}

func TestBuildDelete(t *testing.T) {
	sql, args := BuildDelete(dbschema.DialectMySQL, usersTable(), "id", int64(7))

	assert.Equal(t, "DELETE FROM `users` WHERE `id` = ?", sql)
	assert.Equal(t, []any{int64(7)}, args)
}

func TestBuildGet(t *testing.T) {
	sql, args := BuildGet(dbschema.DialectPostgres, usersTable(), "id", int64(7))

	assert.Equal(t, `SELECT * FROM "users" WHERE "id" = $1`, sql)
	assert.Equal(t, []any{int64(7)}, args)
}
