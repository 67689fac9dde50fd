package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiforge/internal/database"
	"apiforge/internal/database/dbtest"
	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
	"apiforge/internal/query"
)

func pgSchema() *dbschema.DatabaseSchema {
	return &dbschema.DatabaseSchema{
		DatabaseName: "appdb",
		Dialect:      dbschema.DialectPostgres,
		Tables:       []dbschema.TableInfo{*usersTable(), *logsTable()},
	}
}

func mysqlSchema() *dbschema.DatabaseSchema {
	s := pgSchema()
	s.Dialect = dbschema.DialectMySQL
	return s
}

// logsTable has no primary key, so single-record operations must fail.
func logsTable() *dbschema.TableInfo {
	return &dbschema.TableInfo{
		Name: "logs",
		Columns: []dbschema.ColumnInfo{
			{Name: "message", Type: dbschema.TypeString},
		},
	}
}

func newExec(db database.DB, schema *dbschema.DatabaseSchema) *Executor {
	return NewExecutor(db, schema, 20, 1000)
}

func TestList_DataAndCountShareFilters(t *testing.T) {
	db := dbtest.New().
		OnRows("select count(*)", []string{"count"}, []any{int64(42)}).
		OnRows("select * from", []string{"id", "name"}, []any{int64(1), "Ada"})

	exec := newExec(db, pgSchema())
	res, err := exec.List(context.Background(), "users", ListOptions{
		Filters: []query.FilterClause{{Field: "name", Op: query.OpEq, Values: []any{"Ada"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.Total)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Ada", res.Data[0]["name"])
	assert.Equal(t, 20, res.Limit, "default page size applied")
	assert.Equal(t, 0, res.Offset)

	calls := db.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].SQL, `WHERE "name" = $1`)
	assert.Contains(t, calls[1].SQL, `WHERE "name" = $1`)
	assert.Equal(t, []any{"Ada"}, calls[1].Args, "count carries the same binds")
}

func TestList_ClampsPageSize(t *testing.T) {
	db := dbtest.New().
		OnRows("select count(*)", []string{"count"}, []any{int64(0)}).
		OnRows("select * from", []string{"id"})

	exec := newExec(db, pgSchema())
	res, err := exec.List(context.Background(), "users", ListOptions{Limit: 5000, Offset: -3})
	require.NoError(t, err)

	assert.Equal(t, 1000, res.Limit)
	assert.Equal(t, 0, res.Offset)
}

func TestList_UnknownTable(t *testing.T) {
	exec := newExec(dbtest.New(), pgSchema())
	_, err := exec.List(context.Background(), "nope", ListOptions{})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestGet_CoercesID(t *testing.T) {
	db := dbtest.New().
		OnRows("select * from", []string{"id", "name"}, []any{int64(7), "Ada"})

	exec := newExec(db, pgSchema())
	row, err := exec.Get(context.Background(), "users", "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), row["id"])

	calls := db.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []any{int64(7)}, calls[0].Args, "path id bound as integer")

	_, err = exec.Get(context.Background(), "users", "seven")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestGet_MissingRowIsNotFound(t *testing.T) {
	db := dbtest.New().OnRows("select * from", []string{"id"})

	exec := newExec(db, pgSchema())
	_, err := exec.Get(context.Background(), "users", "7")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestGet_NoPrimaryKeyIsSchemaError(t *testing.T) {
	exec := newExec(dbtest.New(), pgSchema())
	_, err := exec.Get(context.Background(), "logs", "1")
	require.Error(t, err)
	assert.True(t, errs.IsSchema(err))
}

func TestCreate_PostgresReturning(t *testing.T) {
	db := dbtest.New().
		OnRows("insert into", []string{"id", "name", "email", "created_at"},
			[]any{int64(1), "Ada", nil, "2026-08-23T10:00:00Z"})

	exec := newExec(db, pgSchema())
	row, err := exec.Create(context.Background(), "users", map[string]any{"name": "Ada"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), row["id"], "server-assigned id comes back")
	assert.Equal(t, "2026-08-23T10:00:00Z", row["created_at"], "defaulted column comes back")

	calls := db.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SQL, "RETURNING *")
}

func TestCreate_MySQLFollowUpRead(t *testing.T) {
	db := dbtest.New().
		OnExec("insert into", database.ExecResult{RowsAffected: 1, LastInsertID: 9}).
		OnRows("select * from", []string{"id", "name"}, []any{int64(9), "Ada"})

	exec := newExec(db, mysqlSchema())
	row, err := exec.Create(context.Background(), "users", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), row["id"])

	calls := db.Calls()
	require.Len(t, calls, 2)
	assert.NotContains(t, calls[0].SQL, "RETURNING")
	assert.Equal(t, []any{int64(9)}, calls[1].Args, "read-back uses the generated id")
}

func TestCreate_EmptyPayloadRejected(t *testing.T) {
	exec := newExec(dbtest.New(), pgSchema())
	_, err := exec.Create(context.Background(), "users", map[string]any{})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestBulkCreate_SingleStatement(t *testing.T) {
	db := dbtest.New().
		OnRows("insert into", []string{"id", "name"},
			[]any{int64(1), "Ada"}, []any{int64(2), "Grace"})

	exec := newExec(db, pgSchema())
	rows, count, err := exec.BulkCreate(context.Background(), "users", []map[string]any{
		{"name": "Ada"},
		{"name": "Grace"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, rows, 2)

	calls := db.Calls()
	require.Len(t, calls, 1, "all rows travel in one statement")
	assert.Contains(t, calls[0].SQL, "($1), ($2)")
}

func TestBulkCreate_MismatchedFieldsRejected(t *testing.T) {
	exec := newExec(dbtest.New(), pgSchema())
	_, _, err := exec.BulkCreate(context.Background(), "users", []map[string]any{
		{"name": "Ada"},
		{"name": "Grace", "email": "g@example.com"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestUpdate_PostgresMissingRowIsNotFound(t *testing.T) {
	db := dbtest.New().OnRows("update", []string{"id"})

	exec := newExec(db, pgSchema())
	_, err := exec.Update(context.Background(), "users", "7", map[string]any{"name": "Ada"})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestUpdate_MySQLReadsBack(t *testing.T) {
	db := dbtest.New().
		OnExec("update", database.ExecResult{RowsAffected: 0}).
		OnRows("select * from", []string{"id", "name"}, []any{int64(7), "Ada"})

	exec := newExec(db, mysqlSchema())
	row, err := exec.Update(context.Background(), "users", "7", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", row["name"],
		"zero affected rows with an existing row still returns the row")
}

func TestDelete_PostgresReturnsPriorRow(t *testing.T) {
	db := dbtest.New().
		OnRows("delete from", []string{"id", "name"}, []any{int64(7), "Ada"})

	exec := newExec(db, pgSchema())
	row, err := exec.Delete(context.Background(), "users", "7")
	require.NoError(t, err)
	assert.Equal(t, "Ada", row["name"])
}

func TestDelete_MySQLSelectsThenDeletes(t *testing.T) {
	db := dbtest.New().
		OnRows("select * from", []string{"id", "name"}, []any{int64(7), "Ada"}).
		OnExec("delete from", database.ExecResult{RowsAffected: 1})

	exec := newExec(db, mysqlSchema())
	row, err := exec.Delete(context.Background(), "users", "7")
	require.NoError(t, err)
	assert.Equal(t, "Ada", row["name"])

	calls := db.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].SQL, "SELECT")
	assert.Contains(t, calls[1].SQL, "DELETE")
}

func TestDelete_MySQLMissingRowIsNotFound(t *testing.T) {
	db := dbtest.New().
		OnRows("select * from", []string{"id"}).
		OnExec("delete from", database.ExecResult{})

	exec := newExec(db, mysqlSchema())
	_, err := exec.Delete(context.Background(), "users", "7")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	require.Len(t, db.Calls(), 1, "no DELETE issued for a missing row")
}
