package graphqlgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiforge/internal/crud"
	"apiforge/internal/database"
	"apiforge/internal/database/dbtest"
	"apiforge/internal/dbschema"
)

func testSchema() *dbschema.DatabaseSchema {
	return &dbschema.DatabaseSchema{
		DatabaseName: "appdb",
		Dialect:      dbschema.DialectPostgres,
		Tables: []dbschema.TableInfo{
			{
				Name: "users",
				Columns: []dbschema.ColumnInfo{
					{Name: "id", Type: dbschema.TypeInteger, IsPrimaryKey: true, IsAutoIncrement: true},
					{Name: "name", Type: dbschema.TypeString},
					{Name: "email", Type: dbschema.TypeString, Nullable: true},
				},
				PrimaryKey: []string{"id"},
			},
			{
				// No primary key: list query only, no mutations.
				Name: "audit_logs",
				Columns: []dbschema.ColumnInfo{
					{Name: "message", Type: dbschema.TypeString},
				},
			},
		},
	}
}

func buildArtifact(t *testing.T, db database.DB) *Artifact {
	t.Helper()
	exec := crud.NewExecutor(db, testSchema(), 20, 1000)
	art, err := Build(exec)
	require.NoError(t, err)
	return art
}

func TestBuild_ListQuery(t *testing.T) {
	db := dbtest.New().
		OnRows("select count(*)", []string{"count"}, []any{int64(2)}).
		OnRows("select * from", []string{"id", "name", "email"},
			[]any{int64(1), "Ada", nil},
			[]any{int64(2), "Grace", "g@example.com"})

	art := buildArtifact(t, db)
	res := art.Execute(context.Background(), `{ userss(limit: 10) { id name email } }`, nil, "")
	require.Empty(t, res.Errors)

	data := res.Data.(map[string]interface{})
	users := data["userss"].([]interface{})
	require.Len(t, users, 2)

	first := users[0].(map[string]interface{})
	assert.Equal(t, "Ada", first["name"])
	assert.Nil(t, first["email"])
}

func TestBuild_SingleQueryByPrimaryKey(t *testing.T) {
	db := dbtest.New().
		OnRows("select * from", []string{"id", "name", "email"},
			[]any{int64(7), "Ada", nil})

	art := buildArtifact(t, db)
	res := art.Execute(context.Background(), `{ users(id: 7) { name } }`, nil, "")
	require.Empty(t, res.Errors)

	data := res.Data.(map[string]interface{})
	user := data["users"].(map[string]interface{})
	assert.Equal(t, "Ada", user["name"])

	calls := db.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []any{int64(7)}, calls[0].Args, "pk argument travels as a bind value")
}

func TestBuild_SingleQueryMissingRowIsNull(t *testing.T) {
	db := dbtest.New().OnRows("select * from", []string{"id"})

	art := buildArtifact(t, db)
	res := art.Execute(context.Background(), `{ users(id: 7) { name } }`, nil, "")

	require.Empty(t, res.Errors, "a missing row is null data, not an error")
	data := res.Data.(map[string]interface{})
	assert.Nil(t, data["users"])
}

func TestBuild_CreateMutationSharesExecutionPath(t *testing.T) {
	db := dbtest.New().
		OnRows("insert into", []string{"id", "name", "email"},
			[]any{int64(1), "Ada", nil})

	art := buildArtifact(t, db)
	res := art.Execute(context.Background(),
		`mutation { createUser(input: {name: "Ada"}) { id name } }`, nil, "")
	require.Empty(t, res.Errors)

	data := res.Data.(map[string]interface{})
	created := data["createUser"].(map[string]interface{})
	assert.Equal(t, "Ada", created["name"])

	calls := db.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SQL, `INSERT INTO "users"`)
	assert.Contains(t, calls[0].SQL, "RETURNING *")
	assert.Equal(t, []any{"Ada"}, calls[0].Args)
}

func TestBuild_UpdateMutation(t *testing.T) {
	db := dbtest.New().
		OnRows("update", []string{"id", "name", "email"},
			[]any{int64(7), "Grace", nil})

	art := buildArtifact(t, db)
	res := art.Execute(context.Background(),
		`mutation { updateUser(id: 7, set: {name: "Grace"}) { name } }`, nil, "")
	require.Empty(t, res.Errors)

	data := res.Data.(map[string]interface{})
	updated := data["updateUser"].(map[string]interface{})
	assert.Equal(t, "Grace", updated["name"])
}

func TestBuild_DeleteMutationReturnsPriorRow(t *testing.T) {
	db := dbtest.New().
		OnRows("delete from", []string{"id", "name", "email"},
			[]any{int64(7), "Ada", nil})

	art := buildArtifact(t, db)
	res := art.Execute(context.Background(),
		`mutation { deleteUser(id: 7) { id name } }`, nil, "")
	require.Empty(t, res.Errors)

	data := res.Data.(map[string]interface{})
	deleted := data["deleteUser"].(map[string]interface{})
	assert.Equal(t, "Ada", deleted["name"])
}

func TestBuild_ValidationErrorCarriesCode(t *testing.T) {
	art := buildArtifact(t, dbtest.New())
	res := art.Execute(context.Background(),
		`mutation { updateUser(id: 7, set: {name: "x", email: "y"}) { name } }`, nil, "")

	// The fake returns an empty update result set, which maps to null.
	require.Empty(t, res.Errors)

	res = art.Execute(context.Background(),
		`{ userss(order: "nope") { id } }`, nil, "")
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "validation_error", res.Errors[0].Extensions["code"])
}

func TestBuild_QueryFieldNaming(t *testing.T) {
	art := buildArtifact(t, dbtest.New())

	// The list field is the table name plus "s"; the by-primary-key
	// field is the table name itself.
	queryType := art.Schema.QueryType()
	assert.Contains(t, queryType.Fields(), "userss")
	assert.Contains(t, queryType.Fields(), "users")
	assert.Contains(t, queryType.Fields(), "audit_logss")
}

func TestBuild_TablesWithoutPrimaryKeyGetListAndCreate(t *testing.T) {
	db := dbtest.New().
		OnRows("select count(*)", []string{"count"}, []any{int64(0)}).
		OnRows("select * from", []string{"message"}).
		OnRows("insert into", []string{"message"}, []any{"deploy"})

	art := buildArtifact(t, db)

	res := art.Execute(context.Background(), `{ audit_logss { message } }`, nil, "")
	require.Empty(t, res.Errors)

	// Creation needs no key, so the mutation exists without one.
	res = art.Execute(context.Background(),
		`mutation { createAuditLog(input: {message: "deploy"}) { message } }`, nil, "")
	require.Empty(t, res.Errors)
	data := res.Data.(map[string]interface{})
	created := data["createAuditLog"].(map[string]interface{})
	assert.Equal(t, "deploy", created["message"])

	// Update and delete address rows by key and stay absent.
	res = art.Execute(context.Background(),
		`mutation { deleteAuditLog(message: "x") { message } }`, nil, "")
	assert.NotEmpty(t, res.Errors, "delete needs a primary key")
}

func TestRenderSDL(t *testing.T) {
	sdl := renderSDL(testSchema())

	assert.Contains(t, sdl, "type User {")
	assert.Contains(t, sdl, "id: Int!")
	assert.Contains(t, sdl, "email: String\n")
	assert.Contains(t, sdl, "input CreateUserInput {")
	assert.Contains(t, sdl, "name: String!")
	assert.Contains(t, sdl, "userss(limit: Int, offset: Int, order: String, order_direction: String): [User]")
	assert.Contains(t, sdl, "users(id: Int!): User")
	assert.Contains(t, sdl, "createUser(input: CreateUserInput!): User")
	assert.Contains(t, sdl, "createAuditLog(input: CreateAuditLogInput!): AuditLog")
	assert.NotContains(t, sdl, "deleteAuditLog",
		"update and delete need a primary key")

	// The create input never carries the auto-increment id.
	assert.NotContains(t, sdl, "CreateUserInput {\n  id")
}
