package apigen

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiforge/internal/database/dbtest"
	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
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
		},
	}
}

func testArtifact(t *testing.T, db *dbtest.FakeDB, cfg Config) *Artifact {
	t.Helper()
	art, err := AssembleArtifact("acme", db, testSchema(), cfg, nil)
	require.NoError(t, err)
	return art
}

func call(t *testing.T, art *Artifact, method, path string, q url.Values, body []byte) (*Response, error) {
	t.Helper()
	route, params, ok := art.Match(method, path)
	require.True(t, ok, "no route for %s %s", method, path)
	if q == nil {
		q = url.Values{}
	}
	return route.handler(context.Background(), &Request{
		TenantID: art.TenantID,
		Method:   method,
		Path:     path,
		Params:   params,
		Query:    q,
		Body:     body,
	})
}

func TestMatch_BindsPathParams(t *testing.T) {
	art := testArtifact(t, dbtest.New(), Config{})

	route, params, ok := art.Match(http.MethodGet, "/users/42")
	require.True(t, ok)
	assert.Equal(t, "/users/{id}", route.Pattern)
	assert.Equal(t, map[string]string{"id": "42"}, params)

	// Method participates in matching.
	_, _, ok = art.Match(http.MethodPost, "/users/42")
	assert.False(t, ok)

	// Trailing slash does not change the route.
	_, _, ok = art.Match(http.MethodGet, "/users/42/")
	assert.True(t, ok)

	_, _, ok = art.Match(http.MethodGet, "/unknown")
	assert.False(t, ok)
}

func TestListHandler_Envelope(t *testing.T) {
	db := dbtest.New().
		OnRows("select count(*)", []string{"count"}, []any{int64(57)}).
		OnRows("select * from", []string{"id", "name"}, []any{int64(1), "Ada"})

	art := testArtifact(t, db, Config{})

	q := url.Values{}
	q.Set("name.like", "Ad")
	q.Set("limit", "10")
	resp, err := call(t, art, http.MethodGet, "/users", q, nil)
	require.NoError(t, err)

	body := resp.Body.(map[string]any)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1, body["count"])
	assert.Equal(t, int64(57), body["total"])
	assert.Equal(t, 10, body["limit"])
	assert.Equal(t, 0, body["offset"])

	calls := db.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].SQL, `"name" LIKE $1`)
	assert.Equal(t, []any{"%Ad%"}, calls[1].Args)
}

func TestCreateHandler(t *testing.T) {
	db := dbtest.New().
		OnRows("insert into", []string{"id", "name", "email"},
			[]any{int64(1), "Ada", nil})

	art := testArtifact(t, db, Config{})

	resp, err := call(t, art, http.MethodPost, "/users", nil, []byte(`{"name":"Ada"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)

	row := resp.Body.(map[string]any)
	assert.Equal(t, int64(1), row["id"])
}

func TestCreateHandler_EmptyBodyRejected(t *testing.T) {
	art := testArtifact(t, dbtest.New(), Config{})

	_, err := call(t, art, http.MethodPost, "/users", nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	_, err = call(t, art, http.MethodPost, "/users", nil, []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestUpdateHandler_NotFoundPassesThrough(t *testing.T) {
	db := dbtest.New().OnRows("update", []string{"id"})

	art := testArtifact(t, db, Config{})
	_, err := call(t, art, http.MethodPatch, "/users/9", nil, []byte(`{"name":"X"}`))
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteHandler_ReturnsDeletedRow(t *testing.T) {
	db := dbtest.New().
		OnRows("delete from", []string{"id", "name"}, []any{int64(9), "Ada"})

	art := testArtifact(t, db, Config{})
	resp, err := call(t, art, http.MethodDelete, "/users/9", nil, nil)
	require.NoError(t, err)

	body := resp.Body.(map[string]any)
	deleted := body["deleted"].(map[string]any)
	assert.Equal(t, "Ada", deleted["name"])
}

func TestBulkRoute_GatedByConfig(t *testing.T) {
	art := testArtifact(t, dbtest.New(), Config{})
	_, _, ok := art.Match(http.MethodPost, "/users/bulk")
	assert.False(t, ok, "bulk route absent unless enabled")

	db := dbtest.New().
		OnRows("insert into", []string{"id", "name"},
			[]any{int64(1), "Ada"}, []any{int64(2), "Grace"})
	art = testArtifact(t, db, Config{EnableBulkOperations: true})

	resp, err := call(t, art, http.MethodPost, "/users/bulk", nil,
		[]byte(`[{"name":"Ada"},{"name":"Grace"}]`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)

	body := resp.Body.(map[string]any)
	assert.Equal(t, int64(2), body["inserted"])
}

func TestMetaRoutes(t *testing.T) {
	art := testArtifact(t, dbtest.New(), Config{})

	resp, err := call(t, art, http.MethodGet, "/meta/tables", nil, nil)
	require.NoError(t, err)
	body := resp.Body.(map[string]any)
	tables := body["tables"].([]map[string]any)
	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0]["name"])
	assert.Equal(t, 3, tables[0]["column_count"])
	assert.Equal(t, true, tables[0]["has_primary_key"])

	resp, err = call(t, art, http.MethodGet, "/meta/schema", nil, nil)
	require.NoError(t, err)
	schema := resp.Body.(*dbschema.DatabaseSchema)
	assert.Equal(t, "appdb", schema.DatabaseName)
}

func TestArtifactStatusAndEndpoints(t *testing.T) {
	art := testArtifact(t, dbtest.New(), Config{})

	st := art.Status()
	assert.Equal(t, "acme", st.TenantID)
	assert.Equal(t, "postgres", st.Dialect)
	assert.Equal(t, 1, st.TableCount)
	assert.Equal(t, len(art.Routes), st.RouteCount)
	assert.Equal(t, "first_column", st.PKStrategy)
	assert.False(t, st.GeneratedAt.IsZero())

	eps := art.Endpoints()
	assert.Len(t, eps, len(art.Routes))
	assert.Equal(t, http.MethodGet, eps[0].Method)
	assert.Equal(t, "/users", eps[0].Path)
}

func TestArtifactRateLimit(t *testing.T) {
	art := testArtifact(t, dbtest.New(), Config{})
	assert.True(t, art.Allow(), "no configured limit always admits")

	art = testArtifact(t, dbtest.New(), Config{RateLimitPerMinute: 2})
	assert.True(t, art.Allow())
	assert.True(t, art.Allow())
	assert.False(t, art.Allow(), "burst exhausted within the same instant")
}

func TestConfigNormalized(t *testing.T) {
	cfg := Config{}.normalized()
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 1000, cfg.MaxPageSize)

	cfg = Config{DefaultPageSize: 500, MaxPageSize: 100}.normalized()
	assert.Equal(t, 100, cfg.DefaultPageSize, "default never exceeds max")
}

func TestArtifactClose(t *testing.T) {
	db := dbtest.New()
	art := testArtifact(t, db, Config{})
	art.Close()
	assert.True(t, db.Closed)
}
