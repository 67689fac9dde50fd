package apigen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"apiforge/internal/crud"
	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
	"apiforge/internal/filestore"
	"apiforge/internal/query"
)

// buildRoutes assembles the full data-plane route table for a snapshot:
// CRUD routes per table, optional upload routes, and the metadata routes.
func buildRoutes(exec *crud.Executor, schema *dbschema.DatabaseSchema, cfg Config, files filestore.Store) []Route {
	var routes []Route
	for i := range schema.Tables {
		table := &schema.Tables[i]
		routes = append(routes, buildTableRoutes(exec, table, cfg)...)
		if cfg.EnableFileUploads && files != nil {
			routes = append(routes, fileRoutes(files, table.Name)...)
		}
	}
	routes = append(routes, metaRoutes(schema)...)
	return routes
}

func buildTableRoutes(exec *crud.Executor, table *dbschema.TableInfo, cfg Config) []Route {
	name := table.Name
	routes := []Route{
		newRoute(http.MethodGet, "/"+name,
			"List "+name+" records with filtering and pagination",
			listHandler(exec, table)),
		newRoute(http.MethodPost, "/"+name,
			"Create a "+name+" record",
			createHandler(exec, name)),
	}

	if cfg.EnableBulkOperations {
		routes = append(routes, newRoute(http.MethodPost, "/"+name+"/bulk",
			"Create multiple "+name+" records in one statement",
			bulkCreateHandler(exec, name)))
	}

	// Single-record routes exist even for tables without a primary key;
	// the executor answers them with a schema error.
	routes = append(routes,
		newRoute(http.MethodGet, "/"+name+"/{id}",
			"Fetch a "+name+" record by primary key",
			getHandler(exec, name)),
		newRoute(http.MethodPut, "/"+name+"/{id}",
			"Update a "+name+" record by primary key",
			updateHandler(exec, name)),
		newRoute(http.MethodPatch, "/"+name+"/{id}",
			"Partially update a "+name+" record by primary key",
			updateHandler(exec, name)),
		newRoute(http.MethodDelete, "/"+name+"/{id}",
			"Delete a "+name+" record by primary key",
			deleteHandler(exec, name)),
	)
	return routes
}

func metaRoutes(schema *dbschema.DatabaseSchema) []Route {
	return []Route{
		newRoute(http.MethodGet, "/meta/schema",
			"Full introspected schema snapshot",
			func(context.Context, *Request) (*Response, error) {
				return &Response{Status: http.StatusOK, Body: schema}, nil
			}),
		newRoute(http.MethodGet, "/meta/tables",
			"Per-table summaries for the snapshot",
			func(context.Context, *Request) (*Response, error) {
				tables := make([]map[string]any, len(schema.Tables))
				for i := range schema.Tables {
					t := &schema.Tables[i]
					tables[i] = map[string]any{
						"name":            t.Name,
						"column_count":    len(t.Columns),
						"has_primary_key": t.HasPrimaryKey(),
						"comment":         t.Comment,
					}
				}
				return &Response{Status: http.StatusOK, Body: map[string]any{
					"tables": tables,
					"count":  len(tables),
				}}, nil
			}),
	}
}

func listHandler(exec *crud.Executor, table *dbschema.TableInfo) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		filters, err := query.ParseFilters(req.Query, table)
		if err != nil {
			return nil, err
		}

		res, err := exec.List(ctx, table.Name, crud.ListOptions{
			Filters:   filters,
			Order:     req.Query.Get("order"),
			OrderDesc: strings.EqualFold(req.Query.Get("order_direction"), "desc"),
			Limit:     intParam(req.Query, "limit"),
			Offset:    intParam(req.Query, "offset"),
		})
		if err != nil {
			return nil, err
		}

		return &Response{Status: http.StatusOK, Body: map[string]any{
			"data":   res.Data,
			"count":  len(res.Data),
			"total":  res.Total,
			"limit":  res.Limit,
			"offset": res.Offset,
		}}, nil
	}
}

func getHandler(exec *crud.Executor, table string) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		row, err := exec.Get(ctx, table, req.Params["id"])
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, Body: row}, nil
	}
}

func createHandler(exec *crud.Executor, table string) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		payload, err := decodeObject(req.Body)
		if err != nil {
			return nil, err
		}
		row, err := exec.Create(ctx, table, payload)
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusCreated, Body: row}, nil
	}
}

func bulkCreateHandler(exec *crud.Executor, table string) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		payloads, err := decodeArray(req.Body)
		if err != nil {
			return nil, err
		}
		rows, count, err := exec.BulkCreate(ctx, table, payloads)
		if err != nil {
			return nil, err
		}
		body := map[string]any{"inserted": count}
		if rows != nil {
			body["data"] = rows
		}
		return &Response{Status: http.StatusCreated, Body: body}, nil
	}
}

func updateHandler(exec *crud.Executor, table string) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		payload, err := decodeObject(req.Body)
		if err != nil {
			return nil, err
		}
		row, err := exec.Update(ctx, table, req.Params["id"], payload)
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, Body: row}, nil
	}
}

func deleteHandler(exec *crud.Executor, table string) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		row, err := exec.Delete(ctx, table, req.Params["id"])
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, Body: map[string]any{
			"deleted": row,
		}}, nil
	}
}

// decodeObject parses a JSON object body. An empty body and a non-object
// body are validation failures, not parse panics deeper in the stack.
func decodeObject(body []byte) (map[string]any, error) {
	if len(body) == 0 {
		return nil, errs.New(errs.ErrKindValidation, "request body must not be empty")
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errs.New(errs.ErrKindValidation, "request body is not a JSON object")
	}
	return payload, nil
}

// decodeArray parses a JSON array-of-objects body.
func decodeArray(body []byte) ([]map[string]any, error) {
	if len(body) == 0 {
		return nil, errs.New(errs.ErrKindValidation, "request body must not be empty")
	}
	var payloads []map[string]any
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, errs.New(errs.ErrKindValidation, "request body is not a JSON array of objects")
	}
	return payloads, nil
}

// intParam reads an integer query parameter, treating absent or
// malformed values as zero; pagination clamping supplies the defaults.
func intParam(q url.Values, key string) int {
	v := q.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
