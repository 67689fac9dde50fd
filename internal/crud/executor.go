package crud

import (
	"context"

	"apiforge/internal/database"
	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
	"apiforge/internal/query"
)

// Executor runs generated CRUD operations against one tenant database.
// It is safe for concurrent use: all state is immutable after construction
// and the DB interface is a pool.
type Executor struct {
	db     database.DB
	schema *dbschema.DatabaseSchema

	defaultPageSize int
	maxPageSize     int
}

// NewExecutor builds an Executor over an introspected schema snapshot.
func NewExecutor(db database.DB, schema *dbschema.DatabaseSchema, defaultPageSize, maxPageSize int) *Executor {
	return &Executor{
		db:              db,
		schema:          schema,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Schema returns the snapshot this executor was generated from.
func (e *Executor) Schema() *dbschema.DatabaseSchema { return e.schema }

// table resolves a table name against the snapshot.
func (e *Executor) table(name string) (*dbschema.TableInfo, error) {
	t := e.schema.Table(name)
	if t == nil {
		return nil, errs.Newf(errs.ErrKindNotFound, "unknown table %q", name)
	}
	return t, nil
}

// pkColumn returns the addressable primary-key column for the table.
// Tables without a primary key cannot serve single-record operations.
func pkColumn(t *dbschema.TableInfo) (*dbschema.ColumnInfo, error) {
	col := t.PrimaryKeyColumn()
	if col == nil {
		return nil, errs.Newf(errs.ErrKindSchema,
			"table %q has no primary key; single-record operations are unavailable", t.Name)
	}
	return col, nil
}

// coerceID converts a path-segment id into a bind value of the PK's type.
func coerceID(col *dbschema.ColumnInfo, rawID string) (any, error) {
	id, err := dbschema.CoerceString(col.Type, rawID)
	if err != nil {
		return nil, errs.Newf(errs.ErrKindValidation, "invalid id: %v", err)
	}
	return id, nil
}

// ListOptions carries the parsed list parameters. Limit and Offset are
// clamped by the executor, not the caller.
type ListOptions struct {
	Filters   []query.FilterClause
	Order     string
	OrderDesc bool
	Limit     int
	Offset    int
}

// ListResult is one page of rows plus the unpaginated total, both computed
// over the same filter snapshot.
type ListResult struct {
	Data   []map[string]any
	Total  int64
	Limit  int
	Offset int
}

// List returns a filtered, ordered page of rows and the total count of
// rows matching the same filters.
func (e *Executor) List(ctx context.Context, tableName string, opts ListOptions) (*ListResult, error) {
	t, err := e.table(tableName)
	if err != nil {
		return nil, err
	}

	limit, offset := query.ClampPage(opts.Limit, opts.Offset, e.defaultPageSize, e.maxPageSize)

	dataSQL, countSQL, dataArgs, countArgs, err := query.BuildList(e.schema.Dialect, query.ListSpec{
		Table:     t,
		Filters:   opts.Filters,
		Order:     opts.Order,
		OrderDesc: opts.OrderDesc,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, err
	}

	rows, err := e.db.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, err
	}
	data, err := database.ScanRows(rows)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := e.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	return &ListResult{Data: data, Total: total, Limit: limit, Offset: offset}, nil
}

// Get returns the row addressed by rawID via the table's primary key.
func (e *Executor) Get(ctx context.Context, tableName, rawID string) (map[string]any, error) {
	t, err := e.table(tableName)
	if err != nil {
		return nil, err
	}
	pk, err := pkColumn(t)
	if err != nil {
		return nil, err
	}
	id, err := coerceID(pk, rawID)
	if err != nil {
		return nil, err
	}
	return e.getByID(ctx, t, pk.Name, id)
}

func (e *Executor) getByID(ctx context.Context, t *dbschema.TableInfo, pkName string, id any) (map[string]any, error) {
	sql, args := query.BuildGet(e.schema.Dialect, t, pkName, id)
	rows, err := e.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return database.ScanOneRow(rows)
}

// Create validates payload against the table's create contract, inserts
// the row, and returns the full stored row including server-assigned
// values. Postgres reads it back via RETURNING; MySQL uses the generated
// id (or the supplied primary key) for a follow-up read.
func (e *Executor) Create(ctx context.Context, tableName string, payload map[string]any) (map[string]any, error) {
	t, err := e.table(tableName)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errs.New(errs.ErrKindValidation, "payload must not be empty")
	}

	contracts := BuildContracts(t)
	columns, values, err := validatePayload(t, contracts.Create, payload, true)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, errs.New(errs.ErrKindValidation, "payload must not be empty")
	}

	sql, args := query.BuildInsert(e.schema.Dialect, t, columns, values)

	if e.schema.Dialect == dbschema.DialectPostgres {
		rows, err := e.db.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		return database.ScanOneRow(rows)
	}

	res, err := e.db.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	pk := t.PrimaryKeyColumn()
	switch {
	case pk != nil && pk.IsAutoIncrement && res.LastInsertID > 0:
		return e.getByID(ctx, t, pk.Name, res.LastInsertID)
	case pk != nil:
		if id, ok := rowValue(columns, values, pk.Name); ok {
			return e.getByID(ctx, t, pk.Name, id)
		}
	}
	// No key to read back with. Echo the validated payload.
	echoed := make(map[string]any, len(columns))
	for i, c := range columns {
		echoed[c] = values[i]
	}
	return echoed, nil
}

// BulkCreate inserts all payloads in one multi-row statement, so either
// every row is stored or none is. All rows must carry the same field set.
// Postgres returns the inserted rows; MySQL returns only the count.
func (e *Executor) BulkCreate(ctx context.Context, tableName string, payloads []map[string]any) ([]map[string]any, int64, error) {
	t, err := e.table(tableName)
	if err != nil {
		return nil, 0, err
	}
	if len(payloads) == 0 {
		return nil, 0, errs.New(errs.ErrKindValidation, "payload must contain at least one record")
	}

	contracts := BuildContracts(t)

	var (
		columns []string
		rows    [][]any
	)
	for i, payload := range payloads {
		cols, vals, err := validatePayload(t, contracts.Create, payload, true)
		if err != nil {
			return nil, 0, errs.Newf(errs.ErrKindValidation, "record %d: %v", i, errs.PublicMessage(err))
		}
		if i == 0 {
			if len(cols) == 0 {
				return nil, 0, errs.New(errs.ErrKindValidation, "payload must not be empty")
			}
			columns = cols
		} else if !sameColumns(columns, cols) {
			return nil, 0, errs.Newf(errs.ErrKindValidation,
				"record %d: all records must supply the same fields", i)
		}
		rows = append(rows, vals)
	}

	sql, args := query.BuildBulkInsert(e.schema.Dialect, t, columns, rows)

	if e.schema.Dialect == dbschema.DialectPostgres {
		res, err := e.db.Query(ctx, sql, args...)
		if err != nil {
			return nil, 0, err
		}
		inserted, err := database.ScanRows(res)
		if err != nil {
			return nil, 0, err
		}
		return inserted, int64(len(inserted)), nil
	}

	res, err := e.db.Exec(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return nil, res.RowsAffected, nil
}

// Update applies a partial update to the row addressed by rawID and
// returns the resulting row. A missing row is a not-found error.
func (e *Executor) Update(ctx context.Context, tableName, rawID string, payload map[string]any) (map[string]any, error) {
	t, err := e.table(tableName)
	if err != nil {
		return nil, err
	}
	pk, err := pkColumn(t)
	if err != nil {
		return nil, err
	}
	id, err := coerceID(pk, rawID)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errs.New(errs.ErrKindValidation, "payload must not be empty")
	}

	contracts := BuildContracts(t)
	columns, values, err := validatePayload(t, contracts.Update, payload, false)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, errs.New(errs.ErrKindValidation, "payload must not be empty")
	}

	sql, args := query.BuildUpdate(e.schema.Dialect, t, columns, values, pk.Name, id)

	if e.schema.Dialect == dbschema.DialectPostgres {
		rows, err := e.db.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		return database.ScanOneRow(rows)
	}

	// MySQL reports zero affected rows both for a missing row and for an
	// update that changed nothing, so existence comes from the read-back.
	if _, err := e.db.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	if newID, ok := rowValue(columns, values, pk.Name); ok {
		id = newID
	}
	return e.getByID(ctx, t, pk.Name, id)
}

// Delete removes the row addressed by rawID and returns the deleted row.
func (e *Executor) Delete(ctx context.Context, tableName, rawID string) (map[string]any, error) {
	t, err := e.table(tableName)
	if err != nil {
		return nil, err
	}
	pk, err := pkColumn(t)
	if err != nil {
		return nil, err
	}
	id, err := coerceID(pk, rawID)
	if err != nil {
		return nil, err
	}

	sql, args := query.BuildDelete(e.schema.Dialect, t, pk.Name, id)

	if e.schema.Dialect == dbschema.DialectPostgres {
		rows, err := e.db.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		return database.ScanOneRow(rows)
	}

	// MySQL has no DELETE ... RETURNING; capture the row first.
	prior, err := e.getByID(ctx, t, pk.Name, id)
	if err != nil {
		return nil, err
	}
	if _, err := e.db.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	return prior, nil
}

func rowValue(columns []string, values []any, name string) (any, bool) {
	for i, c := range columns {
		if c == name {
			return values[i], true
		}
	}
	return nil, false
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
