// Package introspect extracts a normalized dbschema.DatabaseSchema from a
// live database. Each dialect implements the catalog interface with its
// own information_schema queries; the orchestration is shared.
//
// Introspection is all-or-nothing: a failure on any table aborts the whole
// pass. Downstream generators assume a complete snapshot, so a partially
// introspected schema is never returned.
package introspect

import (
	"context"

	"apiforge/internal/database"
	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

// tableMeta is the per-table row returned by catalog.listTables.
type tableMeta struct {
	name    string
	comment string
}

// catalog is the set of dialect-specific catalog queries.
type catalog interface {
	// databaseInfo returns the database name, server version, and charset.
	databaseInfo(ctx context.Context, db database.DB) (name, version, charset string, err error)

	// listTables returns all base tables in the default namespace with
	// their comments, ordered by name. Views and system catalogs excluded.
	listTables(ctx context.Context, db database.DB) ([]tableMeta, error)

	// columns returns column metadata ordered by physical position.
	columns(ctx context.Context, db database.DB, table string) ([]dbschema.ColumnInfo, error)

	// primaryKey returns the PK column names in key order.
	primaryKey(ctx context.Context, db database.DB, table string) ([]string, error)

	// foreignKeys returns FK relationships with their referential actions.
	foreignKeys(ctx context.Context, db database.DB, table string) ([]dbschema.ForeignKey, error)
}

func catalogFor(dialect dbschema.Dialect) catalog {
	if dialect == dbschema.DialectMySQL {
		return mysqlCatalog{}
	}
	return pgCatalog{}
}

// Introspect builds the full schema snapshot for the given connection.
// Fails with ErrKindConnectionFailed when the database is unreachable and
// ErrKindIntrospection when catalog queries fail or no base tables exist.
func Introspect(ctx context.Context, db database.DB, dialect dbschema.Dialect) (*dbschema.DatabaseSchema, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "database unreachable", err)
	}

	cat := catalogFor(dialect)

	name, version, charset, err := cat.databaseInfo(ctx, db)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIntrospection, "failed to read database info", err)
	}

	tables, err := cat.listTables(ctx, db)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIntrospection, "failed to list tables", err)
	}
	if len(tables) == 0 {
		return nil, errs.New(errs.ErrKindIntrospection, "database has no base tables")
	}

	schema := &dbschema.DatabaseSchema{
		DatabaseName: name,
		Dialect:      dialect,
		Version:      version,
		Charset:      charset,
		Tables:       make([]dbschema.TableInfo, 0, len(tables)),
	}

	for _, tm := range tables {
		ti, err := introspectTable(ctx, db, cat, tm)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindIntrospection, "failed to introspect table "+tm.name, err)
		}
		schema.Tables = append(schema.Tables, *ti)
	}

	return schema, nil
}

func introspectTable(ctx context.Context, db database.DB, cat catalog, tm tableMeta) (*dbschema.TableInfo, error) {
	cols, err := cat.columns(ctx, db, tm.name)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errs.Newf(errs.ErrKindIntrospection, "table %q has no columns", tm.name)
	}

	pk, err := cat.primaryKey(ctx, db, tm.name)
	if err != nil {
		return nil, err
	}

	fks, err := cat.foreignKeys(ctx, db, tm.name)
	if err != nil {
		return nil, err
	}

	pkSet := make(map[string]bool, len(pk))
	for _, name := range pk {
		pkSet[name] = true
	}
	for i := range cols {
		if pkSet[cols[i].Name] {
			cols[i].IsPrimaryKey = true
		}
	}

	return &dbschema.TableInfo{
		Name:        tm.name,
		Columns:     cols,
		PrimaryKey:  pk,
		ForeignKeys: fks,
		Comment:     tm.comment,
	}, nil
}
