package introspect

import (
	"context"
	"strings"

	"apiforge/internal/database"
	"apiforge/internal/dbschema"
)

// pgCatalog implements catalog for the postgres dialect family using
// information_schema plus pg_catalog for table comments.
type pgCatalog struct{}

func (pgCatalog) databaseInfo(ctx context.Context, db database.DB) (string, string, string, error) {
	const q = `
		SELECT current_database(),
		       version(),
		       pg_encoding_to_char(encoding)
		FROM pg_database
		WHERE datname = current_database()`

	var name, version, charset string
	if err := db.QueryRow(ctx, q).Scan(&name, &version, &charset); err != nil {
		return "", "", "", err
	}
	return name, version, charset, nil
}

func (pgCatalog) listTables(ctx context.Context, db database.DB) ([]tableMeta, error) {
	const q = `
		SELECT c.relname,
		       COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = 'public'
		  AND c.relkind = 'r'
		ORDER BY c.relname`

	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []tableMeta
	for rows.Next() {
		var tm tableMeta
		if err := rows.Scan(&tm.name, &tm.comment); err != nil {
			return nil, err
		}
		tables = append(tables, tm)
	}
	return tables, rows.Err()
}

func (pgCatalog) columns(ctx context.Context, db database.DB, table string) ([]dbschema.ColumnInfo, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES',
		       column_default,
		       character_maximum_length,
		       is_identity = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name   = $1
		ORDER BY ordinal_position`

	rows, err := db.Query(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []dbschema.ColumnInfo
	for rows.Next() {
		var (
			col        dbschema.ColumnInfo
			defaultVal *string
			maxLen     *int
			isIdentity bool
		)
		if err := rows.Scan(&col.Name, &col.RawType, &col.Nullable, &defaultVal, &maxLen, &isIdentity); err != nil {
			return nil, err
		}

		col.Type = dbschema.MapType(col.RawType)
		col.DefaultValue = defaultVal
		col.MaxLength = maxLen
		// serial/bigserial columns carry a nextval() default instead of
		// an identity flag; both count as auto-increment.
		col.IsAutoIncrement = isIdentity ||
			(defaultVal != nil && strings.HasPrefix(*defaultVal, "nextval("))

		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (pgCatalog) primaryKey(ctx context.Context, db database.DB, table string) ([]string, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema    = 'public'
		  AND tc.table_name      = $1
		ORDER BY kcu.ordinal_position`

	rows, err := db.Query(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		pk = append(pk, name)
	}
	return pk, rows.Err()
}

func (pgCatalog) foreignKeys(ctx context.Context, db database.DB, table string) ([]dbschema.ForeignKey, error) {
	const q = `
		SELECT kcu.column_name,
		       ccu.table_name  AS ref_table,
		       ccu.column_name AS ref_column,
		       rc.delete_rule,
		       rc.update_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name
		 AND ccu.table_schema    = tc.table_schema
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name  = tc.constraint_name
		 AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema    = 'public'
		  AND tc.table_name      = $1
		ORDER BY tc.constraint_name`

	rows, err := db.Query(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []dbschema.ForeignKey
	for rows.Next() {
		var fk dbschema.ForeignKey
		var onDelete, onUpdate string
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn, &onDelete, &onUpdate); err != nil {
			return nil, err
		}
		fk.OnDelete = dbschema.ParseFKRule(onDelete)
		fk.OnUpdate = dbschema.ParseFKRule(onUpdate)
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
