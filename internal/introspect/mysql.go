package introspect

import (
	"context"
	"strings"

	"apiforge/internal/database"
	"apiforge/internal/dbschema"
)

// mysqlCatalog implements catalog for the mysql dialect family.
// In MySQL the schema is the database itself, so all queries filter on
// table_schema = DATABASE().
type mysqlCatalog struct{}

func (mysqlCatalog) databaseInfo(ctx context.Context, db database.DB) (string, string, string, error) {
	var name, version string
	if err := db.QueryRow(ctx, `SELECT DATABASE(), VERSION()`).Scan(&name, &version); err != nil {
		return "", "", "", err
	}

	const charsetQ = `
		SELECT default_character_set_name
		FROM information_schema.schemata
		WHERE schema_name = DATABASE()`

	var charset string
	if err := db.QueryRow(ctx, charsetQ).Scan(&charset); err != nil {
		return "", "", "", err
	}
	return name, version, charset, nil
}

func (mysqlCatalog) listTables(ctx context.Context, db database.DB) ([]tableMeta, error) {
	const q = `
		SELECT table_name,
		       COALESCE(table_comment, '')
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

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

func (mysqlCatalog) columns(ctx context.Context, db database.DB, table string) ([]dbschema.ColumnInfo, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES',
		       column_default,
		       character_maximum_length,
		       extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
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
			extra      string
		)
		if err := rows.Scan(&col.Name, &col.RawType, &col.Nullable, &defaultVal, &maxLen, &extra); err != nil {
			return nil, err
		}

		col.Type = dbschema.MapType(col.RawType)
		col.DefaultValue = defaultVal
		col.MaxLength = maxLen
		col.IsAutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")

		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (mysqlCatalog) primaryKey(ctx context.Context, db database.DB, table string) ([]string, error) {
	const q = `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema    = DATABASE()
		  AND table_name      = ?
		  AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`

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

func (mysqlCatalog) foreignKeys(ctx context.Context, db database.DB, table string) ([]dbschema.ForeignKey, error) {
	const q = `
		SELECT kcu.column_name,
		       kcu.referenced_table_name,
		       kcu.referenced_column_name,
		       rc.delete_rule,
		       rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name   = kcu.constraint_name
		 AND rc.constraint_schema = kcu.table_schema
		WHERE kcu.table_schema = DATABASE()
		  AND kcu.table_name   = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name`

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
